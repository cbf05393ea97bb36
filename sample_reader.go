// sample_reader.go - Loop-aware interpolated stereo sample read-out
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import "math"

// readSample produces one stereo pair at a fractional read position.
// Position arithmetic is float64 throughout; sample arithmetic is float32.
//
// Preconditions: framePos in [0, numFrames); if loop is non-nil it has been
// normalised. A position outside the buffer is a contract breach upstream -
// the pair is zeroed and the caller kills the voice.
func readSample(buf *SampleBuffer, loop *Loop, flags VoiceFlags, framePos float64) (float32, float32) {
	return readSampleRec(buf, loop, flags, framePos, false)
}

func readSampleRec(buf *SampleBuffer, loop *Loop, flags VoiceFlags, framePos float64, recurse bool) (float32, float32) {
	numFrames := buf.numFrames
	if framePos < 0 || framePos >= float64(numFrames) {
		return 0, 0
	}

	i := int(framePos)
	x := framePos - float64(i)

	// Neighbour order follows the traversal direction so the kernel always
	// sees taps in playback order.
	var xm1, x0, x1, x2 int
	if flags.reversed() {
		x = 1 - x
		xm1, x0, x1, x2 = i+1, i, i-1, i-2
	} else {
		xm1, x0, x1, x2 = i-1, i, i+1, i+2
	}

	inLoop := loop != nil && flags.inLoopingRegion()
	xm1 = wrapNeighbour(xm1, numFrames, loop, inLoop)
	x0 = wrapNeighbour(x0, numFrames, loop, inLoop)
	x1 = wrapNeighbour(x1, numFrames, loop, inLoop)
	x2 = wrapNeighbour(x2, numFrames, loop, inLoop)

	var l, r float32
	if buf.channels == 1 {
		v := hermite4(float32(x), buf.data[xm1], buf.data[x0], buf.data[x1], buf.data[x2])
		l, r = v, v
	} else {
		var w [4]float32
		lagrangeWeights(float32(x), &w)
		d := buf.data
		l = w[0]*d[xm1*2] + w[1]*d[x0*2] + w[2]*d[x1*2] + w[3]*d[x2*2]
		r = w[0]*d[xm1*2+1] + w[1]*d[x0*2+1] + w[2]*d[x1*2+1] + w[3]*d[x2*2+1]
	}

	// Equal-power crossfade near loop boundaries. The mirror read is depth-1
	// only: a recursive call never crossfades again.
	if !recurse && loop != nil && loop.Crossfade > 0 {
		cf := float64(loop.Crossfade)
		start := float64(loop.Start)
		end := float64(loop.End)
		forward := !flags.reversed()

		if !loop.PingPong {
			if framePos >= end-cf && framePos < end &&
				(forward || flags&VOICE_LOOPED_MANY != 0) {
				mirror := (start - cf) + (framePos - (end - cf))
				t := (framePos - (end - cf)) / cf
				ml, mr := readSampleRec(buf, loop, flags, mirror, true)
				l, r = crossfadeMix(l, r, ml, mr, t)
			}
		} else if flags&VOICE_LOOPED_MANY != 0 {
			if forward && framePos >= start && framePos <= start+cf {
				mirror := start - (framePos - start)
				t := 1 - (framePos-start)/cf
				ml, mr := readSampleRec(buf, loop, flags|VOICE_REVERSED, mirror, true)
				l, r = crossfadeMix(l, r, ml, mr, t)
			} else if !forward && framePos >= end-cf && framePos <= end {
				mirror := end + (end - framePos)
				t := 1 - (end-framePos)/cf
				ml, mr := readSampleRec(buf, loop, flags&^VOICE_REVERSED, mirror, true)
				l, r = crossfadeMix(l, r, ml, mr, t)
			}
		}
	}

	return l, r
}

// wrapNeighbour maps a kernel tap index back into valid material.
//
//   - ping-pong inside the looping region: taps reflect inward off the
//     window edges (the top edge reflects end to end-1)
//   - plain loop inside the looping region with no crossfade: taps wrap,
//     below zero by +end and past the end back to the start side
//   - everything else (not looping yet, or a crossfaded plain loop where
//     the fade already hides the seam): taps clamp to the buffer
func wrapNeighbour(idx, numFrames int, loop *Loop, inLoop bool) int {
	if inLoop {
		if loop.PingPong {
			if idx < loop.Start {
				idx = loop.Start + (loop.Start - idx)
			}
			if idx >= loop.End {
				idx = loop.End - 1 - (idx - loop.End)
			}
		} else if loop.Crossfade == 0 {
			if idx < 0 {
				idx += loop.End
			}
			if idx >= loop.End {
				idx -= loop.End - loop.Start
			}
		}
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= numFrames {
		idx = numFrames - 1
	}
	return idx
}

// hermite4 is a 4-point cubic Hermite (Catmull-Rom) kernel. At x=0 it
// returns s0 exactly and it reproduces constants exactly.
func hermite4(x, sm1, s0, s1, s2 float32) float32 {
	c1 := 0.5 * (s1 - sm1)
	c2 := sm1 - 2.5*s0 + 2*s1 - 0.5*s2
	c3 := 0.5*(s2-sm1) + 1.5*(s0-s1)
	return ((c3*x+c2)*x+c1)*x + s0
}

// lagrangeWeights fills the 4-lane coefficient vector of the cubic Lagrange
// kernel at fraction x. The lanes are computed together so both stereo
// channels share one weight evaluation; at x=0 the vector is the identity
// (0,1,0,0).
func lagrangeWeights(x float32, w *[4]float32) {
	xp1 := x + 1
	xm1 := x - 1
	xm2 := x - 2
	w[0] = -x * xm1 * xm2 * (1.0 / 6.0)
	w[1] = xp1 * xm1 * xm2 * 0.5
	w[2] = -xp1 * x * xm2 * 0.5
	w[3] = xp1 * x * xm1 * (1.0 / 6.0)
}

// crossfadeMix blends the primary and mirror reads with equal-power gains.
func crossfadeMix(l, r, ml, mr float32, t float64) (float32, float32) {
	g0 := float32(math.Sqrt(1 - t))
	g1 := float32(math.Sqrt(t))
	return l*g0 + ml*g1, r*g0 + mr*g1
}
