// sample_voice.go - Per-voice playback state and position advance
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import "math"

// VoiceFlags is the playback-mode bitfield. The three bits are independent:
// during the first pass through a ping-pong loop a voice can be reversed
// while still in its first loop, so the flags must never collapse into one
// enum.
type VoiceFlags uint8

const (
	VOICE_REVERSED    VoiceFlags = 1 << iota // traversing the buffer backwards
	VOICE_FIRST_LOOP                         // inside the loop window, first pass
	VOICE_LOOPED_MANY                        // wrapped at least once
)

// inLoopingRegion is true once the read position has entered the loop
// window, whether or not it has wrapped yet.
func (f VoiceFlags) inLoopingRegion() bool {
	return f&(VOICE_FIRST_LOOP|VOICE_LOOPED_MANY) != 0
}

func (f VoiceFlags) reversed() bool { return f&VOICE_REVERSED != 0 }

// Voice is one active sounding instance of a region. Voices live in the
// engine's fixed pool; none of their state allocates.
type Voice struct {
	framePos   float64 // fractional absolute frame index
	pitchRatio float64 // output frames per source frame, > 0
	flags      VoiceFlags

	buf    *SampleBuffer
	loop   *Loop
	region *Region

	gainL float32
	gainR float32

	key      uint8
	velocity uint8
	active   bool
	released bool   // external release latched at block boundaries
	age      uint64 // engine tick at note-on, for steal ordering
}

// advance moves the read position one output frame and applies the loop
// transitions. It returns false once the voice has run off the buffer with
// no loop to bring it back.
//
// The transitions apply in a fixed order - enter, then wrap - and a single
// step may fire both: a large pitch ratio can carry the position across the
// loop start and past the loop end in one advance, and the wrap must still
// pull it back inside. Entry is never re-tested after a wrap, so a ping-pong
// direction toggle cannot put the voice back into its first loop.
func (v *Voice) advance(loop *Loop, numFrames int) bool {
	forward := !v.flags.reversed()
	if forward {
		v.framePos += v.pitchRatio
	} else {
		v.framePos -= v.pitchRatio
	}

	if loop != nil {
		start := float64(loop.Start)
		end := float64(loop.End)

		if !v.flags.inLoopingRegion() {
			if forward && v.framePos >= start {
				v.flags |= VOICE_FIRST_LOOP
			} else if !forward && v.framePos < end {
				v.flags |= VOICE_FIRST_LOOP
			}
		}

		if v.flags.inLoopingRegion() {
			if forward && v.framePos >= end {
				v.flags &^= VOICE_FIRST_LOOP
				v.flags |= VOICE_LOOPED_MANY
				if loop.PingPong {
					// The divisor is end, not end-start: kept for
					// bit-compatible playback with existing libraries.
					v.framePos = end - math.Mod(v.framePos-end, end)
					v.flags ^= VOICE_REVERSED
				} else {
					v.framePos = start + (v.framePos - end)
				}
			} else if !forward && v.framePos < start {
				v.flags &^= VOICE_FIRST_LOOP
				v.flags |= VOICE_LOOPED_MANY
				if loop.PingPong {
					v.framePos = start + math.Mod(start-v.framePos, end)
					v.flags ^= VOICE_REVERSED
				} else {
					v.framePos = end - (start - v.framePos)
				}
			}
		}
	}

	return v.framePos >= 0 && v.framePos < float64(numFrames)
}

// pitchRatioFor maps a key distance from the region root to a playback
// ratio, folding in any rate difference between the source material and the
// engine's output rate.
func pitchRatioFor(key, rootKey uint8, bufRate, outRate int) float64 {
	semitones := float64(int(key) - int(rootKey))
	ratio := math.Pow(2, semitones/12)
	if bufRate > 0 && outRate > 0 && bufRate != outRate {
		ratio *= float64(bufRate) / float64(outRate)
	}
	return ratio
}
