// sample_loop.go - Loop window resolution and validation
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import "fmt"

// LoopSpec is the loop description as it arrives from library metadata.
// Negative frame indices count from the end of the buffer: -1 means
// numFrames, -2 means numFrames-1, and so on.
type LoopSpec struct {
	StartFrame      int
	EndFrame        int
	CrossfadeFrames int
	PingPong        bool
}

// Loop is the absolute, clamped, validated window the voice engine runs on.
// Invariants after NormaliseLoop: 0 <= Start < End <= numFrames, and
// Crossfade respects the clamp rules below.
type Loop struct {
	Start     int
	End       int
	Crossfade int
	PingPong  bool
}

func (l Loop) Frames() int { return l.End - l.Start }

// smallestLoop is the minimum permitted loop length for a buffer: a
// thousandth of the material, floored at MIN_LOOP_FRAMES.
func smallestLoop(numFrames int) int {
	s := numFrames / LOOP_FRACTION_OF_BUF
	if s < MIN_LOOP_FRAMES {
		s = MIN_LOOP_FRAMES
	}
	return s
}

// NormaliseLoop resolves a LoopSpec against a buffer length. It is pure and
// produces identical output on every platform.
//
// Resolution order: negative indices are translated from the end, both ends
// are clamped into [0, numFrames], a too-small window is widened towards the
// end (preserving the user's start point), and finally the crossfade is
// clamped so mirror reads stay inside material that exists:
//
//	plain:     crossfade <= min(End-Start, Start)
//	ping-pong: crossfade <= min(Start, numFrames-End, End-Start)
//
// A window that is still empty or inverted after all of that is unusable;
// the caller drops the loop and the region plays one-shot.
func NormaliseLoop(spec LoopSpec, numFrames int) (Loop, error) {
	if numFrames <= 0 {
		return Loop{}, fmt.Errorf("loop: buffer has %d frames", numFrames)
	}
	smallest := smallestLoop(numFrames)

	start := spec.StartFrame
	if start < 0 {
		start = numFrames + 1 + start
		if start < 0 {
			start = 0
		}
	} else if start > numFrames {
		start = numFrames
	}

	end := spec.EndFrame
	if end < 0 {
		end = numFrames + 1 + end
		if end < 0 {
			end = 0
		}
	} else if end > numFrames {
		end = numFrames
	}

	// Widen a too-small window towards the buffer end rather than moving
	// the start the user picked.
	if start+smallest > end {
		end += smallest
		if end > numFrames {
			end = numFrames
		}
	}

	if start >= end {
		return Loop{}, fmt.Errorf("loop: empty window [%d, %d) after normalisation", start, end)
	}

	cf := spec.CrossfadeFrames
	if cf < 0 {
		cf = 0
	}
	if spec.PingPong {
		if cf > start {
			cf = start
		}
		if cf > numFrames-end {
			cf = numFrames - end
		}
	} else {
		if cf > start {
			cf = start
		}
	}
	if cf > end-start {
		cf = end - start
	}

	return Loop{Start: start, End: end, Crossfade: cf, PingPong: spec.PingPong}, nil
}
