// sample_select.go - Region selection and velocity feathering
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

// SelectRegions returns every region of the instrument whose trigger matches
// the event under the given round-robin counter. All matches are emitted;
// the voice mixer runs them in parallel.
func SelectRegions(inst *Instrument, ev NoteEvent, rrCounter int) []*Region {
	return appendMatchedRegions(nil, inst, ev, rrCounter)
}

// appendMatchedRegions is the allocation-aware form of SelectRegions: it
// appends the matches to dst so the engine can reuse a scratch slice on the
// audio callback path.
func appendMatchedRegions(dst []*Region, inst *Instrument, ev NoteEvent, rrCounter int) []*Region {
	for _, r := range inst.Regions {
		if r.Trigger.Matches(ev, rrCounter, inst.maxRRPos) {
			dst = append(dst, r)
		}
	}
	return dst
}

// FeatherPolicy computes the constant gain a voice starts with when its
// region overlaps other matched regions on the velocity axis. The gain is
// fixed at note-on for the lifetime of the voice.
type FeatherPolicy func(region *Region, matched []*Region, velocity uint8) float32

// linearFeather is the default policy: where two matched regions overlap in
// velocity, the region whose range sits lower fades out linearly across the
// overlap and the higher one fades in, so a velocity sweep hands over
// smoothly instead of doubling energy.
func linearFeather(region *Region, matched []*Region, velocity uint8) float32 {
	if !region.Options.Feather {
		return 1.0
	}
	gain := float32(1.0)
	rv := region.Trigger.Velocities
	for _, other := range matched {
		if other == region {
			continue
		}
		ov := other.Trigger.Velocities
		lo := maxU8(rv.Lo, ov.Lo)
		hi := minU8(rv.Hi, ov.Hi)
		if lo >= hi || velocity < lo || velocity >= hi {
			continue
		}
		t := (float32(velocity) - float32(lo)) / float32(hi-lo)
		if rv.Hi >= ov.Hi {
			// This region extends above the other: fade in upwards.
			gain *= t
		} else {
			gain *= 1 - t
		}
	}
	return gain
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}
