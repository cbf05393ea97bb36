// sample_region.go - Region metadata, trigger criteria and note events
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

// EventKind distinguishes the two musical events a region can trigger on.
type EventKind uint8

const (
	EVENT_NOTE_ON EventKind = iota
	EVENT_NOTE_OFF
)

// NoteEvent is one incoming musical event, already quantised to a block
// frame boundary by the host.
type NoteEvent struct {
	Kind     EventKind
	Key      uint8 // 0..127
	Velocity uint8 // 0..127
}

// MidiRange is a half-open interval [Lo, Hi) over 0..127 values.
type MidiRange struct {
	Lo uint8
	Hi uint8
}

func (r MidiRange) Contains(v uint8) bool { return v >= r.Lo && v < r.Hi }

// Width is the span of the range; used by the feather policy.
func (r MidiRange) Width() int { return int(r.Hi) - int(r.Lo) }

// FullMidiRange admits every 0..127 value.
func FullMidiRange() MidiRange { return MidiRange{Lo: 0, Hi: 128} }

const RR_NONE = -1 // round-robin index absent: region matches every cycle

// Trigger is the matching criteria of one region.
type Trigger struct {
	Event      EventKind
	Keys       MidiRange
	Velocities MidiRange
	RoundRobin int // RR_NONE or the cycle position this region answers to
}

// Matches reports whether an event fires this trigger given the owning
// instrument's round-robin state.
func (t Trigger) Matches(ev NoteEvent, rrCounter, maxRRPos int) bool {
	if t.Event != ev.Kind {
		return false
	}
	if !t.Keys.Contains(ev.Key) || !t.Velocities.Contains(ev.Velocity) {
		return false
	}
	if t.RoundRobin == RR_NONE {
		return true
	}
	if maxRRPos <= 0 {
		return true
	}
	return t.RoundRobin == rrCounter%maxRRPos
}

// RegionOptions carries the playback shaping switches that are fixed at
// library load.
type RegionOptions struct {
	TimbreCrossfade *MidiRange // optional key window blended with a neighbour timbre
	Feather         bool       // attenuate where velocity ranges overlap
}

// Region describes one sample's role inside an instrument. Regions are
// immutable after library load; they reference their buffer but never own
// it.
type Region struct {
	Buffer  BufferRef
	RootKey uint8
	Loop    *Loop // normalised at load; nil plays one-shot
	Trigger Trigger
	Options RegionOptions

	// buf is the resolved buffer, pinned for the library's lifetime by the
	// loader so the render path never touches the table.
	buf *SampleBuffer
}

// Instrument is an immutable region list plus its round-robin geometry.
type Instrument struct {
	Name     string
	Regions  []*Region
	maxRRPos int
}

// NewInstrument computes the round-robin cycle length from the regions that
// declare an index: positions 0..max form one cycle.
func NewInstrument(name string, regions []*Region) *Instrument {
	maxRR := 0
	for _, r := range regions {
		if r.Trigger.RoundRobin != RR_NONE && r.Trigger.RoundRobin+1 > maxRR {
			maxRR = r.Trigger.RoundRobin + 1
		}
	}
	return &Instrument{Name: name, Regions: regions, maxRRPos: maxRR}
}

func (inst *Instrument) MaxRRPos() int { return inst.maxRRPos }
