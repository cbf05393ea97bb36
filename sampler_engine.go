// sampler_engine.go - Voice pool and block renderer
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"fmt"
	"sync"
)

// ScheduledEvent pairs a note event with its frame offset inside the next
// render block. The host delivers events already quantised to block frames.
type ScheduledEvent struct {
	FrameOffset int
	Event       NoteEvent
}

// SamplerEngine renders active voices into stereo blocks. Voice rendering is
// strictly single-threaded on the backend's pull path; the mutex only
// serialises the control plane (event scheduling, library swaps) against
// block boundaries. Nothing in the render loop allocates: voices come from
// the fixed pool and the free list is pre-sized.
type SamplerEngine struct {
	mutex      sync.Mutex
	enabled    bool
	sampleRate int
	masterGain float32

	library    *Library
	instrument *Instrument
	rrCounter  int
	feather    FeatherPolicy

	voices   [MAX_VOICES]Voice
	freeList []int
	tick     uint64

	pending []ScheduledEvent
	// matchScratch is reused by applyEventLocked so region selection never
	// allocates inside RenderBlock. Capacity is set when a library loads.
	matchScratch []*Region

	output   AudioOutput
	scratchL []float32
	scratchR []float32
}

// NewSamplerEngine builds an engine wired to the requested audio backend.
func NewSamplerEngine(backend int) (*SamplerEngine, error) {
	e := &SamplerEngine{
		sampleRate: DEFAULT_SAMPLE_RATE,
		masterGain: 1.0,
		feather:    linearFeather,
		freeList:   make([]int, 0, MAX_VOICES),
		pending:    make([]ScheduledEvent, 0, MAX_VOICES),
		scratchL:   make([]float32, DEFAULT_BLOCK_SIZE),
		scratchR:   make([]float32, DEFAULT_BLOCK_SIZE),
	}
	for i := MAX_VOICES - 1; i >= 0; i-- {
		e.freeList = append(e.freeList, i)
	}

	output, err := NewAudioOutput(backend, e.sampleRate, e)
	if err != nil {
		return nil, err
	}
	e.output = output
	return e, nil
}

func (e *SamplerEngine) SampleRate() int { return e.sampleRate }

// SetFeatherPolicy swaps the velocity-overlap gain policy. Passing nil
// restores the linear default.
func (e *SamplerEngine) SetFeatherPolicy(p FeatherPolicy) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if p == nil {
		p = linearFeather
	}
	e.feather = p
}

func (e *SamplerEngine) SetMasterGain(g float32) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.masterGain = g
}

// SetLibrary swaps the active library. All voices are killed first so no
// voice outlives the buffers it reads.
func (e *SamplerEngine) SetLibrary(lib *Library) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.killAllVoicesLocked()
	e.library = lib
	e.instrument = nil
	e.rrCounter = 0
	if lib != nil && len(lib.Instruments) > 0 {
		e.instrument = lib.Instruments[0]
	}
	maxRegions := 0
	if lib != nil {
		for _, inst := range lib.Instruments {
			if len(inst.Regions) > maxRegions {
				maxRegions = len(inst.Regions)
			}
		}
	}
	e.matchScratch = make([]*Region, 0, maxRegions)
}

// SetInstrument selects the named instrument from the active library.
func (e *SamplerEngine) SetInstrument(name string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.library == nil {
		return fmt.Errorf("engine: no library loaded")
	}
	for _, inst := range e.library.Instruments {
		if inst.Name == name {
			e.killAllVoicesLocked()
			e.instrument = inst
			e.rrCounter = 0
			return nil
		}
	}
	return fmt.Errorf("engine: no instrument %q in library %q", name, e.library.Name)
}

// ScheduleEvent queues an event for the next block at the given frame
// offset. Offsets are clamped into the block by the render loop.
func (e *SamplerEngine) ScheduleEvent(frameOffset int, ev NoteEvent) error {
	if frameOffset < 0 {
		return fmt.Errorf("engine: negative frame offset %d", frameOffset)
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	// Insertion keeps pending sorted by offset so the render loop walks it
	// once.
	i := len(e.pending)
	for i > 0 && e.pending[i-1].FrameOffset > frameOffset {
		i--
	}
	e.pending = append(e.pending, ScheduledEvent{})
	copy(e.pending[i+1:], e.pending[i:])
	e.pending[i] = ScheduledEvent{FrameOffset: frameOffset, Event: ev}
	return nil
}

func (e *SamplerEngine) NoteOn(key, velocity uint8) {
	_ = e.ScheduleEvent(0, NoteEvent{Kind: EVENT_NOTE_ON, Key: key, Velocity: velocity})
}

func (e *SamplerEngine) NoteOff(key, velocity uint8) {
	_ = e.ScheduleEvent(0, NoteEvent{Kind: EVENT_NOTE_OFF, Key: key, Velocity: velocity})
}

// LibraryName reports the active library; control-plane only.
func (e *SamplerEngine) LibraryName() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.library == nil {
		return ""
	}
	return e.library.Name
}

// ActiveVoices counts live voices; control-plane only.
func (e *SamplerEngine) ActiveVoices() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// RenderBlock sums every active voice into the caller's stereo block. The
// two slices must be the same length. All error conditions inside the block
// degrade to silence or voice termination; nothing propagates out.
func (e *SamplerEngine) RenderBlock(outL, outR []float32) {
	for i := range outL {
		outL[i] = 0
		outR[i] = 0
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.enabled {
		e.pending = e.pending[:0]
		return
	}

	// External release requests are latched once per block.
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.released {
			e.freeVoiceLocked(i)
		}
	}

	blockLen := len(outL)
	evIdx := 0
	for f := 0; f < blockLen; f++ {
		for evIdx < len(e.pending) && e.pending[evIdx].FrameOffset <= f {
			e.applyEventLocked(e.pending[evIdx].Event)
			evIdx++
		}

		for i := range e.voices {
			v := &e.voices[i]
			if !v.active {
				continue
			}
			numFrames := v.buf.numFrames
			if v.framePos < 0 || v.framePos >= float64(numFrames) {
				// Contract breach: silence the frame, kill the voice.
				e.freeVoiceLocked(i)
				continue
			}
			l, r := readSample(v.buf, v.loop, v.flags, v.framePos)
			outL[f] += l * v.gainL * e.masterGain
			outR[f] += r * v.gainR * e.masterGain
			if !v.advance(v.loop, numFrames) {
				e.freeVoiceLocked(i)
			}
		}
		e.tick++
	}

	for ; evIdx < len(e.pending); evIdx++ {
		e.applyEventLocked(e.pending[evIdx].Event)
	}
	e.pending = e.pending[:0]
}

// RenderInterleaved fills an interleaved stereo buffer (L, R per frame).
// Used by the pull-mode audio backends.
func (e *SamplerEngine) RenderInterleaved(dst []float32) {
	frames := len(dst) / 2
	done := 0
	for done < frames {
		n := frames - done
		if n > DEFAULT_BLOCK_SIZE {
			n = DEFAULT_BLOCK_SIZE
		}
		e.RenderBlock(e.scratchL[:n], e.scratchR[:n])
		for i := 0; i < n; i++ {
			dst[(done+i)*2] = e.scratchL[i]
			dst[(done+i)*2+1] = e.scratchR[i]
		}
		done += n
	}
}

func (e *SamplerEngine) applyEventLocked(ev NoteEvent) {
	inst := e.instrument
	if inst == nil {
		return
	}
	switch ev.Kind {
	case EVENT_NOTE_ON:
		e.matchScratch = appendMatchedRegions(e.matchScratch[:0], inst, ev, e.rrCounter)
		for _, region := range e.matchScratch {
			e.startVoiceLocked(region, e.matchScratch, ev)
		}
		e.rrCounter++
	case EVENT_NOTE_OFF:
		for i := range e.voices {
			v := &e.voices[i]
			if v.active && v.key == ev.Key {
				v.released = true
			}
		}
		e.matchScratch = appendMatchedRegions(e.matchScratch[:0], inst, ev, e.rrCounter)
		for _, region := range e.matchScratch {
			e.startVoiceLocked(region, e.matchScratch, ev)
		}
	}
}

func (e *SamplerEngine) startVoiceLocked(region *Region, matched []*Region, ev NoteEvent) {
	if region.buf == nil {
		return
	}
	var slot int
	if n := len(e.freeList); n > 0 {
		slot = e.freeList[n-1]
		e.freeList = e.freeList[:n-1]
	} else {
		slot = e.stealVoiceLocked()
	}

	gain := (float32(ev.Velocity) / 127.0) * e.feather(region, matched, ev.Velocity)
	e.voices[slot] = Voice{
		framePos:   0,
		pitchRatio: pitchRatioFor(ev.Key, region.RootKey, region.buf.sampleRate, e.sampleRate),
		buf:        region.buf,
		loop:       region.Loop,
		region:     region,
		gainL:      gain,
		gainR:      gain,
		key:        ev.Key,
		velocity:   ev.Velocity,
		active:     true,
		age:        e.tick,
	}
}

// stealVoiceLocked picks the victim when the pool is exhausted: the quietest
// voice, oldest first among equals. Note-on never fails.
func (e *SamplerEngine) stealVoiceLocked() int {
	victim := 0
	for i := 1; i < MAX_VOICES; i++ {
		v := &e.voices[i]
		best := &e.voices[victim]
		if v.gainL < best.gainL || (v.gainL == best.gainL && v.age < best.age) {
			victim = i
		}
	}
	e.voices[victim].active = false
	return victim
}

func (e *SamplerEngine) freeVoiceLocked(i int) {
	if !e.voices[i].active {
		return
	}
	e.voices[i].active = false
	e.voices[i].released = false
	e.freeList = append(e.freeList, i)
}

func (e *SamplerEngine) killAllVoicesLocked() {
	e.freeList = e.freeList[:0]
	for i := MAX_VOICES - 1; i >= 0; i-- {
		e.voices[i].active = false
		e.voices[i].released = false
		e.freeList = append(e.freeList, i)
	}
}

func (e *SamplerEngine) Start() {
	e.mutex.Lock()
	e.enabled = true
	e.mutex.Unlock()
	if e.output != nil {
		e.output.Start()
	}
}

func (e *SamplerEngine) Stop() {
	e.mutex.Lock()
	e.enabled = false
	e.mutex.Unlock()
	if e.output != nil {
		e.output.Stop()
		e.output.Close()
	}
}
