// sample_buffer.go - Immutable decoded PCM buffers and the generation-tagged buffer table
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// SampleBuffer holds one decoded recording. Samples are interleaved
// frame-major, channel-minor float32. Buffers are immutable once built and
// may be read concurrently by the audio and GUI threads.
type SampleBuffer struct {
	data       []float32
	channels   int
	sampleRate int
	numFrames  int
	hash       uint64
}

// NewSampleBuffer validates and wraps decoded PCM. Only mono and stereo
// material reaches the voice engine; anything else is rejected at load time.
func NewSampleBuffer(channels, sampleRate int, data []float32) (*SampleBuffer, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("sample buffer: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample buffer: invalid sample rate %d", sampleRate)
	}
	if len(data) == 0 || len(data)%channels != 0 {
		return nil, fmt.Errorf("sample buffer: %d samples not divisible into %d channels", len(data), channels)
	}
	buf := &SampleBuffer{
		data:       data,
		channels:   channels,
		sampleRate: sampleRate,
		numFrames:  len(data) / channels,
	}
	buf.hash = hashSamples(channels, sampleRate, data)
	return buf, nil
}

func (b *SampleBuffer) Channels() int   { return b.channels }
func (b *SampleBuffer) SampleRate() int { return b.sampleRate }
func (b *SampleBuffer) NumFrames() int  { return b.numFrames }

// Hash is a stable identity key for the decoded contents. Identical file
// contents hash identically across runs and platforms; the host uses it as
// an external cache key.
func (b *SampleBuffer) Hash() uint64 { return b.hash }

// At returns the sample at the given frame for the given channel. The render
// path indexes b.data directly; this accessor serves the offline paths.
func (b *SampleBuffer) At(frame, channel int) float32 {
	return b.data[frame*b.channels+channel]
}

// hashSamples computes FNV-1a over the bit patterns of the samples plus the
// layout metadata. Bit patterns rather than formatted values keep the hash
// independent of printf rounding.
func hashSamples(channels, sampleRate int, data []float32) uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[0:4], uint32(channels))
	binary.LittleEndian.PutUint32(scratch[4:8], uint32(sampleRate))
	h.Write(scratch[:])
	for _, s := range data {
		binary.LittleEndian.PutUint32(scratch[0:4], math.Float32bits(s))
		h.Write(scratch[0:4])
	}
	return h.Sum64()
}

// BufferRef is a weak handle into a BufferTable. A ref resolves only while
// its generation matches the slot, so unload/reload cycles never hand a
// voice somebody else's buffer.
type BufferRef struct {
	index int
	gen   uint32
}

type bufferSlot struct {
	buf  *SampleBuffer
	gen  uint32
	pins atomic.Int32
}

// BufferTable owns published buffers on behalf of a library. Readers borrow
// by ref and pin the slot; unload refuses while any pin is live, which is
// how the host guarantees buffers outlive the voices reading them.
type BufferTable struct {
	mu    sync.RWMutex
	slots []*bufferSlot
}

func NewBufferTable() *BufferTable {
	return &BufferTable{}
}

// Publish installs a buffer and returns its handle.
func (t *BufferTable) Publish(buf *SampleBuffer) BufferRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, slot := range t.slots {
		if slot.buf == nil && slot.pins.Load() == 0 {
			slot.buf = buf
			slot.gen++
			return BufferRef{index: i, gen: slot.gen}
		}
	}
	slot := &bufferSlot{buf: buf, gen: 1}
	t.slots = append(t.slots, slot)
	return BufferRef{index: len(t.slots) - 1, gen: 1}
}

// Borrow resolves a ref and pins the slot. Returns nil if the ref is stale.
// Callers must pair a successful Borrow with Return.
func (t *BufferTable) Borrow(ref BufferRef) *SampleBuffer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ref.index < 0 || ref.index >= len(t.slots) {
		return nil
	}
	slot := t.slots[ref.index]
	if slot.gen != ref.gen || slot.buf == nil {
		return nil
	}
	slot.pins.Add(1)
	return slot.buf
}

// Return releases a pin taken by Borrow.
func (t *BufferTable) Return(ref BufferRef) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ref.index < 0 || ref.index >= len(t.slots) {
		return
	}
	slot := t.slots[ref.index]
	if slot.gen == ref.gen {
		slot.pins.Add(-1)
	}
}

// Unload evicts a buffer. It fails while any voice still pins the slot.
func (t *BufferTable) Unload(ref BufferRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ref.index < 0 || ref.index >= len(t.slots) {
		return fmt.Errorf("buffer table: ref index %d out of range", ref.index)
	}
	slot := t.slots[ref.index]
	if slot.gen != ref.gen {
		return fmt.Errorf("buffer table: stale ref (gen %d, slot gen %d)", ref.gen, slot.gen)
	}
	if pins := slot.pins.Load(); pins > 0 {
		return fmt.Errorf("buffer table: %d live voices still reference slot %d", pins, ref.index)
	}
	slot.buf = nil
	slot.gen++
	return nil
}

// Len reports how many slots currently hold a buffer.
func (t *BufferTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, slot := range t.slots {
		if slot.buf != nil {
			n++
		}
	}
	return n
}
