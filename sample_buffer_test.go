// sample_buffer_test.go - Tests for buffer validation and the
// generation-tagged table

package main

import "testing"

func TestNewSampleBufferValidation(t *testing.T) {
	if _, err := NewSampleBuffer(3, 44100, make([]float32, 9)); err == nil {
		t.Error("three channels should be rejected")
	}
	if _, err := NewSampleBuffer(1, 0, make([]float32, 8)); err == nil {
		t.Error("zero sample rate should be rejected")
	}
	if _, err := NewSampleBuffer(2, 44100, make([]float32, 7)); err == nil {
		t.Error("odd sample count should be rejected for stereo")
	}
	if _, err := NewSampleBuffer(1, 44100, nil); err == nil {
		t.Error("empty material should be rejected")
	}
	buf, err := NewSampleBuffer(2, 48000, make([]float32, 8))
	if err != nil {
		t.Fatal(err)
	}
	if buf.NumFrames() != 4 || buf.Channels() != 2 || buf.SampleRate() != 48000 {
		t.Errorf("metadata wrong: %d frames, %d channels, %d Hz",
			buf.NumFrames(), buf.Channels(), buf.SampleRate())
	}
}

// Identical contents hash identically; any difference in material or layout
// changes the key.
func TestSampleBufferHash(t *testing.T) {
	a, _ := NewSampleBuffer(1, 44100, []float32{0.1, 0.2, 0.3, 0.4})
	b, _ := NewSampleBuffer(1, 44100, []float32{0.1, 0.2, 0.3, 0.4})
	if a.Hash() != b.Hash() {
		t.Error("identical buffers must hash identically")
	}
	c, _ := NewSampleBuffer(1, 44100, []float32{0.1, 0.2, 0.3, 0.5})
	if a.Hash() == c.Hash() {
		t.Error("different material must hash differently")
	}
	d, _ := NewSampleBuffer(1, 48000, []float32{0.1, 0.2, 0.3, 0.4})
	if a.Hash() == d.Hash() {
		t.Error("sample rate is part of the identity")
	}
	e, _ := NewSampleBuffer(2, 44100, []float32{0.1, 0.2, 0.3, 0.4})
	if a.Hash() == e.Hash() {
		t.Error("channel layout is part of the identity")
	}
}

func TestBufferTableBorrowReturn(t *testing.T) {
	table := NewBufferTable()
	buf := monoConstBuffer(t, 64, 0.5)
	ref := table.Publish(buf)

	got := table.Borrow(ref)
	if got != buf {
		t.Fatal("borrow should resolve to the published buffer")
	}
	if err := table.Unload(ref); err == nil {
		t.Error("unload must refuse while the slot is pinned")
	}
	table.Return(ref)
	if err := table.Unload(ref); err != nil {
		t.Errorf("unload after return: %v", err)
	}
	if table.Borrow(ref) != nil {
		t.Error("unloaded ref should no longer resolve")
	}
	if table.Len() != 0 {
		t.Errorf("table should be empty, holds %d", table.Len())
	}
}

// Slot reuse bumps the generation, so a stale handle from before the unload
// never resolves to the new occupant.
func TestBufferTableStaleRef(t *testing.T) {
	table := NewBufferTable()
	first := monoConstBuffer(t, 64, 0.25)
	stale := table.Publish(first)
	if err := table.Unload(stale); err != nil {
		t.Fatal(err)
	}

	second := monoConstBuffer(t, 64, 0.75)
	fresh := table.Publish(second)
	if fresh.index != stale.index {
		t.Fatalf("expected slot reuse, got index %d then %d", stale.index, fresh.index)
	}
	if table.Borrow(stale) != nil {
		t.Error("stale ref resolved to the new occupant")
	}
	if got := table.Borrow(fresh); got != second {
		t.Error("fresh ref should resolve")
	}
	table.Return(fresh)

	if err := table.Unload(stale); err == nil {
		t.Error("unload through a stale ref should fail")
	}
}

func TestBufferTableBogusRef(t *testing.T) {
	table := NewBufferTable()
	if table.Borrow(BufferRef{index: 5, gen: 1}) != nil {
		t.Error("out-of-range ref should not resolve")
	}
	if err := table.Unload(BufferRef{index: -1}); err == nil {
		t.Error("negative index should error")
	}
	table.Return(BufferRef{index: 9, gen: 1}) // must not panic
}
