// sampler_test_helpers_test.go - Shared fixtures for the sampler tests

package main

import "testing"

// monoConstBuffer builds a mono buffer where every sample is v.
func monoConstBuffer(t *testing.T, frames int, v float32) *SampleBuffer {
	t.Helper()
	data := make([]float32, frames)
	for i := range data {
		data[i] = v
	}
	buf, err := NewSampleBuffer(1, DEFAULT_SAMPLE_RATE, data)
	if err != nil {
		t.Fatalf("mono buffer: %v", err)
	}
	return buf
}

// stereoRampBuffer builds a stereo buffer where frame i is
// (i/frames, 1 - i/frames).
func stereoRampBuffer(t *testing.T, frames int) *SampleBuffer {
	t.Helper()
	data := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = float32(i) / float32(frames)
		data[i*2+1] = 1 - float32(i)/float32(frames)
	}
	buf, err := NewSampleBuffer(2, DEFAULT_SAMPLE_RATE, data)
	if err != nil {
		t.Fatalf("stereo buffer: %v", err)
	}
	return buf
}

// stereoBandBuffer builds a stereo buffer with both channels at 1.0 inside
// [bandLo, bandHi) and 0.0 elsewhere.
func stereoBandBuffer(t *testing.T, frames, bandLo, bandHi int) *SampleBuffer {
	t.Helper()
	data := make([]float32, frames*2)
	for i := bandLo; i < bandHi; i++ {
		data[i*2] = 1.0
		data[i*2+1] = 1.0
	}
	buf, err := NewSampleBuffer(2, DEFAULT_SAMPLE_RATE, data)
	if err != nil {
		t.Fatalf("stereo band buffer: %v", err)
	}
	return buf
}

// oneRegionLibrary wraps a buffer in a single-region instrument covering the
// full key and velocity range.
func oneRegionLibrary(t *testing.T, buf *SampleBuffer, loop *Loop) *Library {
	t.Helper()
	table := NewBufferTable()
	ref := table.Publish(buf)
	region := &Region{
		Buffer:  ref,
		RootKey: 60,
		Loop:    loop,
		Trigger: Trigger{
			Event:      EVENT_NOTE_ON,
			Keys:       FullMidiRange(),
			Velocities: FullMidiRange(),
			RoundRobin: RR_NONE,
		},
		buf: buf,
	}
	return &Library{
		Name:        "test",
		Buffers:     table,
		Instruments: []*Instrument{NewInstrument("default", []*Region{region})},
	}
}

// testEngine builds an engine on the null backend with the given library.
func testEngine(t *testing.T, lib *Library) *SamplerEngine {
	t.Helper()
	engine, err := NewSamplerEngine(AUDIO_BACKEND_NONE)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	engine.SetLibrary(lib)
	engine.Start()
	return engine
}
