// library_loader.go - Library loading: WAV decode and instrument definitions
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopxl/beep/v2/wav"
)

// Library is the immutable object graph the engine plays from: published
// buffers plus instruments referencing them. Built off the audio thread,
// never mutated after load.
type Library struct {
	Name        string
	Buffers     *BufferTable
	Instruments []*Instrument

	pins []BufferRef // loader-held pins keeping buffers alive for the library's lifetime
}

// Close releases the loader pins and evicts the buffers. Only call after the
// engine has dropped the library (SetLibrary kills all voices first).
func (lib *Library) Close() error {
	var firstErr error
	for _, ref := range lib.pins {
		lib.Buffers.Return(ref)
		if err := lib.Buffers.Unload(ref); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	lib.pins = nil
	return firstErr
}

// diagf writes to the diagnostic channel. Never called from the render path.
func diagf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lumensampler: "+format+"\n", args...)
}

// librarySpec mirrors the on-disk instrument definition, shared by the JSON
// and Lua front ends.
type librarySpec struct {
	Name        string           `json:"name"`
	Instruments []instrumentSpec `json:"instruments"`
}

type instrumentSpec struct {
	Name    string       `json:"name"`
	Regions []regionSpec `json:"regions"`
}

type regionSpec struct {
	Sample     string        `json:"sample"`
	RootKey    uint8         `json:"root_key"`
	Trigger    string        `json:"trigger"` // "note_on" (default) or "note_off"
	KeyLo      uint8         `json:"key_lo"`
	KeyHi      uint8         `json:"key_hi"` // half-open; 0 means full range
	VelLo      uint8         `json:"vel_lo"`
	VelHi      uint8         `json:"vel_hi"` // half-open; 0 means full range
	RoundRobin *int          `json:"round_robin,omitempty"`
	Loop       *loopSpecJSON `json:"loop,omitempty"`
	Feather    bool          `json:"feather"`
	TimbreLo   uint8         `json:"timbre_lo"`
	TimbreHi   uint8         `json:"timbre_hi"` // half-open; 0 means no timbre crossfade window
}

type loopSpecJSON struct {
	StartFrame      int  `json:"start_frame"`
	EndFrame        int  `json:"end_frame"`
	CrossfadeFrames int  `json:"crossfade_frames"`
	PingPong        bool `json:"ping_pong"`
}

// LoadLibrary reads a library directory: an instrument.json or
// instrument.lua definition plus the WAV files it references. Samples are
// decoded eagerly to float32 PCM; regions with unusable material are dropped
// at load so they never reach the voice engine.
func LoadLibrary(dir string) (*Library, error) {
	spec, err := loadLibrarySpec(dir)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		Name:    spec.Name,
		Buffers: NewBufferTable(),
	}

	type published struct {
		ref BufferRef
		buf *SampleBuffer
	}
	cache := map[string]published{}

	for _, instSpec := range spec.Instruments {
		var regions []*Region
		for _, rs := range instSpec.Regions {
			entry, ok := cache[rs.Sample]
			if !ok {
				buf, err := decodeWavFile(filepath.Join(dir, rs.Sample))
				if err != nil {
					diagf("library %q: excluding %q: %v", spec.Name, rs.Sample, err)
					cache[rs.Sample] = published{}
					continue
				}
				ref := lib.Buffers.Publish(buf)
				// Pin for the library's lifetime so regions can hold the
				// resolved pointer.
				lib.Buffers.Borrow(ref)
				lib.pins = append(lib.pins, ref)
				entry = published{ref: ref, buf: buf}
				cache[rs.Sample] = entry
			}
			if entry.buf == nil {
				continue // sample failed earlier
			}
			region, err := buildRegion(rs, entry.ref, entry.buf)
			if err != nil {
				diagf("library %q: region on %q: %v", spec.Name, rs.Sample, err)
				continue
			}
			regions = append(regions, region)
		}
		lib.Instruments = append(lib.Instruments, NewInstrument(instSpec.Name, regions))
	}
	return lib, nil
}

func loadLibrarySpec(dir string) (*librarySpec, error) {
	jsonPath := filepath.Join(dir, "instrument.json")
	if _, err := os.Stat(jsonPath); err == nil {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		spec := &librarySpec{}
		if err := json.Unmarshal(data, spec); err != nil {
			return nil, fmt.Errorf("library: parsing %s: %w", jsonPath, err)
		}
		return spec, nil
	}
	luaPath := filepath.Join(dir, "instrument.lua")
	if _, err := os.Stat(luaPath); err == nil {
		return loadLibraryScript(luaPath)
	}
	return nil, fmt.Errorf("library: no instrument.json or instrument.lua in %s", dir)
}

func buildRegion(rs regionSpec, ref BufferRef, buf *SampleBuffer) (*Region, error) {
	trig := Trigger{
		Event:      EVENT_NOTE_ON,
		Keys:       FullMidiRange(),
		Velocities: FullMidiRange(),
		RoundRobin: RR_NONE,
	}
	switch rs.Trigger {
	case "", "note_on":
	case "note_off":
		trig.Event = EVENT_NOTE_OFF
	default:
		return nil, fmt.Errorf("unknown trigger %q", rs.Trigger)
	}
	if rs.KeyHi != 0 || rs.KeyLo != 0 {
		trig.Keys = MidiRange{Lo: rs.KeyLo, Hi: rs.KeyHi}
	}
	if rs.VelHi != 0 || rs.VelLo != 0 {
		trig.Velocities = MidiRange{Lo: rs.VelLo, Hi: rs.VelHi}
	}
	if rs.RoundRobin != nil {
		trig.RoundRobin = *rs.RoundRobin
	}

	region := &Region{
		Buffer:  ref,
		RootKey: rs.RootKey,
		Trigger: trig,
		Options: RegionOptions{Feather: rs.Feather},
		buf:     buf,
	}
	if rs.TimbreHi != 0 {
		region.Options.TimbreCrossfade = &MidiRange{Lo: rs.TimbreLo, Hi: rs.TimbreHi}
	}

	if rs.Loop != nil {
		loop, err := NormaliseLoop(LoopSpec{
			StartFrame:      rs.Loop.StartFrame,
			EndFrame:        rs.Loop.EndFrame,
			CrossfadeFrames: rs.Loop.CrossfadeFrames,
			PingPong:        rs.Loop.PingPong,
		}, buf.numFrames)
		if err != nil {
			// Fail closed: drop the loop, keep the region one-shot.
			diagf("loop on %q dropped: %v", rs.Sample, err)
		} else {
			region.Loop = &loop
		}
	}
	return region, nil
}

// decodeWavFile decodes a WAV file to an immutable float32 buffer. Material
// with more than two channels never reaches the voice engine.
func decodeWavFile(path string) (*SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer stream.Close()

	channels := format.NumChannels
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%s: unsupported channel count %d", path, channels)
	}

	var data []float32
	frames := make([][2]float64, 2048)
	for {
		n, ok := stream.Stream(frames)
		for i := 0; i < n; i++ {
			if channels == 1 {
				data = append(data, float32(frames[i][0]))
			} else {
				data = append(data, float32(frames[i][0]), float32(frames[i][1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewSampleBuffer(channels, int(format.SampleRate), data)
}
