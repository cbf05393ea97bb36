// main.go - Command line player for LumenSampler libraries
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"
)

func boilerPlate() {
	fmt.Println("LumenSampler - sample playback and voice rendering core")
	fmt.Println("(c) 2025 - 2026 Lumen Sound")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	var (
		libDir     = flag.String("lib", "", "library directory (instrument.json or instrument.lua plus WAV files)")
		instName   = flag.String("instrument", "", "instrument to select (default: first in library)")
		note       = flag.Int("note", -1, "audition one MIDI note (0-127) and exit")
		velocity   = flag.Int("vel", 100, "audition velocity (0-127)")
		durationMS = flag.Int("dur", 2000, "audition duration in milliseconds")
		keys       = flag.Bool("keys", false, "interactive keyboard play")
		watch      = flag.Bool("watch", false, "hot-reload the library when files change")
		waveOut    = flag.String("waveform", "", "write a waveform PNG of the first sample and exit")
		waveView   = flag.Bool("view", false, "show the first sample's waveform in a window and exit")
		waveWidth  = flag.Int("wave-width", 800, "waveform image width")
		waveHeight = flag.Int("wave-height", 256, "waveform image height")
		silent     = flag.Bool("silent", false, "use the null audio backend (no device output)")
	)
	flag.Parse()

	boilerPlate()

	if *libDir == "" {
		fmt.Fprintln(os.Stderr, "usage: lumensampler -lib <dir> [-note N | -keys | -waveform out.png | -view]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	lib, err := LoadLibrary(*libDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded library %q: %d instrument(s), %d buffer(s)\n",
		lib.Name, len(lib.Instruments), lib.Buffers.Len())

	if *waveOut != "" || *waveView {
		buf := firstBuffer(lib)
		if buf == nil {
			fmt.Fprintln(os.Stderr, "lumensampler: library has no playable samples")
			os.Exit(1)
		}
		if *waveOut != "" {
			if err := writeWaveformPNG(*waveOut, buf, *waveWidth, *waveHeight); err != nil {
				fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s (%dx%d)\n", *waveOut, *waveWidth, *waveHeight)
		}
		if *waveView {
			if err := ShowWaveform(buf, lib.Name, *waveWidth, *waveHeight); err != nil {
				fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	backend := AUDIO_BACKEND_OTO
	if *silent {
		backend = AUDIO_BACKEND_NONE
	}
	engine, err := NewSamplerEngine(backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
		os.Exit(1)
	}
	engine.SetLibrary(lib)
	if *instName != "" {
		if err := engine.SetInstrument(*instName); err != nil {
			fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
			os.Exit(1)
		}
	}

	var watcher *LibraryWatcher
	if *watch {
		watcher, err = NewLibraryWatcher(engine, *libDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	engine.Start()
	defer engine.Stop()

	switch {
	case *note >= 0 && *note < MIDI_NOTE_COUNT:
		engine.NoteOn(uint8(*note), uint8(*velocity))
		time.Sleep(time.Duration(*durationMS) * time.Millisecond)
		engine.NoteOff(uint8(*note), 0)
		time.Sleep(200 * time.Millisecond)
	case *keys:
		if err := RunKeyboardPlayer(engine); err != nil {
			fmt.Fprintf(os.Stderr, "lumensampler: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Nothing to do; pass -note, -keys, -waveform or -view.")
	}
}

func firstBuffer(lib *Library) *SampleBuffer {
	for _, inst := range lib.Instruments {
		for _, region := range inst.Regions {
			if region.buf != nil {
				return region.buf
			}
		}
	}
	return nil
}

func writeWaveformPNG(path string, buf *SampleBuffer, width, height int) error {
	img := WaveformImage(buf, width, height)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
