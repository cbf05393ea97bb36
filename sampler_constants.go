// sampler_constants.go - Shared constants for the sampler engine

package main

const (
	DEFAULT_SAMPLE_RATE = 44100 // Output sample rate in Hz
	DEFAULT_BLOCK_SIZE  = 512   // Frames per render block
	MAX_VOICES          = 64    // Fixed voice pool capacity

	MIDI_NOTE_COUNT = 128 // Valid keys and velocities are 0..127

	MIN_LOOP_FRAMES      = 32   // Floor for the smallest permitted loop window
	LOOP_FRACTION_OF_BUF = 1000 // smallest loop = max(frames/1000, MIN_LOOP_FRAMES)
)

const (
	MAX_SAMPLE = 1.0
	MIN_SAMPLE = -1.0
)

// Waveform imager tuning. The imager runs off the audio thread and may
// allocate freely.
const (
	WAVEFORM_SUPER       = 10  // Super-sampling factor in both axes
	WAVEFORM_WINDOW_TAPS = 8   // Max equispaced samples averaged per column
	WAVEFORM_WARMUP      = 150 // Low-pass pre-warm iterations on column zero
	WAVEFORM_SKEW        = 0.6 // pow() exponent boosting low amplitudes
	WAVEFORM_LP_CUTOFF   = 2000.0
	WAVEFORM_LP_Q        = 0.5
	WAVEFORM_LP_RATE     = 44100.0
)
