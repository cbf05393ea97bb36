//go:build headless

// waveform_view_headless.go - Display stub for headless builds

package main

import "fmt"

func ShowWaveform(buf *SampleBuffer, caption string, width, height int) error {
	return fmt.Errorf("waveform view: built with the headless tag, no display support")
}
