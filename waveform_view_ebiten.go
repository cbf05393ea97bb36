//go:build !headless

// waveform_view_ebiten.go - Waveform display window
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type waveformViewer struct {
	img     *ebiten.Image
	caption string
	width   int
	height  int
}

func (v *waveformViewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *waveformViewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x10, 0x10, 0x18, 0xff})
	screen.DrawImage(v.img, nil)
	text.Draw(screen, v.caption, basicfont.Face7x13, 8, v.height-8, color.White)
}

func (v *waveformViewer) Layout(int, int) (int, int) {
	return v.width, v.height
}

// ShowWaveform renders the buffer's envelope and blocks in a window until
// the user closes it (Escape or Q).
func ShowWaveform(buf *SampleBuffer, caption string, width, height int) error {
	rgba := WaveformImage(buf, width, height)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("lumensampler - " + caption)
	viewer := &waveformViewer{
		img:     ebiten.NewImageFromImage(rgba),
		caption: caption,
		width:   width,
		height:  height,
	}
	if err := ebiten.RunGame(viewer); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
