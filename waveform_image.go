// waveform_image.go - Amplitude-envelope image rendering for display
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// svfLowPass is a two-state state-variable low-pass, the same topology the
// engine family uses for its global filter. Fixed tuning: 2 kHz cutoff at
// 44.1 kHz, Q 0.5.
type svfLowPass struct {
	lp   float32
	bp   float32
	f    float32
	damp float32
}

func newWaveformLowPass() *svfLowPass {
	return &svfLowPass{
		f:    float32(2 * math.Pi * WAVEFORM_LP_CUTOFF / WAVEFORM_LP_RATE),
		damp: float32(1.0 / WAVEFORM_LP_Q),
	}
}

func (s *svfLowPass) process(in float32) float32 {
	s.lp += s.f * s.bp
	hp := in - s.lp - s.damp*s.bp
	s.bp += s.f * hp
	return s.lp
}

// WaveformImage renders an RGBA alpha mask of the buffer's amplitude
// envelope. |L| extends upward from mid-height, |R| downward. Runs off the
// audio thread and may allocate.
//
// Pipeline per super-sampled column: window-average up to 8 equispaced
// absolute samples, low-pass the column series, skew by pow(v, 0.6) to keep
// quiet material visible, then fill a vertical span about mid-height. The
// centre output row is always filled, so silence still draws a hairline.
// The super-sampled mask is reduced by coverage: alpha = covered * 255 / 100
// with all RGB channels at 0xff.
func WaveformImage(buf *SampleBuffer, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if buf == nil || width <= 0 || height <= 0 {
		return img
	}

	superW := width * WAVEFORM_SUPER
	superH := height * WAVEFORM_SUPER
	mid := superH / 2

	// The centre output row's band of super rows; every column span is
	// widened to include it.
	centreLo := (height / 2) * WAVEFORM_SUPER
	centreHi := centreLo + WAVEFORM_SUPER - 1
	if centreHi >= superH {
		centreHi = superH - 1
	}

	colLo := make([]int, superW)
	colHi := make([]int, superW)

	fL := newWaveformLowPass()
	fR := newWaveformLowPass()

	numFrames := buf.numFrames
	for x := 0; x < superW; x++ {
		first := x * numFrames / superW
		end := (x + 1) * numFrames / superW
		if end <= first {
			end = first + 1
		}
		if end > numFrames {
			end = numFrames
		}

		window := end - first
		step := window / WAVEFORM_WINDOW_TAPS
		if step < 1 {
			step = 1
		}
		var sumL, sumR float32
		taps := 0
		for k := 0; k < WAVEFORM_WINDOW_TAPS; k++ {
			idx := first + k*step
			if idx >= end {
				break
			}
			l := buf.data[idx*buf.channels]
			r := l
			if buf.channels == 2 {
				r = buf.data[idx*buf.channels+1]
			}
			sumL += abs32(l)
			sumR += abs32(r)
			taps++
		}
		avgL := sumL / float32(taps)
		avgR := sumR / float32(taps)

		if x == 0 {
			for i := 0; i < WAVEFORM_WARMUP; i++ {
				fL.process(avgL)
				fR.process(avgR)
			}
		}
		vL := skewAmplitude(fL.process(avgL))
		vR := skewAmplitude(fR.process(avgR))

		lo := mid - int(float64(vL)*float64(superH)/2)
		hi := mid + int(float64(vR)*float64(superH)/2)
		if lo > centreLo {
			lo = centreLo
		}
		if hi < centreHi {
			hi = centreHi
		}
		if lo < 0 {
			lo = 0
		}
		if hi >= superH {
			hi = superH - 1
		}
		colLo[x] = lo
		colHi[x] = hi
	}

	// Coverage downsample: each destination pixel owns a 10x10 tile of
	// super pixels.
	pixels := img.Pix
	for y := 0; y < height; y++ {
		rowLo := y * WAVEFORM_SUPER
		rowHi := rowLo + WAVEFORM_SUPER - 1
		for x := 0; x < width; x++ {
			covered := 0
			for sx := x * WAVEFORM_SUPER; sx < (x+1)*WAVEFORM_SUPER; sx++ {
				lo := colLo[sx]
				hi := colHi[sx]
				if lo < rowLo {
					lo = rowLo
				}
				if hi > rowHi {
					hi = rowHi
				}
				if hi >= lo {
					covered += hi - lo + 1
				}
			}
			off := y*img.Stride + x*4
			pixels[off] = 0xff
			pixels[off+1] = 0xff
			pixels[off+2] = 0xff
			pixels[off+3] = uint8(covered * 255 / (WAVEFORM_SUPER * WAVEFORM_SUPER))
		}
	}
	return img
}

// WaveformThumbnail rescales a rendered waveform to display size.
func WaveformThumbnail(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func skewAmplitude(v float32) float32 {
	if v <= 0 {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return float32(math.Pow(float64(v), WAVEFORM_SKEW))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
