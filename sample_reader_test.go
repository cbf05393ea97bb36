// sample_reader_test.go - Tests for the interpolated loop-aware reader

package main

import (
	"math"
	"testing"
)

const readerEps = 1e-4

func TestReadSampleConstant(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 1000}
	for _, pos := range []float64{0, 0.25, 99.9, 100, 475.5, 999, 999.99} {
		l, r := readSample(buf, loop, VOICE_LOOPED_MANY, pos)
		if math.Abs(float64(l)-0.5) > readerEps || math.Abs(float64(r)-0.5) > readerEps {
			t.Errorf("pos %v: constant material should read 0.5, got (%v, %v)", pos, l, r)
		}
	}
}

func TestReadSampleOutOfBounds(t *testing.T) {
	buf := monoConstBuffer(t, 100, 0.5)
	for _, pos := range []float64{-0.001, -5, 100, 100.5, 1e9} {
		l, r := readSample(buf, nil, 0, pos)
		if l != 0 || r != 0 {
			t.Errorf("pos %v: out of bounds should read (0, 0), got (%v, %v)", pos, l, r)
		}
	}
}

// At integer positions the stereo kernel collapses to the identity and the
// exact frame comes back.
func TestReadSampleIntegerIdentity(t *testing.T) {
	buf := stereoRampBuffer(t, 100)
	for _, i := range []int{2, 10, 50, 97} {
		l, r := readSample(buf, nil, 0, float64(i))
		wantL := float32(i) / 100
		wantR := 1 - wantL
		if l != wantL || r != wantR {
			t.Errorf("frame %d: want (%v, %v), got (%v, %v)", i, wantL, wantR, l, r)
		}
	}
}

// The cubic kernel reproduces a linear ramp exactly between interior frames.
func TestReadSampleRampFractional(t *testing.T) {
	buf := stereoRampBuffer(t, 100)
	for _, pos := range []float64{10.25, 33.5, 70.75} {
		l, r := readSample(buf, nil, 0, pos)
		wantL := float32(pos / 100)
		if math.Abs(float64(l-wantL)) > readerEps {
			t.Errorf("pos %v: want L %v, got %v", pos, wantL, l)
		}
		if math.Abs(float64(r-(1-wantL))) > readerEps {
			t.Errorf("pos %v: want R %v, got %v", pos, 1-wantL, r)
		}
	}
}

// Reversed reads flip the fraction and the tap order, which shifts the read
// one frame toward the travel direction.
func TestReadSampleReversedShift(t *testing.T) {
	buf := stereoRampBuffer(t, 100)
	l, _ := readSample(buf, nil, VOICE_REVERSED, 10)
	want := float32(9) / 100
	if math.Abs(float64(l-want)) > readerEps {
		t.Errorf("reversed read at 10: want %v, got %v", want, l)
	}
	l, _ = readSample(buf, nil, VOICE_REVERSED, 10.5)
	want = float32(9.5) / 100
	if math.Abs(float64(l-want)) > readerEps {
		t.Errorf("reversed read at 10.5: want %v, got %v", want, l)
	}
}

// Midway through a plain loop's crossfade zone the equal-power gains sum to
// sqrt(2), so constant 0.5 material reads as 1/sqrt(2).
func TestReadSampleCrossfadeMidpoint(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 500, Crossfade: 50}
	l, r := readSample(buf, loop, VOICE_LOOPED_MANY, 475)
	want := 1 / math.Sqrt2
	if math.Abs(float64(l)-want) > 1e-3 || math.Abs(float64(r)-want) > 1e-3 {
		t.Errorf("crossfade midpoint: want %.4f, got (%v, %v)", want, l, r)
	}
}

// The crossfade boundaries blend in smoothly: at the zone entry the mirror
// contributes nothing, and the blend grows monotonically across the zone for
// material that is louder on the mirror side.
func TestReadSampleCrossfadeRamp(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 500, Crossfade: 50}

	l0, _ := readSample(buf, loop, VOICE_LOOPED_MANY, 450)
	if math.Abs(float64(l0)-0.5) > 1e-3 {
		t.Errorf("zone entry should still read the primary value, got %v", l0)
	}

	prev := float32(0)
	for pos := 450.0; pos < 500; pos += 5 {
		l, _ := readSample(buf, loop, VOICE_LOOPED_MANY, pos)
		t0 := (pos - 450) / 50
		want := 0.5 * (math.Sqrt(1-t0) + math.Sqrt(t0))
		if math.Abs(float64(l)-want) > 1e-3 {
			t.Errorf("pos %v: want %.4f, got %v", pos, want, l)
		}
		if pos > 450 && pos <= 475 && l < prev {
			t.Errorf("pos %v: blend should rise toward the midpoint (%v < %v)", pos, l, prev)
		}
		prev = l
	}
}

// A crossfade as wide as the loop itself still blends exactly once.
func TestReadSampleCrossfadeFullWidth(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 200, Crossfade: 100}
	l, _ := readSample(buf, loop, VOICE_LOOPED_MANY, 150)
	want := 1 / math.Sqrt2
	if math.Abs(float64(l)-want) > 1e-3 {
		t.Errorf("depth-1 mirror: want %.4f, got %v", want, l)
	}
}

// A reversed voice crossfades a plain loop only after it has wrapped at
// least once; on the first backward pass the zone plays dry.
func TestReadSampleCrossfadeReverseGate(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 500, Crossfade: 50}

	l, _ := readSample(buf, loop, VOICE_REVERSED|VOICE_FIRST_LOOP, 475)
	if math.Abs(float64(l)-0.5) > 1e-3 {
		t.Errorf("first backward pass should be dry, got %v", l)
	}
	l, _ = readSample(buf, loop, VOICE_REVERSED|VOICE_LOOPED_MANY, 475)
	if math.Abs(float64(l)-1/math.Sqrt2) > 1e-3 {
		t.Errorf("wrapped backward pass should blend, got %v", l)
	}
}

// Ping-pong crossfades arm only after the first wrap and fade against the
// opposite-direction read across the boundary.
func TestReadSamplePingPongCrossfade(t *testing.T) {
	buf := monoConstBuffer(t, 1000, 0.5)
	loop := &Loop{Start: 100, End: 500, Crossfade: 50, PingPong: true}

	l, _ := readSample(buf, loop, VOICE_FIRST_LOOP, 110)
	if math.Abs(float64(l)-0.5) > 1e-3 {
		t.Errorf("first pass near start should be dry, got %v", l)
	}

	// Forward, just past the start after a wrap: t = 1 - 25/50 = 0.5.
	l, _ = readSample(buf, loop, VOICE_LOOPED_MANY, 125)
	if math.Abs(float64(l)-1/math.Sqrt2) > 1e-3 {
		t.Errorf("forward ping-pong blend: want %.4f, got %v", 1/math.Sqrt2, l)
	}

	// Reversed, approaching the end: t = 1 - 25/50 = 0.5.
	l, _ = readSample(buf, loop, VOICE_REVERSED|VOICE_LOOPED_MANY, 475)
	if math.Abs(float64(l)-1/math.Sqrt2) > 1e-3 {
		t.Errorf("reverse ping-pong blend: want %.4f, got %v", 1/math.Sqrt2, l)
	}
}

func TestWrapNeighbour(t *testing.T) {
	pp := &Loop{Start: 100, End: 500, PingPong: true}
	plain := &Loop{Start: 100, End: 500}
	faded := &Loop{Start: 100, End: 500, Crossfade: 50}

	cases := []struct {
		name   string
		idx    int
		loop   *Loop
		inLoop bool
		want   int
	}{
		{"ping-pong reflects top", 500, pp, true, 499},
		{"ping-pong reflects top deeper", 502, pp, true, 497},
		{"ping-pong reflects bottom", 99, pp, true, 101},
		{"ping-pong interior untouched", 300, pp, true, 300},
		{"plain wraps below zero", -1, plain, true, 499},
		{"plain wraps past end", 500, plain, true, 100},
		{"plain wraps past end deeper", 502, plain, true, 102},
		{"faded loop clamps instead", 500, faded, true, 500},
		{"outside loop clamps low", -1, plain, false, 0},
		{"outside loop clamps high", 1000, plain, false, 999},
	}
	for _, c := range cases {
		if got := wrapNeighbour(c.idx, 1000, c.loop, c.inLoop); got != c.want {
			t.Errorf("%s: wrapNeighbour(%d) = %d, want %d", c.name, c.idx, got, c.want)
		}
	}
}

func TestHermite4(t *testing.T) {
	if got := hermite4(0, 3, 7, 11, 13); got != 7 {
		t.Errorf("x=0 should return s0, got %v", got)
	}
	if got := hermite4(0.37, 4, 4, 4, 4); got != 4 {
		t.Errorf("constants should be exact, got %v", got)
	}
	// Linear material is reproduced by the Catmull-Rom kernel.
	if got := hermite4(0.5, 1, 2, 3, 4); math.Abs(float64(got)-2.5) > readerEps {
		t.Errorf("linear midpoint should be 2.5, got %v", got)
	}
}

func TestLagrangeWeights(t *testing.T) {
	var w [4]float32
	lagrangeWeights(0, &w)
	if w != [4]float32{0, 1, 0, 0} {
		t.Errorf("x=0 should be the identity vector, got %v", w)
	}
	// The weights partition unity at any fraction.
	for _, x := range []float32{0.1, 0.25, 0.5, 0.9} {
		lagrangeWeights(x, &w)
		sum := w[0] + w[1] + w[2] + w[3]
		if math.Abs(float64(sum)-1) > readerEps {
			t.Errorf("x=%v: weights sum to %v, not 1", x, sum)
		}
	}
}
