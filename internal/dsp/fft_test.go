package dsp

import (
	"math"
	"testing"
)

func tone(n int, bin int) []complex64 {
	data := make([]complex64, n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * float64(bin*i) / float64(n)
		data[i] = complex64(complex(math.Cos(phase), math.Sin(phase)))
	}
	return data
}

func peakIndex(fft []complex128) int {
	maxIdx := 0
	maxMag := math.Inf(-1)
	for i, v := range fft {
		mag := real(v)*real(v) + imag(v)*imag(v)
		if mag > maxMag {
			maxMag = mag
			maxIdx = i
		}
	}
	return maxIdx
}

func TestFFTAndDBFS(t *testing.T) {
	n := 8
	fft, db := FFTAndDBFS(tone(n, 1), true)
	if len(fft) != n || len(db) != n {
		t.Fatalf("unexpected lengths")
	}
	if got := peakIndex(fft); got != n/2+1 {
		t.Fatalf("expected peak at %d got %d", n/2+1, got)
	}
	for _, v := range db {
		if math.IsNaN(v) {
			t.Fatalf("dbfs contains NaN")
		}
	}
}

func TestFFTAndDBFSUnshifted(t *testing.T) {
	fft, _ := FFTAndDBFS(tone(8, 1), false)
	if got := peakIndex(fft); got != 1 {
		t.Fatalf("expected peak at 1 got %d", got)
	}
}

func TestFFTShift(t *testing.T) {
	in := []complex128{0, 1, 2, 3}
	out := FFTShift(in)
	expected := []complex128{2, 3, 0, 1}
	for i := range expected {
		if out[i] != expected[i] {
			t.Fatalf("index %d expected %v got %v", i, expected[i], out[i])
		}
	}
	if in[0] != 0 {
		t.Fatalf("input must not be modified")
	}
}

func TestFrequencyAxis(t *testing.T) {
	got := FrequencyAxis(4, 4e6, false)
	expected := []float64{0, 1e6, -2e6, -1e6}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("index %d expected %f got %f", i, expected[i], got[i])
		}
	}
	shifted := FrequencyAxis(4, 4e6, true)
	expectedShifted := []float64{-2e6, -1e6, 0, 1e6}
	for i := range expectedShifted {
		if shifted[i] != expectedShifted[i] {
			t.Fatalf("shifted index %d expected %f got %f", i, expectedShifted[i], shifted[i])
		}
	}
}
