package dsp

import (
	"math/cmplx"
	"testing"
)

func TestCachedDSP_Correctness(t *testing.T) {
	size := 512
	cached := NewCachedDSP(size)

	samples := make([]complex64, size)
	for i := range samples {
		samples[i] = complex(float32(i)/float32(size), 0)
	}

	for _, shift := range []bool{false, true} {
		fft1, dbfs1 := cached.FFTAndDBFS(samples, shift)
		fft2, dbfs2 := FFTAndDBFS(samples, shift)
		if len(fft1) != len(fft2) || len(dbfs1) != len(dbfs2) {
			t.Fatalf("length mismatch: %d vs %d", len(fft1), len(fft2))
		}
		for i := range fft1 {
			if diff := cmplx.Abs(fft1[i] - fft2[i]); diff > 1e-10 {
				t.Errorf("shift=%v FFT mismatch at index %d: diff=%g", shift, i, diff)
			}
		}
	}
}

func TestCachedDSP_UpdateSize(t *testing.T) {
	cached := NewCachedDSP(256)
	if cached.Size() != 256 {
		t.Errorf("Initial size mismatch: got %d, want 256", cached.Size())
	}

	cached.UpdateSize(512)
	if cached.Size() != 512 {
		t.Errorf("Updated size mismatch: got %d, want 512", cached.Size())
	}

	fft, dbfs := cached.FFTAndDBFS(make([]complex64, 512), true)
	if len(fft) != 512 || len(dbfs) != 512 {
		t.Errorf("FFT size after update: got %d/%d, want 512", len(fft), len(dbfs))
	}
}

func TestCachedDSP_WrongSizeFallsBack(t *testing.T) {
	cached := NewCachedDSP(512)
	fft, dbfs := cached.FFTAndDBFS(make([]complex64, 256), false)
	if len(fft) != 256 || len(dbfs) != 256 {
		t.Errorf("Fallback FFT size: got %d/%d, want 256", len(fft), len(dbfs))
	}
}

func TestCachedDSP_EmptyInput(t *testing.T) {
	fft, dbfs := NewCachedDSP(512).FFTAndDBFS(nil, false)
	if len(fft) != 0 || len(dbfs) != 0 {
		t.Errorf("Empty input: got %d/%d, want 0", len(fft), len(dbfs))
	}
}

func BenchmarkCachedDSP(b *testing.B) {
	size := 4096
	cached := NewCachedDSP(size)
	samples := make([]complex64, size)
	for i := range samples {
		samples[i] = complex(float32(i), float32(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cached.FFTAndDBFS(samples, true)
	}
}
