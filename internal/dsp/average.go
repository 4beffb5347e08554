package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SliceWindow returns the samples captured between begin and end seconds after
// the start of the buffer. Bounds are clamped to the capture.
func SliceWindow(samples []complex64, sampleRate, begin, end float64) []complex64 {
	if sampleRate <= 0 || end <= begin {
		return []complex64{}
	}
	start := int(math.Round(begin * sampleRate))
	stop := int(math.Round(end * sampleRate))
	if start < 0 {
		start = 0
	}
	if stop > len(samples) {
		stop = len(samples)
	}
	if start >= stop {
		return []complex64{}
	}
	out := make([]complex64, stop-start)
	copy(out, samples[start:stop])
	return out
}

// Average returns the sample-wise mean of the captures, truncated to the
// shortest one.
func Average(captures [][]complex64) []complex64 {
	if len(captures) == 0 {
		return []complex64{}
	}
	n := len(captures[0])
	for _, c := range captures[1:] {
		if len(c) < n {
			n = len(c)
		}
	}
	re := make([]float64, n)
	im := make([]float64, n)
	partRe := make([]float64, n)
	partIm := make([]float64, n)
	for _, c := range captures {
		for i := 0; i < n; i++ {
			partRe[i] = float64(real(c[i]))
			partIm[i] = float64(imag(c[i]))
		}
		floats.Add(re, partRe)
		floats.Add(im, partIm)
	}
	scale := 1 / float64(len(captures))
	floats.Scale(scale, re)
	floats.Scale(scale, im)

	out := make([]complex64, n)
	for i := range out {
		out[i] = complex64(complex(re[i], im[i]))
	}
	return out
}
