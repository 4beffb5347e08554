package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

const adcScale = 2048.0 // 2^11 for the LimeSDR 12-bit signed ADC

// FFTShift returns the FFT output shifted so that DC is centered.
func FFTShift(data []complex128) []complex128 {
	n := len(data)
	if n == 0 {
		return []complex128{}
	}
	half := n / 2
	shifted := make([]complex128, 0, n)
	shifted = append(shifted, data[half:]...)
	shifted = append(shifted, data[:half]...)
	return shifted
}

// FrequencyAxis returns the bin centre frequencies in Hz for an n-point FFT,
// in FFT order or, when shift is set, in FFTShift order.
func FrequencyAxis(n int, sampleRate float64, shift bool) []float64 {
	if n <= 0 {
		return []float64{}
	}
	freqs := make([]float64, n)
	for i := range freqs {
		k := i
		if k >= (n+1)/2 {
			k -= n
		}
		freqs[i] = float64(k) * sampleRate / float64(n)
	}
	if !shift {
		return freqs
	}
	half := n / 2
	out := make([]float64, 0, n)
	out = append(out, freqs[half:]...)
	out = append(out, freqs[:half]...)
	return out
}

// FFTAndDBFS applies a Hamming window to the captured samples, transforms them,
// normalizes by the window sum and converts the magnitude to dBFS. With shift
// set the output is reordered so DC is centered.
func FFTAndDBFS(samples []complex64, shift bool) ([]complex128, []float64) {
	if len(samples) == 0 {
		return []complex128{}, []float64{}
	}
	win := Hamming(len(samples))
	windowed := ApplyWindow(samples, win)
	fft := fourier.NewCmplxFFT(len(samples)).Coefficients(nil, windowed)
	return normalizeDBFS(fft, windowSum(win), shift)
}

func windowSum(win []float64) float64 {
	sum := 0.0
	for _, v := range win {
		sum += v
	}
	return sum
}

func normalizeDBFS(fft []complex128, sumWin float64, shift bool) ([]complex128, []float64) {
	if sumWin != 0 {
		for i := range fft {
			fft[i] /= complex(sumWin, 0)
		}
	}
	if shift {
		fft = FFTShift(fft)
	}
	dbfs := make([]float64, len(fft))
	for i, v := range fft {
		mag := cmplx.Abs(v)
		if mag == 0 {
			dbfs[i] = -math.Inf(1)
			continue
		}
		dbfs[i] = 20 * math.Log10(mag/adcScale)
	}
	return fft, dbfs
}
