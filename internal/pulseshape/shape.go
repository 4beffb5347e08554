// Package pulseshape provides the amplitude envelopes used for transmit pulses.
//
// A Shape is a closed set of variants (Rectangular, Sinc, Gaussian, Custom).
// Each variant samples its envelope on the sample grid of the active sample
// rate and reports a Resolution, the time per sample it was designed for.
// Resolution may differ from 1/sampleRate; callers stamp per-sample durations
// with Resolution and derive sample counts from the sample rate.
package pulseshape

import (
	"errors"
	"fmt"
	"math"
)

// DefaultResolution is one sample period of the LimeSDR at 30.72 MHz.
const DefaultResolution = 1 / 30.72e6

// sampleEpsilon absorbs float error when duration*sampleRate lands on an integer.
const sampleEpsilon = 1e-9

var (
	// ErrUnknownShape is returned for a shape variant that is not recognised.
	ErrUnknownShape = errors.New("unknown pulse shape")
	// ErrInvalidShape is returned for a shape whose configuration cannot be sampled.
	ErrInvalidShape = errors.New("invalid pulse shape")
)

// Shape is implemented only by the variants in this package.
type Shape interface {
	// Amplitude samples the envelope for a pulse of the given duration (seconds)
	// at sampleRate (Hz). The result has SampleCount(duration, sampleRate) entries.
	Amplitude(duration, sampleRate float64) []float64
	// Resolution is the nominal time per synthesized sample in seconds.
	Resolution() float64
	// Name is the descriptor type of the variant.
	Name() string
	// Validate reports configuration errors.
	Validate() error

	sealed()
}

// SampleCount returns floor(duration*sampleRate), tolerant of float error at
// exact sample boundaries. Non-positive or non-finite inputs yield zero.
func SampleCount(duration, sampleRate float64) int {
	if !(duration > 0) || !(sampleRate > 0) || math.IsInf(duration, 0) || math.IsInf(sampleRate, 0) {
		return 0
	}
	return int(math.Floor(duration*sampleRate + sampleEpsilon))
}

// grid returns n points spanning [start, end) without the end point.
func grid(n int, start, end float64) []float64 {
	xs := make([]float64, n)
	step := (end - start) / float64(n)
	for i := range xs {
		xs[i] = start + step*float64(i)
	}
	return xs
}

func resolutionOr(res float64) float64 {
	if res == 0 {
		return DefaultResolution
	}
	return res
}

func validateResolution(name string, res float64) error {
	if res < 0 || math.IsNaN(res) || math.IsInf(res, 0) {
		return fmt.Errorf("%w: %s resolution %g", ErrInvalidShape, name, res)
	}
	return nil
}

// Rectangular is a constant full-scale envelope.
type Rectangular struct {
	Res float64
}

func (r Rectangular) Amplitude(duration, sampleRate float64) []float64 {
	n := SampleCount(duration, sampleRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func (r Rectangular) Resolution() float64 { return resolutionOr(r.Res) }
func (Rectangular) Name() string { return "rectangular" }
func (r Rectangular) Validate() error { return validateResolution(r.Name(), r.Res) }
func (Rectangular) sealed() {}

// Sinc evaluates sin(x*Lobes)/(x*Lobes) for x in [-pi, pi).
// Negative lobes are kept signed; the modulator turns the sign into a phase step.
type Sinc struct {
	Res   float64
	Lobes float64
}

// DefaultSincLobes matches the usual three-lobe sinc pulse.
const DefaultSincLobes = 3

func (s Sinc) lobes() float64 {
	if s.Lobes == 0 {
		return DefaultSincLobes
	}
	return s.Lobes
}

func (s Sinc) Amplitude(duration, sampleRate float64) []float64 {
	n := SampleCount(duration, sampleRate)
	l := s.lobes()
	out := grid(n, -math.Pi, math.Pi)
	for i, x := range out {
		if x == 0 {
			out[i] = 1
			continue
		}
		out[i] = math.Sin(x*l) / (x * l)
	}
	return out
}

func (s Sinc) Resolution() float64 { return resolutionOr(s.Res) }
func (Sinc) Name() string { return "sinc" }
func (Sinc) sealed() {}

func (s Sinc) Validate() error {
	if err := validateResolution(s.Name(), s.Res); err != nil {
		return err
	}
	if s.Lobes < 0 || math.IsNaN(s.Lobes) || math.IsInf(s.Lobes, 0) {
		return fmt.Errorf("%w: sinc lobes %g", ErrInvalidShape, s.Lobes)
	}
	return nil
}

// Gaussian evaluates exp(-0.5*((x-Mu)/Sigma)^2) for x in [-pi, pi).
type Gaussian struct {
	Res   float64
	Mu    float64
	Sigma float64
}

func (g Gaussian) sigma() float64 {
	if g.Sigma == 0 {
		return 1
	}
	return g.Sigma
}

func (g Gaussian) Amplitude(duration, sampleRate float64) []float64 {
	n := SampleCount(duration, sampleRate)
	sigma := g.sigma()
	out := grid(n, -math.Pi, math.Pi)
	for i, x := range out {
		z := (x - g.Mu) / sigma
		out[i] = math.Exp(-0.5 * z * z)
	}
	return out
}

func (g Gaussian) Resolution() float64 { return resolutionOr(g.Res) }
func (Gaussian) Name() string { return "gaussian" }
func (Gaussian) sealed() {}

func (g Gaussian) Validate() error {
	if err := validateResolution(g.Name(), g.Res); err != nil {
		return err
	}
	if g.Sigma < 0 || math.IsNaN(g.Sigma) || math.IsInf(g.Sigma, 0) || math.IsNaN(g.Mu) || math.IsInf(g.Mu, 0) {
		return fmt.Errorf("%w: gaussian mu=%g sigma=%g", ErrInvalidShape, g.Mu, g.Sigma)
	}
	return nil
}

// Custom is a user-drawn envelope. Points are spread evenly over the pulse and
// linearly interpolated onto the sample grid.
type Custom struct {
	Res    float64
	Points []float64
}

func (c Custom) Amplitude(duration, sampleRate float64) []float64 {
	n := SampleCount(duration, sampleRate)
	out := grid(n, 0, 1)
	if len(c.Points) == 0 {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	last := float64(len(c.Points) - 1)
	for i, u := range out {
		pos := u * last
		lo := int(math.Floor(pos))
		if lo >= len(c.Points)-1 {
			out[i] = c.Points[len(c.Points)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = c.Points[lo]*(1-frac) + c.Points[lo+1]*frac
	}
	return out
}

func (c Custom) Resolution() float64 { return resolutionOr(c.Res) }
func (Custom) Name() string { return "custom" }
func (Custom) sealed() {}

func (c Custom) Validate() error {
	if err := validateResolution(c.Name(), c.Res); err != nil {
		return err
	}
	if len(c.Points) == 0 {
		return fmt.Errorf("%w: custom shape has no points", ErrInvalidShape)
	}
	for i, p := range c.Points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: custom point %d is %g", ErrInvalidShape, i, p)
		}
	}
	return nil
}
