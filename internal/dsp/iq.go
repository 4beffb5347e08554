package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

const twoPi = 2 * math.Pi

// AmplitudeLimit guards the DAC against digital clipping.
const AmplitudeLimit = 0.99

// Carrier describes the IF up-conversion applied to a baseband envelope.
type Carrier struct {
	Frequency float64 // IF in Hz
	Origin    float64 // start of the pulse time vector in seconds
}

// Modulate mixes the envelope, scaled by relativeAmplitude, onto the carrier and
// returns the magnitude/phase pair the radio is programmed with. The time vector
// spans [Origin, Origin+duration) with len(envelope) points, end point excluded.
// Phase is unwrapped and folded into [0, 2pi); amplitude is clipped to
// +-AmplitudeLimit regardless of shape.
func (c Carrier) Modulate(envelope []float64, duration, relativeAmplitude float64) (amplitude, phase []float64) {
	n := len(envelope)
	if n == 0 {
		return []float64{}, []float64{}
	}
	scaled := make([]float64, n)
	floats.ScaleTo(scaled, relativeAmplitude, envelope)

	step := duration / float64(n)
	amplitude = make([]float64, n)
	raw := make([]float64, n)
	for i, v := range scaled {
		t := c.Origin + step*float64(i)
		w := complex(v, 0) * cmplx.Rect(1, twoPi*c.Frequency*t)
		amplitude[i] = cmplx.Abs(w)
		raw[i] = cmplx.Phase(w)
	}

	phase = Unwrap(raw)
	for i, p := range phase {
		phase[i] = WrapPhase(p)
	}
	ClipAmplitude(amplitude, AmplitudeLimit)
	return amplitude, phase
}

// Unwrap removes jumps larger than pi between consecutive samples by adding
// multiples of 2pi, like numpy.unwrap.
func Unwrap(phase []float64) []float64 {
	out := make([]float64, len(phase))
	if len(phase) == 0 {
		return out
	}
	out[0] = phase[0]
	correction := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		dd := math.Mod(d+math.Pi, twoPi)
		if dd < 0 {
			dd += twoPi
		}
		dd -= math.Pi
		if dd == -math.Pi && d > 0 {
			dd = math.Pi
		}
		if math.Abs(d) >= math.Pi {
			correction += dd - d
		}
		out[i] = phase[i] + correction
	}
	return out
}

// WrapPhase folds p into [0, 2pi).
func WrapPhase(p float64) float64 {
	r := math.Mod(p+twoPi, twoPi)
	if r < 0 {
		r += twoPi
	}
	if r >= twoPi {
		r = 0
	}
	return r
}

// ClipAmplitude limits every value to [-limit, limit] in place.
func ClipAmplitude(values []float64, limit float64) {
	for i, v := range values {
		if v > limit {
			values[i] = limit
		} else if v < -limit {
			values[i] = -limit
		}
	}
}
