package sdr

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/rjboer/limenqr/internal/lime"
)

// MockDriver synthesizes a free induction decay at the IF after the last pulse,
// with seeded Gaussian noise, so the full measurement path runs without hardware.
type MockDriver struct {
	mu    sync.Mutex
	rng   *rand.Rand
	last  *lime.ParameterSet
	runs  int
	Noise float64 // standard deviation of the additive noise
	T2    float64 // decay constant in seconds
}

// NewMock returns a mock with deterministic noise.
func NewMock() *MockDriver {
	return &MockDriver{rng: rand.New(rand.NewSource(1)), Noise: 1e-3, T2: 50e-6}
}

func (m *MockDriver) Close() error { return nil }

// Last returns the most recent record passed to Run.
func (m *MockDriver) Last() *lime.ParameterSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Runs returns how many times Run was called.
func (m *MockDriver) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func (m *MockDriver) Run(ctx context.Context, p *lime.ParameterSet) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	if p == nil || !p.Consistent() {
		return Capture{}, fmt.Errorf("%w: inconsistent parameter set", ErrDriver)
	}
	if !(p.SampleRate > 0) {
		return Capture{}, fmt.Errorf("%w: sample rate %g", ErrDriver, p.SampleRate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = p
	m.runs++

	n := int(math.Ceil(p.AcquisitionTime * p.SampleRate))
	averages := p.Averages
	if averages < 1 {
		averages = 1
	}

	start := float64(lime.FirstPulseOffset) / p.SampleRate
	if p.PulseCount > 0 {
		start = pulseEnd(p)
	}

	buffers := make([][]complex64, averages)
	for a := range buffers {
		buf := make([]complex64, n)
		for i := range buf {
			t := float64(i) / p.SampleRate
			var v complex128
			if p.PulseCount > 0 && t >= start {
				dt := t - start
				v = complex(0.5*math.Exp(-dt/m.T2), 0) * complex(math.Cos(2*math.Pi*p.IFFrequency*dt), math.Sin(2*math.Pi*p.IFFrequency*dt))
			}
			v += complex(m.rng.NormFloat64()*m.Noise, m.rng.NormFloat64()*m.Noise)
			buf[i] = complex64(v)
		}
		buffers[a] = buf
	}
	return NewCapture(p.SampleRate, buffers), nil
}

// pulseEnd returns the time in seconds at which the last programmed sample ends.
func pulseEnd(p *lime.ParameterSet) float64 {
	samples := 0
	for _, off := range p.SampleOffset {
		samples += off
	}
	return float64(samples)/p.SampleRate + p.Duration[len(p.Duration)-1]
}
