// Package translate turns a pulse sequence and a settings snapshot into the
// hardware parameter record and the receive window of a measurement.
//
// Translation is a pure function of its inputs: the snapshot is captured when
// the Translator is built and the same IF is used for every pulse.
package translate

import (
	"errors"
	"fmt"
	"math"

	"github.com/rjboer/limenqr/internal/dsp"
	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/logging"
	"github.com/rjboer/limenqr/internal/sequence"
	"github.com/rjboer/limenqr/internal/settings"
)

// ErrInvalidSettings is returned when the snapshot cannot drive a translation.
var ErrInvalidSettings = errors.New("invalid settings")

// offsetEpsilon absorbs float error before rounding sample offsets up.
const offsetEpsilon = 1e-9

// Translator converts pulse sequences for one settings snapshot.
type Translator struct {
	cfg    settings.Snapshot
	logger logging.Logger
}

// New captures cfg for all later translations. A nil logger uses logging.Default.
func New(cfg settings.Snapshot, logger logging.Logger) *Translator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Translator{
		cfg:    cfg,
		logger: logger.With(logging.Subsystem("translate")),
	}
}

// Settings returns the snapshot the translator was built with.
func (t *Translator) Settings() settings.Snapshot { return t.cfg }

// Translate walks the events in order and synthesizes every transmit pulse.
// Invalid sequences fail before anything is built; the result is never partial.
func (t *Translator) Translate(seq sequence.Sequence) (*lime.ParameterSet, error) {
	fs := t.cfg.SampleRate
	if !(fs > 0) || math.IsInf(fs, 0) {
		return nil, fmt.Errorf("%w: sample rate %g", ErrInvalidSettings, fs)
	}
	if math.IsNaN(t.cfg.IFFrequency) || math.IsInf(t.cfg.IFFrequency, 0) {
		return nil, fmt.Errorf("%w: IF frequency %g", ErrInvalidSettings, t.cfg.IFFrequency)
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	p := t.cfg.Record()
	carrier := dsp.Carrier{Frequency: t.cfg.IFFrequency}
	emitted := false

	for i, ev := range seq.Events {
		p.RepetitionTime = ev.Duration
		if !ev.TX.Emits() {
			continue
		}

		env := ev.TX.Shape.Amplitude(ev.Duration, fs)
		if len(env) == 0 {
			t.logger.Debug("pulse shorter than one sample", logging.F("event", ev.Name), logging.F("index", i))
			continue
		}
		amp, phase := carrier.Modulate(env, ev.Duration, ev.TX.RelativeAmplitude)
		res := ev.TX.Shape.Resolution()
		step := int(math.Round(res * fs))
		if math.Abs(res*fs-1) > offsetEpsilon {
			// Durations keep the shape resolution.
			t.logger.Warn("shape resolution differs from sample period",
				logging.F("event", ev.Name),
				logging.F("resolution_s", res),
				logging.F("sample_period_s", 1/fs),
			)
		}

		lead := lime.FirstPulseOffset
		if emitted {
			prev := p.Duration[len(p.Duration)-1]
			blank := AccumulatedBlankDuration(seq.Events[:i])
			lead = ceilSamples((prev + blank) * fs)
		}

		p.SampleOffset = append(p.SampleOffset, lead)
		for range amp[1:] {
			p.SampleOffset = append(p.SampleOffset, step)
		}
		for range amp {
			p.Frequency = append(p.Frequency, t.cfg.IFFrequency)
			p.Duration = append(p.Duration, res)
		}
		p.Amplitude = append(p.Amplitude, amp...)
		p.Phase = append(p.Phase, phase...)
		emitted = true

		t.logger.Debug("pulse synthesized",
			logging.F("event", ev.Name),
			logging.F("samples", len(amp)),
			logging.F("lead_offset", lead),
			logging.F("shape", ev.TX.Shape.Name()),
		)
	}

	p.PulseCount = len(p.Frequency)
	return p, nil
}

// AccumulatedBlankDuration sums the durations of the blanking events (TX
// parameter present, relative amplitude zero) immediately preceding the end of
// events. Events without a TX parameter are skipped; the scan stops at the
// first emitting event.
func AccumulatedBlankDuration(events []sequence.Event) float64 {
	total := 0.0
	for i := len(events) - 1; i >= 0; i-- {
		tx := events[i].TX
		if tx == nil {
			continue
		}
		if tx.Emits() {
			break
		}
		total += events[i].Duration
	}
	return total
}

func ceilSamples(x float64) int {
	return int(math.Ceil(x - offsetEpsilon))
}
