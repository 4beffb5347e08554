package translate

import (
	"errors"
	"fmt"

	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/sequence"
	"github.com/rjboer/limenqr/internal/settings"
)

// ErrNoRXWindow is returned when no event has an enabled RX parameter.
var ErrNoRXWindow = errors.New("no acquisition window configured")

// Window is the acquisition window in microseconds from the start of the sequence.
type Window struct {
	Begin float64 `json:"begin_us"`
	End   float64 `json:"end_us"`
}

// BeginSeconds returns Begin in seconds.
func (w Window) BeginSeconds() float64 { return w.Begin * 1e-6 }

// EndSeconds returns End in seconds.
func (w Window) EndSeconds() float64 { return w.End * 1e-6 }

// Length returns the window length in microseconds.
func (w Window) Length() float64 { return w.End - w.Begin }

// RXWindow locates the enabled RX event and computes its absolute window:
// begin = time before the event + first pulse offset + RX offset correction,
// end = begin + event duration. A sequence without an enabled RX event yields
// (nil, ErrNoRXWindow); more than one is an invalid sequence.
func RXWindow(seq sequence.Sequence, cfg settings.Snapshot) (*Window, error) {
	if !(cfg.SampleRate > 0) {
		return nil, fmt.Errorf("%w: sample rate %g", ErrInvalidSettings, cfg.SampleRate)
	}
	idx := seq.ReceiveEvents()
	switch {
	case len(idx) == 0:
		return nil, ErrNoRXWindow
	case len(idx) > 1:
		return nil, fmt.Errorf("%w: %d enabled RX events", sequence.ErrInvalidSequence, len(idx))
	}

	rx := idx[0]
	prefix := 0.0
	for _, ev := range seq.Events[:rx] {
		prefix += ev.Duration
	}
	offset := float64(lime.FirstPulseOffset) / cfg.SampleRate
	begin := prefix + offset + cfg.RXOffset
	end := begin + seq.Events[rx].Duration
	return &Window{Begin: begin * 1e6, End: end * 1e6}, nil
}

// RXWindow computes the acquisition window with the translator's snapshot.
func (t *Translator) RXWindow(seq sequence.Sequence) (*Window, error) {
	return RXWindow(seq, t.cfg)
}
