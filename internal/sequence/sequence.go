// Package sequence models a pulse program: an ordered timeline of events, each
// optionally carrying a transmit pulse, a receive window and a gate signal.
package sequence

import (
	"errors"
	"fmt"
	"math"

	"github.com/rjboer/limenqr/internal/pulseshape"
)

// ErrInvalidSequence is wrapped by every validation failure.
var ErrInvalidSequence = errors.New("invalid pulse sequence")

// Kind identifies a parameter attached to an event.
type Kind int

const (
	TX Kind = iota
	RX
	Gate
)

func (k Kind) String() string {
	switch k {
	case TX:
		return "TX"
	case RX:
		return "RX"
	case Gate:
		return "Gate"
	default:
		return "unknown"
	}
}

// TXParameter describes a transmit pulse.
type TXParameter struct {
	RelativeAmplitude float64
	Shape             pulseshape.Shape
}

// Emits reports whether the parameter produces RF. Events with a zero relative
// amplitude are blanking intervals.
func (p *TXParameter) Emits() bool {
	return p != nil && p.RelativeAmplitude > 0
}

// RXParameter marks an event as the acquisition window.
type RXParameter struct {
	Enabled bool
}

// GateParameter drives the digital gate output.
type GateParameter struct {
	Enabled bool
}

// Event is one entry on the timeline. Duration is in seconds; zero is legal.
type Event struct {
	Name     string
	Duration float64
	TX       *TXParameter
	RX       *RXParameter
	Gate     *GateParameter
}

// Has reports whether the event carries a parameter of kind k.
func (e Event) Has(k Kind) bool {
	switch k {
	case TX:
		return e.TX != nil
	case RX:
		return e.RX != nil
	case Gate:
		return e.Gate != nil
	default:
		return false
	}
}

// ReceiveEnabled reports whether the event is an enabled RX window.
func (e Event) ReceiveEnabled() bool {
	return e.RX != nil && e.RX.Enabled
}

// Sequence is an ordered list of events in chronological order. The final event
// is the repetition-time gap.
type Sequence struct {
	Name   string
	Events []Event
}

// Provider supplies the pulse sequence for a measurement.
type Provider interface {
	PulseSequence() (Sequence, error)
}

// Static is a Provider that always returns the same sequence.
type Static Sequence

func (s Static) PulseSequence() (Sequence, error) { return Sequence(s), nil }

// TotalDuration is the sum of all event durations in seconds.
func (s Sequence) TotalDuration() float64 {
	total := 0.0
	for _, e := range s.Events {
		total += e.Duration
	}
	return total
}

// ReceiveEvents returns the indices of the enabled RX events.
func (s Sequence) ReceiveEvents() []int {
	var idx []int
	for i, e := range s.Events {
		if e.ReceiveEnabled() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Validate checks durations, transmit parameters and the RX event count.
func (s Sequence) Validate() error {
	for i, e := range s.Events {
		if math.IsNaN(e.Duration) || math.IsInf(e.Duration, 0) || e.Duration < 0 {
			return fmt.Errorf("%w: event %d (%q): duration %g", ErrInvalidSequence, i, e.Name, e.Duration)
		}
		if e.TX == nil {
			continue
		}
		amp := e.TX.RelativeAmplitude
		if math.IsNaN(amp) || amp < 0 || amp > 1 {
			return fmt.Errorf("%w: event %d (%q): relative amplitude %g outside [0,1]", ErrInvalidSequence, i, e.Name, amp)
		}
		if e.TX.Shape == nil {
			return fmt.Errorf("%w: event %d (%q): TX parameter has no pulse shape", ErrInvalidSequence, i, e.Name)
		}
		if err := e.TX.Shape.Validate(); err != nil {
			return fmt.Errorf("%w: event %d (%q): %w", ErrInvalidSequence, i, e.Name, err)
		}
	}
	if rx := s.ReceiveEvents(); len(rx) > 1 {
		return fmt.Errorf("%w: %d enabled RX events (events %v), expected at most one", ErrInvalidSequence, len(rx), rx)
	}
	return nil
}
