package sequence

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rjboer/limenqr/internal/pulseshape"
)

// Seconds is a duration in seconds. In YAML it accepts a plain number of
// seconds ("10e-6") or a Go duration string ("10us").
type Seconds float64

func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*s = Seconds(f)
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: duration %q: %w", value.Line, raw, err)
	}
	*s = Seconds(d.Seconds())
	return nil
}

func (s Seconds) MarshalYAML() (any, error) {
	return float64(s), nil
}

type fileTX struct {
	RelativeAmplitude float64               `yaml:"relative_amplitude"`
	Shape             pulseshape.Descriptor `yaml:"shape"`
}

type fileToggle struct {
	Enabled bool `yaml:"enabled"`
}

type fileEvent struct {
	Name     string      `yaml:"name"`
	Duration Seconds     `yaml:"duration"`
	TX       *fileTX     `yaml:"tx,omitempty"`
	RX       *fileToggle `yaml:"rx,omitempty"`
	Gate     *fileToggle `yaml:"gate,omitempty"`
}

type fileSequence struct {
	Name   string      `yaml:"name"`
	Events []fileEvent `yaml:"events"`
}

// Load reads and validates a YAML pulse-sequence file.
func Load(path string) (Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sequence{}, err
	}
	defer f.Close()

	seq, err := Decode(f)
	if err != nil {
		return Sequence{}, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// Decode parses and validates a YAML pulse sequence.
func Decode(r io.Reader) (Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sequence{}, err
	}

	var doc fileSequence
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Sequence{}, fmt.Errorf("%w: %w", ErrInvalidSequence, err)
	}

	seq := Sequence{Name: doc.Name, Events: make([]Event, 0, len(doc.Events))}
	for i, fe := range doc.Events {
		ev := Event{Name: fe.Name, Duration: float64(fe.Duration)}
		if fe.TX != nil {
			shape, err := fe.TX.Shape.Shape()
			if err != nil {
				return Sequence{}, fmt.Errorf("%w: event %d (%q): %w", ErrInvalidSequence, i, fe.Name, err)
			}
			ev.TX = &TXParameter{RelativeAmplitude: fe.TX.RelativeAmplitude, Shape: shape}
		}
		if fe.RX != nil {
			ev.RX = &RXParameter{Enabled: fe.RX.Enabled}
		}
		if fe.Gate != nil {
			ev.Gate = &GateParameter{Enabled: fe.Gate.Enabled}
		}
		seq.Events = append(seq.Events, ev)
	}

	if err := seq.Validate(); err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

// Encode writes seq in the format read by Decode.
func Encode(w io.Writer, seq Sequence) error {
	doc := fileSequence{Name: seq.Name, Events: make([]fileEvent, 0, len(seq.Events))}
	for _, e := range seq.Events {
		if math.IsNaN(e.Duration) {
			return fmt.Errorf("%w: event %q: duration is NaN", ErrInvalidSequence, e.Name)
		}
		fe := fileEvent{Name: e.Name, Duration: Seconds(e.Duration)}
		if e.TX != nil {
			fe.TX = &fileTX{RelativeAmplitude: e.TX.RelativeAmplitude, Shape: pulseshape.Describe(e.TX.Shape)}
		}
		if e.RX != nil {
			fe.RX = &fileToggle{Enabled: e.RX.Enabled}
		}
		if e.Gate != nil {
			fe.Gate = &fileToggle{Enabled: e.Gate.Enabled}
		}
		doc.Events = append(doc.Events, fe)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// File is a Provider reading the sequence from a YAML file on every call.
type File string

func (f File) PulseSequence() (Sequence, error) { return Load(string(f)) }
