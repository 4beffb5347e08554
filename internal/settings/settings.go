// Package settings maps the spectrometer's named settings onto a typed,
// immutable snapshot. Frequencies are in Hz and times in seconds throughout.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned when a recognised setting has a value of the wrong type.
var ErrInvalidValue = errors.New("invalid setting value")

// Setting names as they appear in the settings store.
const (
	SamplingFrequency = "Sampling Frequency"
	IFFrequency       = "IF Frequency"
	AcquisitionTime   = "Acquisition time"
	GateEnable        = "Enable"
	GatePaddingLeft   = "Gate padding left"
	GateShift         = "Gate shift"
	GatePaddingRight  = "Gate padding right"
	RXGain            = "RX Gain"
	TXGain            = "TX Gain"
	RXLPFBW           = "RX LPF BW"
	TXLPFBW           = "TX LPF BW"
	TXIDCCorrection   = "TX I DC correction"
	TXQDCCorrection   = "TX Q DC correction"
	TXIGainCorrection = "TX I Gain correction"
	TXQGainCorrection = "TX Q Gain correction"
	TXPhaseAdjustment = "TX phase adjustment"
	RXIGainCorrection = "RX I Gain correction"
	RXQGainCorrection = "RX Q Gain correction"
	RXPhaseAdjustment = "RX phase adjustment"
	RXOffset          = "RX offset"
	FFTShift          = "FFT shift"
	RXAntenna         = "RX Antenna"
	TXAntenna         = "TX Antenna"
)

// Gate holds the gate timing in samples.
type Gate struct {
	Enable       bool
	PaddingLeft  int
	Shift        int
	PaddingRight int
}

// Calibration holds the IQ correction constants programmed into the transceiver.
type Calibration struct {
	TXIDC   int
	TXQDC   int
	TXIGain int
	TXQGain int
	TXPhase int
	RXIGain int
	RXQGain int
	RXPhase int
}

// Snapshot is the settings state read once at the start of a measurement.
type Snapshot struct {
	SampleRate      float64 // Hz
	IFFrequency     float64 // Hz
	AcquisitionTime float64 // s
	Gate            Gate
	RXGain          int // dB
	TXGain          int // dB
	RXLowPass       float64 // Hz
	TXLowPass       float64 // Hz
	Calibration     Calibration
	RXOffset        float64 // s, empirical RX latency correction
	FFTShift        bool
	RXAntenna       string
	TXAntenna       string
}

// Defaults returns the LimeSDR defaults.
func Defaults() Snapshot {
	return Snapshot{
		SampleRate:      30.72e6,
		IFFrequency:     1.2e6,
		AcquisitionTime: 82e-6,
		Gate:            Gate{Enable: true, PaddingLeft: 10, Shift: 53, PaddingRight: 10},
		RXGain:          55,
		TXGain:          30,
		RXLowPass:       30.72e6 / 2,
		TXLowPass:       130e6,
		Calibration: Calibration{
			TXIDC:   -45,
			TXQDC:   0,
			TXIGain: 2047,
			TXQGain: 2039,
			TXPhase: 3,
			RXIGain: 2047,
			RXQGain: 2047,
			RXPhase: 0,
		},
		RXOffset:  2.4e-6,
		FFTShift:  false,
		RXAntenna: "LNAH",
		TXAntenna: "BAND1",
	}
}

type setter func(s *Snapshot, v any) error

func floatField(dst func(*Snapshot) *float64) setter {
	return func(s *Snapshot, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*dst(s) = f
		return nil
	}
}

func intField(dst func(*Snapshot) *int) setter {
	return func(s *Snapshot, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*dst(s) = int(math.Round(f))
		return nil
	}
}

func boolField(dst func(*Snapshot) *bool) setter {
	return func(s *Snapshot, v any) error {
		b, err := toBool(v)
		if err != nil {
			return err
		}
		*dst(s) = b
		return nil
	}
}

func stringField(dst func(*Snapshot) *string) setter {
	return func(s *Snapshot, v any) error {
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		*dst(s) = str
		return nil
	}
}

var setters = map[string]setter{
	SamplingFrequency: floatField(func(s *Snapshot) *float64 { return &s.SampleRate }),
	IFFrequency:       floatField(func(s *Snapshot) *float64 { return &s.IFFrequency }),
	AcquisitionTime:   floatField(func(s *Snapshot) *float64 { return &s.AcquisitionTime }),
	GateEnable:        boolField(func(s *Snapshot) *bool { return &s.Gate.Enable }),
	GatePaddingLeft:   intField(func(s *Snapshot) *int { return &s.Gate.PaddingLeft }),
	GateShift:         intField(func(s *Snapshot) *int { return &s.Gate.Shift }),
	GatePaddingRight:  intField(func(s *Snapshot) *int { return &s.Gate.PaddingRight }),
	RXGain:            intField(func(s *Snapshot) *int { return &s.RXGain }),
	TXGain:            intField(func(s *Snapshot) *int { return &s.TXGain }),
	RXLPFBW:           floatField(func(s *Snapshot) *float64 { return &s.RXLowPass }),
	TXLPFBW:           floatField(func(s *Snapshot) *float64 { return &s.TXLowPass }),
	TXIDCCorrection:   intField(func(s *Snapshot) *int { return &s.Calibration.TXIDC }),
	TXQDCCorrection:   intField(func(s *Snapshot) *int { return &s.Calibration.TXQDC }),
	TXIGainCorrection: intField(func(s *Snapshot) *int { return &s.Calibration.TXIGain }),
	TXQGainCorrection: intField(func(s *Snapshot) *int { return &s.Calibration.TXQGain }),
	TXPhaseAdjustment: intField(func(s *Snapshot) *int { return &s.Calibration.TXPhase }),
	RXIGainCorrection: intField(func(s *Snapshot) *int { return &s.Calibration.RXIGain }),
	RXQGainCorrection: intField(func(s *Snapshot) *int { return &s.Calibration.RXQGain }),
	RXPhaseAdjustment: intField(func(s *Snapshot) *int { return &s.Calibration.RXPhase }),
	RXOffset:          floatField(func(s *Snapshot) *float64 { return &s.RXOffset }),
	FFTShift:          boolField(func(s *Snapshot) *bool { return &s.FFTShift }),
	RXAntenna:         stringField(func(s *Snapshot) *string { return &s.RXAntenna }),
	TXAntenna:         stringField(func(s *Snapshot) *string { return &s.TXAntenna }),
}

// Names returns every recognised setting name.
func Names() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	return names
}

// Apply returns base with every recognised setting in values applied.
// Unrecognised names are ignored; base is not modified.
func Apply(base Snapshot, values map[string]any) (Snapshot, error) {
	out := base
	for name, v := range values {
		set, ok := setters[name]
		if !ok {
			continue
		}
		if err := set(&out, v); err != nil {
			return base, fmt.Errorf("%w: %q: %w", ErrInvalidValue, name, err)
		}
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, err
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	case int:
		return b != 0, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}
