package settings

import "github.com/rjboer/limenqr/internal/lime"

// Record maps the snapshot onto a fresh hardware parameter record with empty
// pulse arrays.
func (s Snapshot) Record() *lime.ParameterSet {
	return &lime.ParameterSet{
		SampleRate:      s.SampleRate,
		IFFrequency:     s.IFFrequency,
		AcquisitionTime: s.AcquisitionTime,
		RXGain:          s.RXGain,
		TXGain:          s.TXGain,
		RXLowPass:       s.RXLowPass,
		TXLowPass:       s.TXLowPass,
		RXAntenna:       s.RXAntenna,
		TXAntenna:       s.TXAntenna,
		TXIDC:           s.Calibration.TXIDC,
		TXQDC:           s.Calibration.TXQDC,
		TXIGain:         s.Calibration.TXIGain,
		TXQGain:         s.Calibration.TXQGain,
		TXPhase:         s.Calibration.TXPhase,
		RXIGain:         s.Calibration.RXIGain,
		RXQGain:         s.Calibration.RXQGain,
		RXPhase:         s.Calibration.RXPhase,
		Gate:            lime.NewGate(s.Gate.Enable, s.Gate.PaddingLeft, s.Gate.Shift, s.Gate.PaddingRight),
		Frequency:       []float64{},
		Duration:        []float64{},
		Amplitude:       []float64{},
		SampleOffset:    []int{},
		Phase:           []float64{},
	}
}
