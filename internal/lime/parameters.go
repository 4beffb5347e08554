// Package lime holds the flat parameter record that programs a LimeSDR based
// NQR spectrometer, and its wire encoding for the driver hand-off.
package lime

// FirstPulseOffset is the fixed sample offset of the first transmitted sample.
const FirstPulseOffset = 300

// Gate is the four element gate timing vector {enable, pad_left, shift, pad_right}.
type Gate [4]int

// NewGate builds the gate vector.
func NewGate(enable bool, padLeft, shift, padRight int) Gate {
	e := 0
	if enable {
		e = 1
	}
	return Gate{e, padLeft, shift, padRight}
}

func (g Gate) Enabled() bool { return g[0] != 0 }
func (g Gate) PaddingLeft() int { return g[1] }
func (g Gate) Shift() int { return g[2] }
func (g Gate) PaddingRight() int { return g[3] }

// ParameterSet is the complete command descriptor for one measurement.
// Frequency, Duration, Amplitude, SampleOffset and Phase are parallel arrays
// with one entry per synthesized sample across all pulses.
type ParameterSet struct {
	SampleRate      float64 `msgpack:"sra" json:"sra"`
	TargetFrequency float64 `msgpack:"tgf" json:"tgf"`
	IFFrequency     float64 `msgpack:"iff" json:"iff"`
	LOFrequency     float64 `msgpack:"lof" json:"lof"`
	AcquisitionTime float64 `msgpack:"tac" json:"tac"`
	Averages        int     `msgpack:"nav" json:"nav"`

	RXGain    int     `msgpack:"rgn" json:"rgn"`
	TXGain    int     `msgpack:"tgn" json:"tgn"`
	RXLowPass float64 `msgpack:"rlp" json:"rlp"`
	TXLowPass float64 `msgpack:"tlp" json:"tlp"`
	RXAntenna string  `msgpack:"rxa" json:"rxa"`
	TXAntenna string  `msgpack:"txa" json:"txa"`

	TXIDC   int `msgpack:"tdi" json:"tdi"`
	TXQDC   int `msgpack:"tdq" json:"tdq"`
	TXIGain int `msgpack:"tgi" json:"tgi"`
	TXQGain int `msgpack:"tgq" json:"tgq"`
	TXPhase int `msgpack:"tpc" json:"tpc"`
	RXIGain int `msgpack:"rgi" json:"rgi"`
	RXQGain int `msgpack:"rgq" json:"rgq"`
	RXPhase int `msgpack:"rpc" json:"rpc"`

	Gate           Gate    `msgpack:"t3d" json:"t3d"`
	RepetitionTime float64 `msgpack:"trp" json:"trp"`
	PulseCount     int     `msgpack:"npu" json:"npu"`

	Frequency    []float64 `msgpack:"pfr" json:"pfr"`
	Duration     []float64 `msgpack:"pdr" json:"pdr"`
	Amplitude    []float64 `msgpack:"pam" json:"pam"`
	SampleOffset []int     `msgpack:"pof" json:"pof"`
	Phase        []float64 `msgpack:"pph" json:"pph"`
}

// Samples returns the number of synthesized samples.
func (p *ParameterSet) Samples() int { return len(p.Frequency) }

// Consistent reports whether the five per-sample arrays have equal length and
// PulseCount matches them.
func (p *ParameterSet) Consistent() bool {
	n := len(p.Frequency)
	return len(p.Duration) == n &&
		len(p.Amplitude) == n &&
		len(p.SampleOffset) == n &&
		len(p.Phase) == n &&
		p.PulseCount == n
}
