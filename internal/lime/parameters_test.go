package lime

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	g := NewGate(true, 10, 53, 12)
	assert.Equal(t, Gate{1, 10, 53, 12}, g)
	assert.True(t, g.Enabled())
	assert.Equal(t, 10, g.PaddingLeft())
	assert.Equal(t, 53, g.Shift())
	assert.Equal(t, 12, g.PaddingRight())
	assert.False(t, NewGate(false, 0, 0, 0).Enabled())
}

func TestConsistent(t *testing.T) {
	p := &ParameterSet{
		Frequency:    []float64{1, 1},
		Duration:     []float64{1, 1},
		Amplitude:    []float64{0.5, 0.5},
		SampleOffset: []int{FirstPulseOffset, 1},
		Phase:        []float64{0, 1},
		PulseCount:   2,
	}
	assert.True(t, p.Consistent())
	assert.Equal(t, 2, p.Samples())

	p.Phase = p.Phase[:1]
	assert.False(t, p.Consistent())
	assert.True(t, (&ParameterSet{}).Consistent())
}

func TestCodecPreservesRecord(t *testing.T) {
	p := &ParameterSet{
		SampleRate:     30.72e6,
		IFFrequency:    1.2e6,
		LOFrequency:    82e6,
		Gate:           NewGate(true, 10, 53, 10),
		RepetitionTime: 100e-6,
		PulseCount:     1,
		Frequency:      []float64{1.2e6},
		Duration:       []float64{1 / 30.72e6},
		Amplitude:      []float64{0.5},
		SampleOffset:   []int{FirstPulseOffset},
		Phase:          []float64{0},
		RXAntenna:      "LNAH",
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))
	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}
