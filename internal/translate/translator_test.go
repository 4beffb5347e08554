package translate

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/logging"
	"github.com/rjboer/limenqr/internal/pulseshape"
	"github.com/rjboer/limenqr/internal/sequence"
	"github.com/rjboer/limenqr/internal/settings"
)

const fs = 30.72e6

func tx(name string, amp, dur float64, shape pulseshape.Shape) sequence.Event {
	return sequence.Event{Name: name, Duration: dur, TX: &sequence.TXParameter{RelativeAmplitude: amp, Shape: shape}}
}

func rx(name string, dur float64) sequence.Event {
	return sequence.Event{Name: name, Duration: dur, RX: &sequence.RXParameter{Enabled: true}}
}

func blankingSequence() sequence.Sequence {
	rect := pulseshape.Rectangular{}
	return sequence.Sequence{Name: "blanking", Events: []sequence.Event{
		tx("p1", 0.5, 10e-6, rect),
		tx("blank", 0, 5e-6, rect),
		tx("p2", 0.5, 10e-6, rect),
		rx("rx", 20e-6),
		{Name: "tr", Duration: 100e-6},
	}}
}

func assertInvariants(t *testing.T, p *lime.ParameterSet) {
	t.Helper()
	require.True(t, p.Consistent(), "parallel arrays must have equal length")
	for i := range p.Amplitude {
		require.GreaterOrEqual(t, p.Amplitude[i], -0.99, "amplitude %d", i)
		require.LessOrEqual(t, p.Amplitude[i], 0.99, "amplitude %d", i)
		require.GreaterOrEqual(t, p.Phase[i], 0.0, "phase %d", i)
		require.Less(t, p.Phase[i], 2*math.Pi, "phase %d", i)
		require.GreaterOrEqual(t, p.SampleOffset[i], 0, "offset %d", i)
	}
	if p.PulseCount > 0 {
		require.Equal(t, lime.FirstPulseOffset, p.SampleOffset[0])
	}
}

func TestTranslateBlankingScenario(t *testing.T) {
	p, err := New(settings.Defaults(), nil).Translate(blankingSequence())
	require.NoError(t, err)
	assertInvariants(t, p)

	const perPulse = 307
	require.Equal(t, 2*perPulse, p.PulseCount)
	assert.InDelta(t, 100e-6, p.RepetitionTime, 1e-18)

	res := pulseshape.DefaultResolution
	assert.Equal(t, lime.FirstPulseOffset, p.SampleOffset[0])
	for i := 1; i < perPulse; i++ {
		require.Equal(t, 1, p.SampleOffset[i], "offset %d", i)
	}
	assert.Equal(t, int(math.Ceil((res+5e-6)*fs)), p.SampleOffset[perPulse])
	assert.Equal(t, 155, p.SampleOffset[perPulse])
	for i := perPulse + 1; i < 2*perPulse; i++ {
		require.Equal(t, 1, p.SampleOffset[i], "offset %d", i)
	}
	for i := range p.Frequency {
		require.Equal(t, settings.Defaults().IFFrequency, p.Frequency[i])
		require.Equal(t, res, p.Duration[i])
		require.InDelta(t, 0.5, p.Amplitude[i], 1e-12)
	}
}

func TestTranslateShapesKeepInvariants(t *testing.T) {
	shapes := []pulseshape.Shape{
		pulseshape.Rectangular{},
		pulseshape.Sinc{},
		pulseshape.Gaussian{Sigma: 0.5},
		pulseshape.Custom{Points: []float64{0, 1, 1, 0}},
	}
	for _, shape := range shapes {
		t.Run(shape.Name(), func(t *testing.T) {
			seq := sequence.Sequence{Events: []sequence.Event{
				tx("p", 1, 3e-6, shape),
				{Name: "d", Duration: 2e-6},
				tx("q", 0.7, 4e-6, shape),
				{Name: "tr", Duration: 1e-3},
			}}
			p, err := New(settings.Defaults(), nil).Translate(seq)
			require.NoError(t, err)
			assertInvariants(t, p)
			assert.Equal(t, pulseshape.SampleCount(3e-6, fs)+pulseshape.SampleCount(4e-6, fs), p.PulseCount)
		})
	}
}

func TestTranslateZeroAmplitudeContributesNoSamples(t *testing.T) {
	rect := pulseshape.Rectangular{}
	seq := sequence.Sequence{Events: []sequence.Event{
		tx("blank", 0, 5e-6, rect),
		rx("rx", 10e-6),
		{Name: "tr", Duration: 50e-6},
	}}
	p, err := New(settings.Defaults(), nil).Translate(seq)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PulseCount)
	assert.NotNil(t, p.Frequency)
	assert.Empty(t, p.Amplitude)
	assert.Empty(t, p.SampleOffset)
	assert.InDelta(t, 50e-6, p.RepetitionTime, 1e-18)
	assertInvariants(t, p)
}

func TestTranslateBlankScanSkipsEventsWithoutTX(t *testing.T) {
	rect := pulseshape.Rectangular{}
	seq := sequence.Sequence{Events: []sequence.Event{
		tx("p1", 0.5, 2e-6, rect),
		tx("b1", 0, 5e-6, rect),
		{Name: "gate only", Duration: 3e-6, Gate: &sequence.GateParameter{Enabled: true}},
		tx("b2", 0, 2e-6, rect),
		tx("p2", 0.5, 2e-6, rect),
		{Name: "tr", Duration: 10e-6},
	}}
	p, err := New(settings.Defaults(), nil).Translate(seq)
	require.NoError(t, err)
	assertInvariants(t, p)

	n1 := pulseshape.SampleCount(2e-6, fs)
	want := int(math.Ceil((pulseshape.DefaultResolution + 7e-6) * fs))
	assert.Equal(t, want, p.SampleOffset[n1])
}

func TestAccumulatedBlankDuration(t *testing.T) {
	rect := pulseshape.Rectangular{}
	events := []sequence.Event{
		tx("b0", 0, 1e-6, rect),
		tx("p", 0.2, 1e-6, rect),
		tx("b1", 0, 2e-6, rect),
		rx("rx", 4e-6),
		tx("b2", 0, 3e-6, rect),
	}
	assert.InDelta(t, 5e-6, AccumulatedBlankDuration(events), 1e-18)
	assert.InDelta(t, 1e-6, AccumulatedBlankDuration(events[:1]), 1e-18)
	assert.Zero(t, AccumulatedBlankDuration(events[:2]))
	assert.Zero(t, AccumulatedBlankDuration(nil))
}

func TestTranslateIsIdempotent(t *testing.T) {
	tr := New(settings.Defaults(), nil)
	a, err := tr.Translate(blankingSequence())
	require.NoError(t, err)
	b, err := tr.Translate(blankingSequence())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTranslateDegeneratePulseIsSkipped(t *testing.T) {
	rect := pulseshape.Rectangular{}
	seq := sequence.Sequence{Events: []sequence.Event{
		tx("placeholder", 1, 1e-9, rect),
		tx("p", 0.5, 1e-6, rect),
		{Name: "tr", Duration: 10e-6},
	}}
	p, err := New(settings.Defaults(), nil).Translate(seq)
	require.NoError(t, err)
	assertInvariants(t, p)
	assert.Equal(t, pulseshape.SampleCount(1e-6, fs), p.PulseCount)
	assert.Equal(t, lime.FirstPulseOffset, p.SampleOffset[0])
}

func TestTranslateUsesShapeResolution(t *testing.T) {
	res := 2 / fs
	seq := sequence.Sequence{Events: []sequence.Event{
		tx("p", 0.5, 1e-6, pulseshape.Rectangular{Res: res}),
		tx("q", 0.5, 1e-6, pulseshape.Rectangular{Res: res}),
		{Name: "tr", Duration: 10e-6},
	}}
	var buf bytes.Buffer
	p, err := New(settings.Defaults(), logging.New(logging.Warn, logging.Text, &buf)).Translate(seq)
	require.NoError(t, err)
	assertInvariants(t, p)
	assert.Contains(t, buf.String(), "shape resolution differs from sample period")

	n := pulseshape.SampleCount(1e-6, fs)
	assert.Equal(t, res, p.Duration[0])
	assert.Equal(t, 2, p.SampleOffset[1])
	assert.Equal(t, 2, p.SampleOffset[n])
}

func TestTranslateRejectsInvalidInput(t *testing.T) {
	bad := sequence.Sequence{Events: []sequence.Event{
		tx("p", 0.5, 1e-6, pulseshape.Rectangular{}),
		{Name: "neg", Duration: -1e-6},
	}}
	p, err := New(settings.Defaults(), nil).Translate(bad)
	require.ErrorIs(t, err, sequence.ErrInvalidSequence)
	assert.Nil(t, p)

	twoRX := sequence.Sequence{Events: []sequence.Event{rx("a", 1e-6), rx("b", 1e-6)}}
	_, err = New(settings.Defaults(), nil).Translate(twoRX)
	require.ErrorIs(t, err, sequence.ErrInvalidSequence)

	cfg := settings.Defaults()
	cfg.SampleRate = 0
	_, err = New(cfg, nil).Translate(blankingSequence())
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestRXWindow(t *testing.T) {
	cfg := settings.Defaults()
	w, err := New(cfg, nil).RXWindow(blankingSequence())
	require.NoError(t, err)

	begin := (25e-6 + float64(lime.FirstPulseOffset)/fs + cfg.RXOffset) * 1e6
	assert.InDelta(t, begin, w.Begin, 1e-9)
	assert.InDelta(t, begin+20, w.End, 1e-9)
	assert.InDelta(t, 20, w.Length(), 1e-9)
	assert.InDelta(t, w.Begin*1e-6, w.BeginSeconds(), 1e-18)
}

func TestRXWindowAbsent(t *testing.T) {
	seq := sequence.Sequence{Events: []sequence.Event{
		tx("p", 0.5, 1e-6, pulseshape.Rectangular{}),
		{Name: "rx off", Duration: 10e-6, RX: &sequence.RXParameter{Enabled: false}},
		{Name: "tr", Duration: 10e-6},
	}}
	w, err := RXWindow(seq, settings.Defaults())
	require.ErrorIs(t, err, ErrNoRXWindow)
	assert.Nil(t, w)
}

func TestRXWindowRejectsTwoReceivers(t *testing.T) {
	seq := sequence.Sequence{Events: []sequence.Event{rx("a", 1e-6), rx("b", 1e-6)}}
	_, err := RXWindow(seq, settings.Defaults())
	require.ErrorIs(t, err, sequence.ErrInvalidSequence)
}
