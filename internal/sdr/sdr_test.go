package sdr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjboer/limenqr/internal/lime"
)

func pulsedRecord() *lime.ParameterSet {
	return &lime.ParameterSet{
		SampleRate:      30.72e6,
		IFFrequency:     1.2e6,
		AcquisitionTime: 20e-6,
		Averages:        3,
		PulseCount:      2,
		Frequency:       []float64{1.2e6, 1.2e6},
		Duration:        []float64{1 / 30.72e6, 1 / 30.72e6},
		Amplitude:       []float64{0.5, 0.5},
		SampleOffset:    []int{lime.FirstPulseOffset, 1},
		Phase:           []float64{0, 0.1},
	}
}

func TestCaptureInterleaving(t *testing.T) {
	c := NewCapture(1e6, [][]complex64{{1 + 2i, 3 - 4i}})
	assert.Equal(t, []float32{1, 2, 3, -4}, c.Buffers[0])
	assert.Equal(t, []complex64{1 + 2i, 3 - 4i}, c.Samples(0))
	assert.Empty(t, c.Samples(1))
	assert.Empty(t, c.Samples(-1))
}

func TestMockDriverRun(t *testing.T) {
	mock := NewMock()
	p := pulsedRecord()
	capture, err := mock.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, p.SampleRate, capture.SampleRate)
	require.Len(t, capture.Buffers, 3)
	for i := range capture.Buffers {
		assert.Len(t, capture.Samples(i), 615)
	}
	assert.Same(t, p, mock.Last())
	assert.Equal(t, 1, mock.Runs())

	// after the pulse train the decay dominates the noise
	after := capture.Samples(0)[350]
	assert.Greater(t, real(after)*real(after)+imag(after)*imag(after), float32(0.1))
}

func TestMockDriverRejectsInconsistentRecord(t *testing.T) {
	p := pulsedRecord()
	p.Phase = p.Phase[:1]
	_, err := NewMock().Run(context.Background(), p)
	require.ErrorIs(t, err, ErrDriver)

	_, err = NewMock().Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrDriver)
}

func TestMockDriverHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMock().Run(ctx, pulsedRecord())
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewSSHDriverDefaults(t *testing.T) {
	d, err := NewSSHDriver(SSHConfig{Host: "nqr.local"}, nil)
	require.NoError(t, err)
	cfg := d.Config()
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, 22, cfg.Port)
	assert.Equal(t, DefaultRemoteCommand, cfg.Command)

	_, err = NewSSHDriver(SSHConfig{}, nil)
	assert.Error(t, err)
}

func TestSSHDriverNeedsCredentials(t *testing.T) {
	d, err := NewSSHDriver(SSHConfig{Host: "127.0.0.1", Port: 1}, nil)
	require.NoError(t, err)
	_, err = d.Run(context.Background(), pulsedRecord())
	require.ErrorContains(t, err, "no ssh password or key")
}

func TestSSHDriverAfterClose(t *testing.T) {
	d, err := NewSSHDriver(SSHConfig{Host: "127.0.0.1", Password: "x"}, nil)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	_, err = d.Run(context.Background(), pulsedRecord())
	require.ErrorIs(t, err, ErrNotConnected)
}
