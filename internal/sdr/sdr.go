package sdr

import (
	"context"
	"errors"

	"github.com/rjboer/limenqr/internal/lime"
)

var (
	// ErrNotConnected is returned by a driver used after Close.
	ErrNotConnected = errors.New("driver not connected")
	// ErrDriver wraps failures reported by the radio or the remote driver process.
	ErrDriver = errors.New("driver failure")
)

// Capture is the raw receive data of one measurement: one buffer per average,
// each holding interleaved I/Q samples starting at the beginning of the sequence.
type Capture struct {
	SampleRate float64     `msgpack:"sra"`
	Buffers    [][]float32 `msgpack:"iq"`
}

// NewCapture interleaves complex buffers into a Capture.
func NewCapture(sampleRate float64, buffers [][]complex64) Capture {
	c := Capture{SampleRate: sampleRate, Buffers: make([][]float32, len(buffers))}
	for i, buf := range buffers {
		iq := make([]float32, 2*len(buf))
		for j, v := range buf {
			iq[2*j] = real(v)
			iq[2*j+1] = imag(v)
		}
		c.Buffers[i] = iq
	}
	return c
}

// Samples returns buffer i as complex samples. A trailing odd value is dropped.
func (c Capture) Samples(i int) []complex64 {
	if i < 0 || i >= len(c.Buffers) {
		return []complex64{}
	}
	iq := c.Buffers[i]
	out := make([]complex64, len(iq)/2)
	for j := range out {
		out[j] = complex(iq[2*j], iq[2*j+1])
	}
	return out
}

// Driver programs the spectrometer with a parameter record and returns the capture.
// The record is a finished command descriptor and must not be modified.
type Driver interface {
	Run(ctx context.Context, p *lime.ParameterSet) (Capture, error)
	Close() error
}
