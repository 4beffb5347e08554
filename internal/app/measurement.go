package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"

	"github.com/rjboer/limenqr/internal/dsp"
	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/logging"
	"github.com/rjboer/limenqr/internal/sdr"
	"github.com/rjboer/limenqr/internal/sequence"
	"github.com/rjboer/limenqr/internal/settings"
	"github.com/rjboer/limenqr/internal/telemetry"
	"github.com/rjboer/limenqr/internal/translate"
)

// Config captures measurement level configuration that is not part of the
// spectrometer settings.
type Config struct {
	TargetFrequency float64       // Hz
	Averages        int           // captures averaged per measurement
	Retries         int           // driver retries after the first attempt
	RetryInterval   time.Duration // initial backoff between driver attempts
}

// Result is the post-processed outcome of one measurement.
type Result struct {
	ID          uuid.UUID
	Sequence    string
	Parameters  *lime.ParameterSet
	Window      translate.Window
	TimeDomain  []complex64 // averaged samples inside the RX window
	Spectrum    []float64   // dBFS
	Frequencies []float64   // Hz, aligned with Spectrum
	Attempts    int
}

// Peak returns the frequency and level of the strongest spectral bin.
func (r *Result) Peak() (hz, dbfs float64) {
	dbfs = math.Inf(-1)
	for i, v := range r.Spectrum {
		if v > dbfs {
			dbfs = v
			hz = r.Frequencies[i]
		}
	}
	return hz, dbfs
}

// Measurement wires the pulse sequence source, the translator and the driver
// into a single acquisition.
type Measurement struct {
	source   sequence.Provider
	driver   sdr.Driver
	reporter telemetry.Reporter
	logger   logging.Logger
	cfg      Config
	dsp      *dsp.CachedDSP
}

// NewMeasurement builds an orchestrator. A nil logger uses logging.Default; a
// nil reporter disables telemetry.
func NewMeasurement(source sequence.Provider, driver sdr.Driver, reporter telemetry.Reporter, logger logging.Logger, cfg Config) *Measurement {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Averages < 1 {
		cfg.Averages = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &Measurement{
		source:   source,
		driver:   driver,
		reporter: reporter,
		logger:   logger.With(logging.Subsystem("measurement")),
		cfg:      cfg,
		dsp:      dsp.NewCachedDSP(1),
	}
}

// Run performs one measurement with the given settings snapshot: translate the
// sequence, compute the RX window, drive the radio and post-process the capture.
// A sequence without an enabled RX event fails with translate.ErrNoRXWindow
// before the radio is touched.
func (m *Measurement) Run(ctx context.Context, snap settings.Snapshot) (*Result, error) {
	start := time.Now()

	seq, err := m.source.PulseSequence()
	if err != nil {
		return nil, fmt.Errorf("load pulse sequence: %w", err)
	}

	tr := translate.New(snap, m.logger)
	params, err := tr.Translate(seq)
	if err != nil {
		return nil, fmt.Errorf("translate pulse sequence: %w", err)
	}
	window, err := tr.RXWindow(seq)
	if err != nil {
		return nil, fmt.Errorf("configure acquisition: %w", err)
	}

	params.TargetFrequency = m.cfg.TargetFrequency
	params.LOFrequency = m.cfg.TargetFrequency - snap.IFFrequency
	params.Averages = m.cfg.Averages

	id := uuid.New()
	log := m.logger.With(logging.F("measurement_id", id.String()))
	log.Debug("parameter set ready",
		logging.F("samples", params.Samples()),
		logging.F("repetition_s", params.RepetitionTime),
		logging.F("lo_hz", params.LOFrequency),
		logging.F("rx_begin_us", window.Begin),
		logging.F("rx_end_us", window.End),
	)

	capture, attempts, err := m.acquire(ctx, params, log)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}

	res, err := m.process(capture, snap, *window)
	if err != nil {
		return nil, err
	}
	res.ID = id
	res.Sequence = seq.Name
	res.Parameters = params
	res.Attempts = attempts

	if m.reporter != nil {
		hz, db := res.Peak()
		m.reporter.Report(telemetry.Summary{
			ID:            id.String(),
			Sequence:      seq.Name,
			Samples:       params.Samples(),
			RepetitionS:   params.RepetitionTime,
			WindowBeginUS: window.Begin,
			WindowEndUS:   window.End,
			PeakDBFS:      db,
			PeakHz:        hz,
			Attempts:      attempts,
			Elapsed:       time.Since(start),
		})
	}
	return res, nil
}

func (m *Measurement) acquire(ctx context.Context, params *lime.ParameterSet, log logging.Logger) (sdr.Capture, int, error) {
	var (
		capture  sdr.Capture
		attempts int
	)
	op := func() error {
		attempts++
		c, err := m.driver.Run(ctx, params)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, sdr.ErrNotConnected) {
				return backoff.Permanent(err)
			}
			return err
		}
		capture = c
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = m.cfg.RetryInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(m.cfg.Retries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		log.Warn("driver run failed, retrying", logging.F("attempt", attempts), logging.F("wait_ms", wait.Seconds()*1000), logging.F("err", err))
	})
	if err != nil {
		return sdr.Capture{}, attempts, err
	}
	return capture, attempts, nil
}

func (m *Measurement) process(capture sdr.Capture, snap settings.Snapshot, window translate.Window) (*Result, error) {
	if len(capture.Buffers) == 0 {
		return nil, fmt.Errorf("%w: capture has no buffers", sdr.ErrDriver)
	}
	fs := capture.SampleRate
	if !(fs > 0) {
		fs = snap.SampleRate
	}

	slices := make([][]complex64, 0, len(capture.Buffers))
	for i := range capture.Buffers {
		slices = append(slices, dsp.SliceWindow(capture.Samples(i), fs, window.BeginSeconds(), window.EndSeconds()))
	}
	avg := dsp.Average(slices)
	if len(avg) == 0 {
		return nil, fmt.Errorf("%w: capture does not cover the RX window %.3f-%.3f us", sdr.ErrDriver, window.Begin, window.End)
	}

	if m.dsp.Size() != len(avg) {
		m.dsp.UpdateSize(len(avg))
	}
	_, spectrum := m.dsp.FFTAndDBFS(avg, snap.FFTShift)

	return &Result{
		Window:      window,
		TimeDomain:  avg,
		Spectrum:    spectrum,
		Frequencies: dsp.FrequencyAxis(len(avg), fs, snap.FFTShift),
	}, nil
}
