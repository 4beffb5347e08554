package telemetry

import (
	"time"

	"github.com/rjboer/limenqr/internal/logging"
)

// Summary describes one finished measurement.
type Summary struct {
	ID            string
	Sequence      string
	Samples       int
	RepetitionS   float64
	WindowBeginUS float64
	WindowEndUS   float64
	PeakDBFS      float64
	PeakHz        float64
	Attempts      int
	Elapsed       time.Duration
}

// Reporter captures measurement summaries.
type Reporter interface {
	Report(s Summary)
}

// MultiReporter fans a summary out to every reporter.
type MultiReporter []Reporter

func (m MultiReporter) Report(s Summary) {
	for _, r := range m {
		if r != nil {
			r.Report(s)
		}
	}
}

// StdoutReporter writes summaries through a logger.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter with the provided logger.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

func (r StdoutReporter) Report(s Summary) {
	fields := []logging.Field{
		logging.Subsystem("telemetry"),
		logging.F("measurement_id", s.ID),
		logging.F("samples", s.Samples),
		logging.F("rx_begin_us", s.WindowBeginUS),
		logging.F("rx_end_us", s.WindowEndUS),
	}
	if s.Sequence != "" {
		fields = append(fields, logging.F("sequence", s.Sequence))
	}
	if s.RepetitionS != 0 {
		fields = append(fields, logging.F("repetition_s", s.RepetitionS))
	}
	if s.PeakHz != 0 || s.PeakDBFS != 0 {
		fields = append(fields, logging.F("peak_hz", s.PeakHz), logging.F("peak_dbfs", s.PeakDBFS))
	}
	if s.Attempts > 1 {
		fields = append(fields, logging.F("attempts", s.Attempts))
	}
	if s.Elapsed > 0 {
		fields = append(fields, logging.F("elapsed_ms", s.Elapsed.Seconds()*1000))
	}
	r.logger.Info("measurement complete", fields...)
}
