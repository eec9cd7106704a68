// Package exporter polls a sensor on a fixed interval and serves its readings.
package exporter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/globals"
	"UCLA-Rocket-Project/MTP40/internal/metrics"
	"UCLA-Rocket-Project/MTP40/internal/publish"
)

// Exporter owns the sensor. Every access goes through the sensor mutex because a
// Sensor keeps one frame buffer and cannot interleave exchanges.
type Exporter struct {
	sensorMu sync.Mutex
	sensor   *commander.Sensor

	interval time.Duration
	metrics  *metrics.SensorMetrics
	sink     publish.Sink
	logger   *zap.Logger

	stateMu sync.RWMutex
	latest  *publish.Reading
	lastErr error
}

// New wires an exporter. m and sink may be nil.
func New(sensor *commander.Sensor, interval time.Duration, m *metrics.SensorMetrics, sink publish.Sink, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		sensor:   sensor,
		interval: interval,
		metrics:  m,
		sink:     sink,
		logger:   logger,
	}
}

// Run polls until ctx is done. The first poll happens immediately.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("Starting sensor poll loop", zap.Duration("interval", e.interval))
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if _, err := e.Poll(ctx); err != nil {
			e.logger.Warn("Sensor poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			e.logger.Info("Stopping sensor poll loop")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll takes one reading and hands it to the sink.
func (e *Exporter) Poll(ctx context.Context) (publish.Reading, error) {
	var (
		ppm         uint16
		hPa         float32
		gasErr      error
		pressureErr error
		address     uint8
		sensorType  uint8
		at          time.Time
	)
	e.Do(func(s *commander.Sensor) error {
		ppm, gasErr = s.GetGasConcentration()
		hPa, pressureErr = s.GetAirPressureReference()
		address, sensorType, at = s.Address(), s.GetType(), s.LastRead()
		return nil
	})

	if err := errors.Join(gasErr, pressureErr); err != nil {
		e.stateMu.Lock()
		e.lastErr = err
		e.stateMu.Unlock()
		return publish.Reading{}, err
	}
	if at.IsZero() {
		at = time.Now()
	}

	reading := publish.NewReading(address, sensorType, ppm, hPa, at)
	if e.metrics != nil {
		e.metrics.ObserveReading(ppm, hPa, at)
	}

	e.stateMu.Lock()
	e.latest = &reading
	e.lastErr = nil
	e.stateMu.Unlock()

	e.logger.Debug("Took sensor reading",
		zap.Uint16("ppm", ppm),
		zap.Float32("hPa", hPa),
		zap.String("id", reading.ID.String()),
	)

	if e.sink != nil {
		if err := e.sink.Publish(ctx, reading); err != nil {
			e.logger.Warn("Could not publish reading", zap.String("sink", e.sink.Name()), zap.Error(err))
		}
	}
	return reading, nil
}

// Do runs fn with exclusive access to the sensor.
func (e *Exporter) Do(fn func(*commander.Sensor) error) error {
	e.sensorMu.Lock()
	defer e.sensorMu.Unlock()
	return fn(e.sensor)
}

// Latest returns the last successful reading.
func (e *Exporter) Latest() (publish.Reading, bool) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.latest == nil {
		return publish.Reading{}, false
	}
	return *e.latest, true
}

// Ready reports whether at least one poll succeeded.
func (e *Exporter) Ready() bool {
	_, ok := e.Latest()
	return ok
}

func (e *Exporter) LastError() error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.lastErr
}

type Status struct {
	Address                    uint8            `json:"address" yaml:"address"`
	Type                       string           `json:"type" yaml:"type"`
	SpecificAddress            bool             `json:"specificAddress" yaml:"specificAddress"`
	Timeout                    string           `json:"timeout" yaml:"timeout"`
	SuppressError              bool             `json:"suppressError" yaml:"suppressError"`
	SelfCalibration            string           `json:"selfCalibration" yaml:"selfCalibration"`
	SelfCalibrationHours       uint16           `json:"selfCalibrationHours,omitempty" yaml:"selfCalibrationHours,omitempty"`
	SinglePointCorrectionReady bool             `json:"singlePointCorrectionReady" yaml:"singlePointCorrectionReady"`
	LastRead                   time.Time        `json:"lastRead" yaml:"lastRead"`
	LastReading                *publish.Reading `json:"lastReading,omitempty" yaml:"lastReading,omitempty"`
	Errors                     []string         `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Status queries the calibration state of the sensor. Failed queries are listed in
// Errors instead of failing the whole call.
func (e *Exporter) Status() Status {
	var st Status
	e.Do(func(s *commander.Sensor) error {
		st.Address = s.Address()
		st.Type = commander.VariantName(s.GetType())
		st.SpecificAddress = s.UseSpecificAddress()
		st.Timeout = s.GetTimeout().String()
		st.SuppressError = s.GetSuppressError()
		st.LastRead = s.LastRead()

		status, err := s.GetSelfCalibrationStatus()
		switch {
		case err != nil:
			st.SelfCalibration = "unknown"
			st.Errors = append(st.Errors, err.Error())
		case status == globals.SELF_CALIB_OPEN:
			st.SelfCalibration = "open"
		case status == globals.SELF_CALIB_CLOSED:
			st.SelfCalibration = "closed"
		default:
			st.SelfCalibration = "unknown"
		}
		if err == nil && e.metrics != nil {
			e.metrics.ObserveSelfCalibration(status)
		}

		if hours, err := s.GetSelfCalibrationHours(); err != nil {
			st.Errors = append(st.Errors, err.Error())
		} else {
			st.SelfCalibrationHours = hours
		}

		if ready, err := s.GetSinglePointCorrectionReady(); err != nil {
			st.Errors = append(st.Errors, err.Error())
		} else {
			st.SinglePointCorrectionReady = ready
		}
		return nil
	})

	if reading, ok := e.Latest(); ok {
		st.LastReading = &reading
	}
	return st
}
