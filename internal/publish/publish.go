// Package publish ships sensor readings to external systems.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"UCLA-Rocket-Project/MTP40/internal/commander"
)

// Reading is one poll of the sensor as it is published.
type Reading struct {
	ID               uuid.UUID `json:"id" yaml:"id"`
	Sensor           uint8     `json:"sensor" yaml:"sensor"`
	Type             string    `json:"type" yaml:"type"`
	GasConcentration uint16    `json:"gasConcentrationPpm" yaml:"gasConcentrationPpm"`
	AirPressure      float32   `json:"airPressureReferenceHpa" yaml:"airPressureReferenceHpa"`
	Time             time.Time `json:"time" yaml:"time"`
}

func NewReading(address, sensorType uint8, ppm uint16, hPa float32, at time.Time) Reading {
	return Reading{
		ID:               uuid.New(),
		Sensor:           address,
		Type:             commander.VariantName(sensorType),
		GasConcentration: ppm,
		AirPressure:      hPa,
		Time:             at.UTC(),
	}
}

func (r Reading) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reading: %w", err)
	}
	return b, nil
}

type Sink interface {
	Name() string
	Publish(ctx context.Context, reading Reading) error
	Close() error
}

// Fanout publishes every reading to all sinks. Observe, when set, sees the result
// of each sink.
type Fanout struct {
	Sinks   []Sink
	Observe func(sink string, err error)
}

func (f *Fanout) Name() string {
	return "fanout"
}

func (f *Fanout) Publish(ctx context.Context, reading Reading) error {
	var errs []error
	for _, sink := range f.Sinks {
		err := sink.Publish(ctx, reading)
		if f.Observe != nil {
			f.Observe(sink.Name(), err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, sink := range f.Sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
