package commander

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// Option configures a Sensor at construction time.
type Option func(*Sensor)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(s *Sensor) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger used for frame level debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sensor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder registers a Recorder that sees every exchange.
func WithRecorder(recorder Recorder) Option {
	return func(s *Sensor) {
		s.recorder = recorder
	}
}

// WithTimeout sets how long a response may take to arrive.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sensor) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithPollInterval sets the pause after a poll that returned no bytes.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Sensor) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithAddress sets the target device address. Values above 247 are ignored.
func WithAddress(address uint8) Option {
	return func(s *Sensor) {
		if address <= globals.MAX_ADDRESS {
			s.address = address
		}
	}
}

// WithSpecificAddress selects unicast (true) or broadcast (false) addressing.
func WithSpecificAddress(specific bool) Option {
	return func(s *Sensor) {
		s.useAddress = specific
	}
}

// WithSuppressError makes failed readings return the last good value.
func WithSuppressError(suppress bool) Option {
	return func(s *Sensor) {
		s.suppressError = suppress
	}
}

// WithResponseCRC enables CRC validation of every response frame.
func WithResponseCRC(verify bool) Option {
	return func(s *Sensor) {
		s.verifyCRC = verify
	}
}

// WithVariant tags the sensor with its sub-model, see ParseVariant.
func WithVariant(sensorType uint8) Option {
	return func(s *Sensor) {
		s.sensorType = sensorType
	}
}

// ParseVariant maps a model name such as "MTP40C" or "mtp40-d" to its type code.
func ParseVariant(name string) (uint8, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(name, "-", ""))
	switch normalized {
	case "MTP40C", "C":
		return globals.TYPE_MTP40C, nil
	case "MTP40D", "D":
		return globals.TYPE_MTP40D, nil
	}
	return globals.TYPE_UNKNOWN, fmt.Errorf("unknown sensor variant %q", name)
}

// VariantName is the inverse of ParseVariant.
func VariantName(sensorType uint8) string {
	switch sensorType {
	case globals.TYPE_MTP40C:
		return "MTP40C"
	case globals.TYPE_MTP40D:
		return "MTP40D"
	}
	return "unknown"
}
