package commander

import (
	"errors"
	"fmt"
	"time"

	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// ValidationError is returned when a parameter is out of range. No bytes are sent.
type ValidationError struct {
	Param string
	Value float64
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: allowed range is %v-%v", e.Param, e.Value, e.Min, e.Max)
}

// TimeoutError is returned when the sensor did not send the full response in time.
type TimeoutError struct {
	Command  string
	Expected int
	Received int
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s: received %d of %d bytes",
		e.Command, e.Timeout, e.Received, e.Expected)
}

// ProtocolError is returned when a complete response fails a validity check.
type ProtocolError struct {
	Command string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

// IsValidationError returns true if err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTimeoutError returns true if err wraps a TimeoutError.
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsProtocolError returns true if err wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// ErrorCode mirrors the datasheet error codes reported by LastError.
type ErrorCode int

const (
	OK                   ErrorCode = globals.MTP40_OK
	INVALID_AIR_PRESSURE ErrorCode = globals.MTP40_INVALID_AIR_PRESSURE
	INVALID_GAS_LEVEL    ErrorCode = globals.MTP40_INVALID_GAS_LEVEL
	INVALID_ADDRESS      ErrorCode = globals.MTP40_INVALID_ADDRESS
)

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "ok"
	case INVALID_AIR_PRESSURE:
		return "invalid air pressure"
	case INVALID_GAS_LEVEL:
		return "invalid gas level"
	case INVALID_ADDRESS:
		return "invalid address"
	default:
		return fmt.Sprintf("unknown error code 0x%02X", int(c))
	}
}
