package commander

import (
	"encoding/binary"
	"fmt"

	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// GetAirPressureReference returns the air pressure reference in hPa. The sensor is
// asked at most once per READ_INTERVAL; in between the last result is repeated.
// Returns globals.SENTINEL_AIR_PRESSURE on failure unless errors are suppressed.
func (s *Sensor) GetAirPressureReference() (float32, error) {
	now := s.clock.Now()
	if s.pressureLimiter.AllowN(now, 1) {
		s.lastRead = now
		s.pressureErr = s.readAirPressureReference()
		if s.pressureErr != nil {
			s.lastError = INVALID_AIR_PRESSURE
		}
	}

	if s.pressureErr != nil && !s.suppressError {
		return globals.SENTINEL_AIR_PRESSURE, s.pressureErr
	}
	return s.airPressureReference, nil
}

func (s *Sensor) readAirPressureReference() error {
	frame := s.load(cmdGetAirPressure)
	if err := s.exchange(cmdGetAirPressure, frame); err != nil {
		return err
	}
	s.airPressureReference = float32At(s.rxBuf[AIR_PRESSURE_IDX:])
	return nil
}

// SetAirPressureReference stores a new air pressure reference in hPa (700-1100).
func (s *Sensor) SetAirPressureReference(hPa float32) error {
	// written this way so NaN fails too
	if !(hPa >= globals.AIR_PRESSURE_MIN && hPa <= globals.AIR_PRESSURE_MAX) {
		return &ValidationError{
			Param: "air pressure reference",
			Value: float64(hPa),
			Min:   globals.AIR_PRESSURE_MIN,
			Max:   globals.AIR_PRESSURE_MAX,
		}
	}

	frame := s.load(cmdSetAirPressure)
	putFloat32(frame[AIR_PRESSURE_IDX:], hPa)
	return s.exchange(cmdSetAirPressure, frame)
}

// GetGasConcentration returns the CO2 level in ppm, rate limited like the air
// pressure reference. Returns globals.SENTINEL_GAS_CONCENTRATION on failure unless
// errors are suppressed.
func (s *Sensor) GetGasConcentration() (uint16, error) {
	now := s.clock.Now()
	if s.gasLimiter.AllowN(now, 1) {
		s.lastRead = now
		s.gasErr = s.readGasConcentration()
		if s.gasErr != nil {
			s.lastError = INVALID_GAS_LEVEL
		}
	}

	if s.gasErr != nil && !s.suppressError {
		return globals.SENTINEL_GAS_CONCENTRATION, s.gasErr
	}
	return s.gasLevel, nil
}

func (s *Sensor) readGasConcentration() error {
	frame := s.load(cmdGetGasConcentration)
	if err := s.exchange(cmdGetGasConcentration, frame); err != nil {
		return err
	}

	// status bytes must be zero for a valid measurement
	status := s.rxBuf[GAS_STATUS_START_IDX:GAS_STATUS_END_IDX]
	for _, b := range status {
		if b != 0 {
			return &ProtocolError{
				Command: cmdGetGasConcentration.name,
				Reason:  fmt.Sprintf("status bytes not zero (% X)", status),
			}
		}
	}

	s.gasLevel = binary.LittleEndian.Uint16(s.rxBuf[GAS_LEVEL_IDX:])
	return nil
}
