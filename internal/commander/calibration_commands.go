package commander

import (
	"encoding/binary"
	"fmt"

	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// calibration functions, read the datasheet before using them on a deployed sensor

// SetSinglePointCorrection calibrates against a known CO2 level in ppm (400-5000).
func (s *Sensor) SetSinglePointCorrection(ppm float32) error {
	if !(ppm >= globals.SINGLE_POINT_MIN && ppm <= globals.SINGLE_POINT_MAX) {
		return &ValidationError{
			Param: "single point correction",
			Value: float64(ppm),
			Min:   globals.SINGLE_POINT_MIN,
			Max:   globals.SINGLE_POINT_MAX,
		}
	}

	frame := s.load(cmdSetSinglePoint)
	putFloat32(frame[SINGLE_POINT_IDX:], ppm)
	if err := s.exchange(cmdSetSinglePoint, frame); err != nil {
		return err
	}
	if s.rxBuf[SINGLE_POINT_DONE_IDX] == 0 {
		return &ProtocolError{Command: cmdSetSinglePoint.name, Reason: "correction not accepted"}
	}
	return nil
}

// GetSinglePointCorrectionReady reports whether a started correction has finished.
func (s *Sensor) GetSinglePointCorrectionReady() (bool, error) {
	frame := s.load(cmdGetSinglePointReady)
	if err := s.exchange(cmdGetSinglePointReady, frame); err != nil {
		return false, err
	}
	return s.rxBuf[RESPONSE_VALUE_IDX] == 0, nil
}

func (s *Sensor) OpenSelfCalibration() error {
	frame := s.load(cmdOpenSelfCalibration)
	return s.exchange(cmdOpenSelfCalibration, frame)
}

func (s *Sensor) CloseSelfCalibration() error {
	frame := s.load(cmdCloseSelfCalibration)
	return s.exchange(cmdCloseSelfCalibration, frame)
}

// GetSelfCalibrationStatus returns the raw status byte, or
// globals.SENTINEL_SELF_CALIB_STATUS on failure.
func (s *Sensor) GetSelfCalibrationStatus() (uint8, error) {
	frame := s.load(cmdGetSelfCalibrationStatus)
	if err := s.exchange(cmdGetSelfCalibrationStatus, frame); err != nil {
		return globals.SENTINEL_SELF_CALIB_STATUS, err
	}
	return s.rxBuf[RESPONSE_VALUE_IDX], nil
}

// SetSelfCalibrationHours sets the self calibration period (24-720 hours).
func (s *Sensor) SetSelfCalibrationHours(hours uint16) error {
	if hours < globals.SELF_CALIB_HOURS_MIN || hours > globals.SELF_CALIB_HOURS_MAX {
		return &ValidationError{
			Param: "self calibration hours",
			Value: float64(hours),
			Min:   globals.SELF_CALIB_HOURS_MIN,
			Max:   globals.SELF_CALIB_HOURS_MAX,
		}
	}

	frame := s.load(cmdSetSelfCalibrationHours)
	binary.LittleEndian.PutUint16(frame[SELF_CALIB_HOURS_IDX:], hours)
	if err := s.exchange(cmdSetSelfCalibrationHours, frame); err != nil {
		return err
	}
	if status := s.rxBuf[RESPONSE_VALUE_IDX]; status != 0 {
		return &ProtocolError{
			Command: cmdSetSelfCalibrationHours.name,
			Reason:  fmt.Sprintf("device returned status 0x%02X", status),
		}
	}
	return nil
}

// GetSelfCalibrationHours returns the self calibration period, or
// globals.SENTINEL_SELF_CALIB_HOURS on failure.
func (s *Sensor) GetSelfCalibrationHours() (uint16, error) {
	frame := s.load(cmdGetSelfCalibrationHours)
	if err := s.exchange(cmdGetSelfCalibrationHours, frame); err != nil {
		return globals.SENTINEL_SELF_CALIB_HOURS, err
	}
	return binary.LittleEndian.Uint16(s.rxBuf[RESPONSE_VALUE_IDX:]), nil
}
