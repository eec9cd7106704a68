package commander

import (
	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/globals"
)

func addressError(address uint8) error {
	return &ValidationError{Param: "address", Value: float64(address), Min: 0, Max: globals.MAX_ADDRESS}
}

// GetAddress asks the sensor for its address. Returns globals.SENTINEL_ADDRESS on failure.
func (s *Sensor) GetAddress() (uint8, error) {
	frame := s.load(cmdGetAddress)
	if err := s.exchange(cmdGetAddress, frame); err != nil {
		s.lastError = INVALID_ADDRESS
		return globals.SENTINEL_ADDRESS, err
	}
	return s.rxBuf[RESPONSE_VALUE_IDX], nil
}

// SetAddress programs a new device address and targets it from then on.
func (s *Sensor) SetAddress(address uint8) error {
	if address > globals.MAX_ADDRESS {
		s.lastError = INVALID_ADDRESS
		return addressError(address)
	}

	frame := s.load(cmdSetAddress)
	frame[SET_ADDRESS_IDX] = address
	if err := s.exchange(cmdSetAddress, frame); err != nil {
		return err
	}

	s.logger.Info("Sensor address changed", zap.Uint8("from", s.address), zap.Uint8("to", address))
	s.address = address
	return nil
}

// SetGenericAddress sends every following command to the broadcast address.
func (s *Sensor) SetGenericAddress() {
	s.useAddress = false
}

// SetSpecificAddress sends every following command to the configured address.
func (s *Sensor) SetSpecificAddress() {
	s.useAddress = true
}

func (s *Sensor) UseSpecificAddress() bool {
	return s.useAddress
}
