package commander

import (
	"encoding/binary"
	"math"

	"UCLA-Rocket-Project/MTP40/internal/crc16"
)

// command is one entry of the datasheet command table. The template is sent as is
// apart from the address byte, the payload slots and the trailing CRC.
type command struct {
	name     string
	template []byte
	respLen  int
}

// templates copied from the datasheet, CRC slots included
var (
	cmdGetAddress = command{
		name:     "get address",
		template: []byte{0xFE, 0x03, 0x14, 0x00, 0x01, 0x00, 0x55, 0xA5},
		respLen:  7,
	}
	cmdSetAddress = command{
		name:     "set address",
		template: []byte{0xFE, 0x10, 0x04, 0x00, 0x01, 0x00, 0x01, 0x60, 0x00, 0x42, 0x58},
		respLen:  8,
	}
	cmdGetAirPressure = command{
		name:     "get air pressure reference",
		template: []byte{0xFE, 0x68, 0x01, 0xFE, 0x30},
		respLen:  10,
	}
	cmdSetAirPressure = command{
		name:     "set air pressure reference",
		template: []byte{0xFE, 0x67, 0x01, 0x01, 0x00, 0x40, 0x7D, 0x44, 0xC4, 0xA3},
		respLen:  10,
	}
	cmdGetGasConcentration = command{
		name:     "get gas concentration",
		template: []byte{0xFE, 0x69, 0x03, 0x7E, 0x61},
		respLen:  14,
	}
	cmdSetSinglePoint = command{
		name:     "set single point correction",
		template: []byte{0xFE, 0x28, 0x80, 0x00, 0x80, 0x40, 0x44, 0x33, 0x22},
		respLen:  10,
	}
	cmdGetSinglePointReady = command{
		name:     "get single point correction ready",
		template: []byte{0xFE, 0x28, 0x81, 0xCE, 0x50},
		respLen:  6,
	}
	cmdOpenSelfCalibration = command{
		name:     "open self calibration",
		template: []byte{0xFE, 0x28, 0x66, 0xFF, 0xDA, 0x24},
		respLen:  6,
	}
	cmdCloseSelfCalibration = command{
		name:     "close self calibration",
		template: []byte{0xFE, 0x28, 0x66, 0x00, 0x9A, 0x64},
		respLen:  6,
	}
	cmdGetSelfCalibrationStatus = command{
		name:     "get self calibration status",
		template: []byte{0xFE, 0x28, 0x67, 0x4F, 0xDA},
		respLen:  6,
	}
	cmdSetSelfCalibrationHours = command{
		name:     "set self calibration hours",
		template: []byte{0xFE, 0x28, 0x6A, 0x64, 0x00, 0x0E, 0xA8},
		respLen:  6,
	}
	cmdGetSelfCalibrationHours = command{
		name:     "get self calibration hours",
		template: []byte{0xFE, 0x28, 0x69, 0xCE, 0x1E},
		respLen:  9,
	}
)

var commandTable = []command{
	cmdGetAddress,
	cmdSetAddress,
	cmdGetAirPressure,
	cmdSetAirPressure,
	cmdGetGasConcentration,
	cmdSetSinglePoint,
	cmdGetSinglePointReady,
	cmdOpenSelfCalibration,
	cmdCloseSelfCalibration,
	cmdGetSelfCalibrationStatus,
	cmdSetSelfCalibrationHours,
	cmdGetSelfCalibrationHours,
}

// payload offsets inside the templates
const (
	SET_ADDRESS_IDX       = 7
	AIR_PRESSURE_IDX      = 4
	SINGLE_POINT_IDX      = 3
	SELF_CALIB_HOURS_IDX  = 3
	GAS_LEVEL_IDX         = 4
	GAS_STATUS_START_IDX  = 8
	GAS_STATUS_END_IDX    = 12
	RESPONSE_VALUE_IDX    = 3
	SINGLE_POINT_DONE_IDX = 7
)

// SealFrame writes the address byte and the trailing CRC (low byte first) in place
// and returns the CRC.
func SealFrame(frame []byte, address byte) uint16 {
	frame[0] = address
	return crc16.Append(frame, len(frame))
}

func putFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst[:4], math.Float32bits(v))
}

func float32At(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[:4]))
}
