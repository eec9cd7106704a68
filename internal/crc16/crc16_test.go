package crc16

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitwise Modbus CRC, used as an oracle for the table version
func modbusCRC(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0xFFFF,
		},
		{
			name:     "get address",
			data:     []byte{0xFE, 0x03, 0x14, 0x00, 0x01, 0x00},
			expected: 0xA555,
		},
		{
			name:     "get air pressure",
			data:     []byte{0xFE, 0x68, 0x01},
			expected: 0x30FE,
		},
		{
			name:     "get gas concentration",
			data:     []byte{0xFE, 0x69, 0x03},
			expected: 0x617E,
		},
		{
			name:     "set address",
			data:     []byte{0xFE, 0x10, 0x04, 0x00, 0x01, 0x00, 0x01, 0x60, 0x00},
			expected: 0x5842,
		},
		{
			name:     "set air pressure reference",
			data:     []byte{0xFE, 0x67, 0x01, 0x01, 0x00, 0x40, 0x7D, 0x44},
			expected: 0xA3C4,
		},
		{
			name:     "open self calibration",
			data:     []byte{0xFE, 0x28, 0x66, 0xFF},
			expected: 0x24DA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Checksum(tt.data)
			if result != tt.expected {
				t.Errorf("Checksum() = 0x%04X, want 0x%04X", result, tt.expected)
			}
		})
	}
}

func TestChecksumNilIsInitialValue(t *testing.T) {
	assert.Equal(t, uint16(INITIAL_VALUE), Checksum(nil))
}

func TestChecksumMatchesBitwiseModbus(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	for i := 0; i < 500; i++ {
		buf := make([]byte, rng.Intn(64))
		rng.Read(buf)
		require.Equal(t, modbusCRC(buf), Checksum(buf), "input % X", buf)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	data := []byte{0xFE, 0x28, 0x6A, 0x64, 0x00}
	first := Checksum(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Checksum(data))
	}
	assert.Equal(t, []byte{0xFE, 0x28, 0x6A, 0x64, 0x00}, data, "input must not be modified")
}

func TestAppendAndVerify(t *testing.T) {
	frame := []byte{0xFE, 0x28, 0x67, 0x00, 0x00, 0xAA}
	crc := Append(frame, 5)

	assert.Equal(t, uint16(0xDA4F), crc)
	assert.Equal(t, []byte{0xFE, 0x28, 0x67, 0x4F, 0xDA, 0xAA}, frame)
	assert.True(t, Verify(frame[:5]))

	frame[1] ^= 0x01
	assert.False(t, Verify(frame[:5]))
	assert.False(t, Verify([]byte{0x01}))
}
