/**
Wrapper around the regular serial package to simplify the interface

This wrapper should:
1. Be able to list all the open ports and connect to one
2. Open the port with the sensor UART settings (8N1, short read timeout)
3. Pass frames through to the sensor and log the traffic
*/

package rpSerial

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// swapped out in tests
var openPort = serial.Open

type RpSerial struct {
	serial.Port

	logger   *zap.Logger
	portName string
}

// NewRPSerial opens portName at baudRate with 8 data bits, no parity and one stop
// bit. readPoll bounds how long a single Read blocks when no byte arrives.
func NewRPSerial(portName string, baudRate int, readPoll time.Duration, logger *zap.Logger) (*RpSerial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openPort(portName, mode)
	if err != nil {
		logger.Error("Error opening serial port", zap.Error(err), zap.String("portName", portName))
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readPoll); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", portName, err)
	}

	logger.Info("Opened serial port",
		zap.String("portName", portName),
		zap.Int("baudRate", baudRate),
		zap.Duration("readPoll", readPoll),
	)

	return &RpSerial{
		Port:     port,
		logger:   logger,
		portName: portName,
	}, nil
}

func (r *RpSerial) Write(frame []byte) (int, error) {
	n, err := r.Port.Write(frame)

	if err != nil {
		r.logger.Error("Error while trying to send frame", zap.Error(err))
	} else {
		r.logger.Debug("Wrote frame to serial port", zap.Int("bytesWritten", n), zap.Binary("frame", frame))
	}
	return n, err
}

// ResetInputBuffer drops whatever the sensor sent since the last exchange.
func (r *RpSerial) ResetInputBuffer() error {
	if err := r.Port.ResetInputBuffer(); err != nil {
		r.logger.Warn("Error while resyncing serial port", zap.Error(err))
		return err
	}
	return nil
}

func (r *RpSerial) Close() error {
	r.logger.Info("Closing serial port", zap.String("portName", r.portName))
	return r.Port.Close()
}

func (r *RpSerial) Name() string {
	return r.portName
}

func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
