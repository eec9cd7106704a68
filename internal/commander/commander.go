// Package commander drives an MTP40-C / MTP40-D CO2 sensor over its serial protocol.
//
// Every operation builds a frame from the datasheet template, seals it with the
// address byte and CRC, writes it to the stream and waits for a fixed length answer.
// A Sensor is not safe for concurrent use; callers must serialize access.
package commander

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"UCLA-Rocket-Project/MTP40/internal/crc16"
	"UCLA-Rocket-Project/MTP40/internal/globals"
)

const (
	DEFAULT_TIMEOUT       = globals.DEFAULT_TIMEOUT_MS * time.Millisecond
	DEFAULT_POLL_INTERVAL = globals.DEFAULT_POLL_MS * time.Millisecond
	READ_INTERVAL         = globals.READ_INTERVAL_MS * time.Millisecond
)

type Sensor struct {
	stream   Stream
	clock    Clock
	logger   *zap.Logger
	recorder Recorder

	txBuf [globals.FRAME_BUFFER_SIZE]byte
	rxBuf [globals.FRAME_BUFFER_SIZE]byte
	rxLen int

	// configuration
	address       uint8
	useAddress    bool
	timeout       time.Duration
	pollInterval  time.Duration
	suppressError bool
	verifyCRC     bool
	sensorType    uint8
	lastError     ErrorCode

	// rate limited readings
	lastRead             time.Time
	gasLimiter           *rate.Limiter
	gasLevel             uint16
	gasErr               error
	pressureLimiter      *rate.Limiter
	airPressureReference float32
	pressureErr          error
}

// New binds a sensor to stream. The stream is borrowed and never closed here.
func New(stream Stream, opts ...Option) *Sensor {
	if stream == nil {
		panic("stream cannot be nil")
	}

	s := &Sensor{
		stream:          stream,
		clock:           SystemClock,
		logger:          zap.NewNop(),
		address:         globals.DEFAULT_ADDRESS,
		timeout:         DEFAULT_TIMEOUT,
		pollInterval:    DEFAULT_POLL_INTERVAL,
		sensorType:      globals.TYPE_UNKNOWN,
		lastError:       OK,
		gasLimiter:      rate.NewLimiter(rate.Every(READ_INTERVAL), 1),
		pressureLimiter: rate.NewLimiter(rate.Every(READ_INTERVAL), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMTP40C creates a sensor tagged as an MTP40-C.
func NewMTP40C(stream Stream, opts ...Option) *Sensor {
	return New(stream, append([]Option{WithVariant(globals.TYPE_MTP40C)}, opts...)...)
}

// NewMTP40D creates a sensor tagged as an MTP40-D.
func NewMTP40D(stream Stream, opts ...Option) *Sensor {
	return New(stream, append([]Option{WithVariant(globals.TYPE_MTP40D)}, opts...)...)
}

// Begin sets the expected device address and checks that the sensor answers with it.
func (s *Sensor) Begin(address uint8) error {
	if address > globals.MAX_ADDRESS {
		s.lastError = INVALID_ADDRESS
		return addressError(address)
	}
	s.address = address

	got, err := s.GetAddress()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if got != address {
		return &ProtocolError{
			Command: "begin",
			Reason:  fmt.Sprintf("device reports address %d, expected %d", got, address),
		}
	}
	return nil
}

// IsConnected reports whether the device answers with the configured address.
func (s *Sensor) IsConnected() bool {
	got, err := s.GetAddress()
	return err == nil && got == s.address
}

// Request runs one exchange. The first commandLength bytes of frame must hold the
// function code and payload; the address byte and the two CRC slots are filled in
// here. On success Response holds exactly responseLength bytes.
func (s *Sensor) Request(frame []byte, commandLength, responseLength int) error {
	return s.request("request", frame, commandLength, responseLength)
}

// Response returns a copy of the last complete response.
func (s *Sensor) Response() []byte {
	out := make([]byte, s.rxLen)
	copy(out, s.rxBuf[:s.rxLen])
	return out
}

// load copies a template into the transmit buffer
func (s *Sensor) load(cmd command) []byte {
	n := copy(s.txBuf[:], cmd.template)
	return s.txBuf[:n]
}

func (s *Sensor) exchange(cmd command, frame []byte) error {
	return s.request(cmd.name, frame, len(frame), cmd.respLen)
}

func (s *Sensor) targetAddress() byte {
	if s.useAddress {
		return s.address
	}
	return globals.BROADCAST_ADDRESS
}

func (s *Sensor) request(name string, frame []byte, commandLength, responseLength int) (err error) {
	begin := s.clock.Now()
	defer func() {
		if s.recorder != nil {
			s.recorder.ObserveRequest(name, s.clock.Now().Sub(begin), err)
		}
	}()

	if commandLength < globals.MIN_COMMAND_SIZE || commandLength > len(frame) {
		return &ValidationError{
			Param: "command length",
			Value: float64(commandLength),
			Min:   globals.MIN_COMMAND_SIZE,
			Max:   float64(len(frame)),
		}
	}
	if responseLength < 1 || responseLength > len(s.rxBuf) {
		return &ValidationError{
			Param: "response length",
			Value: float64(responseLength),
			Min:   1,
			Max:   float64(len(s.rxBuf)),
		}
	}

	s.rxLen = 0
	out := frame[:commandLength]
	SealFrame(out, s.targetAddress())

	if r, ok := s.stream.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			s.logger.Warn("Could not discard stale input", zap.String("command", name), zap.Error(err))
		}
	}

	if _, err := s.stream.Write(out); err != nil {
		return fmt.Errorf("%s: write frame: %w", name, err)
	}
	s.logger.Debug("Sent frame", zap.String("command", name), zap.String("tx", hexBytes(out)))

	start := s.clock.Now()
	received := 0
	for received < responseLength {
		if s.clock.Now().Sub(start) > s.timeout {
			s.logger.Debug("Response timed out",
				zap.String("command", name),
				zap.Int("received", received),
				zap.Int("expected", responseLength),
				zap.String("rx", hexBytes(s.rxBuf[:received])),
			)
			return &TimeoutError{
				Command:  name,
				Expected: responseLength,
				Received: received,
				Timeout:  s.timeout,
			}
		}

		n, err := s.stream.Read(s.rxBuf[received:responseLength])
		received += n
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: read response: %w", name, err)
		}
		if n == 0 {
			s.clock.Sleep(s.pollInterval)
		}
	}

	rx := s.rxBuf[:responseLength]
	s.logger.Debug("Received frame", zap.String("command", name), zap.String("rx", hexBytes(rx)))

	if s.verifyCRC && !crc16.Verify(rx) {
		return &ProtocolError{Command: name, Reason: fmt.Sprintf("response crc mismatch (% X)", rx)}
	}

	s.rxLen = responseLength
	return nil
}

// configuration accessors

func (s *Sensor) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

func (s *Sensor) GetTimeout() time.Duration {
	return s.timeout
}

func (s *Sensor) SuppressError(suppress bool) {
	s.suppressError = suppress
}

func (s *Sensor) GetSuppressError() bool {
	return s.suppressError
}

// LastRead is the time of the last live reading attempt.
func (s *Sensor) LastRead() time.Time {
	return s.lastRead
}

// GetType returns globals.TYPE_MTP40C, globals.TYPE_MTP40D or globals.TYPE_UNKNOWN.
func (s *Sensor) GetType() uint8 {
	return s.sensorType
}

// LastError returns the code of the last failed reading and resets it to OK.
func (s *Sensor) LastError() ErrorCode {
	code := s.lastError
	s.lastError = OK
	return code
}

// Address is the configured device address.
func (s *Sensor) Address() uint8 {
	return s.address
}
