package commander

import (
	"fmt"
	"io"
	"time"
)

// Stream is the byte link to the sensor. Read may return (0, nil) when nothing
// arrived inside the transport's poll window.
type Stream interface {
	io.Reader
	io.Writer
}

// streams that can drop stale bytes left over from an earlier exchange
type inputResetter interface {
	ResetInputBuffer() error
}

// Clock supplies monotonic time and the suspension point used between empty polls.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock used when no other clock is configured.
var SystemClock Clock = systemClock{}

// Recorder observes every request/response exchange.
type Recorder interface {
	ObserveRequest(command string, elapsed time.Duration, err error)
}

func hexBytes(b []byte) string {
	return fmt.Sprintf("% X", b)
}
