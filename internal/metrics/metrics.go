package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// request results
const (
	RESULT_OK         = "ok"
	RESULT_TIMEOUT    = "timeout"
	RESULT_PROTOCOL   = "protocol"
	RESULT_VALIDATION = "validation"
	RESULT_TRANSPORT  = "transport"
	RESULT_ERROR      = "error"
)

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// SensorMetrics implements commander.Recorder.
type SensorMetrics struct {
	RequestsTotal        *prometheus.CounterVec   // labels: command, result
	RequestDuration      *prometheus.HistogramVec // labels: command
	GasConcentration     prometheus.Gauge
	AirPressureReference prometheus.Gauge
	SelfCalibration      prometheus.Gauge
	LastReading          prometheus.Gauge
	PublishTotal         *prometheus.CounterVec // labels: sink, result
}

func NewSensorMetrics(reg prometheus.Registerer) *SensorMetrics {
	m := &SensorMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtp40_requests_total",
			Help: "Sensor request/response exchanges by command and result.",
		}, []string{"command", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mtp40_request_duration_seconds",
			Help:    "Time from writing a frame to the complete response.",
			Buckets: []float64{.005, .01, .02, .05, .075, .1, .15, .25, .5},
		}, []string{"command"}),
		GasConcentration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtp40_gas_concentration_ppm",
			Help: "Last CO2 concentration read from the sensor.",
		}),
		AirPressureReference: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtp40_air_pressure_reference_hpa",
			Help: "Last air pressure reference read from the sensor.",
		}),
		SelfCalibration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtp40_self_calibration_enabled",
			Help: "1 if self calibration is open, 0 if closed.",
		}),
		LastReading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtp40_last_reading_timestamp_seconds",
			Help: "Unix time of the last successful reading.",
		}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtp40_publish_total",
			Help: "Readings published by sink and result.",
		}, []string{"sink", "result"}),
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.GasConcentration,
		m.AirPressureReference,
		m.SelfCalibration,
		m.LastReading,
		m.PublishTotal,
	)
	return m
}

func (m *SensorMetrics) ObserveRequest(command string, elapsed time.Duration, err error) {
	m.RequestsTotal.WithLabelValues(command, Classify(err)).Inc()
	m.RequestDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

func (m *SensorMetrics) ObserveReading(ppm uint16, hPa float32, at time.Time) {
	m.GasConcentration.Set(float64(ppm))
	m.AirPressureReference.Set(float64(hPa))
	m.LastReading.Set(float64(at.UnixNano()) / 1e9)
}

// ObserveSelfCalibration takes the raw status byte.
func (m *SensorMetrics) ObserveSelfCalibration(status uint8) {
	if status == globals.SELF_CALIB_OPEN {
		m.SelfCalibration.Set(1)
	} else {
		m.SelfCalibration.Set(0)
	}
}

func (m *SensorMetrics) ObservePublish(sink string, err error) {
	result := RESULT_OK
	if err != nil {
		result = RESULT_ERROR
	}
	m.PublishTotal.WithLabelValues(sink, result).Inc()
}

// Classify maps an engine error onto the result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return RESULT_OK
	case commander.IsTimeoutError(err):
		return RESULT_TIMEOUT
	case commander.IsProtocolError(err):
		return RESULT_PROTOCOL
	case commander.IsValidationError(err):
		return RESULT_VALIDATION
	default:
		return RESULT_TRANSPORT
	}
}
