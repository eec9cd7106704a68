package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/config"
	"UCLA-Rocket-Project/MTP40/internal/globals"
	"UCLA-Rocket-Project/MTP40/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(device *fakeDevice) (http.Handler, *Exporter) {
	reg := metrics.NewRegistry()
	m := metrics.NewSensorMetrics(reg)
	sensor := commander.NewMTP40C(device,
		commander.WithTimeout(10*time.Millisecond),
		commander.WithRecorder(m),
	)
	exp := New(sensor, time.Hour, m, nil, zap.NewNop())
	srv := NewServer(config.HTTPConfig{Addr: ":0"}, "/metrics", metrics.Handler(reg), exp, zap.NewNop())
	return srv.Handler(), exp
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	h, exp := newTestServer(newFakeDevice())

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, "GET", "/readyz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, "GET", "/api/v1/reading", "").Code)

	_, err := exp.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/readyz", "").Code)

	rec := do(t, h, "GET", "/api/v1/reading", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 812.0, body["gasConcentrationPpm"])
	assert.Equal(t, 1013.0, body["airPressureReferenceHpa"])
}

func TestMetricsEndpoint(t *testing.T) {
	h, exp := newTestServer(newFakeDevice())
	_, err := exp.Poll(context.Background())
	require.NoError(t, err)

	rec := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mtp40_requests_total{command="get gas concentration",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "mtp40_gas_concentration_ppm 812")
}

func TestStatusEndpoint(t *testing.T) {
	h, _ := newTestServer(newFakeDevice())

	rec := do(t, h, "GET", "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "closed", st.SelfCalibration)
	assert.Equal(t, uint16(360), st.SelfCalibrationHours)
}

func TestPutAirPressureReference(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		silent bool
		want   int
	}{
		{name: "valid", body: `{"hPa": 1000}`, want: http.StatusOK},
		{name: "below range", body: `{"hPa": 650}`, want: http.StatusBadRequest},
		{name: "missing field", body: `{}`, want: http.StatusBadRequest},
		{name: "not json", body: `hPa=1000`, want: http.StatusBadRequest},
		{name: "sensor silent", body: `{"hPa": 1000}`, silent: true, want: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newFakeDevice()
			device.setSilent(tt.silent)
			h, _ := newTestServer(device)

			rec := do(t, h, "PUT", "/api/v1/air-pressure-reference", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want == http.StatusOK {
				assert.Equal(t, float32(1000), device.pressure)
			}
		})
	}
}

func TestPostSinglePointCorrection(t *testing.T) {
	h, _ := newTestServer(newFakeDevice())

	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/api/v1/single-point-correction", `{"ppm": 400}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/v1/single-point-correction", `{"ppm": 6000}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/v1/single-point-correction", `{}`).Code)
}

func TestPutSelfCalibration(t *testing.T) {
	device := newFakeDevice()
	h, _ := newTestServer(device)

	rec := do(t, h, "PUT", "/api/v1/self-calibration", `{"enabled": true, "hours": 48}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, byte(globals.SELF_CALIB_OPEN), device.calib)
	assert.Equal(t, uint16(48), device.hours)

	rec = do(t, h, "PUT", "/api/v1/self-calibration", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, byte(globals.SELF_CALIB_CLOSED), device.calib)

	rec = do(t, h, "PUT", "/api/v1/self-calibration", `{"hours": 10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uint16(48), device.hours)

	rec = do(t, h, "PUT", "/api/v1/self-calibration", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
