package exporter

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/config"
)

type Server struct {
	srv      *http.Server
	exporter *Exporter
	logger   *zap.Logger
}

// NewServer registers health, metrics and the sensor API on a gin engine.
// metricsHandler may be nil when metrics are disabled.
func NewServer(cfg config.HTTPConfig, metricsPath string, metricsHandler http.Handler, exp *Exporter, logger *zap.Logger) *Server {
	s := &Server{exporter: exp, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if exp.Ready() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	api := r.Group("/api/v1")
	api.GET("/reading", s.getReading)
	api.GET("/status", s.getStatus)
	api.PUT("/air-pressure-reference", s.putAirPressureReference)
	api.POST("/single-point-correction", s.postSinglePointCorrection)
	api.PUT("/self-calibration", s.putSelfCalibration)

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("Handled request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) getReading(c *gin.Context) {
	reading, ok := s.exporter.Latest()
	if !ok {
		resp := gin.H{"error": "no reading yet"}
		if err := s.exporter.LastError(); err != nil {
			resp["detail"] = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, reading)
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.exporter.Status())
}

type airPressureRequest struct {
	HPa *float32 `json:"hPa"`
}

func (s *Server) putAirPressureReference(c *gin.Context) {
	var req airPressureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	if req.HPa == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hPa is required"})
		return
	}

	err := s.exporter.Do(func(sensor *commander.Sensor) error {
		return sensor.SetAirPressureReference(*req.HPa)
	})
	if err != nil {
		s.writeError(c, "set air pressure reference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hPa": *req.HPa})
}

type singlePointRequest struct {
	PPM *float32 `json:"ppm"`
}

func (s *Server) postSinglePointCorrection(c *gin.Context) {
	var req singlePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	if req.PPM == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ppm is required"})
		return
	}

	err := s.exporter.Do(func(sensor *commander.Sensor) error {
		return sensor.SetSinglePointCorrection(*req.PPM)
	})
	if err != nil {
		s.writeError(c, "set single point correction", err)
		return
	}
	// the sensor keeps calibrating, poll /status for singlePointCorrectionReady
	c.JSON(http.StatusAccepted, gin.H{"ppm": *req.PPM})
}

type selfCalibrationRequest struct {
	Enabled *bool   `json:"enabled"`
	Hours   *uint16 `json:"hours"`
}

func (s *Server) putSelfCalibration(c *gin.Context) {
	var req selfCalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	if req.Enabled == nil && req.Hours == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled or hours is required"})
		return
	}

	err := s.exporter.Do(func(sensor *commander.Sensor) error {
		if req.Hours != nil {
			if err := sensor.SetSelfCalibrationHours(*req.Hours); err != nil {
				return err
			}
		}
		if req.Enabled != nil {
			if *req.Enabled {
				return sensor.OpenSelfCalibration()
			}
			return sensor.CloseSelfCalibration()
		}
		return nil
	})
	if err != nil {
		s.writeError(c, "configure self calibration", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) writeError(c *gin.Context, action string, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("Sensor command failed", zap.String("action", action), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": action + " failed", "detail": err.Error()})
}

// StatusCode maps engine errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case commander.IsValidationError(err):
		return http.StatusBadRequest
	case commander.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	case commander.IsProtocolError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
