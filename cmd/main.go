package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/config"
	"UCLA-Rocket-Project/MTP40/internal/exporter"
	"UCLA-Rocket-Project/MTP40/internal/logger"
	"UCLA-Rocket-Project/MTP40/internal/metrics"
	"UCLA-Rocket-Project/MTP40/internal/publish"
	"UCLA-Rocket-Project/MTP40/internal/rpSerial"
	"UCLA-Rocket-Project/MTP40/internal/terminal"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the config file (defaults to $MTP40_CONFIG)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [tui|serve|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	mode := "tui"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// the TUI owns stdout
	log, err := logger.NewLogger(cfg.Logging, mode != "tui")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	switch mode {
	case "tui":
		err = runTUI(cfg, log)
	case "serve":
		err = runServe(cfg, log)
	case "status":
		err = runStatus(cfg, log)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Error("Exiting with error", zap.String("mode", mode), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(cfg *config.Config, log *zap.Logger) error {
	connector := func(port string) (commander.Stream, error) {
		return rpSerial.NewRPSerial(port, cfg.Serial.BaudRate, cfg.Serial.ReadPoll, log)
	}

	opts, err := cfg.SensorOptions()
	if err != nil {
		return err
	}
	newSensor := func(stream commander.Stream, runLog *zap.Logger) *commander.Sensor {
		return commander.New(stream, append(opts, commander.WithLogger(runLog))...)
	}

	return terminal.StartApplication(rpSerial.ListPorts, connector, newSensor, log)
}

// openSensor opens the configured port and checks that the sensor answers.
func openSensor(cfg *config.Config, log *zap.Logger, extra ...commander.Option) (*commander.Sensor, *rpSerial.RpSerial, error) {
	if cfg.Serial.Port == "" {
		return nil, nil, errors.New("serial.port is not set")
	}

	port, err := rpSerial.NewRPSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.ReadPoll, log)
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.SensorOptions()
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	opts = append(opts, commander.WithLogger(log.Named("sensor")))
	opts = append(opts, extra...)
	sensor := commander.New(port, opts...)

	if err := sensor.Begin(uint8(cfg.Sensor.Address)); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("sensor on %s: %w", cfg.Serial.Port, err)
	}
	log.Info("Sensor answered",
		zap.String("port", cfg.Serial.Port),
		zap.Uint8("address", sensor.Address()),
		zap.String("type", commander.VariantName(sensor.GetType())),
	)
	return sensor, port, nil
}

func newSinks(cfg *config.Config, log *zap.Logger, m *metrics.SensorMetrics) (*publish.Fanout, error) {
	fanout := &publish.Fanout{Observe: m.ObservePublish}

	if cfg.Redis.Enabled {
		sink, err := publish.NewRedisSink(cfg.Redis)
		if err != nil {
			return nil, err
		}
		fanout.Sinks = append(fanout.Sinks, sink)
	}
	if cfg.MQTT.Enabled {
		sink, err := publish.NewMQTTSink(cfg.MQTT, log)
		if err != nil {
			fanout.Close()
			return nil, err
		}
		fanout.Sinks = append(fanout.Sinks, sink)
	}
	return fanout, nil
}

func runServe(cfg *config.Config, log *zap.Logger) error {
	reg := metrics.NewRegistry()
	m := metrics.NewSensorMetrics(reg)

	sensor, port, err := openSensor(cfg, log, commander.WithRecorder(m))
	if err != nil {
		return err
	}
	defer port.Close()

	sinks, err := newSinks(cfg, log, m)
	if err != nil {
		return err
	}
	defer sinks.Close()

	exp := exporter.New(sensor, cfg.Exporter.Interval, m, sinks, log.Named("exporter"))

	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(reg)
	}
	srv := exporter.NewServer(cfg.HTTP, cfg.Metrics.Path, metricsHandler, exp, log.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveUntilDone(ctx, log, srv.Start, srv.Shutdown, exp.Run)
}

// serveUntilDone runs the server and the poll loop until ctx is done or the server
// fails. It returns only after the poll loop has stopped, so the caller may close
// the port and the sinks.
func serveUntilDone(ctx context.Context, log *zap.Logger, start func() error, shutdown func(context.Context) error, poll func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		poll(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancelShutdown()
		err = shutdown(shutdownCtx)
	case err = <-serveErr:
		cancel()
	}

	<-pollDone
	return err
}

func runStatus(cfg *config.Config, log *zap.Logger) error {
	sensor, port, err := openSensor(cfg, log)
	if err != nil {
		return err
	}
	defer port.Close()

	exp := exporter.New(sensor, cfg.Exporter.Interval, nil, nil, log)
	if _, err := exp.Poll(context.Background()); err != nil {
		log.Warn("Could not take a reading", zap.Error(err))
	}

	out, err := yaml.Marshal(exp.Status())
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
