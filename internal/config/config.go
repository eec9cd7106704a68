package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/globals"
)

const ENV_PREFIX = "MTP40"
const CONFIG_ENV = "MTP40_CONFIG"

type SerialConfig struct {
	Port     string        `mapstructure:"port"`
	BaudRate int           `mapstructure:"baudRate"`
	ReadPoll time.Duration `mapstructure:"readPoll"`
}

type SensorConfig struct {
	Variant           string        `mapstructure:"variant"`
	Address           int           `mapstructure:"address"`
	SpecificAddress   bool          `mapstructure:"specificAddress"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PollInterval      time.Duration `mapstructure:"pollInterval"`
	SuppressError     bool          `mapstructure:"suppressError"`
	VerifyResponseCRC bool          `mapstructure:"verifyResponseCRC"`
}

// LumberjackConfig is the rotation policy of the log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

type ExporterConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"clientID"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
	Retained bool   `mapstructure:"retained"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	Channel  string `mapstructure:"channel"`
}

type Config struct {
	Serial   SerialConfig   `mapstructure:"serial"`
	Sensor   SensorConfig   `mapstructure:"sensor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Exporter ExporterConfig `mapstructure:"exporter"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// Load reads a YAML/TOML/JSON file plus MTP40_* environment overrides.
// An empty path falls back to $MTP40_CONFIG, then to mtp40.yaml in . or ./configs.
// A missing file is not an error; defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(CONFIG_ENV)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("mtp40")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baudRate", globals.DEFAULT_BAUD_RATE)
	v.SetDefault("serial.readPoll", "2ms")

	v.SetDefault("sensor.variant", "MTP40C")
	v.SetDefault("sensor.address", globals.DEFAULT_ADDRESS)
	v.SetDefault("sensor.specificAddress", false)
	v.SetDefault("sensor.timeout", "100ms")
	v.SetDefault("sensor.pollInterval", "2ms")
	v.SetDefault("sensor.suppressError", false)
	v.SetDefault("sensor.verifyResponseCRC", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "MTP40.logs")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("http.addr", ":9140")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("exporter.interval", "5s")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.clientID", "")
	v.SetDefault("mqtt.topic", "sensors/mtp40/reading")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retained", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "mtp40:latest")
	v.SetDefault("redis.channel", "mtp40:readings")
}

// Validate checks the values the sensor and the sinks cannot recover from.
func (c *Config) Validate() error {
	var errs []error

	if c.Sensor.Address < 0 || c.Sensor.Address > globals.MAX_ADDRESS {
		errs = append(errs, fmt.Errorf("sensor.address %d out of range 0-%d", c.Sensor.Address, globals.MAX_ADDRESS))
	}
	if _, err := commander.ParseVariant(c.Sensor.Variant); err != nil {
		errs = append(errs, fmt.Errorf("sensor.variant: %w", err))
	}
	if c.Sensor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("sensor.timeout must be positive, got %s", c.Sensor.Timeout))
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baudRate must be positive, got %d", c.Serial.BaudRate))
	}
	if c.Exporter.Interval < commander.READ_INTERVAL {
		errs = append(errs, fmt.Errorf("exporter.interval %s is shorter than the sensor read interval %s",
			c.Exporter.Interval, commander.READ_INTERVAL))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos %d out of range 0-2", c.MQTT.QoS))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}

	return errors.Join(errs...)
}

// SensorOptions turns the sensor section into commander options.
func (c *Config) SensorOptions() ([]commander.Option, error) {
	variant, err := commander.ParseVariant(c.Sensor.Variant)
	if err != nil {
		return nil, err
	}
	return []commander.Option{
		commander.WithVariant(variant),
		commander.WithAddress(uint8(c.Sensor.Address)),
		commander.WithSpecificAddress(c.Sensor.SpecificAddress),
		commander.WithTimeout(c.Sensor.Timeout),
		commander.WithPollInterval(c.Sensor.PollInterval),
		commander.WithSuppressError(c.Sensor.SuppressError),
		commander.WithResponseCRC(c.Sensor.VerifyResponseCRC),
	}, nil
}
