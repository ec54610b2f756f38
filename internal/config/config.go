package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RedisConfig holds the broker connection and channel names.
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	CommandTopic string `mapstructure:"commandTopic"`
	CommandList  string `mapstructure:"commandList"`
	AckTopic     string `mapstructure:"ackTopic"`
	StateHash    string `mapstructure:"stateHash"`
}

// LoopConfig holds the navigation timing and thresholds.
type LoopConfig struct {
	TickInterval        time.Duration `mapstructure:"tickInterval"`
	BaseInterval        time.Duration `mapstructure:"baseInterval"`
	ObstacleThresholdMM int           `mapstructure:"obstacleThresholdMM"`
	DefaultPathID       int           `mapstructure:"defaultPathID"`
}

// ManeuverConfig overrides maneuver timing. Zero keeps the built-in value.
type ManeuverConfig struct {
	SettlePause time.Duration `mapstructure:"settlePause"`
	Left        time.Duration `mapstructure:"left"`
	Right       time.Duration `mapstructure:"right"`
	TinyLeft    time.Duration `mapstructure:"tinyLeft"`
	TinyRight   time.Duration `mapstructure:"tinyRight"`
}

// GpioLine addresses one GPIO line.
type GpioLine struct {
	Chip int `mapstructure:"chip"`
	Line int `mapstructure:"line"`
}

// HardwareConfig maps logical signals to GPIO lines and PWM channels.
type HardwareConfig struct {
	LineSensors    []GpioLine `mapstructure:"lineSensors"`
	DirectionLines []GpioLine `mapstructure:"directionLines"`
	Led            GpioLine   `mapstructure:"led"`
	PwmChip        int        `mapstructure:"pwmChip"`
	PwmChannels    []int      `mapstructure:"pwmChannels"`
	PwmPeriodNs    int        `mapstructure:"pwmPeriodNs"`
}

// RangefinderConfig selects the distance sensor backend.
type RangefinderConfig struct {
	Kind       string        `mapstructure:"kind"` // "serial" or "adc"
	Device     string        `mapstructure:"device"`
	BaudRate   int           `mapstructure:"baudRate"`
	MaxAge     time.Duration `mapstructure:"maxAge"`
	AdcDevice  string        `mapstructure:"adcDevice"`
	AdcChannel int           `mapstructure:"adcChannel"`
	AdcScale   float64       `mapstructure:"adcScale"` // millimetres per raw count
}

type Config struct {
	LogLevel    int               `mapstructure:"logLevel"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Loop        LoopConfig        `mapstructure:"loop"`
	Maneuvers   ManeuverConfig    `mapstructure:"maneuvers"`
	Hardware    HardwareConfig    `mapstructure:"hardware"`
	Rangefinder RangefinderConfig `mapstructure:"rangefinder"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", 3)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.commandTopic", "line-follower:commands")
	v.SetDefault("redis.commandList", "line-follower:commands:queue")
	v.SetDefault("redis.ackTopic", "line-follower:acks")
	v.SetDefault("redis.stateHash", "line-follower")

	v.SetDefault("loop.tickInterval", 50*time.Millisecond)
	v.SetDefault("loop.baseInterval", 800*time.Millisecond)
	v.SetDefault("loop.obstacleThresholdMM", 70)
	v.SetDefault("loop.defaultPathID", 1)

	v.SetDefault("maneuvers.settlePause", time.Second)
	v.SetDefault("maneuvers.left", 650*time.Millisecond)
	v.SetDefault("maneuvers.right", 800*time.Millisecond)
	v.SetDefault("maneuvers.tinyLeft", 300*time.Millisecond)
	v.SetDefault("maneuvers.tinyRight", 400*time.Millisecond)

	// Left outer, left inner, middle, right inner, right outer
	v.SetDefault("hardware.lineSensors", []map[string]int{
		{"chip": 0, "line": 5},
		{"chip": 0, "line": 6},
		{"chip": 0, "line": 13},
		{"chip": 0, "line": 19},
		{"chip": 0, "line": 26},
	})
	v.SetDefault("hardware.directionLines", []map[string]int{
		{"chip": 0, "line": 17},
		{"chip": 0, "line": 27},
		{"chip": 0, "line": 22},
		{"chip": 0, "line": 23},
	})
	v.SetDefault("hardware.led", map[string]int{"chip": 0, "line": 24})
	v.SetDefault("hardware.pwmChip", 0)
	v.SetDefault("hardware.pwmChannels", []int{0, 1, 2, 3})
	v.SetDefault("hardware.pwmPeriodNs", 1000000)

	v.SetDefault("rangefinder.kind", "serial")
	v.SetDefault("rangefinder.device", "/dev/ttyS0")
	v.SetDefault("rangefinder.baudRate", 115200)
	v.SetDefault("rangefinder.maxAge", 500*time.Millisecond)
	v.SetDefault("rangefinder.adcDevice", "iio:device0")
	v.SetDefault("rangefinder.adcChannel", 0)
	v.SetDefault("rangefinder.adcScale", 0.25)
}

// Load reads line-follower.{yaml,json,toml} from configDir if present, applies
// LINE_FOLLOWER_* environment overrides and fills in defaults.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("line-follower")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix("LINE_FOLLOWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the hardware layer cannot use.
func (c *Config) Validate() error {
	if len(c.Hardware.LineSensors) != 5 {
		return fmt.Errorf("hardware.lineSensors: need 5 lines, got %d", len(c.Hardware.LineSensors))
	}
	if len(c.Hardware.PwmChannels) != 4 {
		return fmt.Errorf("hardware.pwmChannels: need 4 channels, got %d", len(c.Hardware.PwmChannels))
	}
	if c.Loop.TickInterval <= 0 {
		return fmt.Errorf("loop.tickInterval must be positive")
	}
	switch c.Rangefinder.Kind {
	case "serial", "adc":
	default:
		return fmt.Errorf("rangefinder.kind: unsupported %q", c.Rangefinder.Kind)
	}
	return nil
}
