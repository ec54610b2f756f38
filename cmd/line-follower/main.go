package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"line-follower/internal/clock"
	"line-follower/internal/config"
	"line-follower/internal/core"
	"line-follower/internal/hardware"
	"line-follower/internal/logger"
	"line-follower/internal/messaging"
	"line-follower/internal/motion"
	"line-follower/internal/types"
)

type rangefinder interface {
	ReadDistance() (int, error)
	Close() error
}

func main() {
	// Service log level
	var serviceLogLevel int
	flag.IntVar(&serviceLogLevel, "log", -1, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG); logLevel from config if unset")
	configDir := flag.String("config", "/etc/line-follower", "Directory containing line-follower.yaml")

	flag.Parse()

	l := logger.NewLogger(logger.NewConsoleWriter(), logLevel(serviceLogLevel, nil))

	cfg, err := config.Load(*configDir)
	if err != nil {
		l.Fatalf("Failed to load config: %v", err)
	}
	l = logger.NewLogger(logger.NewConsoleWriter(), logLevel(serviceLogLevel, cfg))

	l.Infof("Starting line-follower service...")

	io := hardware.NewLinuxHardwareIO(hardwareOptions(cfg), l.WithTag("hardware"))

	rng, err := openRangefinder(cfg, l.WithTag("rangefinder"))
	if err != nil {
		l.Fatalf("Failed to open rangefinder: %v", err)
	}
	defer rng.Close()

	redis := messaging.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, messaging.Channels{
		Commands:    cfg.Redis.CommandTopic,
		CommandList: cfg.Redis.CommandList,
		Acks:        cfg.Redis.AckTopic,
		StateHash:   cfg.Redis.StateHash,
	}, l.WithTag("redis"))

	nav := core.NewNavigator(io, rng, redis, clock.Real{}, core.Options{
		TickInterval:        cfg.Loop.TickInterval,
		BaseInterval:        cfg.Loop.BaseInterval,
		ObstacleThresholdMM: cfg.Loop.ObstacleThresholdMM,
		DefaultPathID:       cfg.Loop.DefaultPathID,
		Motion:              motionOptions(cfg),
	}, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := nav.Start(ctx); err != nil {
		l.Fatalf("Failed to start navigator: %v", err)
	}

	l.Infof("System started successfully")

	done := make(chan error, 1)
	go func() { done <- nav.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		l.Infof("Received signal %v, shutting down...", sig)
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Errorf("Navigation loop stopped: %v", err)
		}
		// Halted: keep answering init until told to exit
		sig := <-sigChan
		l.Infof("Received signal %v, shutting down...", sig)
		cancel()
	}

	nav.Shutdown()
	l.Infof("Shutdown complete")
}

// logLevel prefers the -log flag over the config file.
func logLevel(flagLevel int, cfg *config.Config) logger.LogLevel {
	switch {
	case flagLevel >= 0:
		return logger.LogLevel(flagLevel)
	case cfg != nil:
		return logger.LogLevel(cfg.LogLevel)
	default:
		return logger.LogLevelInfo
	}
}

func hardwareOptions(cfg *config.Config) hardware.Options {
	opts := hardware.Options{
		Led:         hardware.LineAddr{Chip: cfg.Hardware.Led.Chip, Line: cfg.Hardware.Led.Line},
		PwmChip:     cfg.Hardware.PwmChip,
		PwmPeriodNs: cfg.Hardware.PwmPeriodNs,
	}
	for i, line := range cfg.Hardware.LineSensors {
		opts.LineSensors[i] = hardware.LineAddr{Chip: line.Chip, Line: line.Line}
	}
	for _, line := range cfg.Hardware.DirectionLines {
		opts.DirectionLines = append(opts.DirectionLines, hardware.LineAddr{Chip: line.Chip, Line: line.Line})
	}
	copy(opts.PwmChannels[:], cfg.Hardware.PwmChannels)
	return opts
}

func motionOptions(cfg *config.Config) []motion.Option {
	return []motion.Option{
		motion.WithSettlePause(cfg.Maneuvers.SettlePause),
		motion.WithDuration(types.Left, cfg.Maneuvers.Left),
		motion.WithDuration(types.Right, cfg.Maneuvers.Right),
		motion.WithDuration(types.TinyLeft, cfg.Maneuvers.TinyLeft),
		motion.WithDuration(types.TinyRight, cfg.Maneuvers.TinyRight),
	}
}

func openRangefinder(cfg *config.Config, l *logger.Logger) (rangefinder, error) {
	rc := cfg.Rangefinder
	if rc.Kind == "adc" {
		l.Infof("Using ADC rangefinder %s channel %d", rc.AdcDevice, rc.AdcChannel)
		return hardware.NewAdcRangefinder(rc.AdcDevice, rc.AdcChannel, rc.AdcScale), nil
	}
	return hardware.OpenSerialRangefinder(rc.Device, rc.BaudRate, rc.MaxAge, l)
}
