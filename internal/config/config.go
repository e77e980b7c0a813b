// Package config loads server settings from drone_lab.yaml with sensible
// defaults, so the binary runs with no config file at all.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"drone_lab/internal/models"
	"drone_lab/internal/sim"
)

type Config struct {
	Port     string
	LogLevel string

	TickInterval  time.Duration
	CaptureRadius float64

	Environment models.Environment
	KeyBindings map[string]string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "4000")
	v.SetDefault("logLevel", "info")

	v.SetDefault("sim.tickMillis", 50)
	v.SetDefault("sim.captureRadius", 1.5)

	v.SetDefault("env.windX", 0.0)
	v.SetDefault("env.windZ", 0.0)
	v.SetDefault("env.pGain", 1.0)

	for key, action := range sim.DefaultKeyBindings() {
		v.SetDefault("keys."+key, action)
	}
}

// Load reads drone_lab.yaml from the given directory. A missing file is fine;
// a malformed one or an unknown key binding is not.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("drone_lab")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	// Overlay file bindings on the defaults; viper does not deep-merge maps.
	bindings := sim.DefaultKeyBindings()
	for key, action := range v.GetStringMapString("keys") {
		bindings[key] = action
	}
	known := make(map[string]bool, len(sim.ManualActions))
	for _, a := range sim.ManualActions {
		known[a] = true
	}
	for key, action := range bindings {
		if !known[action] {
			return nil, fmt.Errorf("key %q bound to unknown action %q", key, action)
		}
	}

	tickMillis := v.GetInt("sim.tickMillis")
	if tickMillis <= 0 {
		return nil, fmt.Errorf("sim.tickMillis must be positive, got %d", tickMillis)
	}

	return &Config{
		Port:          v.GetString("port"),
		LogLevel:      v.GetString("logLevel"),
		TickInterval:  time.Duration(tickMillis) * time.Millisecond,
		CaptureRadius: v.GetFloat64("sim.captureRadius"),
		Environment: models.Environment{
			WindX: v.GetFloat64("env.windX"),
			WindZ: v.GetFloat64("env.windZ"),
			PGain: v.GetFloat64("env.pGain"),
		},
		KeyBindings: bindings,
	}, nil
}
