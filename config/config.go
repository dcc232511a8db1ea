// Package config holds the settings of a run: built-in defaults, then an
// optional YAML file, then RORSPLIT_ environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"rorsplit/splitter"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "RORSPLIT_"

// GameProcess is the executable name of the game
const GameProcess = "Risk of Rain 2.exe"

// linux truncates comm to TASK_COMM_LEN-1 bytes
const linuxCommLen = 15

var (
	ErrTickRate    = errors.New("tick rate must be positive")
	ErrProcessName = errors.New("process name is empty")
	ErrMapRefresh  = errors.New("map refresh interval must not be negative")
)

type Config struct {
	ProcessName string  `yaml:"process_name" env:"PROCESS_NAME"`
	TickRate    float64 `yaml:"tick_rate" env:"TICK_RATE"`
	// ticks between re-reads of the target's memory map, 0 disables
	MapRefreshTicks int `yaml:"map_refresh_ticks" env:"MAP_REFRESH_TICKS"`

	LiveSplit        string        `yaml:"livesplit" env:"LIVESPLIT"`
	LiveSplitTimeout time.Duration `yaml:"livesplit_timeout" env:"LIVESPLIT_TIMEOUT"`
	// telemetry listen address, empty disables the HTTP view
	Listen string `yaml:"listen" env:"LISTEN"`

	Permissions splitter.Permissions `yaml:"permissions" envPrefix:"ALLOW_"`
	Splits      splitter.Policy      `yaml:"splits" envPrefix:"SPLIT_"`
}

func Default() Config {
	return Config{
		ProcessName:      GameProcess,
		TickRate:         120,
		MapRefreshTicks:  120,
		LiveSplit:        "localhost:16834",
		LiveSplitTimeout: time.Second,
		Permissions: splitter.Permissions{
			Start: true,
			Split: true,
			Reset: true,
		},
		Splits: splitter.Policy{
			Bazaar: true,
		},
	}
}

// Load layers path (if not empty) and the environment over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return ErrTickRate
	}
	if c.ProcessName == "" {
		return ErrProcessName
	}
	if c.MapRefreshTicks < 0 {
		return ErrMapRefresh
	}
	return nil
}

// ProcessNameFor returns the name the process is listed under on goos
func (c Config) ProcessNameFor(goos string) string {
	if goos == "linux" && len(c.ProcessName) > linuxCommLen {
		return c.ProcessName[:linuxCommLen]
	}
	return c.ProcessName
}
