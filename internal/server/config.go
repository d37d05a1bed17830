package server

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 38254

	// DefaultReadChunk is the per-read request size and the fixed increment
	// by which a connection's receive buffer grows on oversized frames.
	DefaultReadChunk = 64 * 1024

	DefaultIdleThreshold = 60 * time.Second
	DefaultSweepPeriod   = time.Second
)

type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// IdleThreshold is how long a room may go without text traffic before
	// the evictor destroys it.
	IdleThreshold time.Duration `yaml:"idle_threshold"`
	// SweepPeriod is the fixed interval between eviction sweeps.
	SweepPeriod time.Duration `yaml:"sweep_period"`
	// ReadChunk is the receive buffer growth increment in bytes.
	ReadChunk int `yaml:"read_chunk"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

func DefaultConfig() *Config {
	c := &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		IdleThreshold: DefaultIdleThreshold,
		SweepPeriod:   DefaultSweepPeriod,
		ReadChunk:     DefaultReadChunk,
	}
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseConfig builds the server configuration from the command line. A
// -config file is loaded first; flags given explicitly override it.
func ParseConfig() (*Config, error) {
	defaults := DefaultConfig()

	configPath := flag.String("config", "", "Path to YAML config file")
	host := flag.String("host", defaults.Host, "Host to bind to")
	port := flag.Int("port", defaults.Port, "Port to listen on")
	idle := flag.Duration("idle", defaults.IdleThreshold, "Idle-room threshold")
	sweep := flag.Duration("sweep", defaults.SweepPeriod, "Eviction sweep period")
	logLevel := flag.String("log-level", defaults.Log.Level, "Log level (debug/info/warn/error)")
	flag.Parse()

	config := defaults
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			config.Host = *host
		case "port":
			config.Port = *port
		case "idle":
			config.IdleThreshold = *idle
		case "sweep":
			config.SweepPeriod = *sweep
		case "log-level":
			config.Log.Level = *logLevel
		}
	})

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be positive, got %v", c.IdleThreshold)
	}
	if c.SweepPeriod <= 0 {
		return fmt.Errorf("sweep period must be positive, got %v", c.SweepPeriod)
	}
	if c.ReadChunk <= 0 {
		return fmt.Errorf("read chunk must be positive, got %d", c.ReadChunk)
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
