package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config type
type Config struct {
	Listen        string
	ConfigPath    string   `toml:"config_path"`
	BackupPath    string   `toml:"backup_path"`
	ContainerName string   `toml:"container_name"`
	ProbeAddress  string   `toml:"probe_address"`
	ProbeTimeout  Duration `toml:"probe_timeout"`
	StatusCommand []string `toml:"status_command"`
	StatsCommand  []string `toml:"stats_command"`
	LogLevel      string   `toml:"log_level"`
}

// Duration type
type Duration struct {
	time.Duration
}

// UnmarshalText for duration type
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

const (
	DefaultConfigPath    = "/opt/unbound/etc/unbound/unbound.conf"
	DefaultContainerName = "sierra6-unbound-dot-_unbound_1"
	DefaultPort          = 80
)

// Default returns the settings used when no config file is present.
func Default() *Config {
	return &Config{
		Listen:        fmt.Sprintf(":%d", DefaultPort),
		ConfigPath:    DefaultConfigPath,
		ContainerName: DefaultContainerName,
		ProbeAddress:  "unbound:53",
		ProbeTimeout:  Duration{2 * time.Second},
		StatusCommand: []string{"unbound-control", "status"},
		StatsCommand:  []string{"unbound-control", "stats_noreset"},
		LogLevel:      "info",
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error. APP_PORT, when set, overrides the listen port.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load config %s: %w", path, err)
		}
	}

	if port := os.Getenv("APP_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid APP_PORT %q", port)
		}
		cfg.Listen = fmt.Sprintf(":%d", n)
	}

	if cfg.ConfigPath == "" {
		return nil, errors.New("config_path must not be empty")
	}
	if cfg.ContainerName == "" {
		return nil, errors.New("container_name must not be empty")
	}
	if cfg.BackupPath == "" {
		cfg.BackupPath = cfg.ConfigPath + ".bak"
	}

	return cfg, nil
}
