package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TinkerUp/adb-link/types/models"
)

type Config struct {
	ADBPath      string              `toml:"adb_path"`
	ControlPort  uint16              `toml:"control_port"`
	StreamPort   uint16              `toml:"stream_port"`
	Flavor       models.ClientFlavor `toml:"flavor"`
	Autolaunch   bool                `toml:"autolaunch"`
	AutoInstall  *models.AutoInstall `toml:"auto_install"`
	PollInterval Duration            `toml:"poll_interval"`
	LogLevel     string              `toml:"log_level"`
	Layout       models.Layout       `toml:"layout"`
}

// Duration decodes TOML strings such as "1s" or "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func Default() Config {
	return Config{
		ControlPort:  9943,
		StreamPort:   9944,
		Flavor:       models.ClientFlavor{Kind: models.FlavorGithub},
		Autolaunch:   true,
		PollInterval: Duration{time.Second},
		LogLevel:     "info",
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.ControlPort == 0 {
		return fmt.Errorf("control_port is required")
	}
	if cfg.StreamPort == 0 {
		return fmt.Errorf("stream_port is required")
	}
	if cfg.ControlPort == cfg.StreamPort {
		return fmt.Errorf("control_port and stream_port must differ")
	}

	switch cfg.Flavor.Kind {
	case models.FlavorStore, models.FlavorGithub:
	case models.FlavorCustom:
		if strings.TrimSpace(cfg.Flavor.CustomID) == "" {
			return fmt.Errorf("flavor.custom_id is required for custom flavor")
		}
	default:
		return fmt.Errorf("unknown flavor kind %q", cfg.Flavor.Kind)
	}

	if cfg.AutoInstall != nil && strings.TrimSpace(cfg.AutoInstall.PackageLocation) == "" {
		return fmt.Errorf("auto_install.package_location is required")
	}

	if cfg.PollInterval.Duration < time.Second {
		return fmt.Errorf("poll_interval must be at least 1s, got %s", cfg.PollInterval.Duration)
	}
	return nil
}
