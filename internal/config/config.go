package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"LocalSketch/internal/surface"
)

// Config holds application configuration.
type Config struct {
	Style  StyleConfig
	Window WindowConfig
	Share  ShareConfig
	Log    LogConfig
}

// StyleConfig is the stroke style a new drawing starts with.
type StyleConfig struct {
	Color string
	Width float32
}

type WindowConfig struct {
	Title  string
	Width  float32
	Height float32
}

// ShareConfig controls the LAN relay.
type ShareConfig struct {
	Port            int
	Advertise       bool
	DiscoverTimeout time.Duration `mapstructure:"discover_timeout"`
}

type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix LOCALSKETCH_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("style.color", surface.HexColor(surface.DefaultStyle().Color))
	v.SetDefault("style.width", surface.DefaultStyle().Width)
	v.SetDefault("window.title", "LocalSketch")
	v.SetDefault("window.width", 1024)
	v.SetDefault("window.height", 768)
	v.SetDefault("share.port", 8888)
	v.SetDefault("share.advertise", true)
	v.SetDefault("share.discover_timeout", "3s")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("LOCALSKETCH_CONFIG"); cfgPath != "" {
		if _, err := os.Stat(cfgPath); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "localsketch"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LOCALSKETCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file in the search path is fine, anything else is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// StrokeStyle converts the configured style, rejecting colors that do not
// parse.
func (c Config) StrokeStyle() (surface.Style, error) {
	col, err := surface.ParseHexColor(c.Style.Color)
	if err != nil {
		return surface.Style{}, fmt.Errorf("style.color: %w", err)
	}
	return surface.Style{Color: col, Width: c.Style.Width}, nil
}

// LogLevel parses log.level; unknown names fall back to info.
func (c Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
