// Package config provides configuration loading and management.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Peterliu358/Gifski/pkg/converter"
)

// Config represents the full configuration for a conversion.
type Config struct {
	// Output
	Quality float64 `yaml:"quality"` // 0-1
	Width   int     `yaml:"width"`   // 0 = keep source size
	Height  int     `yaml:"height"`  // 0 = keep source size
	FPS     float64 `yaml:"fps"`     // 0 = source frame rate
	Loop    int16   `yaml:"loop"`    // 0 = loop forever

	// Time range in seconds; To 0 means the end of the video.
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// QualityPreset represents a named quality level.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// PresetQuality returns the 0-1 quality value for a preset.
func PresetQuality(preset QualityPreset) float64 {
	switch preset {
	case QualityLow:
		return 0.5
	case QualityHigh:
		return 1.0
	default: // medium
		return 0.8
	}
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Quality:  PresetQuality(QualityMedium),
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ToRequest converts the configuration to a conversion request for source.
func (c Config) ToRequest(source string) converter.Request {
	req := converter.Request{
		Source:  source,
		Quality: c.Quality,
		Width:   c.Width,
		Height:  c.Height,
	}
	if c.FPS > 0 {
		fps := c.FPS
		req.FPS = &fps
	}
	if c.From > 0 || c.To > 0 {
		from := c.From
		req.From = &from
	}
	if c.To > 0 {
		to := c.To
		req.To = &to
	}
	if c.Loop != 0 {
		loop := c.Loop
		req.LoopCount = &loop
	}
	return req
}
