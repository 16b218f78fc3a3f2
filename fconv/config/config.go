// Package config loads the operator-facing settings: device names, the FIR
// channel mapping, impulse file paths, and the throttle's target depth.
// Load-bearing array sizes and tuning constants (channel counts, impulse
// length, PID gains) stay Go constants in their owning packages.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the operator-tunable configuration.
type Config struct {
	InputDeviceName  string `mapstructure:"input_device_name" yaml:"input_device_name"`
	OutputDeviceName string `mapstructure:"output_device_name" yaml:"output_device_name"`
	// ImpulseFiles has one entry per FIR channel (length 8); an empty string
	// means that channel's impulse is empty (permanently silent).
	ImpulseFiles   []string `mapstructure:"impulse_files" yaml:"impulse_files"`
	ChannelMapping []int    `mapstructure:"channel_mapping" yaml:"channel_mapping"`
	ThrottleTarget int64    `mapstructure:"throttle_target" yaml:"throttle_target"`
	SampleRate     int      `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Load reads fconv.yaml from the working directory (or from path, when
// given), falling back to the built-in reference configuration for any key
// left unset. A missing fconv.yaml in the working directory is not an error —
// the defaults alone are enough to run the reference setup; an explicit path
// that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("fconv")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
	}

	setDefaults(v)

	missing := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
		missing = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if len(cfg.ChannelMapping) != 8 {
		return nil, fmt.Errorf("config: channel_mapping must have exactly 8 entries, got %d", len(cfg.ChannelMapping))
	}
	if len(cfg.ImpulseFiles) != 8 {
		return nil, fmt.Errorf("config: impulse_files must have exactly 8 entries, got %d", len(cfg.ImpulseFiles))
	}

	if missing && path == "" {
		if err := WriteExample("fconv.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("config: write starter fconv.yaml: %w", err)
		}
	}

	return &cfg, nil
}

// WriteExample marshals cfg to dest as YAML, creating the file only if it
// does not already exist. Load calls this with the resolved defaults the
// first time it finds no fconv.yaml in the working directory, so an operator
// who never wrote one gets a starter file documenting every key instead of
// having to read this package's source to discover them.
func WriteExample(dest string, cfg *Config) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal example: %w", err)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", dest, err)
	}
	return nil
}

// setDefaults installs the reference configuration: the two device names,
// the eight impulse-file slots (tweeter/woofer assigned to the reference
// system's active channels, empty for the rest), the static channel-mapping
// table, the 600-frame throttle target, and 48kHz.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input_device_name", "default")
	v.SetDefault("output_device_name", "default")
	v.SetDefault("impulse_files", []string{
		"impulse_tweeter_6_3_24.txt",
		"impulse_woofer_6_3_24.txt",
		"",
		"",
		"impulse_tweeter_6_3_24.txt",
		"impulse_woofer_6_3_24.txt",
		"",
		"",
	})
	v.SetDefault("channel_mapping", []int{1, 1, 1, 0, 0, 0, 0, 0})
	v.SetDefault("throttle_target", 600)
	v.SetDefault("sample_rate", 48000)
}
