package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the fully validated controller configuration. Load and Parse
// never return a partially populated value: either every section validated,
// or the error is a *ConfigError naming the offending key.
type Config struct {
	Settings Settings           `yaml:"settings"`
	Channels map[string]int     `yaml:"channels"`
	Hotkeys  map[string]Actions `yaml:"hotkeys"`
}

type Settings struct {
	VolumeStep float64 `yaml:"volume_step"`
	Logging    bool    `yaml:"logging"`
}

// Actions holds the chord lists for one channel. Action names are closed:
// anything other than mute/up/down is rejected by the decoder.
type Actions struct {
	Mute ChordList `yaml:"mute"`
	Up   ChordList `yaml:"up"`
	Down ChordList `yaml:"down"`
}

// ChordList accepts either a single chord string or a list of them, so
//
//	mute: ctrl+m
//	mute: [ctrl+m, ctrl+shift+m]
//
// both parse. A nil ChordList means the action was absent from the document;
// an empty non-nil one means it was present but empty, which validation rejects.
type ChordList []string

func (c *ChordList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*c = ChordList{s}
	case yaml.SequenceNode:
		ss := []string{}
		if err := node.Decode(&ss); err != nil {
			return err
		}
		*c = ChordList(ss)
	default:
		return fmt.Errorf("line %d: chord must be a string or a list of strings", node.Line)
	}
	return nil
}

// ConfigError reports a malformed or contradictory configuration entry.
// Key is the dotted path of the entry ("hotkeys.microphone.mute").
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Msg)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Settings.VolumeStep <= 0 {
		return &ConfigError{Key: "settings.volume_step", Msg: fmt.Sprintf("must be > 0, got %v", c.Settings.VolumeStep)}
	}
	for name, idx := range c.Channels {
		if idx < 0 {
			return &ConfigError{Key: "channels." + name, Msg: fmt.Sprintf("strip index must be >= 0, got %d", idx)}
		}
	}
	for channel, actions := range c.Hotkeys {
		if _, ok := c.Channels[channel]; !ok {
			return &ConfigError{Key: "hotkeys." + channel, Msg: "unknown channel name (not present in channels section)"}
		}
		for _, a := range []struct {
			name   string
			chords ChordList
		}{
			{"mute", actions.Mute},
			{"up", actions.Up},
			{"down", actions.Down},
		} {
			if a.chords != nil && len(a.chords) == 0 {
				return &ConfigError{Key: "hotkeys." + channel + "." + a.name, Msg: "empty chord list"}
			}
			for _, chord := range a.chords {
				if chord == "" {
					return &ConfigError{Key: "hotkeys." + channel + "." + a.name, Msg: "empty chord"}
				}
			}
		}
	}
	return nil
}

// ResolvePath picks the config file location: explicit flag first, then the
// VMCTL_CONFIG environment variable, then the OS config directory.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return absPath(flagPath)
	}
	if envPath := os.Getenv("VMCTL_CONFIG"); envPath != "" {
		return absPath(envPath)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voicemeeterctl", "config.yaml"), nil
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}
