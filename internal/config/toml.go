// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// MirrorURLEnv overrides the mirror base URL.
const MirrorURLEnv = "PRACTICER_MIRROR_URL"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Generate GenerateConfig `toml:"generate"`
	Mirror   MirrorConfig   `toml:"mirror"`
}

// GenerateConfig maps generation defaults.
type GenerateConfig struct {
	Increment *int     `toml:"increment"`
	LeadIn    *string  `toml:"lead-in"`
	Volume    *int     `toml:"volume"`
	Combo     *int     `toml:"combo"`
	Extent    *string  `toml:"extent"`
	Out       *string  `toml:"out"`
	Approach  *float64 `toml:"ar"`
}

// MirrorConfig maps mirror settings.
type MirrorConfig struct {
	URL      *string `toml:"url"`
	CacheDir *string `toml:"cache-dir"`
	NoCache  *bool   `toml:"no-cache"`
	Timeout  *string `toml:"timeout"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// MirrorURL picks the mirror base URL: environment, then file, then def.
func MirrorURL(cfg FileConfig, def string) string {
	if v := strings.TrimSpace(os.Getenv(MirrorURLEnv)); v != "" {
		return v
	}
	if cfg.Mirror.URL != nil && *cfg.Mirror.URL != "" {
		return *cfg.Mirror.URL
	}
	return def
}

// CacheDir picks the archive cache directory from the file or the XDG default.
func CacheDir(cfg FileConfig) string {
	if cfg.Mirror.CacheDir != nil && *cfg.Mirror.CacheDir != "" {
		return *cfg.Mirror.CacheDir
	}
	return DefaultCacheDir()
}
