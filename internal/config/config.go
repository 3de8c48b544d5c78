// Package config reads job-level settings shared by the collation and
// vulnspec-compilation binaries, grounded on the teacher's dropped
// config/config.go (kept for its shape: a YAML struct with
// environment-overridable defaults) and on collate.c's open_vulnspec,
// which resolves its data directory from VULNSPEC_DIR.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	sce "github.com/sebcat/yans/errors"
)

// DefaultVulnspecDir is used when neither the config file nor
// VULNSPEC_DIR name a directory, mirroring DEFAULT_VULNSPEC_DIR.
const DefaultVulnspecDir = "/usr/share/yans/vulnspec"

const vulnspecDirEnv = "VULNSPEC_DIR"

// Config is the YAML-backed settings struct for the collation and
// vulngen binaries.
type Config struct {
	VulnspecDir string `yaml:"vulnspec_dir"`
	StoreDir    string `yaml:"store_dir"`
	PatternFile string `yaml:"pattern_file"`
}

// Load reads and parses the YAML file at path, then applies
// environment overrides and defaults. An empty path yields a
// zero-value Config with defaults and environment overrides applied,
// for callers that only need VULNSPEC_DIR resolution.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, sce.WithMessage(sce.ErrEnvironmental, "config: read "+path+": "+err.Error())
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, sce.WithMessage(sce.ErrEnvironmental, "config: parse "+path+": "+err.Error())
		}
	}
	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv overrides VulnspecDir from VULNSPEC_DIR if set, and
// defaults it to DefaultVulnspecDir if still empty, matching
// open_vulnspec's getenv/fallback order.
func (c *Config) applyEnv() {
	if v := os.Getenv(vulnspecDirEnv); v != "" {
		c.VulnspecDir = v
	}
	if c.VulnspecDir == "" {
		c.VulnspecDir = DefaultVulnspecDir
	}
}

// VulnspecPath returns the path of the compiled vulnspec image named
// name under c.VulnspecDir, grounded on open_vulnspec's
// "<dir>/<name>.vs" path construction.
func (c *Config) VulnspecPath(name string) string {
	return c.VulnspecDir + "/" + name + ".vs"
}
