package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("VULNSPEC_DIR", "/opt/vulnspec")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("vulnspec_dir: /from/file\nstore_dir: /var/yans/store\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.VulnspecDir != "/opt/vulnspec" {
		t.Errorf("VulnspecDir = %q, want env override /opt/vulnspec", cfg.VulnspecDir)
	}
	if cfg.StoreDir != "/var/yans/store" {
		t.Errorf("StoreDir = %q, want /var/yans/store", cfg.StoreDir)
	}
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	t.Setenv("VULNSPEC_DIR", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.VulnspecDir != DefaultVulnspecDir {
		t.Errorf("VulnspecDir = %q, want default %q", cfg.VulnspecDir, DefaultVulnspecDir)
	}
}

func TestVulnspecPath(t *testing.T) {
	cfg := &Config{VulnspecDir: "/data/vulnspec"}
	if got, want := cfg.VulnspecPath("cve-2021"), "/data/vulnspec/cve-2021.vs"; got != want {
		t.Errorf("VulnspecPath() = %q, want %q", got, want)
	}
}
