package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.ChunkEdge != 16 || cfg.TrimEveryWrites != 500 {
		t.Fatalf("defaults %+v", cfg)
	}
	if cfg.ViewRadius.Horizontal != 10 || cfg.ViewRadius.Vertical != 4 {
		t.Fatalf("view radius %+v", cfg.ViewRadius)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9999"
seed: 42
view_radius:
  horizontal: 6
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9999" || cfg.Seed != 42 {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.ViewRadius.Horizontal != 6 || cfg.ViewRadius.Vertical != 4 {
		t.Fatalf("view radius %+v", cfg.ViewRadius)
	}
	if cfg.ChunkEdge != 16 || cfg.DBPath != "./data/chunks.db" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "chunk_edge: 65\n")); err == nil {
		t.Fatalf("chunk_edge 65 accepted")
	}
	if _, err := Load(writeConfig(t, "boundary_r: -1\n")); err == nil {
		t.Fatalf("negative boundary_r accepted")
	}
	if _, err := Load(writeConfig(t, "listen: [\n")); err == nil {
		t.Fatalf("bad YAML accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
	if _, err := Load(writeConfig(t, "mirror:\n  endpoint: r2.example.com\n  bucket: worlds\n")); err == nil {
		t.Fatalf("mirror without backup dir accepted")
	}
}

func TestLoad_BackupDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backup:\n  dir: ./data/backups\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backup.EveryMinutes != 60 {
		t.Fatalf("backup interval %d, want 60", cfg.Backup.EveryMinutes)
	}
	if cfg.Mirror.Enabled() {
		t.Fatalf("mirror enabled without endpoint")
	}
}
