// Package config loads the server's runtime configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`

	Seed      int64 `yaml:"seed"`
	ChunkEdge int   `yaml:"chunk_edge"`
	// Writes between speculative storage trims.
	TrimEveryWrites int `yaml:"trim_every_writes"`
	// World boundary radius in voxels; 0 disables it.
	BoundaryR int `yaml:"boundary_r"`

	ViewRadius Radius `yaml:"view_radius"`

	BlocksPath      string `yaml:"blocks_path"`
	BlockSchemaPath string `yaml:"block_schema_path"`

	// Directory for the mutation audit log; empty disables it.
	MutationLogDir string `yaml:"mutation_log_dir"`

	Backup Backup `yaml:"backup"`
	Mirror Mirror `yaml:"mirror"`
}

// Radius is measured in chunk-grid units.
type Radius struct {
	Horizontal int `yaml:"horizontal"`
	Vertical   int `yaml:"vertical"`
}

// Backup controls periodic whole-world backup files. Empty dir disables it.
type Backup struct {
	Dir          string `yaml:"dir"`
	EveryMinutes int    `yaml:"every_minutes"`
}

// Mirror ships backup files to an S3-compatible bucket. Credentials come
// from the OBJSTORE_ACCESS_KEY_ID and OBJSTORE_SECRET_ACCESS_KEY environment
// variables, never from the config file.
type Mirror struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
}

func (m Mirror) Enabled() bool { return m.Endpoint != "" && m.Bucket != "" }

// Load reads the config at path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Listen:          ":8080",
		DBPath:          "./data/chunks.db",
		Seed:            1337,
		ChunkEdge:       16,
		TrimEveryWrites: 500,
		ViewRadius:      Radius{Horizontal: 10, Vertical: 4},
		BlocksPath:      "./configs/blocks.json",
		BlockSchemaPath: "./schemas/blocks.schema.json",
	}
}

func (c *Config) applyDefaults() {
	d := defaults()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.ChunkEdge <= 0 {
		c.ChunkEdge = d.ChunkEdge
	}
	if c.TrimEveryWrites <= 0 {
		c.TrimEveryWrites = d.TrimEveryWrites
	}
	if c.ViewRadius.Horizontal <= 0 {
		c.ViewRadius.Horizontal = d.ViewRadius.Horizontal
	}
	if c.ViewRadius.Vertical <= 0 {
		c.ViewRadius.Vertical = d.ViewRadius.Vertical
	}
	if c.BlocksPath == "" {
		c.BlocksPath = d.BlocksPath
	}
	if c.BlockSchemaPath == "" {
		c.BlockSchemaPath = d.BlockSchemaPath
	}
	if c.Backup.Dir != "" && c.Backup.EveryMinutes <= 0 {
		c.Backup.EveryMinutes = 60
	}
}

func (c *Config) Validate() error {
	if c.ChunkEdge < 2 || c.ChunkEdge > 64 {
		return fmt.Errorf("chunk_edge %d out of range [2,64]", c.ChunkEdge)
	}
	if c.BoundaryR < 0 {
		return fmt.Errorf("boundary_r must not be negative")
	}
	if c.Mirror.Enabled() && c.Backup.Dir == "" {
		return fmt.Errorf("mirror requires backup.dir")
	}
	return nil
}
