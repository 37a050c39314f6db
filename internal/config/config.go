package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	// MetadataDir holds config, journal, logs and the daemon lock inside a project.
	MetadataDir        = ".dirkeep"
	ConfigFileName     = "config"
	DefaultBatchWindow = 250 * time.Millisecond
	EnvPrefix          = "DIRKEEP"
)

var (
	ErrNoProject      = errors.New("project directory is required")
	ErrBadBatchWindow = errors.New("batch window must be positive")
)

type Config struct {
	Project     string        `yaml:"project" json:"project"`
	Scopes      []string      `yaml:"scopes" json:"scopes"`
	AllPlaces   bool          `yaml:"all_places" json:"all_places"`
	BatchWindow time.Duration `yaml:"batch_window" json:"batch_window"`
	Journal     bool          `yaml:"journal" json:"journal"`
	Verbose     bool          `yaml:"verbose" json:"verbose"`
	Quiet       bool          `yaml:"quiet" json:"quiet"`
	LogFile     string        `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	Path        string        `yaml:"-" json:"-"`
}

// Default returns the configuration used when nothing is set for project.
func Default(project string) *Config {
	return &Config{
		Project:     project,
		Scopes:      append([]string(nil), emptydir.DefaultScopes...),
		BatchWindow: DefaultBatchWindow,
		Journal:     true,
	}
}

// DefaultPath is where init writes and commands look for the config file.
func DefaultPath(project string) string {
	return filepath.Join(project, MetadataDir, ConfigFileName+".yaml")
}

// Validate resolves the project to an absolute path and checks every field.
func (c *Config) Validate() error {
	if c.Project == "" {
		return ErrNoProject
	}

	project, err := utils.RealPath(c.Project)
	if err != nil {
		return fmt.Errorf("resolve project %q: %w", c.Project, err)
	}
	if !utils.DirExists(project) {
		return fmt.Errorf("project %s: %w", project, os.ErrNotExist)
	}
	c.Project = project

	if c.BatchWindow <= 0 {
		return ErrBadBatchWindow
	}

	if _, err := c.Scope(); err != nil {
		return err
	}

	if c.LogFile != "" && !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(c.Project, c.LogFile)
	}

	return nil
}

// Scope builds the reconciler scope. AllPlaces disables scoping.
func (c *Config) Scope() (emptydir.Scope, error) {
	if c.AllPlaces {
		return emptydir.Scope{}, nil
	}
	return emptydir.NewScope(c.Scopes...)
}

// fileConfig is the part of Config that belongs in the project file.
// Verbosity is a per-invocation choice and is never persisted.
type fileConfig struct {
	Project     string        `yaml:"project"`
	Scopes      []string      `yaml:"scopes"`
	AllPlaces   bool          `yaml:"all_places"`
	BatchWindow time.Duration `yaml:"batch_window"`
	Journal     bool          `yaml:"journal"`
	LogFile     string        `yaml:"log_file,omitempty"`
}

// Save writes the durable fields as YAML.
func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(fileConfig{
		Project:     c.Project,
		Scopes:      c.Scopes,
		AllPlaces:   c.AllPlaces,
		BatchWindow: c.BatchWindow,
		Journal:     c.Journal,
		LogFile:     c.LogFile,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.Path = path
	return nil
}

// Load reads a YAML (or JSON) config file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}
