// Package config loads and validates the .hachiko.yml orchestrator
// configuration.
//
// Configuration is strictly separated from state: the file describes the
// target repository and the migration conventions (branch prefix, label,
// plan directory), never migration progress. Progress is always inferred
// fresh from GitHub; nothing here caches it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultConfigFilename = ".hachiko.yml"
	DefaultBranchPrefix   = "hachiko/"
	DefaultLabel          = "hachiko-migration"
	DefaultMigrationsDir  = "migrations"
	DefaultBaseBranch     = "main"
	DefaultPRListLimit    = 100
)

// Config is the top-level orchestrator configuration.
type Config struct {
	// Repo is the owner/name slug of the repository under migration.
	Repo string `yaml:"repo"`
	// BaseBranch is the ref plan documents are read from.
	BaseBranch string `yaml:"base_branch"`
	// MigrationsDir is the repository directory holding plan documents,
	// one <migration-id>.md per migration.
	MigrationsDir string `yaml:"migrations_dir"`
	// BranchPrefix is the head-branch prefix agents use for migration PRs.
	BranchPrefix string `yaml:"branch_prefix"`
	// Label is the convention label corroborating migration PRs.
	Label string `yaml:"label"`
	// PRListLimit bounds pull request list queries.
	PRListLimit int `yaml:"pr_list_limit"`
	// Migrations enumerates the migration ids this repository tracks.
	Migrations []string `yaml:"migrations"`
}

// Load reads and validates a configuration file. Missing optional fields
// receive defaults; a missing repo slug is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads .hachiko.yml from the given directory.
func LoadFromDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, DefaultConfigFilename))
}

// Default returns a configuration with all defaults applied and no repo set.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BaseBranch == "" {
		c.BaseBranch = DefaultBaseBranch
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = DefaultMigrationsDir
	}
	if c.BranchPrefix == "" {
		c.BranchPrefix = DefaultBranchPrefix
	}
	if c.Label == "" {
		c.Label = DefaultLabel
	}
	if c.PRListLimit <= 0 || c.PRListLimit > DefaultPRListLimit {
		c.PRListLimit = DefaultPRListLimit
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Repo) == "" {
		return fmt.Errorf("repo is required (owner/name)")
	}
	if !strings.Contains(c.Repo, "/") {
		return fmt.Errorf("repo must be an owner/name slug, got %q", c.Repo)
	}
	if !strings.HasSuffix(c.BranchPrefix, "/") {
		return fmt.Errorf("branch_prefix must end with '/', got %q", c.BranchPrefix)
	}
	for _, id := range c.Migrations {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("migrations list contains an empty id")
		}
	}
	return nil
}

// PlanPath returns the in-repo path of a migration's plan document.
func (c *Config) PlanPath(migrationID string) string {
	return c.MigrationsDir + "/" + migrationID + ".md"
}
