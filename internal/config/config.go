// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for sprintr.
type Config struct {
	Backlog    string `mapstructure:"backlog" yaml:"backlog"`         // Backlog file path
	Sprint     string `mapstructure:"sprint" yaml:"sprint"`           // Sprint (working set) file path
	StoriesDir string `mapstructure:"stories_dir" yaml:"stories_dir"` // Markdown user story directory
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`       // Journal, archive and learnings storage
	Model      string `mapstructure:"model" yaml:"model"`
	Iterations int    `mapstructure:"iterations" yaml:"iterations"` // Agent iteration budget (0 = unlimited)
	Headless   bool   `mapstructure:"headless" yaml:"headless"`
	AutoChain  bool   `mapstructure:"auto_chain" yaml:"auto_chain"` // Extract next module when a sprint completes
	Template   string `mapstructure:"template" yaml:"template"`     // Custom prompt template path
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("sprintr")

	// Set defaults (model has no default - it's required for run)
	v.SetDefault("backlog", "backlog.json")
	v.SetDefault("sprint", "prd.json")
	v.SetDefault("stories_dir", filepath.Join("docs", "userstories"))
	v.SetDefault("data_dir", ".sprintr")
	v.SetDefault("iterations", 0)
	v.SetDefault("headless", false)
	v.SetDefault("auto_chain", false)
	v.SetDefault("template", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Setup ENV binding with SPRINTR_ prefix
	v.SetEnvPrefix("SPRINTR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	for key, env := range map[string]string{
		"backlog":     "SPRINTR_BACKLOG",
		"sprint":      "SPRINTR_SPRINT",
		"stories_dir": "SPRINTR_STORIES_DIR",
		"data_dir":    "SPRINTR_DATA_DIR",
		"model":       "SPRINTR_MODEL",
		"iterations":  "SPRINTR_ITERATIONS",
		"headless":    "SPRINTR_HEADLESS",
		"auto_chain":  "SPRINTR_AUTO_CHAIN",
		"template":    "SPRINTR_TEMPLATE",
		"log_level":   "SPRINTR_LOG_LEVEL",
		"log_file":    "SPRINTR_LOG_FILE",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		// Need to set config file explicitly for merge
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/sprintr/sprintr.yml or $XDG_CONFIG_HOME/sprintr/sprintr.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sprintr", "sprintr.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sprintr", "sprintr.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./sprintr.yml in the current working directory.
func ProjectPath() string {
	return "sprintr.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return writeYAML(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return writeYAML(ProjectPath(), cfg)
}

func writeYAML(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
