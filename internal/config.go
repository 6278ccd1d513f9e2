package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultStoragePath = "~/.prompt-hub"

type MirrorConfig struct {
	Enabled bool `yaml:"enabled"`
}

type GitConfig struct {
	RemoteURL             string `yaml:"remote_url,omitempty"`
	SyncEnabled           bool   `yaml:"sync_enabled"`
	AutoSyncOnSave        bool   `yaml:"auto_sync_on_save"`
	AutoSyncDelaySeconds  int    `yaml:"auto_sync_delay_seconds"`
	CommitMessageTemplate string `yaml:"commit_message_template"`
	DebugLog              bool   `yaml:"debug_log,omitempty"`
}

type Config struct {
	StoragePath string       `yaml:"storage_path"`
	Mirror      MirrorConfig `yaml:"mirror"`
	Git         GitConfig    `yaml:"git"`
}

func DefaultConfig() *Config {
	return &Config{
		StoragePath: DefaultStoragePath,
		Mirror:      MirrorConfig{Enabled: true},
		Git: GitConfig{
			SyncEnabled:           false,
			AutoSyncOnSave:        true,
			AutoSyncDelaySeconds:  60,
			CommitMessageTemplate: "chore: sync records {datetime}",
		},
	}
}

// DefaultConfigPath is ~/.prompthub/config.yaml, overridable through the
// PROMPTHUB_CONFIG environment variable.
func DefaultConfigPath() string {
	if env := os.Getenv("PROMPTHUB_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".prompthub", "config.yaml")
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var (
	envBraceRe = regexp.MustCompile(`\$\{env:(\w+)\}`)
	envBareRe  = regexp.MustCompile(`\$(\w+)`)
)

// ExpandPath resolves the variable forms allowed in storage_path: a leading
// ~, the ${workspaceFolder} token, and ${env:VAR} / $VAR environment
// references. workspaceRoot substitutes for ${workspaceFolder}.
func ExpandPath(path, workspaceRoot string) string {
	resolved := path

	if resolved == "~" || strings.HasPrefix(resolved, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			resolved = home + strings.TrimPrefix(resolved, "~")
		}
	}

	if strings.Contains(resolved, "${workspaceFolder}") {
		resolved = strings.ReplaceAll(resolved, "${workspaceFolder}", workspaceRoot)
	}

	resolved = envBraceRe.ReplaceAllStringFunc(resolved, func(m string) string {
		return os.Getenv(envBraceRe.FindStringSubmatch(m)[1])
	})
	resolved = envBareRe.ReplaceAllStringFunc(resolved, func(m string) string {
		return os.Getenv(envBareRe.FindStringSubmatch(m)[1])
	})

	return filepath.Clean(resolved)
}

// ResolveStoragePath expands the configured storage path against the current
// working directory as the workspace root.
func (c *Config) ResolveStoragePath() string {
	cwd, _ := os.Getwd()
	return ExpandPath(c.StoragePath, cwd)
}
