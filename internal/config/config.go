package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/renderer"
)

const ConfigFile = "config.toml"

// Environment variables, applied over config.toml
const (
	EnvDir          = "POCKET_NODES_DIR"
	EnvCatalog      = "POCKET_NODES_CATALOG"
	EnvPolicy       = "POCKET_NODES_POLICY"
	EnvDebug        = "POCKET_NODES_DEBUG"
	EnvMCPAddr      = "POCKET_NODES_MCP_ADDR"
	EnvGlamourStyle = "GLAMOUR_STYLE"
)

type Config struct {
	BaseDir    string `toml:"-"`
	CatalogDir string `toml:"catalog_dir,omitempty"`
	Policy     string `toml:"policy,omitempty"`
	Theme      string `toml:"theme,omitempty"`
	Debug      bool   `toml:"debug,omitempty"`
	MCPAddr    string `toml:"mcp_addr,omitempty"`
}

// DefaultBaseDir returns ~/.pocket-nodes
func DefaultBaseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pocket-nodes"
	}
	return filepath.Join(homeDir, ".pocket-nodes")
}

func DefaultConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		Policy:  string(renderer.DefaultPolicy),
	}
}

// Load resolves the configuration: an optional .env file, then config.toml in
// the base directory, then environment variables. An empty baseDir means
// $POCKET_NODES_DIR or ~/.pocket-nodes.
func Load(baseDir string) (*Config, error) {
	// Optional; a missing .env is not an error
	_ = godotenv.Load()

	if baseDir == "" {
		baseDir = getEnv(EnvDir, DefaultBaseDir())
	}

	cfg := DefaultConfig(baseDir)

	path := cfg.Path()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeFileCorrupted, fmt.Sprintf("reading %s", ConfigFile)).WithDetails(path)
		}
	}

	cfg.CatalogDir = getEnv(EnvCatalog, cfg.CatalogDir)
	cfg.Policy = getEnv(EnvPolicy, cfg.Policy)
	cfg.Theme = getEnv(EnvGlamourStyle, cfg.Theme)
	cfg.Debug = getEnvBool(EnvDebug, cfg.Debug)
	cfg.MCPAddr = getEnv(EnvMCPAddr, cfg.MCPAddr)

	if cfg.CatalogDir != "" {
		cfg.CatalogDir = expandPath(cfg.CatalogDir, baseDir)
	}

	policy, err := renderer.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, apperrors.ValidationError(err.Error()).WithContext("source", "policy")
	}
	cfg.Policy = string(policy)

	return cfg, nil
}

// Path returns the location of config.toml
func (c *Config) Path() string {
	return filepath.Join(c.BaseDir, ConfigFile)
}

// LogPath returns the TUI log file location
func (c *Config) LogPath() string {
	return logger.FilePath(c.BaseDir)
}

// RenderPolicy returns the configured policy, falling back to the default
func (c *Config) RenderPolicy() renderer.Policy {
	policy, err := renderer.ParsePolicy(c.Policy)
	if err != nil {
		return renderer.DefaultPolicy
	}
	return policy
}

// Save writes config.toml to the base directory
func (c *Config) Save() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(c.BaseDir, 0755); err != nil {
		return apperrors.StorageError("create config directory", err).WithDetails(c.BaseDir)
	}
	if err := os.WriteFile(c.Path(), buf.Bytes(), 0644); err != nil {
		return apperrors.StorageError("write config", err).WithDetails(c.Path())
	}
	return nil
}

// String renders the effective configuration as TOML
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c)
	return buf.String()
}

// getEnv returns the environment variable, or defaultValue when it is unset or empty
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// expandPath resolves "~/" and paths relative to the base directory
func expandPath(path, baseDir string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(baseDir, path)
	}
	return path
}
