package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel       = "warn"
	DefaultRetentionCount = 10

	// Aside-swapped pre-restore state is reclaimed after this grace window.
	DefaultCleanupGraceSeconds = 300

	// Argon2id parameters per the x/crypto recommended defaults.
	DefaultArgonTime      = 1
	DefaultArgonMemoryKiB = 64 * 1024
	DefaultArgonThreads   = 4

	DBFileName     = "db.sqlite"
	BlobsDirName   = "blobs"
	BackupsDirName = "backups"

	configFileName  = ".vellum.toml"
	configDirEnvKey = "VELLUM_CONFIG_DIR"
	dataDirEnvKey   = "VELLUM_DATA_DIR"
)

// BackupConfig defines runtime configuration for the backup engine.
type BackupConfig struct {
	RetentionCount      int `toml:"retention_count"`
	CleanupGraceSeconds int `toml:"cleanup_grace_seconds"`
	ArgonTime           int `toml:"argon_time"`
	ArgonMemoryKiB      int `toml:"argon_memory_kib"`
	ArgonThreads        int `toml:"argon_threads"`
}

// Config defines runtime configuration for vellum.
type Config struct {
	DataDir  string       `toml:"data_dir"`
	LogLevel string       `toml:"log_level"`
	Backup   BackupConfig `toml:"backup"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		DataDir:  "",
		LogLevel: DefaultLogLevel,
		Backup: BackupConfig{
			RetentionCount:      DefaultRetentionCount,
			CleanupGraceSeconds: DefaultCleanupGraceSeconds,
			ArgonTime:           DefaultArgonTime,
			ArgonMemoryKiB:      DefaultArgonMemoryKiB,
			ArgonThreads:        DefaultArgonThreads,
		},
	}
}

// Load reads the global config file if present and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	if err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	if dir := strings.TrimSpace(os.Getenv(dataDirEnvKey)); dir != "" {
		cfg.DataDir = dir
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".vellum")
	}
	abs, err := filepath.Abs(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = abs

	if c.Backup.RetentionCount <= 0 {
		c.Backup.RetentionCount = DefaultRetentionCount
	}
	if c.Backup.CleanupGraceSeconds < 0 {
		c.Backup.CleanupGraceSeconds = DefaultCleanupGraceSeconds
	}
	if c.Backup.ArgonTime <= 0 {
		c.Backup.ArgonTime = DefaultArgonTime
	}
	if c.Backup.ArgonMemoryKiB <= 0 {
		c.Backup.ArgonMemoryKiB = DefaultArgonMemoryKiB
	}
	if c.Backup.ArgonThreads <= 0 {
		c.Backup.ArgonThreads = DefaultArgonThreads
	}
	return nil
}

func loadFileIfExists(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// DatabasePath returns the live SQLite database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DBFileName)
}

// BlobsDir returns the live blob store root.
func (c *Config) BlobsDir() string {
	return filepath.Join(c.DataDir, BlobsDirName)
}

// BackupsDir returns the encrypted backup archive directory.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.DataDir, BackupsDirName)
}

var allowedKeys = []string{
	"data_dir",
	"log_level",
	"backup.retention_count",
	"backup.cleanup_grace_seconds",
	"backup.argon_time",
	"backup.argon_memory_kib",
	"backup.argon_threads",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "backup.retention_count":
		return strconv.Itoa(c.Backup.RetentionCount), nil
	case "backup.cleanup_grace_seconds":
		return strconv.Itoa(c.Backup.CleanupGraceSeconds), nil
	case "backup.argon_time":
		return strconv.Itoa(c.Backup.ArgonTime), nil
	case "backup.argon_memory_kib":
		return strconv.Itoa(c.Backup.ArgonMemoryKiB), nil
	case "backup.argon_threads":
		return strconv.Itoa(c.Backup.ArgonThreads), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}
