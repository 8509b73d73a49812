// Package config loads CLI settings from .env, STUDYNOTES_* variables and an
// optional studynotes.yaml in the vault.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. STUDYNOTES_ADAPTER.
const EnvPrefix = "STUDYNOTES"

// FileName is the optional configuration file looked up in the vault directory.
const FileName = "studynotes.yaml"

type Config struct {
	Adapter    string
	Vault      string
	Format     string
	Versioning *bool // nil when not configured

	Redis  RedisConfig
	SQLite SQLiteConfig
	Log    LogConfig
}

type RedisConfig struct {
	Addr   string
	Prefix string
}

type SQLiteConfig struct {
	Path string
}

type LogConfig struct {
	Level string
}

// Load reads configuration for the vault in dir. Missing files are not an error.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Adapter: v.GetString("adapter"),
		Vault:   v.GetString("vault"),
		Format:  v.GetString("format"),
		Redis: RedisConfig{
			Addr:   v.GetString("redis.addr"),
			Prefix: v.GetString("redis.prefix"),
		},
		SQLite: SQLiteConfig{
			Path: v.GetString("sqlite.path"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if v.IsSet("versioning") {
		enabled := v.GetBool("versioning")
		cfg.Versioning = &enabled
	}

	if cfg.SQLite.Path != "" && !filepath.IsAbs(cfg.SQLite.Path) {
		cfg.SQLite.Path = filepath.Join(dir, cfg.SQLite.Path)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("adapter", "fs")
	v.SetDefault("format", "json")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "studynotes:")
	v.SetDefault("log.level", "info")
}

// LogLevel maps Log.Level to a slog level. Unknown values fall back to Info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
