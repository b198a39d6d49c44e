package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MAP18XX_"

type Config struct {
	TileDefsDir string `yaml:"tiledefs_dir" env:"TILEDEFS_DIR"`
	GamesDir    string `yaml:"games_dir" env:"GAMES_DIR"`
	DataDir     string `yaml:"data_dir" env:"DATA_DIR"`
	IndexPath   string `yaml:"index_path" env:"INDEX_PATH"`
	// IndexBackend is "sqlite" or "none".
	IndexBackend string `yaml:"index_backend" env:"INDEX_BACKEND"`
	CompressLogs bool   `yaml:"compress_logs" env:"COMPRESS_LOGS"`

	Server Server `yaml:"server" envPrefix:"SERVER_"`
}

type Server struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// MaxQueue bounds each client's outgoing message queue.
	MaxQueue int `yaml:"max_queue" env:"MAX_QUEUE"`
}

func Default() Config {
	return Config{
		TileDefsDir:  "tiledefs",
		GamesDir:     "games",
		DataDir:      "data",
		IndexBackend: "sqlite",
		Server: Server{
			Addr:     ":8080",
			MaxQueue: 64,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// MAP18XX_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join(c.DataDir, "index.sqlite")
	}
	if c.Server.MaxQueue <= 0 {
		return c, fmt.Errorf("server.max_queue must be positive, got %d", c.Server.MaxQueue)
	}
	return c, nil
}

// LogPath is where the action log of a session is kept.
func (c Config) LogPath(session string) string {
	name := "log.json"
	if c.CompressLogs {
		name += ".zst"
	}
	return filepath.Join(c.DataDir, "sessions", session, name)
}

// JournalDir holds the hourly action journals of a session.
func (c Config) JournalDir(session string) string {
	return filepath.Join(c.DataDir, "sessions", session, "journal")
}

// GameDir is the static definition of a game ruleset.
func (c Config) GameDir(game string) string {
	return filepath.Join(c.GamesDir, game)
}
