// Package config loads the TOML configuration shared by the qwire CLI and
// the inspector server.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/danmuck/quasselwire/internal/logging"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Codec  CodecConfig  `toml:"codec"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type CodecConfig struct {
	MaxDepth      int    `toml:"max_depth"`
	MaxFrameBytes uint64 `toml:"max_frame_bytes"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	NoColor    bool   `toml:"no_color"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Name: "qwire-inspect",
			Addr: ":9400",
		},
		Codec: CodecConfig{
			MaxDepth:      64,
			MaxFrameBytes: 16 * 1024 * 1024,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem in cfg, not just the first.
func Validate(cfg Config) error {
	var result *multierror.Error
	if strings.TrimSpace(cfg.Server.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("server.name is required"))
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		result = multierror.Append(result, fmt.Errorf("server.addr is required"))
	}
	for i, origin := range cfg.Server.CorsOrigins {
		if strings.TrimSpace(origin) == "" {
			result = multierror.Append(result, fmt.Errorf("server.cors_origins[%d] is empty", i))
		}
	}
	if cfg.Codec.MaxDepth <= 0 {
		result = multierror.Append(result, fmt.Errorf("codec.max_depth must be positive"))
	}
	if cfg.Codec.MaxFrameBytes == 0 || cfg.Codec.MaxFrameBytes > uint64(^uint32(0)) {
		result = multierror.Append(result, fmt.Errorf("codec.max_frame_bytes must be in 1..%d", uint64(^uint32(0))))
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		result = multierror.Append(result, fmt.Errorf("log.level %q is not recognised", cfg.Log.Level))
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		result = multierror.Append(result, fmt.Errorf("log.max_size_mb must be positive when log.file is set"))
	}
	return result.ErrorOrNil()
}
