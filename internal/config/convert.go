package config

import (
	"github.com/danmuck/quasselwire/internal/logging"
	"github.com/danmuck/quasselwire/internal/protocol/frame"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

func (c CodecConfig) VariantLimits() variant.Limits {
	return variant.Limits{MaxDepth: c.MaxDepth}
}

func (c CodecConfig) FrameLimits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.MaxFrameBytes}
}

// Logging maps the [log] table onto a runtime logging config.
func (l LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(l.Level); ok {
		cfg.Level = lvl
	}
	cfg.File = l.File
	cfg.NoColor = l.NoColor
	if l.MaxSizeMB > 0 {
		cfg.MaxSizeMB = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		cfg.MaxBackups = l.MaxBackups
	}
	return cfg
}
