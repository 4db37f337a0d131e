package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `[server]
name = "qwire-inspect"
addr = ":9400"
cors_origins = ["http://localhost:3000"]

[codec]
max_depth = 64
max_frame_bytes = 16777216

[log]
level = "info"
file = ""
max_size_mb = 50
max_backups = 3
no_color = false
`
