package config

import (
	_ "embed"
)

//go:embed defaults/connect4.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Rows:    6,
			Columns: 7,
		},
		Storage: StorageConfig{
			Path: "~/.connect4/connect4.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Address:            ":2324",
			HostKey:            ".ssh/connect4_ed25519",
			IdleTimeoutMinutes: 30,
		},
	}
}
