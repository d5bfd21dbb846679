// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Daemon configuration loaded from the user config directory.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const configName = "polymodo.json"

// Config holds the daemon's settings.
type Config struct {
	// Socket is the address of the IPC socket. A leading '@' denotes an
	// abstract unix-domain address.
	Socket string `json:"socket"`
	// HistoryDB is the path of the launch-history database.
	HistoryDB string `json:"history_db"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// Development switches logging to human-readable console output.
	Development bool `json:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Socket:    "@polymodo",
		HistoryDB: defaultHistoryPath(),
		LogLevel:  "info",
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Socket == "" {
		cfg.Socket = Default().Socket
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = Default().LogLevel
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = defaultHistoryPath()
	}
	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configName), nil
}

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "polymodo"), nil
}

func defaultHistoryPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheDir, "polymodo", "history.db")
}
