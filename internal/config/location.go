package config

import (
	"os"
	"path/filepath"
)

// Environment variables read by the configuration.
const (
	EnvConfig   = "HTN_CONFIG"
	EnvLogLevel = "HTN_LOG_LEVEL"
)

// Path returns the configuration file path, kubectl-style: HTN_CONFIG if set,
// otherwise ~/.go-htn/config.toml.
func Path() (string, error) {
	if configPath := os.Getenv(EnvConfig); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".go-htn", "config.toml"), nil
}

// EnsureDir ensures that the directory of the configuration file exists.
func EnsureDir() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}
