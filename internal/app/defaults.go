package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CPT_CONFIG_PATH: config file location (default: ~/.config/cpt.toml)
//   - CPT_HOME: base directory for cpt data (default: ~/.local/share/cpt)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"repo_dir":    filepath.Join(baseDir, "repo"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking CPT_CONFIG_PATH env
// var first, then falling back to the default ~/.config/cpt.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CPT_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cpt.toml"), nil
}

// getBaseDir returns the base directory for cpt data, checking CPT_HOME env
// var first, then falling back to the XDG default ~/.local/share/cpt.
func getBaseDir() (string, error) {
	if path := os.Getenv("CPT_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "cpt"), nil
}
