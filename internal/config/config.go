package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/crewhq/crew/internal/models"
)

const configFile = ".crew/config.json"

// Load reads the config from disk
func Load(baseDir string) (*models.Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func Save(baseDir string, cfg *models.Config) error {
	configPath := filepath.Join(baseDir, configFile)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// SetCurrentUser records the username acting in this checkout.
func SetCurrentUser(baseDir, username string) error {
	cfg, err := Load(baseDir)
	if err != nil {
		return err
	}

	cfg.CurrentUser = username
	return Save(baseDir, cfg)
}

// GetCurrentUser returns the username acting in this checkout.
func GetCurrentUser(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	return cfg.CurrentUser, nil
}

// SetBoardTab remembers which board tab was last open.
func SetBoardTab(baseDir, tab string) error {
	cfg, err := Load(baseDir)
	if err != nil {
		return err
	}

	cfg.BoardTab = tab
	return Save(baseDir, cfg)
}

// GetBoardTab returns the last open board tab.
func GetBoardTab(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	return cfg.BoardTab, nil
}
