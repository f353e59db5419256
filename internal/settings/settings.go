// Package settings holds org-wide configuration that administrators tune,
// persisted as TOML at .crew/settings.toml. Per-checkout tool state lives
// in internal/config instead.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const settingsFile = ".crew/settings.toml"

// Settings is the full settings document.
type Settings struct {
	Org     OrgSettings     `toml:"org"`
	Scoring ScoringSettings `toml:"scoring"`
	Tickets TicketSettings  `toml:"tickets"`
}

// OrgSettings names the organization and its working week.
type OrgSettings struct {
	Name      string `toml:"name"`
	WeekStart string `toml:"week_start"` // "monday" or "sunday"
}

// ScoringSettings are the weights of the weekly performance score.
// OnTimeWeight + LateWeight should sum to 100.
type ScoringSettings struct {
	OnTimeWeight int `toml:"on_time_weight"`
	LateWeight   int `toml:"late_weight"`
}

// TicketSettings controls help-ticket housekeeping.
type TicketSettings struct {
	AutoCloseResolvedDays int `toml:"auto_close_resolved_days"`
}

// Defaults returns the settings used when no file exists yet.
func Defaults() *Settings {
	return &Settings{
		Org:     OrgSettings{Name: "crew", WeekStart: "monday"},
		Scoring: ScoringSettings{OnTimeWeight: 70, LateWeight: 30},
		Tickets: TicketSettings{AutoCloseResolvedDays: 7},
	}
}

// Load reads the settings file, returning defaults when it is absent.
func Load(baseDir string) (*Settings, error) {
	path := filepath.Join(baseDir, settingsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	s := Defaults()
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the settings file.
func Save(baseDir string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	path := filepath.Join(baseDir, settingsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the rest of the system cannot work with.
func (s *Settings) Validate() error {
	if s.Org.WeekStart != "monday" && s.Org.WeekStart != "sunday" {
		return fmt.Errorf("week_start must be monday or sunday, got %q", s.Org.WeekStart)
	}
	if s.Scoring.OnTimeWeight < 0 || s.Scoring.LateWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if s.Scoring.OnTimeWeight+s.Scoring.LateWeight != 100 {
		return fmt.Errorf("scoring weights must sum to 100, got %d",
			s.Scoring.OnTimeWeight+s.Scoring.LateWeight)
	}
	if s.Tickets.AutoCloseResolvedDays < 0 {
		return fmt.Errorf("auto_close_resolved_days must be non-negative")
	}
	return nil
}
