package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Scoring.OnTimeWeight != 70 || s.Scoring.LateWeight != 30 {
		t.Errorf("unexpected default weights: %+v", s.Scoring)
	}
	if s.Org.WeekStart != "monday" {
		t.Errorf("default week start: got %q", s.Org.WeekStart)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := Defaults()
	s.Org.Name = "Acme Ops"
	s.Org.WeekStart = "sunday"
	s.Scoring.OnTimeWeight = 80
	s.Scoring.LateWeight = 20
	s.Tickets.AutoCloseResolvedDays = 3

	if err := Save(dir, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Org.Name != "Acme Ops" {
		t.Errorf("Org.Name: got %q", loaded.Org.Name)
	}
	if loaded.Org.WeekStart != "sunday" {
		t.Errorf("WeekStart: got %q", loaded.Org.WeekStart)
	}
	if loaded.Scoring.OnTimeWeight != 80 {
		t.Errorf("OnTimeWeight: got %d", loaded.Scoring.OnTimeWeight)
	}
	if loaded.Tickets.AutoCloseResolvedDays != 3 {
		t.Errorf("AutoCloseResolvedDays: got %d", loaded.Tickets.AutoCloseResolvedDays)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	crewDir := filepath.Join(dir, ".crew")
	if err := os.MkdirAll(crewDir, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	partial := "[org]\nname = \"Acme\"\n"
	if err := os.WriteFile(filepath.Join(crewDir, "settings.toml"), []byte(partial), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Org.Name != "Acme" {
		t.Errorf("Org.Name: got %q", s.Org.Name)
	}
	// Sections absent from the file keep their defaults.
	if s.Scoring.OnTimeWeight != 70 {
		t.Errorf("OnTimeWeight: got %d, want default 70", s.Scoring.OnTimeWeight)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults valid", func(s *Settings) {}, false},
		{"bad week start", func(s *Settings) { s.Org.WeekStart = "friday" }, true},
		{"weights don't sum", func(s *Settings) { s.Scoring.OnTimeWeight = 50 }, true},
		{"negative weight", func(s *Settings) { s.Scoring.OnTimeWeight = -10; s.Scoring.LateWeight = 110 }, true},
		{"negative auto close", func(s *Settings) { s.Tickets.AutoCloseResolvedDays = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	crewDir := filepath.Join(dir, ".crew")
	if err := os.MkdirAll(crewDir, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(crewDir, "settings.toml"), []byte("org = [broken"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}
