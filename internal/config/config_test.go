package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"zero duration", func(s *Settings) { s.DurationPerImage = 0 }, "duration per image"},
		{"negative duration", func(s *Settings) { s.DurationPerImage = -2 }, "duration per image"},
		{"negative transition", func(s *Settings) { s.TransitionDuration = -0.1 }, "transition"},
		{"transition >= duration", func(s *Settings) { s.DurationPerImage = 1; s.TransitionDuration = 1 }, "shorter"},
		{"zero width", func(s *Settings) { s.Width = 0 }, "dimensions"},
		{"negative height", func(s *Settings) { s.Height = -720 }, "dimensions"},
		{"zero fps", func(s *Settings) { s.FPS = 0 }, "frame rate"},
		{"bad fit mode", func(s *Settings) { s.ImageFit = "stretch" }, "fit mode"},
		{"zoom below 1", func(s *Settings) { s.KenBurns.ZoomFactor = 0.5 }, "zoom factor"},
		{"bad direction", func(s *Settings) { s.KenBurns.PanDirection = "diagonal" }, "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestKenBurnsSettingsIgnoredWhenDisabled(t *testing.T) {
	s := Default()
	s.KenBurns.Enabled = false
	s.KenBurns.ZoomFactor = 0
	s.KenBurns.PanDirection = "whatever"
	if err := s.Validate(); err != nil {
		t.Errorf("disabled ken burns must not be validated: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	s := Default()
	s.DurationPerImage = 3.5
	s.KenBurns.PanDirection = "pan-left"
	s.Width = 1080
	s.Height = 1920

	if err := Save(s, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}
