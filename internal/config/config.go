package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/img2video/internal/geometry"
)

// KenBurns holds the zoom/pan effect parameters.
type KenBurns struct {
	Enabled      bool    `yaml:"enabled"`
	ZoomFactor   float64 `yaml:"zoom_factor"`
	PanDirection string  `yaml:"pan_direction"`
}

// Settings is the complete per-session configuration. No other option
// influences the compositor's behavior.
type Settings struct {
	DurationPerImage   float64  `yaml:"duration_per_image"`
	TransitionDuration float64  `yaml:"transition_duration"`
	KenBurns           KenBurns `yaml:"ken_burns"`
	Width              int      `yaml:"width"`
	Height             int      `yaml:"height"`
	FPS                int      `yaml:"fps"`
	ImageFit           string   `yaml:"image_fit"`

	// Настройки энкодера (не влияют на композитинг)
	VideoEncoder string `yaml:"video_encoder,omitempty"`
	Quality      int    `yaml:"quality,omitempty"`
	Debug        bool   `yaml:"debug,omitempty"`
}

func Default() Settings {
	return Settings{
		DurationPerImage:   5.0,
		TransitionDuration: 1.0,
		KenBurns: KenBurns{
			Enabled:      true,
			ZoomFactor:   1.2,
			PanDirection: string(geometry.DirectionRandom),
		},
		Width:    1280,
		Height:   720,
		FPS:      30,
		ImageFit: string(geometry.FitCover),
	}
}

// Validate checks the preconditions a session requires before any
// resource is allocated.
func (s *Settings) Validate() error {
	if s.DurationPerImage <= 0 {
		return fmt.Errorf("duration per image must be positive, got %.3f", s.DurationPerImage)
	}
	if s.TransitionDuration < 0 {
		return fmt.Errorf("transition duration must not be negative, got %.3f", s.TransitionDuration)
	}
	if s.TransitionDuration >= s.DurationPerImage {
		return fmt.Errorf("transition duration %.3f must be shorter than image duration %.3f",
			s.TransitionDuration, s.DurationPerImage)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("output dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", s.FPS)
	}
	if _, err := geometry.ParseFitMode(s.ImageFit); err != nil {
		return err
	}
	if s.KenBurns.Enabled {
		if s.KenBurns.ZoomFactor < 1 {
			return fmt.Errorf("zoom factor must be >= 1, got %.3f", s.KenBurns.ZoomFactor)
		}
		if _, err := geometry.ParseDirection(s.KenBurns.PanDirection); err != nil {
			return err
		}
	}
	return nil
}

// FitMode returns the parsed image fit mode. Call Validate first.
func (s *Settings) FitMode() geometry.FitMode {
	m, _ := geometry.ParseFitMode(s.ImageFit)
	return m
}

// Direction returns the parsed pan direction. Call Validate first.
func (s *Settings) Direction() geometry.Direction {
	d, _ := geometry.ParseDirection(s.KenBurns.PanDirection)
	return d
}

// Load reads settings from a YAML file, filling unset fields from the
// defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to a YAML file.
func Save(s Settings, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
