package server

import (
	"strings"

	"emberfall/server/internal/world"
)

const (
	DefaultWidth  = 1280.0
	DefaultHeight = 960.0
)

// Config shapes one simulation run. Tuning constants live separately in the
// internal/tuning document; this struct only covers arena composition.
type Config struct {
	Seed           string  `json:"seed"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	AgentCount     int     `json:"agentCount"`
	ObstacleCount  int     `json:"obstacleCount"`
	FirePatchCount int     `json:"firePatchCount"`

	// TuningPath optionally overrides the shipped tuning defaults.
	TuningPath string `json:"tuningPath,omitempty"`
	// DossierPath optionally replaces the built-in dossier catalogue.
	DossierPath string `json:"dossierPath,omitempty"`

	// JournalPath enables the zstd decision journal when non-empty;
	// JournalIndexPath additionally maintains the sqlite tick index.
	JournalPath      string `json:"journalPath,omitempty"`
	JournalIndexPath string `json:"journalIndexPath,omitempty"`
}

// DefaultConfig is a small arena with a handful of hostiles.
func DefaultConfig() Config {
	return Config{
		Seed:           world.DefaultSeed,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		AgentCount:     6,
		ObstacleCount:  14,
		FirePatchCount: 3,
	}
}

// Normalized clamps invalid values back to usable defaults.
func (cfg Config) Normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = world.DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	if normalized.AgentCount < 0 {
		normalized.AgentCount = 0
	}
	if normalized.ObstacleCount < 0 {
		normalized.ObstacleCount = 0
	}
	if normalized.FirePatchCount < 0 {
		normalized.FirePatchCount = 0
	}
	return normalized
}
