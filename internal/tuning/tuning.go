// Package tuning centralizes every behavioral constant of the AI system in a
// single YAML-loadable document. None of these values are load-bearing for
// correctness; they shape pacing and feel.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the root tuning document.
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	Perception Perception `yaml:"perception"`
	EQS        EQS        `yaml:"eqs"`
	Planner    Planner    `yaml:"planner"`
	Director   Director   `yaml:"director"`
	Path       Path       `yaml:"path"`
	Steering   Steering   `yaml:"steering"`
	Combat     Combat     `yaml:"combat"`
}

// Perception tunes belief maintenance and the acoustic extension.
type Perception struct {
	// CertaintyDecayPerSecond is subtracted from certainty while the target
	// is out of sight.
	CertaintyDecayPerSecond float64 `yaml:"certainty_decay_per_second"`
	// AcousticVolumeThreshold is the minimum delivered volume that can
	// influence a belief.
	AcousticVolumeThreshold float64 `yaml:"acoustic_volume_threshold"`
	// AcousticCertaintyFloor is the certainty granted by a qualifying sound.
	AcousticCertaintyFloor float64 `yaml:"acoustic_certainty_floor"`
	// AcousticCertaintyCap bounds how certain a sound alone can make an agent.
	AcousticCertaintyCap float64 `yaml:"acoustic_certainty_cap"`
}

// EQS tunes the tactical query engine.
type EQS struct {
	RefreshIntervalTicks uint64  `yaml:"refresh_interval_ticks"`
	DefaultRadius        float64 `yaml:"default_radius"`
	DefaultDensity       int     `yaml:"default_density"`
}

// Planner tunes goal-directed planning.
type Planner struct {
	// MaxIterations caps A* node expansions over the symbolic state space.
	MaxIterations int `yaml:"max_iterations"`
}

// Director tunes the engagement-token arbiter.
type Director struct {
	AttackSlots     int     `yaml:"attack_slots"`
	FlankSlots      int     `yaml:"flank_slots"`
	RevokeDistance  float64 `yaml:"revoke_distance"`
	RevokeCertainty float64 `yaml:"revoke_certainty"`
	// EfficiencyDistanceScale shapes the distance-decay term of the request
	// score: closer requesters score higher.
	EfficiencyDistanceScale float64 `yaml:"efficiency_distance_scale"`
	// PerceivedBonus multiplies the score of requesters with direct sight.
	PerceivedBonus float64 `yaml:"perceived_bonus"`
	// CertaintyWeight scales the certainty term of the score.
	CertaintyWeight float64 `yaml:"certainty_weight"`
}

// Path tunes the grid pathfinder and path caching.
type Path struct {
	RefreshIntervalTicks uint64  `yaml:"refresh_interval_ticks"`
	BreachMultiplier     float64 `yaml:"breach_multiplier"`
	HazardPenalty        float64 `yaml:"hazard_penalty"`
	HeatThreshold        float64 `yaml:"heat_threshold"`
	MaxExpansions        int     `yaml:"max_expansions"`
	// WaypointEpsilon is the arrival radius around a waypoint.
	WaypointEpsilon float64 `yaml:"waypoint_epsilon"`
}

// Steering tunes the boid blend applied after planning.
type Steering struct {
	SeparationRadius float64 `yaml:"separation_radius"`
	FlockRadius      float64 `yaml:"flock_radius"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
}

// Combat tunes engagement execution.
type Combat struct {
	// RecoveryTicks suppress planning after the agent is struck.
	RecoveryTicks uint64 `yaml:"recovery_ticks"`
	// VelocityDecay is the per-tick multiplier applied while recovering or
	// without a plan.
	VelocityDecay float64 `yaml:"velocity_decay"`
}

// Default returns the shipped tuning values.
func Default() Tuning {
	return Tuning{
		TickRateHz: 15,
		Perception: Perception{
			CertaintyDecayPerSecond: 0.25,
			AcousticVolumeThreshold: 0.1,
			AcousticCertaintyFloor:  0.6,
			AcousticCertaintyCap:    0.8,
		},
		EQS: EQS{
			RefreshIntervalTicks: 10,
			DefaultRadius:        192,
			DefaultDensity:       24,
		},
		Planner: Planner{
			MaxIterations: 256,
		},
		Director: Director{
			AttackSlots:             3,
			FlankSlots:              2,
			RevokeDistance:          520,
			RevokeCertainty:         0.2,
			EfficiencyDistanceScale: 160,
			PerceivedBonus:          1.5,
			CertaintyWeight:         1.0,
		},
		Path: Path{
			RefreshIntervalTicks: 8,
			BreachMultiplier:     8,
			HazardPenalty:        4,
			HeatThreshold:        0.5,
			MaxExpansions:        4096,
			WaypointEpsilon:      12,
		},
		Steering: Steering{
			SeparationRadius: 28,
			FlockRadius:      110,
			SeparationWeight: 1.4,
			AlignmentWeight:  0.6,
			CohesionWeight:   0.4,
		},
		Combat: Combat{
			RecoveryTicks: 12,
			VelocityDecay: 0.85,
		},
	}
}

// Load reads a YAML tuning file. Unset fields fall back to Default values so
// partial overrides stay valid.
func Load(path string) (Tuning, error) {
	loaded := Tuning{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Default(), fmt.Errorf("tuning %s: %w", path, err)
	}
	return loaded.Normalized(), nil
}

// Normalized fills zero-valued fields with the shipped defaults.
func (t Tuning) Normalized() Tuning {
	defaults := Default()
	if t.TickRateHz <= 0 {
		t.TickRateHz = defaults.TickRateHz
	}
	if t.Perception.CertaintyDecayPerSecond <= 0 {
		t.Perception.CertaintyDecayPerSecond = defaults.Perception.CertaintyDecayPerSecond
	}
	if t.Perception.AcousticVolumeThreshold <= 0 {
		t.Perception.AcousticVolumeThreshold = defaults.Perception.AcousticVolumeThreshold
	}
	if t.Perception.AcousticCertaintyFloor <= 0 {
		t.Perception.AcousticCertaintyFloor = defaults.Perception.AcousticCertaintyFloor
	}
	if t.Perception.AcousticCertaintyCap <= 0 {
		t.Perception.AcousticCertaintyCap = defaults.Perception.AcousticCertaintyCap
	}
	if t.EQS.RefreshIntervalTicks == 0 {
		t.EQS.RefreshIntervalTicks = defaults.EQS.RefreshIntervalTicks
	}
	if t.EQS.DefaultRadius <= 0 {
		t.EQS.DefaultRadius = defaults.EQS.DefaultRadius
	}
	if t.EQS.DefaultDensity <= 0 {
		t.EQS.DefaultDensity = defaults.EQS.DefaultDensity
	}
	if t.Planner.MaxIterations <= 0 {
		t.Planner.MaxIterations = defaults.Planner.MaxIterations
	}
	if t.Director.AttackSlots <= 0 {
		t.Director.AttackSlots = defaults.Director.AttackSlots
	}
	if t.Director.FlankSlots <= 0 {
		t.Director.FlankSlots = defaults.Director.FlankSlots
	}
	if t.Director.RevokeDistance <= 0 {
		t.Director.RevokeDistance = defaults.Director.RevokeDistance
	}
	if t.Director.RevokeCertainty <= 0 {
		t.Director.RevokeCertainty = defaults.Director.RevokeCertainty
	}
	if t.Director.EfficiencyDistanceScale <= 0 {
		t.Director.EfficiencyDistanceScale = defaults.Director.EfficiencyDistanceScale
	}
	if t.Director.PerceivedBonus <= 0 {
		t.Director.PerceivedBonus = defaults.Director.PerceivedBonus
	}
	if t.Director.CertaintyWeight <= 0 {
		t.Director.CertaintyWeight = defaults.Director.CertaintyWeight
	}
	if t.Path.RefreshIntervalTicks == 0 {
		t.Path.RefreshIntervalTicks = defaults.Path.RefreshIntervalTicks
	}
	if t.Path.BreachMultiplier <= 1 {
		t.Path.BreachMultiplier = defaults.Path.BreachMultiplier
	}
	if t.Path.HazardPenalty <= 0 {
		t.Path.HazardPenalty = defaults.Path.HazardPenalty
	}
	if t.Path.HeatThreshold <= 0 {
		t.Path.HeatThreshold = defaults.Path.HeatThreshold
	}
	if t.Path.MaxExpansions <= 0 {
		t.Path.MaxExpansions = defaults.Path.MaxExpansions
	}
	if t.Path.WaypointEpsilon <= 0 {
		t.Path.WaypointEpsilon = defaults.Path.WaypointEpsilon
	}
	if t.Steering.SeparationRadius <= 0 {
		t.Steering.SeparationRadius = defaults.Steering.SeparationRadius
	}
	if t.Steering.FlockRadius <= 0 {
		t.Steering.FlockRadius = defaults.Steering.FlockRadius
	}
	if t.Steering.SeparationWeight <= 0 {
		t.Steering.SeparationWeight = defaults.Steering.SeparationWeight
	}
	if t.Steering.AlignmentWeight <= 0 {
		t.Steering.AlignmentWeight = defaults.Steering.AlignmentWeight
	}
	if t.Steering.CohesionWeight <= 0 {
		t.Steering.CohesionWeight = defaults.Steering.CohesionWeight
	}
	if t.Combat.RecoveryTicks == 0 {
		t.Combat.RecoveryTicks = defaults.Combat.RecoveryTicks
	}
	if t.Combat.VelocityDecay <= 0 || t.Combat.VelocityDecay >= 1 {
		t.Combat.VelocityDecay = defaults.Combat.VelocityDecay
	}
	return t
}
