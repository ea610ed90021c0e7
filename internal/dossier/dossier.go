// Package dossier owns the immutable agent archetype catalogue. Dossiers are
// loaded once at startup and shared read-only by every agent instantiated
// from them.
package dossier

import "fmt"

// TraitID names a modifier bundle applied when an agent is instantiated.
type TraitID string

const (
	// TraitSwift raises movement speed.
	TraitSwift TraitID = "swift"
	// TraitJuggernaut raises maximum health.
	TraitJuggernaut TraitID = "juggernaut"
	// TraitFireborn grants immunity to burning terrain.
	TraitFireborn TraitID = "fireborn"
	// TraitPlated grants frontal armor.
	TraitPlated TraitID = "plated"
	// TraitSeer lets the agent sense the target regardless of facing.
	TraitSeer TraitID = "seer"
)

// Modifiers is the resolved effect of a dossier's trait list, computed once
// at agent creation so the hot path never matches trait strings.
type Modifiers struct {
	SpeedMult  float64
	HealthMult float64
	FireImmune bool
	FrontArmor bool
	Omniscient bool
}

var traitTable = map[TraitID]Modifiers{
	TraitSwift:      {SpeedMult: 1.3, HealthMult: 1},
	TraitJuggernaut: {SpeedMult: 1, HealthMult: 1.8},
	TraitFireborn:   {SpeedMult: 1, HealthMult: 1, FireImmune: true},
	TraitPlated:     {SpeedMult: 1, HealthMult: 1, FrontArmor: true},
	TraitSeer:       {SpeedMult: 1, HealthMult: 1, Omniscient: true},
}

// KnownTrait reports whether the id names a registered trait.
func KnownTrait(id TraitID) bool {
	_, ok := traitTable[id]
	return ok
}

// ResolveTraits folds a trait list into a single modifier bundle.
// Multipliers combine multiplicatively; flags combine with OR. Unknown
// traits yield an error so bad data fails at load, not mid-combat.
func ResolveTraits(traits []TraitID) (Modifiers, error) {
	resolved := Modifiers{SpeedMult: 1, HealthMult: 1}
	for _, id := range traits {
		mods, ok := traitTable[id]
		if !ok {
			return Modifiers{}, fmt.Errorf("unknown trait %q", id)
		}
		resolved.SpeedMult *= mods.SpeedMult
		resolved.HealthMult *= mods.HealthMult
		resolved.FireImmune = resolved.FireImmune || mods.FireImmune
		resolved.FrontArmor = resolved.FrontArmor || mods.FrontArmor
		resolved.Omniscient = resolved.Omniscient || mods.Omniscient
	}
	return resolved, nil
}

// Dossier is the immutable archetype definition shared by many agents.
type Dossier struct {
	ID                string    `json:"id" jsonschema:"title=Dossier ID,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Archetype         string    `json:"archetype" jsonschema:"title=Behavior archetype,minLength=1,required,description=Flocking group and animation key"`
	MaxHealth         float64   `json:"maxHealth" jsonschema:"minimum=1,required"`
	Speed             float64   `json:"speed" jsonschema:"minimum=1,required,description=Movement speed in world units per second"`
	Radius            float64   `json:"radius" jsonschema:"minimum=1,required"`
	AttackRange       float64   `json:"attackRange" jsonschema:"minimum=1,required"`
	PreferredDistance float64   `json:"preferredDistance" jsonschema:"minimum=0,required,description=Engagement distance the tactical scorer favors"`
	VisionRange       float64   `json:"visionRange" jsonschema:"minimum=0,required"`
	VisionFOVDegrees  float64   `json:"visionFovDegrees" jsonschema:"minimum=1,maximum=360,required"`
	HearingRange      float64   `json:"hearingRange" jsonschema:"minimum=0,required"`
	Sprite            string    `json:"sprite,omitempty" jsonschema:"description=Client visual descriptor"`
	Traits            []TraitID `json:"traits,omitempty" jsonschema:"description=Trait ids applied at spawn"`
}

// Document models a designer-authored dossier file: an array of dossiers.
type Document []Dossier
