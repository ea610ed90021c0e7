package dossier

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	schemaval "github.com/santhosh-tekuri/jsonschema/v5"
)

// Catalog is the frozen set of dossiers available to the spawner.
type Catalog struct {
	byID  map[string]*Dossier
	order []string
}

// Get returns the dossier for an id.
func (c *Catalog) Get(id string) (*Dossier, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.byID[id]
	return d, ok
}

// IDs lists the catalogue ids in sorted order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Len returns the number of dossiers.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

func buildCatalog(doc Document) (*Catalog, error) {
	catalog := &Catalog{byID: make(map[string]*Dossier, len(doc))}
	for i := range doc {
		entry := doc[i]
		if entry.ID == "" {
			return nil, fmt.Errorf("dossier %d: missing id", i)
		}
		if _, exists := catalog.byID[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate dossier id %q", entry.ID)
		}
		if _, err := ResolveTraits(entry.Traits); err != nil {
			return nil, fmt.Errorf("dossier %q: %w", entry.ID, err)
		}
		catalog.byID[entry.ID] = &entry
		catalog.order = append(catalog.order, entry.ID)
	}
	sort.Strings(catalog.order)
	return catalog, nil
}

// Parse validates raw dossier JSON against the reflected schema and builds a
// catalogue from it.
func Parse(raw []byte) (*Catalog, error) {
	schemaBytes, err := SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("build dossier schema: %w", err)
	}
	compiled, err := schemaval.CompileString("dossiers.schema.json", string(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("compile dossier schema: %w", err)
	}

	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("parse dossier json: %w", err)
	}
	if err := compiled.Validate(loose); err != nil {
		return nil, fmt.Errorf("dossier document rejected: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode dossiers: %w", err)
	}
	return buildCatalog(doc)
}

// LoadFile reads and validates a designer-authored dossier file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dossier file: %w", err)
	}
	return Parse(raw)
}

// DefaultCatalog returns the shipped archetypes used when no dossier file is
// supplied.
func DefaultCatalog() *Catalog {
	catalog, err := buildCatalog(Document{
		{
			ID:                "stalker",
			Archetype:         "stalker",
			MaxHealth:         60,
			Speed:             95,
			Radius:            12,
			AttackRange:       36,
			PreferredDistance: 140,
			VisionRange:       500,
			VisionFOVDegrees:  150,
			HearingRange:      640,
			Sprite:            "stalker-idle",
			Traits:            []TraitID{TraitSwift},
		},
		{
			ID:                "brute",
			Archetype:         "brute",
			MaxHealth:         180,
			Speed:             55,
			Radius:            18,
			AttackRange:       48,
			PreferredDistance: 60,
			VisionRange:       380,
			VisionFOVDegrees:  110,
			HearingRange:      420,
			Sprite:            "brute-idle",
			Traits:            []TraitID{TraitJuggernaut, TraitPlated},
		},
		{
			ID:                "pyreborn",
			Archetype:         "pyreborn",
			MaxHealth:         90,
			Speed:             75,
			Radius:            14,
			AttackRange:       40,
			PreferredDistance: 110,
			VisionRange:       440,
			VisionFOVDegrees:  130,
			HearingRange:      500,
			Sprite:            "pyreborn-idle",
			Traits:            []TraitID{TraitFireborn},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("default dossier catalogue invalid: %v", err))
	}
	return catalog
}
