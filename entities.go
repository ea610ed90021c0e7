package server

import "sort"

// ComponentKind names a component slot on an entity.
type ComponentKind string

const (
	ComponentAI     ComponentKind = "ai"
	ComponentTarget ComponentKind = "target"
	ComponentTag    ComponentKind = "tag"
)

// EntityStore is the id-keyed component store the AI system reads entities
// from. All access happens on the simulation goroutine.
type EntityStore struct {
	components map[string]map[ComponentKind]any
}

// NewEntityStore returns an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{components: make(map[string]map[ComponentKind]any)}
}

// Set attaches a component to an entity, creating the entity as needed.
func (s *EntityStore) Set(id string, kind ComponentKind, component any) {
	if s == nil || id == "" {
		return
	}
	slots, ok := s.components[id]
	if !ok {
		slots = make(map[ComponentKind]any)
		s.components[id] = slots
	}
	slots[kind] = component
}

// Get returns the component of the given kind, if present.
func (s *EntityStore) Get(id string, kind ComponentKind) (any, bool) {
	if s == nil {
		return nil, false
	}
	slots, ok := s.components[id]
	if !ok {
		return nil, false
	}
	component, ok := slots[kind]
	return component, ok
}

// Remove deletes the entity and all of its components.
func (s *EntityStore) Remove(id string) {
	if s == nil {
		return
	}
	delete(s.components, id)
}

// Query returns the ids of every entity carrying all listed component
// kinds, sorted for deterministic iteration.
func (s *EntityStore) Query(kinds ...ComponentKind) []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.components))
	for id, slots := range s.components {
		match := true
		for _, kind := range kinds {
			if _, ok := slots[kind]; !ok {
				match = false
				break
			}
		}
		if match {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
