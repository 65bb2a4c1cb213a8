package persona

import "strings"

// Store exposes persona lookup for the router and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id Mode) (Persona, bool)
	FindByCommand(command string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by mode.
func (s *MemoryStore) FindByID(id Mode) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// FindByCommand matches a normalized slash command against every persona's aliases.
func (s *MemoryStore) FindByCommand(command string) (Persona, bool) {
	normalized := strings.ToLower(strings.TrimSpace(command))
	for _, item := range s.items {
		for _, alias := range item.Commands {
			if alias == normalized {
				return item, true
			}
		}
	}
	return Persona{}, false
}
