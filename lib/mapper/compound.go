package mapper

import (
	"sort"
	"sync"
)

// CompoundMapper tries a list of mappers. Requests go to the mappers in
// descending CompatibilityScore order (registration order breaks ties);
// handlers go to the mappers in registration order. The first positive
// answer wins.
type CompoundMapper struct {
	mu      sync.RWMutex
	mappers []Mapper
}

// NewCompoundMapper creates a compound over mappers.
func NewCompoundMapper(mappers ...Mapper) *CompoundMapper {
	return &CompoundMapper{mappers: append([]Mapper(nil), mappers...)}
}

// Add appends mappers.
func (c *CompoundMapper) Add(mappers ...Mapper) *CompoundMapper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mappers = append(c.mappers, mappers...)
	return c
}

// Len returns the number of mappers.
func (c *CompoundMapper) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mappers)
}

func (c *CompoundMapper) snapshot() []Mapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Mapper(nil), c.mappers...)
}

// MapHandler returns the first URL produced.
func (c *CompoundMapper) MapHandler(h Handler) (URL, bool) {
	for _, m := range c.snapshot() {
		if u, ok := m.MapHandler(h); ok {
			return u, true
		}
	}
	return URL{}, false
}

// MapRequest asks mappers in score order and returns the first handler.
func (c *CompoundMapper) MapRequest(r Request) (Handler, bool) {
	type scored struct {
		m     Mapper
		score int
	}
	mappers := c.snapshot()
	ranked := make([]scored, len(mappers))
	for i, m := range mappers {
		ranked[i] = scored{m: m, score: m.CompatibilityScore(r)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	for _, s := range ranked {
		if h, ok := s.m.MapRequest(r); ok {
			return h, true
		}
	}
	return nil, false
}

// CompatibilityScore is the highest score of any child.
func (c *CompoundMapper) CompatibilityScore(r Request) int {
	best := 0
	for i, m := range c.snapshot() {
		if s := m.CompatibilityScore(r); i == 0 || s > best {
			best = s
		}
	}
	return best
}
