package calc

import "sync"

// ColumnState is the resolution state of an optional column.
type ColumnState int

const (
	// ColumnUnknown means presence has not been resolved yet.
	ColumnUnknown ColumnState = iota
	// ColumnPresent means the column exists (or is assumed to, fail-open).
	ColumnPresent
	// ColumnAbsent means the backend reported the column missing.
	ColumnAbsent
)

func (s ColumnState) String() string {
	switch s {
	case ColumnPresent:
		return "present"
	case ColumnAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// ColumnCache remembers, per entity tag, whether the optional parent-design
// column exists. Resolution happens at most once per process lifetime; a
// later live failure may still downgrade present → absent (see Repo).
// Schema changes after resolution are deliberately not picked up.
//
// Safe for concurrent use. Redundant concurrent first probes are tolerated —
// they resolve to the same answer.
type ColumnCache struct {
	mu     sync.Mutex
	states map[string]ColumnState
}

// NewColumnCache creates an empty cache. One cache is shared by all repos of
// a store instance; tests may pre-seed it via Set.
func NewColumnCache() *ColumnCache {
	return &ColumnCache{states: make(map[string]ColumnState)}
}

// Get returns the cached state for an entity tag.
func (c *ColumnCache) Get(entity string) ColumnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[entity]
}

// Set records the state for an entity tag.
func (c *ColumnCache) Set(entity string, s ColumnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[entity] = s
}
