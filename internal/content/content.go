// Package content holds the bundled mythology content graph. Everything is
// loaded once at process start from embedded YAML into read-only structures;
// nothing here mutates after Load returns, so the index needs no locking.
package content

// Phase is one arc of the journey, holding its stages in narrative order.
type Phase struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Summary string  `yaml:"summary" json:"summary"`
	Stages  []Stage `yaml:"stages" json:"stages"`
}

type Stage struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Summary string   `yaml:"summary" json:"summary"`
	Themes  []string `yaml:"themes" json:"themes,omitempty"`

	// Phase is filled in at load time from the owning phase.
	Phase string `yaml:"-" json:"phase"`
}

// Entry is the generic shape shared by every entity collection. Links maps a
// collection name to related entry IDs and backs include= expansion.
type Entry struct {
	ID      string              `yaml:"id" json:"id"`
	Name    string              `yaml:"name" json:"name"`
	Summary string              `yaml:"summary" json:"summary"`
	Tags    []string            `yaml:"tags" json:"tags,omitempty"`
	Links   map[string][]string `yaml:"links" json:"links,omitempty"`
}

// Index is the in-memory content graph the router reads from.
type Index struct {
	phases      []Phase
	stagesByID  map[string]*Stage
	collections map[string][]Entry
	entriesByID map[string]map[string]*Entry
	order       []string
}

// Phases returns the journey arcs in narrative order.
func (ix *Index) Phases() []Phase {
	return ix.phases
}

// Stage looks up a stage by ID across all phases.
func (ix *Index) Stage(id string) (*Stage, bool) {
	s, ok := ix.stagesByID[id]
	return s, ok
}

// CollectionNames returns the entity collection names in bundle order.
func (ix *Index) CollectionNames() []string {
	return ix.order
}

// Collection returns all entries of a named collection.
func (ix *Index) Collection(name string) ([]Entry, bool) {
	entries, ok := ix.collections[name]
	return entries, ok
}

// Entry looks up a single entry within a collection.
func (ix *Index) Entry(collection, id string) (*Entry, bool) {
	byID, ok := ix.entriesByID[collection]
	if !ok {
		return nil, false
	}
	e, ok := byID[id]
	return e, ok
}

// Counts returns the entry count per collection, for the journey overview.
func (ix *Index) Counts() map[string]int {
	counts := make(map[string]int, len(ix.collections))
	for name, entries := range ix.collections {
		counts[name] = len(entries)
	}
	return counts
}
