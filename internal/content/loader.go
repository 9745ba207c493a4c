package content

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

type phasesFile struct {
	Phases []Phase `yaml:"phases"`
}

type collectionsFile struct {
	Collections yaml.Node `yaml:"collections"`
}

// Load parses the embedded content bundle and builds the index. Called once
// during startup; a malformed bundle is a build artifact problem and fails
// the process.
func Load() (*Index, error) {
	ix := &Index{
		stagesByID:  make(map[string]*Stage),
		collections: make(map[string][]Entry),
		entriesByID: make(map[string]map[string]*Entry),
	}

	raw, err := dataFS.ReadFile("data/phases.yaml")
	if err != nil {
		return nil, fmt.Errorf("content bundle missing phases: %w", err)
	}

	var pf phasesFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse phases.yaml: %w", err)
	}
	ix.phases = pf.Phases

	for pi := range ix.phases {
		phase := &ix.phases[pi]
		for si := range phase.Stages {
			stage := &phase.Stages[si]
			stage.Phase = phase.ID
			if _, dup := ix.stagesByID[stage.ID]; dup {
				return nil, fmt.Errorf("duplicate stage id %q", stage.ID)
			}
			ix.stagesByID[stage.ID] = stage
		}
	}

	raw, err = dataFS.ReadFile("data/collections.yaml")
	if err != nil {
		return nil, fmt.Errorf("content bundle missing collections: %w", err)
	}

	var cf collectionsFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse collections.yaml: %w", err)
	}

	// Walk the mapping node directly to preserve bundle ordering, which a
	// plain map would lose.
	if cf.Collections.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("collections.yaml: expected a mapping under 'collections'")
	}

	for i := 0; i+1 < len(cf.Collections.Content); i += 2 {
		nameNode := cf.Collections.Content[i]
		valueNode := cf.Collections.Content[i+1]

		var entries []Entry
		if err := valueNode.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to parse collection %q: %w", nameNode.Value, err)
		}

		name := nameNode.Value
		ix.collections[name] = entries
		ix.order = append(ix.order, name)

		byID := make(map[string]*Entry, len(entries))
		for ei := range entries {
			e := &ix.collections[name][ei]
			if _, dup := byID[e.ID]; dup {
				return nil, fmt.Errorf("duplicate entry id %q in collection %q", e.ID, name)
			}
			byID[e.ID] = e
		}
		ix.entriesByID[name] = byID
	}

	return ix, nil
}
