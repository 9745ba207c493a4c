package router

import (
	"strings"

	"github.com/mythos-labs/mythos-api/internal/content"
)

type collectionList struct {
	Collection string          `json:"collection"`
	Count      int             `json:"count"`
	Entries    []content.Entry `json:"entries"`
}

type entryDetail struct {
	Collection string                     `json:"collection"`
	Entry      *content.Entry             `json:"entry"`
	Included   map[string][]content.Entry `json:"included,omitempty"`
}

// collectionHandler serves one entity collection: the list at the bare
// segment, a single entry at /<id>, with optional include= link expansion.
func (r *Router) collectionHandler(name string) HandlerFunc {
	return func(req Request) Result {
		entries, _ := r.ix.Collection(name)

		if len(req.Segments) == 0 {
			return ok(collectionList{Collection: name, Count: len(entries), Entries: entries})
		}

		if len(req.Segments) > 1 {
			return notFound("%s/%s has no sub-resources", name, req.Segments[0])
		}

		id := req.Segments[0]
		entry, found := r.ix.Entry(name, id)
		if !found {
			return notFound("no %s with id %q", strings.TrimSuffix(name, "s"), id)
		}

		detail := entryDetail{Collection: name, Entry: entry}
		if req.IncludeAllowed {
			detail.Included = r.expandIncludes(entry, req.Query.Get("include"))
		}

		return ok(detail)
	}
}

// expandIncludes resolves an entry's links for the collections named in the
// include= parameter (comma separated). Unknown names and dangling ids are
// skipped rather than erroring; expansion is a convenience, not a contract.
func (r *Router) expandIncludes(entry *content.Entry, includeParam string) map[string][]content.Entry {
	if includeParam == "" || len(entry.Links) == 0 {
		return nil
	}

	included := make(map[string][]content.Entry)
	for _, want := range strings.Split(includeParam, ",") {
		want = strings.TrimSpace(want)
		ids, ok := entry.Links[want]
		if !ok {
			continue
		}

		var resolved []content.Entry
		for _, id := range ids {
			if linked, found := r.ix.Entry(want, id); found {
				resolved = append(resolved, *linked)
			}
		}

		if len(resolved) > 0 {
			included[want] = resolved
		}
	}

	if len(included) == 0 {
		return nil
	}
	return included
}

type stageDetail struct {
	Stage     *content.Stage `json:"stage"`
	PhaseName string         `json:"phase_name"`
}

// handlePhases lists the journey arcs, or returns one stage's detail when a
// stage id follows (stage ids are unique across phases).
func (r *Router) handlePhases(req Request) Result {
	if len(req.Segments) == 0 {
		return ok(map[string]any{"phases": r.ix.Phases()})
	}

	if len(req.Segments) > 1 {
		return notFound("phases/%s has no sub-resources", req.Segments[0])
	}

	id := req.Segments[0]
	stage, found := r.ix.Stage(id)
	if !found {
		return notFound("no stage with id %q", id)
	}

	phaseName := stage.Phase
	for _, p := range r.ix.Phases() {
		if p.ID == stage.Phase {
			phaseName = p.Name
			break
		}
	}

	return ok(stageDetail{Stage: stage, PhaseName: phaseName})
}

// handleJourney composes the full graph overview.
func (r *Router) handleJourney(req Request) Result {
	if len(req.Segments) > 0 {
		return notFound("journey/%s has no sub-resources", req.Segments[0])
	}

	phases := r.ix.Phases()
	stages := 0
	for _, p := range phases {
		stages += len(p.Stages)
	}

	return ok(map[string]any{
		"phases":      phases,
		"stage_count": stages,
		"collections": r.ix.Counts(),
	})
}
