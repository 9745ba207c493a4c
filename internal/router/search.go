package router

import (
	"sort"
	"strings"

	"github.com/mythos-labs/mythos-api/internal/content"
)

const searchLimit = 20

type searchHit struct {
	Collection string        `json:"collection"`
	Entry      content.Entry `json:"entry"`
	Score      int           `json:"score"`
}

// handleSearch is a plain keyword scorer over names, tags and summaries.
// Name matches weigh more than tag matches, which weigh more than summary
// matches. Deliberately simple; ranking quality is not this API's business.
func (r *Router) handleSearch(req Request) Result {
	if len(req.Segments) > 0 {
		return notFound("search/%s has no sub-resources", req.Segments[0])
	}

	q := strings.TrimSpace(req.Query.Get("q"))
	if q == "" {
		return badRequest("search requires a q parameter")
	}

	terms := strings.Fields(strings.ToLower(q))

	var hits []searchHit
	for _, name := range r.ix.CollectionNames() {
		entries, _ := r.ix.Collection(name)
		for _, entry := range entries {
			if score := scoreEntry(entry, terms); score > 0 {
				hits = append(hits, searchHit{Collection: name, Entry: entry, Score: score})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Entry.ID < hits[j].Entry.ID
	})

	if len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	return ok(map[string]any{
		"query":   q,
		"count":   len(hits),
		"results": hits,
	})
}

func scoreEntry(entry content.Entry, terms []string) int {
	name := strings.ToLower(entry.Name)
	summary := strings.ToLower(entry.Summary)

	score := 0
	for _, term := range terms {
		if strings.Contains(name, term) || strings.Contains(entry.ID, term) {
			score += 3
		}
		for _, tag := range entry.Tags {
			if strings.ToLower(tag) == term {
				score += 2
				break
			}
		}
		if strings.Contains(summary, term) {
			score++
		}
	}

	return score
}
