// Package router dispatches a validated request to a read handler by its
// first path segment. The route table is built once at startup from the
// content index and is policy-free: per-resource tier requirements are
// declared here but enforced by the endpoint before dispatch.
package router

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/mythos-labs/mythos-api/internal/content"
	"github.com/mythos-labs/mythos-api/internal/tier"
)

// Request is the slice of an HTTP request a handler needs: the path split
// into segments (first segment already consumed by routing) and the query.
type Request struct {
	Segments []string
	Query    url.Values

	// IncludeAllowed reflects the caller tier's include capability;
	// handlers ignore include= when it is false.
	IncludeAllowed bool
}

// Result is a handler outcome, later wrapped in the response envelope.
// Exactly one of Data and ErrMsg is set.
type Result struct {
	Status int
	Data   any
	ErrMsg string
}

func ok(data any) Result {
	return Result{Status: http.StatusOK, Data: data}
}

func notFound(format string, args ...any) Result {
	return Result{Status: http.StatusNotFound, ErrMsg: fmt.Sprintf(format, args...)}
}

func badRequest(msg string) Result {
	return Result{Status: http.StatusBadRequest, ErrMsg: msg}
}

type HandlerFunc func(req Request) Result

type Route struct {
	Handler HandlerFunc

	// MinTier is the minimum tier for this resource. Most resources sit at
	// the API-wide floor; a few require more.
	MinTier string
}

type Router struct {
	ix     *content.Index
	routes map[string]Route
}

// New builds the dispatch table. Immutable after return.
func New(ix *content.Index) *Router {
	r := &Router{
		ix:     ix,
		routes: make(map[string]Route),
	}

	for _, name := range ix.CollectionNames() {
		r.routes[name] = Route{Handler: r.collectionHandler(name), MinTier: tier.Floor}
	}

	r.routes["phases"] = Route{Handler: r.handlePhases, MinTier: tier.Floor}
	r.routes["search"] = Route{Handler: r.handleSearch, MinTier: tier.Floor}
	r.routes["journey"] = Route{Handler: r.handleJourney, MinTier: tier.Ambient}

	return r
}

// Route returns the route for a first segment, so the endpoint can check the
// resource's tier requirement before dispatching.
func (r *Router) Route(segment string) (Route, bool) {
	rt, ok := r.routes[segment]
	return rt, ok
}

// Resources returns the routable first segments.
func (r *Router) Resources() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	return names
}

// Dispatch routes by first segment. Unknown resources get a 404 that echoes
// the attempted name.
func (r *Router) Dispatch(segments []string, query url.Values, includeAllowed bool) Result {
	if len(segments) == 0 || segments[0] == "" {
		return notFound("no resource requested")
	}

	rt, ok := r.routes[segments[0]]
	if !ok {
		return notFound("unknown resource %q", segments[0])
	}

	return rt.Handler(Request{
		Segments:       segments[1:],
		Query:          query,
		IncludeAllowed: includeAllowed,
	})
}
