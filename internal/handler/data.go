package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"github.com/mythos-labs/mythos-api/internal/middleware"
	"github.com/mythos-labs/mythos-api/internal/quota"
	"github.com/mythos-labs/mythos-api/internal/router"
	"github.com/mythos-labs/mythos-api/internal/tier"
)

// DataHandler serves the read-only content resources under /v1. Admission
// has already run; what remains is the per-resource tier check and the
// dispatch into the router.
type DataHandler struct {
	router *router.Router
}

func NewDataHandler(r *router.Router) *DataHandler {
	return &DataHandler{router: r}
}

func (h *DataHandler) Serve(c *gin.Context) {
	endpoint := c.Request.URL.Path

	segments := splitSegments(c.Param("resourcePath"))
	if len(segments) == 0 {
		c.JSON(http.StatusNotFound, envelope.Err(endpoint, "no resource requested"))
		return
	}

	// /v1/chat is served from the POST tree; a request landing here carries
	// the wrong method, it is not an unknown resource.
	if segments[0] == "chat" {
		c.JSON(http.StatusMethodNotAllowed, envelope.Err(endpoint,
			"method "+c.Request.Method+" is not allowed here"))
		return
	}

	callerTier := currentTier(c)

	// The router is policy-free; resource tier requirements are enforced
	// here, before dispatch.
	if route, ok := h.router.Route(segments[0]); ok {
		if !tier.HasAccess(callerTier.Name, route.MinTier) {
			c.JSON(http.StatusForbidden, envelope.Err(endpoint,
				fmt.Sprintf("Resource %q requires tier %q or above; your key is tier %q.",
					segments[0], route.MinTier, callerTier.Name)))
			return
		}
	}

	setQuotaHeaders(c)

	result := h.router.Dispatch(segments, c.Request.URL.Query(), callerTier.Include)
	if result.ErrMsg != "" {
		c.JSON(result.Status, envelope.Err(endpoint, result.ErrMsg))
		return
	}

	c.JSON(result.Status, envelope.OK(endpoint, result.Data))
}

func splitSegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func currentTier(c *gin.Context) tier.Tier {
	if v, exists := c.Get(middleware.CtxTier); exists {
		if t, ok := v.(tier.Tier); ok {
			return t
		}
	}
	return tier.Lookup("")
}

func setQuotaHeaders(c *gin.Context) {
	v, exists := c.Get(middleware.CtxEvaluation)
	if !exists {
		return
	}
	ev, ok := v.(quota.Evaluation)
	if !ok {
		return
	}

	c.Header("X-Quota-Limit", strconv.FormatInt(ev.Limit, 10))
	c.Header("X-Quota-Remaining", strconv.FormatInt(ev.Remaining(), 10))
}
