package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"github.com/mythos-labs/mythos-api/internal/gateway"
	"github.com/mythos-labs/mythos-api/internal/ratelimit"
)

// Context keys set for downstream handlers after admission.
const (
	CtxAPIKey     = "api_key"
	CtxTier       = "tier"
	CtxEvaluation = "quota_evaluation"
)

// Admission guards the data API: every request is resolved, tier-checked,
// quota-checked and rate-checked before any handler runs. Denials are
// answered in the standard envelope so clients have one parsing path.
func Admission(gate *gateway.Gate, limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, present := gateway.ExtractCredential(c.Request)

		var decision gateway.Decision
		if !present {
			decision = gateway.MissingCredential()
		} else {
			decision = gate.Admit(c.Request.Context(), credential)
		}

		if decision.Account != nil || decision.Reason == gateway.ReasonRateLimited {
			setRateHeaders(c, limiter, decision)
		}

		if !decision.Allow {
			if decision.Reason == gateway.ReasonRateLimited {
				key := ""
				if decision.Account != nil {
					key = decision.Account.KeyHash
				}
				retryAfter := int(time.Until(limiter.Reset(key)).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			}

			c.JSON(decision.Status, envelope.Err(c.Request.URL.Path, decision.Message))
			c.Abort()
			return
		}

		c.Set(CtxAPIKey, decision.Account)
		c.Set(CtxTier, decision.Tier)
		c.Set(CtxEvaluation, decision.Evaluation)

		c.Next()
	}
}

func setRateHeaders(c *gin.Context, limiter ratelimit.Limiter, d gateway.Decision) {
	if d.Account == nil {
		return
	}

	remaining := limiter.Remaining(d.Account.KeyHash, d.Tier.RequestsPerMinute)

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", d.Tier.RequestsPerMinute))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limiter.Reset(d.Account.KeyHash).Unix()))
	c.Header("X-RateLimit-Tier", d.Tier.Name)
}
