// Package gateway decides whether a request may reach a resource handler.
// The gate composes credential resolution, the tier floor, the monthly quota
// and the per-minute rate limit, in that order, short-circuiting on the
// first failure. Checks that need no per-account state run before ones that
// do, and the ledger write for an admitted call is dispatched without being
// awaited.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/mythos-labs/mythos-api/internal/quota"
	"github.com/mythos-labs/mythos-api/internal/ratelimit"
	"github.com/mythos-labs/mythos-api/internal/service"
	"github.com/mythos-labs/mythos-api/internal/tier"
	"go.uber.org/zap"
)

type Reason string

const (
	ReasonAuthMissing      Reason = "auth_missing"
	ReasonAuthInvalid      Reason = "auth_invalid"
	ReasonTierInsufficient Reason = "tier_insufficient"
	ReasonQuotaExceeded    Reason = "quota_exceeded"
	ReasonRateLimited      Reason = "rate_limited"
)

// Resolver maps an extracted credential to its account record. (nil, nil)
// means no active record matches; an error means the store is unreachable
// and the gate fails closed.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*models.APIKey, error)
}

// UsageRecorder persists one admitted call off the request path.
type UsageRecorder interface {
	RecordUsage(rec *models.APIKey, ev quota.Evaluation)
}

// Decision is the gate's verdict for one request.
type Decision struct {
	Allow   bool
	Status  int
	Reason  Reason
	Message string

	// Populated once the account is resolved, so handlers and middleware
	// can report usage without a second lookup.
	Account    *models.APIKey
	Tier       tier.Tier
	Evaluation quota.Evaluation
}

type Gate struct {
	resolver Resolver
	recorder UsageRecorder
	limiter  ratelimit.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

func New(resolver Resolver, recorder UsageRecorder, limiter ratelimit.Limiter, logger *zap.Logger) *Gate {
	return &Gate{
		resolver: resolver,
		recorder: recorder,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// ExtractCredential pulls a Mythos credential from the Authorization header
// or the key query parameter. Only strings carrying the public myt_ prefix
// are recognized; anything else counts as absent, not malformed.
func ExtractCredential(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(strings.TrimSpace(auth), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && strings.HasPrefix(parts[1], service.KeyPrefix) {
			return parts[1], true
		}
	}

	if key := strings.TrimSpace(r.URL.Query().Get("key")); strings.HasPrefix(key, service.KeyPrefix) {
		return key, true
	}

	return "", false
}

// MissingCredential is the decision for a request with no recognizable
// credential.
func MissingCredential() Decision {
	return Decision{
		Status: http.StatusUnauthorized,
		Reason: ReasonAuthMissing,
		Message: "Missing API key. Pass it as 'Authorization: Bearer myt_...' " +
			"or a 'key=myt_...' query parameter.",
	}
}

// Admit runs the admission checks for one extracted credential.
func (g *Gate) Admit(ctx context.Context, credential string) Decision {
	rec, err := g.resolver.Resolve(ctx, credential)
	if err != nil {
		// Store unreachable: fail closed, and report it exactly like an
		// unknown key so callers cannot probe which case they hit.
		g.logger.Warn("credential resolution failed", zap.Error(err))
		return Decision{
			Status:  http.StatusUnauthorized,
			Reason:  ReasonAuthInvalid,
			Message: "Invalid API key.",
		}
	}
	if rec == nil {
		return Decision{
			Status:  http.StatusUnauthorized,
			Reason:  ReasonAuthInvalid,
			Message: "Invalid API key.",
		}
	}

	t := tier.Lookup(rec.Tier)

	if !tier.HasAccess(t.Name, tier.Floor) {
		return Decision{
			Status: http.StatusForbidden,
			Reason: ReasonTierInsufficient,
			Message: fmt.Sprintf("Tier %q does not include API access; %q or above is required.",
				t.Name, tier.Floor),
			Tier: t,
		}
	}

	ev := quota.Evaluate(rec, t.MonthlyLimit, g.now())
	if ev.Exceeded {
		return Decision{
			Status: http.StatusTooManyRequests,
			Reason: ReasonQuotaExceeded,
			Message: fmt.Sprintf("Monthly limit reached: %d of %d requests used. Usage resets on the first of next month.",
				ev.EffectiveCount, ev.Limit),
			Account:    rec,
			Tier:       t,
			Evaluation: ev,
		}
	}

	if !g.limiter.Allow(rec.KeyHash, t.RequestsPerMinute) {
		return Decision{
			Status: http.StatusTooManyRequests,
			Reason: ReasonRateLimited,
			Message: fmt.Sprintf("Rate limit exceeded: tier %q allows %d requests per minute.",
				t.Name, t.RequestsPerMinute),
			Account:    rec,
			Tier:       t,
			Evaluation: ev,
		}
	}

	// All checks passed; record the call without waiting on the write.
	g.recorder.RecordUsage(rec, ev)

	return Decision{
		Allow:      true,
		Status:     http.StatusOK,
		Account:    rec,
		Tier:       t,
		Evaluation: ev,
	}
}
