package tier

// Tier bounds what a credential may do: monthly request volume, per-minute
// burst, and capability flags consumed by individual endpoints.
type Tier struct {
	Name              string `json:"name"`
	MonthlyLimit      int64  `json:"monthly_limit"`
	RequestsPerMinute int    `json:"requests_per_minute"`

	// Capability flags. The admission gate ignores these; endpoints check
	// them after admission.
	Chat    bool `json:"chat"`
	Include bool `json:"include"`
}

const (
	Free    = "free"
	Call    = "call"
	Ambient = "ambient"
	Mythic  = "mythic"
)

// Floor is the minimum tier required to use the data API at all.
const Floor = Call

// tiers is the single source of truth for both limits and ordering: slice
// position is the tier's rank. New tiers must be inserted at the correct
// position, not appended blindly.
var tiers = []Tier{
	{Name: Free, MonthlyLimit: 0, RequestsPerMinute: 0},
	{Name: Call, MonthlyLimit: 500, RequestsPerMinute: 10, Include: true},
	{Name: Ambient, MonthlyLimit: 5000, RequestsPerMinute: 30, Chat: true, Include: true},
	{Name: Mythic, MonthlyLimit: 50000, RequestsPerMinute: 120, Chat: true, Include: true},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(tiers))
	for i, t := range tiers {
		m[t.Name] = i
	}
	return m
}()

// Lookup returns the tier for a name. Unknown or empty names degrade to the
// lowest tier (no API access) so a corrupt record never grants entitlement.
func Lookup(name string) Tier {
	if i, ok := byName[name]; ok {
		return tiers[i]
	}
	return tiers[0]
}

// Rank returns the tier's position in the entitlement order. Unknown names
// rank lowest.
func Rank(name string) int {
	if i, ok := byName[name]; ok {
		return i
	}
	return 0
}

// HasAccess reports whether userTier satisfies a resource that requires
// requiredTier. The order is total, so any tier at or above the requirement
// passes.
func HasAccess(userTier, requiredTier string) bool {
	return Rank(userTier) >= Rank(requiredTier)
}

// All returns the tier table in rank order.
func All() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
