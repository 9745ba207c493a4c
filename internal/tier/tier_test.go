package tier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankIsTotalOrder(t *testing.T) {
	require.Less(t, Rank(Free), Rank(Call))
	require.Less(t, Rank(Call), Rank(Ambient))
	require.Less(t, Rank(Ambient), Rank(Mythic))
}

func TestHasAccess(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		required string
		want     bool
	}{
		{"equal tier passes", Call, Call, true},
		{"higher tier passes", Mythic, Call, true},
		{"lower tier fails", Free, Call, false},
		{"ambient below mythic", Ambient, Mythic, false},
		{"everything satisfies free", Free, Free, true},
		{"unknown user ranks lowest", "platinum", Call, false},
		{"unknown requirement ranks lowest", Call, "platinum", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HasAccess(tt.user, tt.required))
		})
	}
}

func TestHasAccessReflexive(t *testing.T) {
	for _, tr := range All() {
		require.True(t, HasAccess(tr.Name, tr.Name))
	}
}

func TestLookupUnknownDegradesToFree(t *testing.T) {
	for _, name := range []string{"", "gold", "MYTHIC"} {
		got := Lookup(name)
		require.Equal(t, Free, got.Name, "lookup of %q", name)
		require.EqualValues(t, 0, got.MonthlyLimit)
		require.Zero(t, got.RequestsPerMinute)
	}
}

func TestTierLimits(t *testing.T) {
	require.EqualValues(t, 500, Lookup(Call).MonthlyLimit)
	require.Equal(t, 10, Lookup(Call).RequestsPerMinute)
	require.EqualValues(t, 5000, Lookup(Ambient).MonthlyLimit)
	require.Equal(t, 30, Lookup(Ambient).RequestsPerMinute)
	require.EqualValues(t, 50000, Lookup(Mythic).MonthlyLimit)
	require.Equal(t, 120, Lookup(Mythic).RequestsPerMinute)
}

func TestCapabilityFlags(t *testing.T) {
	require.False(t, Lookup(Free).Include)
	require.False(t, Lookup(Free).Chat)
	require.True(t, Lookup(Call).Include)
	require.False(t, Lookup(Call).Chat)
	require.True(t, Lookup(Ambient).Chat)
	require.True(t, Lookup(Mythic).Chat)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	all[0].MonthlyLimit = 999
	require.EqualValues(t, 0, Lookup(Free).MonthlyLimit)
}
