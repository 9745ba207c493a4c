package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	// Stable digest: lookups depend on the stored value never changing shape.
	require.Equal(t,
		"c604e3640a2ed239d46121f5b58b6b21a543ffd59c53ab79b1ad1306e6b381c6",
		Fingerprint("myt_test-credential"),
	)

	require.Len(t, Fingerprint("anything"), 64)
	require.NotEqual(t, Fingerprint("myt_a"), Fingerprint("myt_b"))
}

func TestKeyPrefix(t *testing.T) {
	require.True(t, strings.HasPrefix(KeyPrefix, "myt_"))

	// The fingerprint covers the prefix too; a prefixless variant of the
	// same secret must not collide.
	require.NotEqual(t, Fingerprint("myt_secret"), Fingerprint("secret"))
}
