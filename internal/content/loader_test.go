package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ix, err := Load()
	require.NoError(t, err)

	require.Len(t, ix.Phases(), 3)
	require.Len(t, ix.CollectionNames(), 17)
}

func TestStageLookup(t *testing.T) {
	ix, err := Load()
	require.NoError(t, err)

	forge, ok := ix.Stage("forge")
	require.True(t, ok)
	require.Equal(t, "initiation", forge.Phase)
	require.NotEmpty(t, forge.Name)

	_, ok = ix.Stage("no-such-stage")
	require.False(t, ok)
}

func TestCollectionOrderIsStable(t *testing.T) {
	ix, err := Load()
	require.NoError(t, err)

	names := ix.CollectionNames()
	require.Equal(t, "glossary", names[0])
	require.Contains(t, names, "heroes")
	require.Contains(t, names, "oracles")
}

func TestEntryLookupAndLinks(t *testing.T) {
	ix, err := Load()
	require.NoError(t, err)

	perseus, ok := ix.Entry("heroes", "perseus")
	require.True(t, ok)
	require.Equal(t, "Perseus", perseus.Name)
	require.Contains(t, perseus.Links, "creatures")
	require.Contains(t, perseus.Links["creatures"], "medusa")

	// Every link in the bundle must resolve; dangling ids are authoring bugs.
	for _, name := range ix.CollectionNames() {
		entries, _ := ix.Collection(name)
		for _, e := range entries {
			for linked, ids := range e.Links {
				for _, id := range ids {
					_, found := ix.Entry(linked, id)
					require.True(t, found, "%s/%s links %s/%s which does not exist", name, e.ID, linked, id)
				}
			}
		}
	}
}

func TestCounts(t *testing.T) {
	ix, err := Load()
	require.NoError(t, err)

	counts := ix.Counts()
	require.Len(t, counts, 17)
	for name, n := range counts {
		require.Positive(t, n, "collection %s is empty", name)
	}
}
