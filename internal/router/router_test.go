package router

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/mythos-labs/mythos-api/internal/content"
	"github.com/mythos-labs/mythos-api/internal/tier"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *Router {
	t.Helper()

	ix, err := content.Load()
	require.NoError(t, err)
	return New(ix)
}

func TestDispatchUnknownResource(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"dragons"}, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Contains(t, res.ErrMsg, `"dragons"`)
	require.Nil(t, res.Data)
}

func TestDispatchEmptyPath(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch(nil, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)

	res = r.Dispatch([]string{""}, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestCollectionList(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"heroes"}, nil, false)
	require.Equal(t, http.StatusOK, res.Status)

	list, ok := res.Data.(collectionList)
	require.True(t, ok)
	require.Equal(t, "heroes", list.Collection)
	require.Equal(t, len(list.Entries), list.Count)
	require.NotEmpty(t, list.Entries)
}

func TestEntryDetail(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"heroes", "perseus"}, nil, false)
	require.Equal(t, http.StatusOK, res.Status)

	detail, ok := res.Data.(entryDetail)
	require.True(t, ok)
	require.Equal(t, "perseus", detail.Entry.ID)
	require.Nil(t, detail.Included)
}

func TestEntryNotFound(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"heroes", "sisyphus"}, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Contains(t, res.ErrMsg, `"sisyphus"`)
}

func TestSubSubResourceNotFound(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"heroes", "perseus", "weapons"}, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestIncludeExpansion(t *testing.T) {
	r := testRouter(t)
	query := url.Values{"include": []string{"creatures,tales"}}

	res := r.Dispatch([]string{"heroes", "perseus"}, query, true)
	require.Equal(t, http.StatusOK, res.Status)

	detail := res.Data.(entryDetail)
	require.Contains(t, detail.Included, "creatures")
	require.Contains(t, detail.Included, "tales")
	require.Equal(t, "medusa", detail.Included["creatures"][0].ID)
}

func TestIncludeIgnoredWithoutCapability(t *testing.T) {
	r := testRouter(t)
	query := url.Values{"include": []string{"creatures"}}

	res := r.Dispatch([]string{"heroes", "perseus"}, query, false)
	require.Equal(t, http.StatusOK, res.Status)

	detail := res.Data.(entryDetail)
	require.Nil(t, detail.Included)
}

func TestIncludeUnknownCollectionSkipped(t *testing.T) {
	r := testRouter(t)
	query := url.Values{"include": []string{"weapons"}}

	res := r.Dispatch([]string{"heroes", "perseus"}, query, true)
	require.Equal(t, http.StatusOK, res.Status)
	require.Nil(t, res.Data.(entryDetail).Included)
}

func TestPhasesList(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"phases"}, nil, false)
	require.Equal(t, http.StatusOK, res.Status)

	body := res.Data.(map[string]any)
	phases := body["phases"].([]content.Phase)
	require.Len(t, phases, 3)
}

func TestStageDetail(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"phases", "forge"}, nil, false)
	require.Equal(t, http.StatusOK, res.Status)

	detail := res.Data.(stageDetail)
	require.Equal(t, "forge", detail.Stage.ID)
	require.NotEmpty(t, detail.PhaseName)

	res = r.Dispatch([]string{"phases", "limbo"}, nil, false)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Contains(t, res.ErrMsg, `"limbo"`)
}

func TestSearchRequiresQuery(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"search"}, url.Values{}, false)
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = r.Dispatch([]string{"search"}, url.Values{"q": []string{"   "}}, false)
	require.Equal(t, http.StatusBadRequest, res.Status)
}

func TestSearchRanksNameAboveSummary(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"search"}, url.Values{"q": []string{"medusa"}}, false)
	require.Equal(t, http.StatusOK, res.Status)

	body := res.Data.(map[string]any)
	hits := body["results"].([]searchHit)
	require.NotEmpty(t, hits)

	// The creature named Medusa outranks entries that only mention her.
	require.Equal(t, "medusa", hits[0].Entry.ID)
	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestSearchHitLimit(t *testing.T) {
	r := testRouter(t)

	// A term broad enough to match many summaries must still cap out.
	res := r.Dispatch([]string{"search"}, url.Values{"q": []string{"the"}}, false)
	require.Equal(t, http.StatusOK, res.Status)

	body := res.Data.(map[string]any)
	require.LessOrEqual(t, body["count"].(int), searchLimit)
}

func TestJourneyOverview(t *testing.T) {
	r := testRouter(t)

	res := r.Dispatch([]string{"journey"}, nil, false)
	require.Equal(t, http.StatusOK, res.Status)

	body := res.Data.(map[string]any)
	require.Equal(t, 11, body["stage_count"])
	require.Len(t, body["collections"].(map[string]int), 17)
}

func TestRouteTierRequirements(t *testing.T) {
	r := testRouter(t)

	rt, ok := r.Route("journey")
	require.True(t, ok)
	require.Equal(t, tier.Ambient, rt.MinTier)

	rt, ok = r.Route("heroes")
	require.True(t, ok)
	require.Equal(t, tier.Floor, rt.MinTier)

	_, ok = r.Route("dragons")
	require.False(t, ok)
}

func TestResourcesCoversEveryRoute(t *testing.T) {
	r := testRouter(t)

	names := r.Resources()
	require.Len(t, names, 20) // 17 collections + phases, search, journey
	require.Contains(t, names, "phases")
	require.Contains(t, names, "journey")
}
