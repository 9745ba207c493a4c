package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	resp := OK("/v1/heroes", map[string]string{"hero": "perseus"})

	require.NotNil(t, resp.Data)
	require.Empty(t, resp.Error)
	require.Equal(t, Version, resp.Meta.Version)
	require.Equal(t, "/v1/heroes", resp.Meta.Endpoint)
	require.Equal(t, Attribution, resp.Meta.Attribution)
	require.Equal(t, License, resp.Meta.License)

	ts, err := time.Parse(time.RFC3339, resp.Meta.Timestamp)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC(), ts, 5*time.Second)
}

func TestErr(t *testing.T) {
	resp := Err("/v1/nope", "unknown resource")

	require.Nil(t, resp.Data)
	require.Equal(t, "unknown resource", resp.Error)
	require.Equal(t, "/v1/nope", resp.Meta.Endpoint)
}

func TestResponseOmitsAbsentField(t *testing.T) {
	raw, err := json.Marshal(OK("/v1/phases", []int{1}))
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"error"`)

	raw, err = json.Marshal(Err("/v1/phases", "boom"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"data"`)
	require.Contains(t, string(raw), `"meta"`)
}
