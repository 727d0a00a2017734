package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/config"
	"roadnet/internal/geometry/geoskernel"
	"roadnet/internal/pipeline"
)

func TestReportRoundTrip(t *testing.T) {
	cfg := config.Default()
	k := geoskernel.New()
	arcs, err := LoadArcs("testdata/arcs.geojson", cfg)
	require.NoError(t, err)
	prev, err := LoadFaces("testdata/faces.geojson", cfg, k)
	require.NoError(t, err)

	out, err := pipeline.New(k, pipeline.Options{}).Run(arcs, prev)
	require.NoError(t, err)
	require.True(t, out.Clean())

	r := BuildReport(k, cfg.Dataset(), out)
	assert.True(t, r.Clean)
	assert.Len(t, r.Rules, 10)
	require.NotNil(t, r.Faces)
	assert.Len(t, r.Faces.Features, 2)
	require.NotNil(t, r.Changeset)
	assert.Empty(t, r.Changeset.Added)
	assert.Empty(t, r.Changeset.Removed)
	assert.Len(t, r.Links, 5)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(path, r))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "public.segment", decoded["dataset"])
	assert.Equal(t, "FeatureCollection", decoded["faces"].(map[string]any)["type"])
	cs := decoded["changeset"].(map[string]any)
	assert.Equal(t, []any{}, cs["added"])
}
