package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/config"
	"roadnet/internal/geometry/geoskernel"
	"roadnet/internal/network"
)

func TestLoadArcs(t *testing.T) {
	arcs, err := LoadArcs("testdata/arcs.geojson", config.Default())
	require.NoError(t, err)
	require.Len(t, arcs, 6)

	byID := map[string]network.Arc{}
	for _, a := range arcs {
		byID[a.ID] = a
	}
	assert.Equal(t, network.Boundary, byID["S"].Class)
	assert.Equal(t, network.Normal, byID["L2"].Class)
	assert.Len(t, byID["L2"].Coords, 3)
	assert.Equal(t, "f-right", byID["R1"].Left)
	assert.Equal(t, "", byID["R1"].Right)
	// 单部件 MultiLineString
	assert.Len(t, byID["R2"].Coords, 3)
	// 缺少编号属性时使用要素 id
	assert.Equal(t, network.Excluded, byID["77"].Class)
}

func TestLoadArcsRejectsPoint(t *testing.T) {
	_, err := LoadArcs("testdata/bad_arcs.geojson", config.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, network.ErrMalformedArc)
}

func TestLoadArcsRejectsShortPosition(t *testing.T) {
	_, err := LoadArcs("testdata/short_position.geojson", config.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, network.ErrMalformedArc)
	assert.Contains(t, err.Error(), "position 1")
}

func TestLoadArcsRejectsNonIntegerType(t *testing.T) {
	_, err := LoadArcs("testdata/bad_type.geojson", config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment_type")
}

func TestPropInt(t *testing.T) {
	cases := []struct {
		name    string
		props   map[string]any
		want    int
		wantErr bool
	}{
		{"number", map[string]any{"t": float64(2)}, 2, false},
		{"numeric string", map[string]any{"t": " 3"}, 3, false},
		{"missing", map[string]any{}, 0, false},
		{"garbage string", map[string]any{"t": "ferry"}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := propInt(tc.props, "t")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadArcsMissingFile(t *testing.T) {
	_, err := LoadArcs("testdata/missing.geojson", config.Default())
	assert.Error(t, err)
}

func TestLoadFaces(t *testing.T) {
	k := geoskernel.New()
	faces, err := LoadFaces("testdata/faces.geojson", config.Default(), k)
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, "f-left", faces[0].ID)
	assert.Equal(t, "p1", faces[0].ParentID)
	assert.Equal(t, "", faces[1].ParentID)
	assert.InDelta(t, 4.0, k.Length(k.Boundary(faces[1].Geom)), 1e-12)
}

func TestLoadFacesEmptyPath(t *testing.T) {
	faces, err := LoadFaces("", config.Default(), geoskernel.New())
	require.NoError(t, err)
	assert.Empty(t, faces)
}
