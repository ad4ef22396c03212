package valueobjects

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "positive", x: 100.5, y: 200.75},
		{name: "negative", x: -100.5, y: -200.75},
		{name: "NaN x", x: math.NaN(), y: 0, wantErr: true},
		{name: "Inf y", x: 0, y: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X)
			assert.Equal(t, tt.y, pos.Y)
		})
	}
}

func TestPosition_DistanceTo(t *testing.T) {
	a := MustPosition(0, 0)
	b := MustPosition(3, 4)

	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
	assert.InDelta(t, a.DistanceTo(b), b.DistanceTo(a), 1e-9)
}

func TestPosition_Polar(t *testing.T) {
	center := MustPosition(100, 100)

	assert.True(t, center.Polar(120, 0).Equals(MustPosition(220, 100)))
	assert.True(t, center.Polar(120, math.Pi/2).Equals(MustPosition(100, 220)))
}

func TestPosition_Translate(t *testing.T) {
	moved, err := MustPosition(10, 20).Translate(5, -5)
	require.NoError(t, err)
	assert.True(t, moved.Equals(MustPosition(15, 15)))

	_, err = MustPosition(math.MaxFloat64, 0).Translate(math.MaxFloat64, 0)
	assert.Error(t, err)
}

func TestCentroid(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	c, ok := Centroid([]Position{MustPosition(0, 0), MustPosition(10, 0), MustPosition(5, 15)})
	require.True(t, ok)
	assert.True(t, c.Equals(MustPosition(5, 5)))
}

func TestPosition_KeyGroupsExactCoordinates(t *testing.T) {
	assert.Equal(t, MustPosition(1.5, 2).Key(), Position{X: 1.5, Y: 2}.Key())
	assert.NotEqual(t, MustPosition(1.5, 2).Key(), MustPosition(1.5, 2.0001).Key())
	assert.True(t, Origin.IsOrigin())
}

func TestTempIDs(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID(NewID()))

	promoted := PromoteID(id)
	assert.False(t, IsTempID(promoted))
	assert.Equal(t, id[len(TempIDPrefix):], promoted)
	assert.NotEmpty(t, PromoteID("plain"))
}

func TestZoomLevel_JSON(t *testing.T) {
	data, err := json.Marshal(ZoomPlotPointFocus)
	require.NoError(t, err)
	assert.Equal(t, `"PLOT_POINT_FOCUS"`, string(data))

	var z ZoomLevel
	require.NoError(t, json.Unmarshal([]byte(`"SCENE_DETAIL"`), &z))
	assert.Equal(t, ZoomSceneDetail, z)

	require.NoError(t, json.Unmarshal([]byte(`""`), &z))
	assert.Equal(t, ZoomStoryOverview, z)

	assert.Error(t, json.Unmarshal([]byte(`"ZOOMED"`), &z))
}

func TestZoomLevel_Visibility(t *testing.T) {
	assert.False(t, ZoomStoryOverview.ShowsScenes())
	assert.True(t, ZoomPlotPointFocus.ShowsScenes())
	assert.True(t, ZoomSceneDetail.ShowsDetails())
	assert.False(t, ZoomPlotPointFocus.ShowsDetails())
	assert.False(t, ZoomCharacterFocus.ShowsDetails())
}
