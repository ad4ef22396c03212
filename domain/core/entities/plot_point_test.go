package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/domain/core/valueobjects"
)

func TestNewPlotPoint(t *testing.T) {
	tests := []struct {
		name    string
		actID   string
		pos     valueobjects.Position
		wantErr bool
	}{
		{name: "valid", actID: "act-1", pos: valueobjects.MustPosition(1, 2)},
		{name: "missing act", actID: " ", pos: valueobjects.Origin, wantErr: true},
		{name: "invalid position", actID: "act-1", pos: valueobjects.Position{X: math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp, err := NewPlotPoint(" Inciting incident ", tt.actID, tt.pos)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Inciting incident", pp.Title)
			assert.False(t, pp.IsTemporary())
			assert.Equal(t, DefaultPlotPointColor, pp.Color)
		})
	}
}

func TestNewTempPlotPoint(t *testing.T) {
	pp := NewTempPlotPoint("act-1", valueobjects.MustPosition(3, 4))
	assert.True(t, pp.IsTemporary())
	assert.NotNil(t, pp.Scenes)
}

func TestScene_CloneIsDeep(t *testing.T) {
	pos := valueobjects.MustPosition(1, 1)
	s := Scene{ID: "s", CharacterIDs: []string{"c1"}, Items: []Item{{ID: "i1", Name: "Key"}}, Position: &pos}

	c := s.Clone()
	c.CharacterIDs[0] = "c2"
	c.Items[0].Name = "Lock"
	c.Position.X = 50

	assert.Equal(t, "c1", s.CharacterIDs[0])
	assert.Equal(t, "Key", s.Items[0].Name)
	assert.Equal(t, 1.0, s.Position.X)
}

func TestPlotPoint_Equal(t *testing.T) {
	base := PlotPoint{ID: "p", Title: "t", ActID: "a", Scenes: []Scene{{ID: "s", Title: "S"}}}

	same := base.Clone()
	assert.True(t, base.Equal(same))

	same.Scenes[0].Synopsis = "changed"
	assert.False(t, base.Equal(same))

	moved := base.Clone()
	moved.Position = valueobjects.MustPosition(1, 0)
	assert.False(t, base.Equal(moved))

	pos := valueobjects.MustPosition(0, 0)
	placed := base.Clone()
	placed.Scenes[0].Position = &pos
	assert.False(t, base.Equal(placed))
}

func TestEntityConstructorsRejectBlankNames(t *testing.T) {
	_, err := NewAct("", 1)
	assert.Error(t, err)
	_, err = NewCharacter(" ")
	assert.Error(t, err)
	_, err = NewItem("")
	assert.Error(t, err)
	_, err = NewScene("\t")
	assert.Error(t, err)
	assert.True(t, Setting{}.IsZero())
	assert.False(t, Setting{Name: "Harbor"}.IsZero())
}
