package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/domain/core/aggregates"
	pkgerrors "storycanvas/pkg/errors"
)

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository()
	p, err := aggregates.NewProject("Memory")
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, p))
	assert.True(t, pkgerrors.IsConflict(repo.Create(ctx, p)))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, _ := repo.GetByID(ctx, p.ID)
	assert.Equal(t, "Memory", again.Title, "returned projects are copies")

	again.Version++
	require.NoError(t, repo.Save(ctx, again))

	stale := p.Clone()
	stale.Version++
	assert.True(t, pkgerrors.IsConflict(repo.Save(ctx, stale)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}
