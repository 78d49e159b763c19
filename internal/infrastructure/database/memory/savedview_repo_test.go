package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

func TestSavedViewRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedViewRepo()

	v, err := savedview.NewSavedView("p1", "View 1", "s=0.50")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, v))

	got, err := repo.Get(ctx, "p1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.NotSame(t, v, got)

	got.Name = "mutated"
	again, _ := repo.Get(ctx, "p1", v.ID)
	assert.Equal(t, "View 1", again.Name, "store hands out copies")

	require.NoError(t, v.Rename("renamed"))
	require.NoError(t, repo.Update(ctx, v))
	again, _ = repo.Get(ctx, "p1", v.ID)
	assert.Equal(t, "renamed", again.Name)

	n, _ := repo.Count(ctx, "p1")
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "p1", v.ID))
	_, err = repo.Get(ctx, "p1", v.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestSavedViewRepo_ScopedByProject(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedViewRepo()

	v, _ := savedview.NewSavedView("p1", "View 1", "")
	require.NoError(t, repo.Create(ctx, v))

	_, err := repo.Get(ctx, "p2", v.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeViewNotFound))

	list, err := repo.List(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSavedViewRepo_ListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedViewRepo()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"third", "first", "second"} {
		v, _ := savedview.NewSavedView("p1", name, "")
		v.CreatedAt = base.Add(time.Duration([]int{3, 1, 2}[i]) * time.Minute)
		require.NoError(t, repo.Create(ctx, v))
	}

	list, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
	assert.Equal(t, "third", list[2].Name)
}

func TestSavedViewRepo_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedViewRepo()
	v, _ := savedview.NewSavedView("p1", "View 1", "")

	assert.True(t, errors.IsNotFound(repo.Update(ctx, v)))
	assert.True(t, errors.IsNotFound(repo.Delete(ctx, "p1", v.ID)))

	require.NoError(t, repo.Create(ctx, v))
	assert.True(t, errors.IsConflict(repo.Create(ctx, v)))

	bad := v.Clone()
	bad.Name = ""
	assert.True(t, errors.IsValidation(repo.Update(ctx, bad)))
}
