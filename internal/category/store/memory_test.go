package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orfin/internal/category/models"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
)

func newCategory(t *testing.T, key tenant.Key, name string, parentID *id.CategoryID) *models.Category {
	t.Helper()
	c, err := models.NewCategory(id.NewCategoryID(), key, name, "#AABBCC", "tag",
		parentID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return c
}

func TestInMemoryUniquenessTuple(t *testing.T) {
	ctx := context.Background()
	key := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
	s := NewInMemory()

	root := newCategory(t, key, "Home", nil)
	require.NoError(t, s.Create(ctx, root))

	t.Run("duplicate root name is rejected", func(t *testing.T) {
		err := s.Create(ctx, newCategory(t, key, "Home", nil))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("same name under a parent is a different tuple", func(t *testing.T) {
		err := s.Create(ctx, newCategory(t, key, "Home", &root.ID))
		assert.NoError(t, err)
	})

	t.Run("same tuple under another tenant is fine", func(t *testing.T) {
		other := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
		err := s.Create(ctx, newCategory(t, other, "Home", nil))
		assert.NoError(t, err)
	})

	t.Run("update excludes the row itself", func(t *testing.T) {
		c := newCategory(t, key, "Bills", nil)
		require.NoError(t, s.Create(ctx, c))
		c.Icon = "invoice"
		assert.NoError(t, s.Update(ctx, c))
	})

	t.Run("update onto a taken tuple is rejected", func(t *testing.T) {
		c := newCategory(t, key, "Leisure", nil)
		require.NoError(t, s.Create(ctx, c))
		c.Name = "Home"
		assert.ErrorIs(t, s.Update(ctx, c), sentinel.ErrAlreadyUsed)
	})
}

func TestInMemoryArchiveCascade(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	key := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
	s := NewInMemory()

	parent := newCategory(t, key, "Home", nil)
	childA := newCategory(t, key, "Rent", &parent.ID)
	childB := newCategory(t, key, "Power", &parent.ID)
	bystander := newCategory(t, key, "Food", nil)
	for _, c := range []*models.Category{parent, childA, childB, bystander} {
		require.NoError(t, s.Create(ctx, c))
	}

	archived, err := s.ArchiveCascade(ctx, key, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)

	for _, cid := range []id.CategoryID{parent.ID, childA.ID, childB.ID} {
		got, err := s.FindByID(ctx, cid)
		require.NoError(t, err)
		assert.True(t, got.Archived)
		assert.Equal(t, now, got.UpdatedAt)
	}

	got, err := s.FindByID(ctx, bystander.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)

	t.Run("wrong tenant is not found", func(t *testing.T) {
		other := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
		_, err := s.ArchiveCascade(ctx, other, bystander.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryListFilters(t *testing.T) {
	ctx := context.Background()
	key := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
	s := NewInMemory()

	food := newCategory(t, key, "Food", nil)
	transport := newCategory(t, key, "Transport", nil)
	require.NoError(t, s.Create(ctx, food))
	require.NoError(t, s.Create(ctx, transport))

	transport.Archived = true
	require.NoError(t, s.Update(ctx, transport))

	active, err := s.List(ctx, key, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Food", active[0].Name)

	archived, err := s.List(ctx, key, models.ListFilter{OnlyArchived: true})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "Transport", archived[0].Name)

	byName, err := s.List(ctx, key, models.ListFilter{Name: "foo"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Food", byName[0].Name)
}
