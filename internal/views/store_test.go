package views

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bil-inventory-report/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Upsert(ctx, View{Name: " morphology ", Collection: "26", Panels: []string{"files", "files", " techniques ", ""}})
	require.NoError(t, err)
	assert.Positive(t, id)

	v, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "morphology", v.Name)
	assert.Equal(t, "26", v.Collection)
	assert.Equal(t, []string{"files", "techniques"}, v.Panels)
	assert.NotNil(t, v.CreatedAt)

	again, err := s.Upsert(ctx, View{Name: "morphology", Collection: "0f", BildID: "ace-a"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	v, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0f", v.Collection)
	assert.Equal(t, "ace-a", v.BildID)
	assert.Empty(t, v.Panels)
}

func TestStore_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, View{Name: "  "})
	assert.ErrorContains(t, err, "name is required")

	_, err = s.Upsert(ctx, View{Name: "x", Collection: "zz"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "invalid collection")

	_, err = s.Upsert(ctx, View{Name: "upper", Collection: "AB"})
	assert.NoError(t, err)
}

func TestStore_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idB, err := s.Upsert(ctx, View{Name: "b", Collection: "26"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, View{Name: "a", Collection: "26"})
	require.NoError(t, err)

	items, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)

	n, err := s.Delete(ctx, idB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, idB)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = s.Delete(ctx, idB)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(config.Config{ViewsDriver: "postgres"})
	assert.ErrorContains(t, err, "unsupported views driver")

	s, err = Open(config.Config{ViewsDriver: "sqlite", ViewsSQLitePath: filepath.Join(t.TempDir(), "v.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "sqlite", s.Dialect())
	require.NoError(t, s.Ping(context.Background()))
}
