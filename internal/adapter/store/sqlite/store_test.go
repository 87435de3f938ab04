package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel-ai/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "easel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCanvas(t *testing.T, s *Store) int64 {
	t.Helper()
	c, err := s.CreateCanvas(context.Background(), "test")
	require.NoError(t, err)
	return c.ID
}

func TestCanvasRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateCanvas(ctx, "mockups")
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	got, err := s.GetCanvas(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mockups", got.Name)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetCanvasNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetCanvas(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrCanvasNotFound)
}

func TestObjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	ref, err := s.CreateObject(ctx, canvasID, "rect", domain.ObjectAttrs{
		"x": 10.0, "y": 20.0, "width": 100.0, "height": 50.0, "fill": "#ff0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "rect", ref.Type)
	assert.Equal(t, 10.0, ref.Position.X)
	assert.Equal(t, "#ff0000", ref.Fill)
	assert.Equal(t, 1, ref.ZIndex)

	updated, err := s.UpdateObject(ctx, ref.ID, domain.ObjectAttrs{"x": 200.0, "fill": "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, 200.0, updated.Position.X)
	assert.Equal(t, 20.0, updated.Position.Y)
	assert.Equal(t, "#00ff00", updated.Fill)

	require.NoError(t, s.DeleteObject(ctx, ref.ID))
	_, err = s.GetObject(ctx, ref.ID)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestUpdateObjectIgnoresUnknownKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	ref, err := s.CreateObject(ctx, canvasID, "circle", domain.ObjectAttrs{"x": 5.0})
	require.NoError(t, err)

	got, err := s.UpdateObject(ctx, ref.ID, domain.ObjectAttrs{"z_index": 99, "bogus": "v"})
	require.NoError(t, err)
	assert.Equal(t, ref.ZIndex, got.ZIndex)
}

func TestUpdateObjectNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateObject(context.Background(), 42, domain.ObjectAttrs{"x": 1.0})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestDeleteObjectNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteObject(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestListObjectsCreationOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	for _, typ := range []string{"rect", "circle", "text"} {
		_, err := s.CreateObject(ctx, canvasID, typ, nil)
		require.NoError(t, err)
	}

	objects, err := s.ListObjects(ctx, canvasID)
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "rect", objects[0].Type)
	assert.Equal(t, "circle", objects[1].Type)
	assert.Equal(t, "text", objects[2].Type)
}

func TestListObjectsScopedToCanvas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := newTestCanvas(t, s)
	second := newTestCanvas(t, s)

	_, err := s.CreateObject(ctx, first, "rect", nil)
	require.NoError(t, err)

	objects, err := s.ListObjects(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestCreateObjectsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	refs, err := s.CreateObjectsBatch(ctx, canvasID, []domain.ObjectAttrs{
		{"type": "rect", "x": 0.0},
		{"type": "rect", "x": 60.0},
		{"type": "circle", "x": 120.0},
	})
	require.NoError(t, err)
	require.Len(t, refs, 3)

	// Stacking order follows batch order.
	assert.Equal(t, 1, refs[0].ZIndex)
	assert.Equal(t, 2, refs[1].ZIndex)
	assert.Equal(t, 3, refs[2].ZIndex)
}

func TestCreateObjectsBatchRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	_, err := s.CreateObjectsBatch(ctx, canvasID, []domain.ObjectAttrs{
		{"type": "rect"},
		{}, // missing type fails the batch
		{"type": "circle"},
	})
	require.Error(t, err)

	objects, listErr := s.ListObjects(ctx, canvasID)
	require.NoError(t, listErr)
	assert.Empty(t, objects, "failed batch must not leave partial inserts")
}

func TestCreateObjectsBatchUnknownCanvas(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateObjectsBatch(context.Background(), 77, []domain.ObjectAttrs{{"type": "rect"}})
	assert.ErrorIs(t, err, domain.ErrCanvasNotFound)
}

func TestZOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	var ids []int64
	for i := 0; i < 3; i++ {
		ref, err := s.CreateObject(ctx, canvasID, "rect", nil)
		require.NoError(t, err)
		ids = append(ids, ref.ID)
	}
	// Initial z: 1, 2, 3.

	zOf := func(id int64) int {
		ref, err := s.GetObject(ctx, id)
		require.NoError(t, err)
		return ref.ZIndex
	}

	require.NoError(t, s.BringToFront(ctx, ids[0]))
	assert.Equal(t, 4, zOf(ids[0]))

	require.NoError(t, s.SendToBack(ctx, ids[2]))
	assert.Equal(t, 1, zOf(ids[2]))

	// Now z is: ids[2]=1, ids[1]=2, ids[0]=4.
	require.NoError(t, s.MoveForward(ctx, ids[2]))
	assert.Equal(t, 2, zOf(ids[2]))
	assert.Equal(t, 1, zOf(ids[1]), "swap pushes the neighbor down")

	require.NoError(t, s.MoveBackward(ctx, ids[2]))
	assert.Equal(t, 1, zOf(ids[2]))
	assert.Equal(t, 2, zOf(ids[1]))
}

func TestMoveForwardAtTopIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canvasID := newTestCanvas(t, s)

	ref, err := s.CreateObject(ctx, canvasID, "rect", nil)
	require.NoError(t, err)

	require.NoError(t, s.MoveForward(ctx, ref.ID))
	got, err := s.GetObject(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, ref.ZIndex, got.ZIndex)
}

func TestZOrderObjectNotFound(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.BringToFront(context.Background(), 42), domain.ErrObjectNotFound)
	assert.ErrorIs(t, s.MoveForward(context.Background(), 42), domain.ErrObjectNotFound)
}
