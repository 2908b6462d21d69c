package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID     string   `json:"id"`
	RoomID string   `json:"roomId"`
	Count  int      `json:"count"`
	Tags   []string `json:"tags"`
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "testDoc", CollectionName[testDoc]())
	assert.Equal(t, "testDoc", CollectionName[*testDoc]())
}

func TestMemoryDocumentStore_FindOneNotFound(t *testing.T) {
	s := NewMemoryDocumentStore[testDoc]()
	_, err := s.FindOne(context.Background(), ByID("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestMemoryDocumentStore_FindFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore[testDoc]()
	for _, d := range []testDoc{
		{ID: "a", RoomID: "r1", Count: 1},
		{ID: "b", RoomID: "r2", Count: 2},
		{ID: "c", RoomID: "r1", Count: 3},
	} {
		_, err := s.InsertOne(ctx, d)
		require.NoError(t, err)
	}

	all, err := s.Find(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	r1, err := s.Find(ctx, Filter{"roomId": "r1"})
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.Equal(t, "c", r1[1].ID)

	// 数字过滤值与 JSON 解码后的 float64 比较
	two, err := s.FindOne(ctx, Filter{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, "b", two.ID)

	none, err := s.Find(ctx, Filter{"roomId": "r9"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryDocumentStore_ReplaceKeepsPositionAndUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore[testDoc]()
	_, _ = s.InsertOne(ctx, testDoc{ID: "a", Count: 1})
	_, _ = s.InsertOne(ctx, testDoc{ID: "b", Count: 1})

	require.NoError(t, s.ReplaceOne(ctx, ByID("a"), testDoc{ID: "a", Count: 9}))
	require.NoError(t, s.ReplaceOne(ctx, ByID("z"), testDoc{ID: "z", Count: 5}))

	all, err := s.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, 9, all[0].Count)
	assert.Equal(t, "z", all[2].ID)
}

func TestMemoryDocumentStore_DeleteOneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore[testDoc]()
	_, _ = s.InsertOne(ctx, testDoc{ID: "a"})

	require.NoError(t, s.DeleteOne(ctx, ByID("a")))
	require.NoError(t, s.DeleteOne(ctx, ByID("a")))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryDocumentStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore[testDoc]()
	doc := testDoc{ID: "a", Tags: []string{"x"}}
	_, _ = s.InsertOne(ctx, doc)
	doc.Tags[0] = "mutated"

	got, err := s.FindOne(ctx, ByID("a"))
	require.NoError(t, err)
	got.Tags[0] = "also-mutated"

	again, err := s.FindOne(ctx, ByID("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Tags)
}

func TestMemoryDocumentStore_FindIn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore[testDoc]()
	_, _ = s.InsertOne(ctx, testDoc{ID: "a", RoomID: "r1"})
	_, _ = s.InsertOne(ctx, testDoc{ID: "b", RoomID: "r2"})
	_, _ = s.InsertOne(ctx, testDoc{ID: "c", RoomID: "r3"})

	got, err := s.FindIn(ctx, "roomId", []string{"r3", "r1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got, err = s.FindIn(ctx, "roomId", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
