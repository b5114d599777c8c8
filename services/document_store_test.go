package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VP171097/vitality/models"
)

func TestMergeTopLevel(t *testing.T) {
	stored := []byte(`{"a":1,"b":{"nested":true},"c":"keep"}`)

	merged, err := mergeTopLevel(stored, map[string]any{
		"a": 2,
		"b": map[string]any{"other": 1},
	})
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(merged, &doc))
	assert.JSONEq(t, `2`, string(doc["a"]))
	assert.JSONEq(t, `{"other":1}`, string(doc["b"]), "patched keys replace wholesale, no deep merge")
	assert.JSONEq(t, `"keep"`, string(doc["c"]), "untouched keys survive")
}

func TestMergeTopLevel_EmptyStored(t *testing.T) {
	merged, err := mergeTopLevel(nil, map[string]any{"data": []int{1, 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1,2]}`, string(merged))
}

func TestMergeTopLevel_BadStored(t *testing.T) {
	_, err := mergeTopLevel([]byte(`not json`), map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestDefaultDocument(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	data, err := defaultDocument(models.DocSettings, "Jane", now)
	require.NoError(t, err)
	var settings models.Settings
	require.NoError(t, json.Unmarshal(data, &settings))
	assert.Equal(t, "Jane", settings.Name)
	assert.Equal(t, "2025-01-10", settings.StartDate)
	assert.Equal(t, "2025-02-09", settings.EndDate)

	// the collection documents start with an empty, non-null payload
	for _, kind := range []models.DocKind{models.DocLogs, models.DocFood, models.DocActivity} {
		data, err := defaultDocument(kind, "", now)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		require.Contains(t, doc, "data")
		assert.NotNil(t, doc["data"], "kind %s", kind)
		assert.Empty(t, doc["data"], "kind %s", kind)
	}

	_, err = defaultDocument(models.DocKind("bogus"), "", now)
	assert.ErrorIs(t, err, ErrUnknownDocKind)
}

func TestSubscribers_PushAndCancel(t *testing.T) {
	subs := newSubscribers()
	key := subKey{1, models.DocLogs}

	ch, cancel := subs.add(key)
	other, cancelOther := subs.add(subKey{2, models.DocLogs})
	defer cancelOther()

	snap := Snapshot{Kind: models.DocLogs, Version: 2}
	subs.push(key, snap)

	select {
	case got := <-ch:
		assert.Equal(t, snap, got)
	default:
		t.Fatal("expected a pushed snapshot")
	}
	select {
	case <-other:
		t.Fatal("snapshot leaked to another user's stream")
	default:
	}

	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open, "cancel closes the stream")
	subs.push(key, snap) // must not panic with no subscribers left
}

func TestSubscribers_SlowSubscriberSkipped(t *testing.T) {
	subs := newSubscribers()
	key := subKey{1, models.DocFood}
	ch, cancel := subs.add(key)
	defer cancel()

	for v := int64(1); v <= 20; v++ {
		subs.push(key, Snapshot{Kind: models.DocFood, Version: v})
	}

	// the buffer holds the first pushes; the rest were dropped, never blocked
	assert.Len(t, ch, cap(ch))
	assert.Equal(t, int64(1), (<-ch).Version)
}

func TestMemoryStore_MaterializesAndVersions(t *testing.T) {
	store := NewMemoryDocumentStore(nil)
	store.Names = map[uint]string{7: "Jane"}
	store.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	snap, ch, cancel, err := store.LoadAndSubscribe(ctx, 7, models.DocSettings)
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, int64(1), snap.Version, "materialized defaults start at version 1")
	var settings models.Settings
	require.NoError(t, json.Unmarshal(snap.Data, &settings))
	assert.Equal(t, "Jane", settings.Name)

	v, err := store.WriteMergePatch(ctx, 7, models.DocSettings, map[string]any{"name": "Janet"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = store.WriteMergePatch(ctx, 7, models.DocSettings, map[string]any{"age": 31})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v, "versions are monotonic per document")

	// both writes were pushed to the subscriber in order
	first := <-ch
	second := <-ch
	assert.Equal(t, int64(2), first.Version)
	assert.Equal(t, int64(3), second.Version)

	require.NoError(t, json.Unmarshal(second.Data, &settings))
	assert.Equal(t, "Janet", settings.Name, "earlier patch keys survive later patches")
	assert.Equal(t, 31.0, settings.Age)
}

func TestMemoryStore_DocumentsAreIndependent(t *testing.T) {
	store := NewMemoryDocumentStore(nil)
	ctx := context.Background()

	_, logsCh, cancelLogs, err := store.LoadAndSubscribe(ctx, 1, models.DocLogs)
	require.NoError(t, err)
	defer cancelLogs()

	_, err = store.WriteMergePatch(ctx, 1, models.DocFood, map[string]any{
		"data": models.FoodBuckets{"2025-01-10": {{ID: 1, Name: "Apple", Cals: 95}}},
	})
	require.NoError(t, err)

	select {
	case <-logsCh:
		t.Fatal("food write must not push on the logs stream")
	default:
	}

	foodSnap, _, cancelFood, err := store.LoadAndSubscribe(ctx, 1, models.DocFood)
	require.NoError(t, err)
	defer cancelFood()
	assert.Equal(t, int64(2), foodSnap.Version)
}
