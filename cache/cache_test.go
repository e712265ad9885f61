package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

func testKey(t *testing.T) Key {
	t.Helper()
	stream := domain.NewEconomicCalendarID("test-source", "US", nil, nil)
	return Key{
		Stream: stream,
		From:   domain.TimestampFromUnixMilli(1000),
		To:     domain.TimestampFromUnixMilli(2000),
	}
}

func testFrame() *schema.Frame {
	f := schema.NewFrame(schema.ColTimestamp, schema.ColClose)
	f.AppendRow(map[schema.CanonicalColumn]schema.Cell{
		schema.ColTimestamp: schema.IntCell(1500),
		schema.ColClose:     schema.FloatCell(101.5),
	})
	f.AppendRow(map[schema.CanonicalColumn]schema.Cell{
		schema.ColTimestamp: schema.IntCell(1600),
		schema.ColClose:     schema.FloatCell(102.25),
	})
	return f
}

func TestMsgpackCodec_RoundTrip(t *testing.T) {
	f := testFrame()
	codec := MsgpackCodec{}

	data, err := codec.Encode(f)
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, f.Len(), got.Len())
	for _, col := range f.Columns() {
		assert.Equal(t, f.Column(col), got.Column(col))
	}
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	f := testFrame()
	codec := JSONCodec{}

	data, err := codec.Encode(f)
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, f.Len(), got.Len())
}

func TestLocalStore_MissThenHit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	_, found, err := store.Get(ctx, "missing-key")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "k1", []byte("hello")))
	data, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("hello"), data)
}

func TestManifest_RecordAndHas(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")
	m, err := NewManifest(dbPath)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	key := testKey(t)

	has, err := m.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.Record(ctx, key, "msgpack", 42, 123456))

	has, err = m.Has(ctx, key)
	require.NoError(t, err)
	assert.True(t, has)

	count, err := m.CountByStream(ctx, key.Stream.Digest())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCache_LookupMissThenStoreThenHit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	manifest, err := NewManifest(filepath.Join(dir, "manifest.db"))
	require.NoError(t, err)
	defer manifest.Close()

	c := New(store, MsgpackCodec{}, manifest)
	ctx := context.Background()
	key := testKey(t)

	_, found, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	frame := testFrame()
	require.NoError(t, c.Store(ctx, key, frame, 42))

	got, found, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, frame.Len(), got.Len())

	_, err = os.Stat(dir)
	require.NoError(t, err)
}
