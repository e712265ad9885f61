package cache

import (
	"context"

	"github.com/aristath/chapaty/schema"
)

// Cache composes a Store, a Codec, and an optional Manifest into the single
// entry point the transport layer calls: look up a page by Key, or write
// one back after a pipeline fetch.
type Cache struct {
	store    Store
	codec    Codec
	manifest *Manifest
}

// New builds a Cache. manifest may be nil, in which case Lookup always
// falls through to the store itself.
func New(store Store, codec Codec, manifest *Manifest) *Cache {
	return &Cache{store: store, codec: codec, manifest: manifest}
}

// Lookup returns the decoded frame for key, (nil, false, nil) on a clean
// miss, or an error if the entry exists but failed to decode. A cache-read
// failure is the IoError layer's "swallow and rebuild" case: callers should
// treat any returned error as a miss and proceed to fetch fresh data,
// per cerrors.IoError's documented recovery policy.
func (c *Cache) Lookup(ctx context.Context, key Key) (*schema.Frame, bool, error) {
	if c.manifest != nil {
		has, err := c.manifest.Has(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if !has {
			return nil, false, nil
		}
	}

	data, found, err := c.store.Get(ctx, key.ManifestKey())
	if err != nil || !found {
		return nil, false, err
	}

	frame, err := c.codec.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}

// Store encodes frame and writes it under key, recording it in the
// manifest (if present) with createdUnixMs as the write timestamp.
func (c *Cache) Store(ctx context.Context, key Key, frame *schema.Frame, createdUnixMs int64) error {
	data, err := c.codec.Encode(frame)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, key.ManifestKey(), data); err != nil {
		return err
	}
	if c.manifest != nil {
		return c.manifest.Record(ctx, key, c.codec.Name(), len(data), createdUnixMs)
	}
	return nil
}
