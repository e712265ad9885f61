package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/aristath/chapaty/cerrors"
)

// Manifest tracks which keys have been written to a Store's backend,
// letting a cache lookup answer "do I have this?" with a local query
// instead of a backend round trip (cheap for LocalStore, load-bearing for
// S3Store). Grounded on the teacher's internal/database package: pure-Go
// modernc.org/sqlite driver, WAL mode, a small tuned connection pool.
type Manifest struct {
	db *sql.DB
}

// NewManifest opens (creating if absent) a sqlite manifest database at
// dbPath.
func NewManifest(dbPath string) (*Manifest, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, cerrors.WrapIoError(cerrors.IoFileSystem, "failed to create manifest directory", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoFileSystem, "failed to open manifest database", err)
	}
	if err := db.Ping(); err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoFileSystem, "failed to ping manifest database", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	m := &Manifest{db: db}
	if err := m.migrate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	manifest_key TEXT PRIMARY KEY,
	codec        TEXT NOT NULL,
	stream_digest INTEGER NOT NULL,
	from_ms      INTEGER NOT NULL,
	to_ms        INTEGER NOT NULL,
	byte_size    INTEGER NOT NULL,
	created_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_stream ON cache_entries(stream_digest);
`
	if _, err := m.db.Exec(schema); err != nil {
		return cerrors.WrapIoError(cerrors.IoFileSystem, "failed to migrate manifest schema", err)
	}
	return nil
}

// Close closes the manifest's database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Record marks key as present, written with codec, createdUnixMs being the
// caller-supplied write timestamp (the manifest never calls time.Now itself
// so writes stay reproducible in tests).
func (m *Manifest) Record(ctx context.Context, key Key, codec string, byteSize int, createdUnixMs int64) error {
	_, err := m.db.ExecContext(ctx, `
INSERT INTO cache_entries (manifest_key, codec, stream_digest, from_ms, to_ms, byte_size, created_unix_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(manifest_key) DO UPDATE SET
	codec = excluded.codec,
	byte_size = excluded.byte_size,
	created_unix_ms = excluded.created_unix_ms
`, key.ManifestKey(), codec, int64(key.Stream.Digest()), key.From.UnixMilli(), key.To.UnixMilli(), byteSize, createdUnixMs)
	if err != nil {
		return cerrors.WrapIoError(cerrors.IoFileSystem, "failed to record manifest entry", err)
	}
	return nil
}

// Has reports whether key's manifest entry exists, without touching the
// backend store.
func (m *Manifest) Has(ctx context.Context, key Key) (bool, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cache_entries WHERE manifest_key = ?`, key.ManifestKey()).Scan(&n)
	if err != nil {
		return false, cerrors.WrapIoError(cerrors.IoFileSystem, "failed to query manifest entry", err)
	}
	return n > 0, nil
}

// CountByStream returns how many entries the manifest holds for a given
// stream digest, used by cache eviction/reporting tools.
func (m *Manifest) CountByStream(ctx context.Context, streamDigest uint64) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cache_entries WHERE stream_digest = ?`, int64(streamDigest)).Scan(&n)
	if err != nil {
		return 0, cerrors.WrapIoError(cerrors.IoFileSystem, "failed to count manifest entries", err)
	}
	return n, nil
}
