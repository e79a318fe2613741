// Package sqlite provides vector-backed document storage on SQLite.
//
// Plain tables hold catalog entries and chunks; their embeddings live
// in sqlite-vec vec0 virtual tables keyed by row ID. The vec tables
// are created lazily on first write because their dimension depends on
// the embedding model in use.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "corpus.db"

// Store is a unified SQLite-based storage that provides access to the
// catalog and chunk stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store in the given data directory.
// If dataDir is empty, defaults to ~/.corpus/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Register the sqlite-vec extension before opening any connection.
	sqlite_vec.Auto()

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Catalog returns a CatalogStore interface backed by this store.
func (s *Store) Catalog() driven.CatalogStore {
	return &catalogStore{store: s}
}

// Chunks returns a ChunkStore interface backed by this store.
func (s *Store) Chunks() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_init.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// vecTableExists reports whether the named vec0 table has been created.
func (s *Store) vecTableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s table: %w", table, err)
	}
	return true, nil
}

// ensureVecTable creates the named vec0 table sized for the given
// embedding dimension if it does not exist yet.
func (s *Store) ensureVecTable(ctx context.Context, table string, dimensions int) error {
	exists, err := s.vecTableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	createSQL := fmt.Sprintf(
		"CREATE VIRTUAL TABLE %s USING vec0(id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)",
		table, dimensions,
	)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("creating %s table: %w", table, err)
	}
	return nil
}

// vecSearch runs a MATCH query against the named vec0 table and
// returns row IDs with their cosine distances, nearest first.
// A missing vec table yields no results.
func (s *Store) vecSearch(ctx context.Context, table string, query []float32, k int) ([]string, map[string]float64, error) {
	exists, err := s.vecTableExists(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, nil, fmt.Errorf("serialising query vector: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, distance
		FROM %s
		WHERE embedding MATCH ? AND k = ?
	`, table), blob, k)
	if err != nil {
		return nil, nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	distances := make(map[string]float64)
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		ids = append(ids, id)
		distances[id] = distance
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return ids, distances, nil
}

// insertVectors writes embeddings into the named vec0 table within tx.
func insertVectors(ctx context.Context, tx *sql.Tx, table string, ids []string, embeddings [][]float32) error {
	for i, id := range ids {
		if len(embeddings[i]) == 0 {
			continue
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialising vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (id, embedding) VALUES (?, ?)", table),
			id, blob); err != nil {
			return fmt.Errorf("inserting vector: %w", err)
		}
	}
	return nil
}

// distanceToScore converts a cosine distance into a similarity score
// in (0, 1], higher is better.
func distanceToScore(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// placeholders returns "?,?,..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// marshalLocation serialises a location for the chunks table.
// Zero locations map to NULL.
func marshalLocation(loc domain.Location) (any, error) {
	if loc.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("marshalling location: %w", err)
	}
	return string(data), nil
}

// unmarshalLocation parses the location column, which may be NULL.
func unmarshalLocation(raw sql.NullString) (domain.Location, error) {
	var loc domain.Location
	if !raw.Valid || raw.String == "" {
		return loc, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &loc); err != nil {
		return loc, fmt.Errorf("unmarshalling location: %w", err)
	}
	return loc, nil
}
