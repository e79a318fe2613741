package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// catalogVecTable holds summary embeddings keyed by catalog row ID.
const catalogVecTable = "catalog_vec"

// catalogStore implements driven.CatalogStore.
type catalogStore struct {
	store *Store
}

var _ driven.CatalogStore = (*catalogStore)(nil)

// Seeded reports whether the catalog contains any entries.
func (c *catalogStore) Seeded(ctx context.Context) (bool, error) {
	var count int
	row := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog")
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("counting catalog entries: %w", err)
	}
	return count > 0, nil
}

// HasHash reports whether an entry with the given content hash exists.
func (c *catalogStore) HasHash(ctx context.Context, hash string) (bool, error) {
	var count int
	row := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog WHERE hash = ?", hash)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("checking catalog hash: %w", err)
	}
	return count > 0, nil
}

// Rebuild replaces all catalog entries with the given batch.
func (c *catalogStore) Rebuild(ctx context.Context, entries []domain.CatalogEntry) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM catalog"); err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}
	if _, err := c.store.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+catalogVecTable); err != nil {
		return fmt.Errorf("dropping catalog vectors: %w", err)
	}
	return c.Append(ctx, entries)
}

// Append adds catalog entries without touching existing rows.
func (c *catalogStore) Append(ctx context.Context, entries []domain.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dims := embeddingDims(entries)
	if dims > 0 {
		if err := c.store.ensureVecTable(ctx, catalogVecTable, dims); err != nil {
			return err
		}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	ids := make([]string, len(entries))
	embeddings := make([][]float32, len(entries))
	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO catalog (id, source, hash, summary)
			VALUES (?, ?, ?, ?)
		`, entry.ID, entry.Source, entry.Hash, entry.Summary); err != nil {
			return fmt.Errorf("inserting catalog entry: %w", err)
		}
		ids[i] = entry.ID
		embeddings[i] = entry.Embedding
	}

	if dims > 0 {
		if err := insertVectors(ctx, tx, catalogVecTable, ids, embeddings); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog batch: %w", err)
	}
	return nil
}

// Search returns the entries closest to the query vector, best first.
func (c *catalogStore) Search(ctx context.Context, query []float32, limit int) ([]domain.SearchHit, error) {
	ids, distances, err := c.store.vecSearch(ctx, catalogVecTable, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, source, summary
		FROM catalog
		WHERE id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog entries: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.SearchHit, len(ids))
	for rows.Next() {
		var id, source, summary string
		if err := rows.Scan(&id, &source, &summary); err != nil {
			return nil, fmt.Errorf("scanning catalog entry: %w", err)
		}
		byID[id] = domain.SearchHit{
			Source:  source,
			Content: summary,
			Score:   distanceToScore(distances[id]),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog entries: %w", err)
	}

	// Preserve the nearest-first order of the vector query.
	hits := make([]domain.SearchHit, 0, len(ids))
	for _, id := range ids {
		if hit, ok := byID[id]; ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// embeddingDims returns the dimension of the first non-empty embedding.
func embeddingDims(entries []domain.CatalogEntry) int {
	for _, entry := range entries {
		if len(entry.Embedding) > 0 {
			return len(entry.Embedding)
		}
	}
	return 0
}
