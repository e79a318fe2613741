package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// chunkVecTable holds chunk embeddings keyed by chunk row ID.
const chunkVecTable = "chunks_vec"

// sourceFilterOverfetch widens the vector query when results will be
// filtered down to a single source afterwards.
const sourceFilterOverfetch = 10

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// Rebuild replaces all chunks with the given batch.
func (c *chunkStore) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := c.store.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+chunkVecTable); err != nil {
		return fmt.Errorf("dropping chunk vectors: %w", err)
	}
	return c.Append(ctx, chunks)
}

// Append adds chunks without touching existing rows.
func (c *chunkStore) Append(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	dims := 0
	for _, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			dims = len(chunk.Embedding)
			break
		}
	}
	if dims > 0 {
		if err := c.store.ensureVecTable(ctx, chunkVecTable, dims); err != nil {
			return err
		}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	ids := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		location, err := marshalLocation(chunk.Location)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, source, content, location)
			VALUES (?, ?, ?, ?)
		`, chunk.ID, chunk.Source, chunk.Content, location); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
		ids[i] = chunk.ID
		embeddings[i] = chunk.Embedding
	}

	if dims > 0 {
		if err := insertVectors(ctx, tx, chunkVecTable, ids, embeddings); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunk batch: %w", err)
	}
	return nil
}

// Search returns the chunks closest to the query vector, best first.
// When source is non-empty, results are restricted to that source path.
// The vector query over-fetches in that case because filtering happens
// after the nearest-neighbour pass.
func (c *chunkStore) Search(ctx context.Context, query []float32, source string, limit int) ([]domain.SearchHit, error) {
	k := limit
	if source != "" {
		k = limit * sourceFilterOverfetch
	}

	ids, distances, err := c.store.vecSearch(ctx, chunkVecTable, query, k)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}

	querySQL := `
		SELECT id, source, content, location
		FROM chunks
		WHERE id IN (` + placeholders(len(ids)) + `)`
	if source != "" {
		querySQL += " AND source = ?"
		args = append(args, source)
	}

	rows, err := c.store.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.SearchHit, len(ids))
	for rows.Next() {
		var id, chunkSource, content string
		var rawLocation sql.NullString
		if err := rows.Scan(&id, &chunkSource, &content, &rawLocation); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		location, err := unmarshalLocation(rawLocation)
		if err != nil {
			return nil, err
		}
		byID[id] = domain.SearchHit{
			Source:   chunkSource,
			Content:  content,
			Location: location,
			Score:    distanceToScore(distances[id]),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Preserve the nearest-first order of the vector query.
	hits := make([]domain.SearchHit, 0, len(ids))
	for _, id := range ids {
		hit, ok := byID[id]
		if !ok {
			continue
		}
		hits = append(hits, hit)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}
