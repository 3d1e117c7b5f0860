// Package postgres implements the document store over a single jsonb
// documents table. Batch writes run inside one transaction, which is what
// gives the assignment flow its all-or-nothing guarantee.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-hq/tessera/internal/docstore"
	"github.com/tessera-hq/tessera/internal/platform/db"
)

// Store persists documents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store backed by the provided pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetByID fetches one document.
func (s *Store) GetByID(ctx context.Context, collection, id string) (docstore.Document, error) {
	var body []byte
	doc := docstore.Document{Collection: collection, ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT body, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, fmt.Errorf("docstore/postgres: get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(body, &doc.Fields); err != nil {
		return docstore.Document{}, fmt.Errorf("docstore/postgres: decode %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// List returns every document in the collection.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body, updated_at FROM documents WHERE collection = $1 ORDER BY id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: list %s: %w", collection, err)
	}
	defer rows.Close()
	return scanDocuments(rows, collection)
}

// Query returns documents matching a single field condition.
func (s *Store) Query(ctx context.Context, collection, field, op string, value any) ([]docstore.Document, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch op {
	case docstore.OpEqual:
		encoded, merr := json.Marshal(value)
		if merr != nil {
			return nil, fmt.Errorf("docstore/postgres: encode query value: %w", merr)
		}
		rows, err = s.pool.Query(ctx,
			`SELECT id, body, updated_at FROM documents WHERE collection = $1 AND body->$2 = $3::jsonb`,
			collection, field, string(encoded))
	case docstore.OpArrayContains:
		needle, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("docstore/postgres: array-contains requires a string value")
		}
		rows, err = s.pool.Query(ctx,
			`SELECT id, body, updated_at FROM documents WHERE collection = $1 AND body->$2 ? $3`,
			collection, field, needle)
	default:
		return nil, fmt.Errorf("query op %q: %w", op, docstore.ErrUnsupportedOp)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: query %s: %w", collection, err)
	}
	defer rows.Close()
	return scanDocuments(rows, collection)
}

func scanDocuments(rows pgx.Rows, collection string) ([]docstore.Document, error) {
	var out []docstore.Document
	for rows.Next() {
		doc := docstore.Document{Collection: collection}
		var body []byte
		if err := rows.Scan(&doc.ID, &body, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("docstore/postgres: scan: %w", err)
		}
		if err := json.Unmarshal(body, &doc.Fields); err != nil {
			return nil, fmt.Errorf("docstore/postgres: decode %s/%s: %w", collection, doc.ID, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore/postgres: rows %s: %w", collection, err)
	}
	return out, nil
}

// BatchWrite applies every op inside one transaction.
func (s *Store) BatchWrite(ctx context.Context, ops []docstore.Op) error {
	return db.WithTx(ctx, s.pool, pgx.Serializable, func(tx pgx.Tx) error {
		for _, op := range ops {
			if err := applyOp(ctx, tx, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyOp(ctx context.Context, tx pgx.Tx, op docstore.Op) error {
	switch op.Kind {
	case docstore.OpSet:
		body, err := json.Marshal(op.Fields)
		if err != nil {
			return fmt.Errorf("docstore/postgres: encode %s/%s: %w", op.Collection, op.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO documents (collection, id, body, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
			op.Collection, op.ID, body)
		if err != nil {
			return fmt.Errorf("docstore/postgres: set %s/%s: %w", op.Collection, op.ID, err)
		}
		return nil
	case docstore.OpUpdate:
		var body []byte
		err := tx.QueryRow(ctx,
			`SELECT body FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			op.Collection, op.ID,
		).Scan(&body)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, docstore.ErrNotFound)
			}
			return fmt.Errorf("docstore/postgres: lock %s/%s: %w", op.Collection, op.ID, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return fmt.Errorf("docstore/postgres: decode %s/%s: %w", op.Collection, op.ID, err)
		}
		merged, err := json.Marshal(docstore.ApplyUpdate(fields, op.Fields))
		if err != nil {
			return fmt.Errorf("docstore/postgres: encode %s/%s: %w", op.Collection, op.ID, err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE documents SET body = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`,
			op.Collection, op.ID, merged)
		if err != nil {
			return fmt.Errorf("docstore/postgres: update %s/%s: %w", op.Collection, op.ID, err)
		}
		return nil
	case docstore.OpDelete:
		_, err := tx.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			op.Collection, op.ID)
		if err != nil {
			return fmt.Errorf("docstore/postgres: delete %s/%s: %w", op.Collection, op.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("batch op %q: %w", op.Kind, docstore.ErrUnsupportedOp)
	}
}
