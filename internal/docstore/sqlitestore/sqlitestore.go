// Package sqlitestore stores docstore leaves in a SQLite nodes table.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/grocerysync/internal/docstore"
)

type Backend struct {
	db *sql.DB
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Replace(ctx context.Context, path string, leaves []docstore.Leaf) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to roll back transaction", "error", err)
		}
	}()

	lo, hi := docstore.SubtreeBounds(path)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)
	`, path, lo, hi); err != nil {
		return fmt.Errorf("failed to delete subtree: %w", err)
	}

	for _, a := range docstore.Ancestors(path) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE path = ?`, a); err != nil {
			return fmt.Errorf("failed to delete ancestor value: %w", err)
		}
	}

	if len(leaves) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (path, value) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range leaves {
			if _, err := stmt.ExecContext(ctx, l.Path, string(l.Value)); err != nil {
				return fmt.Errorf("failed to insert %s: %w", l.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (b *Backend) Leaves(ctx context.Context, path string) ([]docstore.Leaf, error) {
	lo, hi := docstore.SubtreeBounds(path)
	rows, err := b.db.QueryContext(ctx, `
		SELECT path, value FROM nodes
		WHERE path = ? OR (path >= ? AND path < ?)
		ORDER BY path ASC
	`, path, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var leaves []docstore.Leaf
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return nil, fmt.Errorf("failed to scan leaf: %w", err)
		}
		leaves = append(leaves, docstore.Leaf{Path: p, Value: []byte(v)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaves: %w", err)
	}

	return leaves, nil
}
