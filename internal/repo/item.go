package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/labelcase/internal/domain"
)

// ItemRepo defines the persistence operations for catalog items and the
// item_labels join table.
type ItemRepo interface {
	// Create inserts an item and returns the persisted record without labels.
	Create(ctx context.Context, name string) (domain.Item, error)

	// GetByID retrieves an item with its label names.
	// Returns domain.ErrNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error)

	// UpdateName overwrites the item name.
	// Returns domain.ErrNotFound if the item does not exist.
	UpdateName(ctx context.Context, id uuid.UUID, name string) error

	// LabelNames returns the names of the labels linked to an item, ordered by name.
	LabelNames(ctx context.Context, id uuid.UUID) ([]string, error)

	// ReplaceLabels swaps the item's label links for exactly labelIDs in one
	// transaction. Returns domain.ErrNotFound if the item does not exist.
	ReplaceLabels(ctx context.Context, id uuid.UUID, labelIDs []int64) error
}

// pgItemRepo is the Postgres implementation of ItemRepo.
type pgItemRepo struct {
	db db
}

// NewItemRepo constructs an ItemRepo backed by the provided db connection.
func NewItemRepo(db db) ItemRepo {
	return &pgItemRepo{db: db}
}

// Create inserts a new item row.
func (r *pgItemRepo) Create(ctx context.Context, name string) (domain.Item, error) {
	const q = `
		INSERT INTO items (name)
		VALUES (@name)
		RETURNING id, name, created_at, updated_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w", err)
	}
	result.Labels = []string{}
	return result, nil
}

// GetByID retrieves an item by primary key and attaches its label names.
func (r *pgItemRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	const q = `
		SELECT id, name, created_at, updated_at
		FROM items
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByID: %w", err)
	}

	names, err := r.LabelNames(ctx, id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByID: %w", err)
	}
	result.Labels = names
	return result, nil
}

// UpdateName overwrites the item's name and bumps updated_at.
func (r *pgItemRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE items SET name = @name, updated_at = now() WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "name": name})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.UpdateName: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemRepo.UpdateName: %w", domain.ErrNotFound)
	}
	return nil
}

// LabelNames returns the item's label names ordered by name.
func (r *pgItemRepo) LabelNames(ctx context.Context, id uuid.UUID) ([]string, error) {
	const q = `
		SELECT l.name
		FROM labels l
		JOIN item_labels il ON il.label_id = l.id
		WHERE il.item_id = @item_id
		ORDER BY l.name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"item_id": id})
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.LabelNames: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.LabelNames: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ReplaceLabels deletes every link for the item and inserts one per labelID.
// Duplicate ids collapse through ON CONFLICT DO NOTHING.
func (r *pgItemRepo) ReplaceLabels(ctx context.Context, id uuid.UUID, labelIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.ReplaceLabels: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the item row so concurrent replacements serialize.
	var locked pgtype.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM items WHERE id = @id FOR UPDATE`, pgx.NamedArgs{"id": id}).Scan(&locked)
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.ReplaceLabels: %w", mapError(err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM item_labels WHERE item_id = @id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.ItemRepo.ReplaceLabels: delete: %w", err)
	}

	const insert = `
		INSERT INTO item_labels (item_id, label_id)
		VALUES (@item_id, @label_id)
		ON CONFLICT (item_id, label_id) DO NOTHING`
	for _, labelID := range labelIDs {
		if _, err := tx.Exec(ctx, insert, pgx.NamedArgs{"item_id": id, "label_id": labelID}); err != nil {
			return fmt.Errorf("repo.ItemRepo.ReplaceLabels: insert: %w", mapError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ItemRepo.ReplaceLabels: commit: %w", err)
	}
	return nil
}

// scanItem maps a single items row into a domain.Item.
// It handles the UUID conversion from pgtype.UUID.
func scanItem(s scanner) (domain.Item, error) {
	var (
		it domain.Item
		id pgtype.UUID
	)
	if err := s.Scan(&id, &it.Name, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return domain.Item{}, mapError(err)
	}
	it.ID = uuid.UUID(id.Bytes)
	return it, nil
}
