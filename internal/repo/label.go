package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/labelcase/internal/domain"
)

// LabelRepo defines the persistence operations for Labels.
type LabelRepo interface {
	// Create inserts a label and returns the persisted record.
	// Returns domain.ErrConflict if the name or slug is already taken.
	Create(ctx context.Context, name, slug string) (domain.Label, error)

	// GetByID retrieves a single label by its primary key.
	// Returns domain.ErrNotFound if no label with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Label, error)

	// GetByName retrieves a label by exact name.
	// Returns domain.ErrNotFound if no label has that name.
	GetByName(ctx context.Context, name string) (domain.Label, error)

	// Update overwrites name and slug. Returns domain.ErrNotFound if the label
	// does not exist and domain.ErrConflict if the new name or slug is taken.
	Update(ctx context.Context, id int64, name, slug string) (domain.Label, error)

	// ListAfter returns up to limit labels with id > afterID ordered by id.
	// Keyset pagination keeps a full scan stable while rows are being renamed.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Label, error)

	// ListPaged returns one page of labels whose slug starts with prefix,
	// ordered by name, together with the total number of matches.
	ListPaged(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error)

	// Count returns the total number of labels.
	Count(ctx context.Context) (int64, error)
}

// pgLabelRepo is the Postgres implementation of LabelRepo.
type pgLabelRepo struct {
	db db
}

// NewLabelRepo constructs a LabelRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewLabelRepo(db db) LabelRepo {
	return &pgLabelRepo{db: db}
}

// psql builds Postgres ($n) placeholders for the dynamic listing queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const labelColumns = `id, name, slug, created_at, updated_at`

// Create inserts a new label row and returns the full persisted record.
func (r *pgLabelRepo) Create(ctx context.Context, name, slug string) (domain.Label, error) {
	const q = `
		INSERT INTO labels (name, slug)
		VALUES (@name, @slug)
		RETURNING ` + labelColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name, "slug": slug})
	result, err := scanLabel(row)
	if err != nil {
		return domain.Label{}, fmt.Errorf("repo.LabelRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a label by primary key.
func (r *pgLabelRepo) GetByID(ctx context.Context, id int64) (domain.Label, error) {
	const q = `SELECT ` + labelColumns + ` FROM labels WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanLabel(row)
	if err != nil {
		return domain.Label{}, fmt.Errorf("repo.LabelRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetByName retrieves a label by exact, case-sensitive name.
func (r *pgLabelRepo) GetByName(ctx context.Context, name string) (domain.Label, error) {
	const q = `SELECT ` + labelColumns + ` FROM labels WHERE name = @name`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanLabel(row)
	if err != nil {
		return domain.Label{}, fmt.Errorf("repo.LabelRepo.GetByName: %w", err)
	}
	return result, nil
}

// Update overwrites name and slug and bumps updated_at.
func (r *pgLabelRepo) Update(ctx context.Context, id int64, name, slug string) (domain.Label, error) {
	const q = `
		UPDATE labels
		SET name       = @name,
		    slug       = @slug,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + labelColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "name": name, "slug": slug})
	result, err := scanLabel(row)
	if err != nil {
		return domain.Label{}, fmt.Errorf("repo.LabelRepo.Update: %w", err)
	}
	return result, nil
}

// ListAfter returns the next keyset page of labels ordered by id.
func (r *pgLabelRepo) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Label, error) {
	const q = `
		SELECT ` + labelColumns + `
		FROM labels
		WHERE id > @after
		ORDER BY id
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"after": afterID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.LabelRepo.ListAfter: %w", err)
	}
	labels, err := collectLabels(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.LabelRepo.ListAfter: %w", err)
	}
	return labels, nil
}

// ListPaged returns one page of labels matching prefix ordered by name.
// Pass prefix="" to page through every label.
func (r *pgLabelRepo) ListPaged(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error) {
	filter := sq.Like{"slug": prefix + "%"}

	countSQL, countArgs, err := psql.Select("count(*)").From("labels").Where(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.LabelRepo.ListPaged: build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.LabelRepo.ListPaged: count: %w", err)
	}

	pageSQL, pageArgs, err := psql.
		Select("id", "name", "slug", "created_at", "updated_at").
		From("labels").
		Where(filter).
		OrderBy("name", "id").
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.LabelRepo.ListPaged: build page: %w", err)
	}

	rows, err := r.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.LabelRepo.ListPaged: %w", err)
	}
	labels, err := collectLabels(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.LabelRepo.ListPaged: %w", err)
	}
	return labels, total, nil
}

// Count returns the number of label rows.
func (r *pgLabelRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM labels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.LabelRepo.Count: %w", err)
	}
	return n, nil
}

// collectLabels drains rows into a non-nil slice and closes them.
func collectLabels(rows pgx.Rows) ([]domain.Label, error) {
	defer rows.Close()

	labels := []domain.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return labels, nil
}

// scanLabel maps a single database row into a domain.Label.
func scanLabel(s scanner) (domain.Label, error) {
	var l domain.Label
	if err := s.Scan(&l.ID, &l.Name, &l.Slug, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return domain.Label{}, mapError(err)
	}
	return l, nil
}
