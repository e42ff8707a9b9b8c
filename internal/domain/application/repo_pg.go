package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const appCols = `id, email, name, role, profile, status, rejection_reason,
	reviewed_by, reviewed_at, created_at, updated_at`

func scanApp(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Profile, &a.Status,
		&a.RejectionReason, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (rp *repoPG) Create(ctx context.Context, a *Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := rp.pool.Exec(ctx, `
		INSERT INTO application (id, email, name, role, profile, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Email, a.Name, a.Role, a.Profile, a.Status)
	return err
}

func (rp *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	return scanApp(rp.pool.QueryRow(ctx, `SELECT `+appCols+` FROM application WHERE id = $1`, id))
}

func (rp *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	query := `SELECT ` + appCols + ` FROM application WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM application WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
		idx++
	}

	var total int
	if err := rp.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := rp.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Application
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// Decide flips a pending row to its final status. The pending precondition in
// SQL serializes concurrent reviewers.
func (rp *repoPG) Decide(ctx context.Context, a *Application) error {
	tag, err := rp.pool.Exec(ctx, `
		UPDATE application
		SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		a.ID, a.Status, a.RejectionReason, a.ReviewedBy, a.ReviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := rp.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM application WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyDecided
	}
	return nil
}
