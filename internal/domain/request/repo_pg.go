package request

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

const requestCols = `id, requester_id, blood_type, rh_factor, quantity, urgency,
	status, required_by, notes, created_at, updated_at`

func scanRequest(row pgx.Row) (*BloodRequest, error) {
	var r BloodRequest
	err := row.Scan(&r.ID, &r.RequesterID, &r.BloodType, &r.RhFactor, &r.Quantity, &r.Urgency,
		&r.Status, &r.RequiredBy, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &r, err
}

func (rp *repoPG) Create(ctx context.Context, r *BloodRequest) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := rp.pool.Exec(ctx, `
		INSERT INTO blood_request (id, requester_id, blood_type, rh_factor, quantity,
			urgency, status, required_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.RequesterID, r.BloodType, r.RhFactor, r.Quantity,
		r.Urgency, r.Status, r.RequiredBy, r.Notes)
	return err
}

func (rp *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	return scanRequest(rp.pool.QueryRow(ctx, `SELECT `+requestCols+` FROM blood_request WHERE id = $1`, id))
}

func (rp *repoPG) List(ctx context.Context, f Filters, limit, offset int) ([]*BloodRequest, int, error) {
	query := `SELECT ` + requestCols + ` FROM blood_request WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM blood_request WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Urgency != "" {
		query += fmt.Sprintf(` AND urgency = $%d`, idx)
		countQuery += fmt.Sprintf(` AND urgency = $%d`, idx)
		args = append(args, f.Urgency)
		idx++
	}
	if f.RequesterID != nil {
		query += fmt.Sprintf(` AND requester_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND requester_id = $%d`, idx)
		args = append(args, *f.RequesterID)
		idx++
	}

	var total int
	if err := rp.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := rp.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BloodRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (rp *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := rp.pool.Exec(ctx,
		`UPDATE blood_request SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
