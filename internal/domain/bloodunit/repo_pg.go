package bloodunit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const unitCols = `id, blood_type, rh_factor, donation_type, collection_date, expiry_date,
	status, donor_id, blood_bank_id,
	dispatched_to, dispatched_at, dispatch_notes,
	used_for, used_at, discard_reason, discarded_at,
	reserved_for_request_id, created_at, updated_at`

func scanUnit(row pgx.Row) (*BloodUnit, error) {
	var u BloodUnit
	err := row.Scan(&u.ID, &u.BloodType, &u.RhFactor, &u.DonationType, &u.CollectionDate, &u.ExpiryDate,
		&u.Status, &u.DonorID, &u.BloodBankID,
		&u.DispatchedTo, &u.DispatchedAt, &u.DispatchNotes,
		&u.UsedFor, &u.UsedAt, &u.DiscardReason, &u.DiscardedAt,
		&u.ReservedFor, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (r *repoPG) Create(ctx context.Context, u *BloodUnit) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blood_unit (id, blood_type, rh_factor, donation_type, collection_date,
			expiry_date, status, donor_id, blood_bank_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.BloodType, u.RhFactor, u.DonationType, u.CollectionDate,
		u.ExpiryDate, u.Status, u.DonorID, u.BloodBankID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*BloodUnit, error) {
	return scanUnit(r.pool.QueryRow(ctx, `SELECT `+unitCols+` FROM blood_unit WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f Filters, limit, offset int) ([]*BloodUnit, int, error) {
	query := `SELECT ` + unitCols + ` FROM blood_unit WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM blood_unit WHERE 1=1`
	var args []interface{}
	idx := 1

	addFilter := func(clause string, val interface{}) {
		query += fmt.Sprintf(` AND %s = $%d`, clause, idx)
		countQuery += fmt.Sprintf(` AND %s = $%d`, clause, idx)
		args = append(args, val)
		idx++
	}

	if f.Status != "" {
		addFilter("status", f.Status)
	}
	if f.BloodType != "" {
		addFilter("blood_type", f.BloodType)
	}
	if f.RhFactor != "" {
		addFilter("rh_factor", f.RhFactor)
	}
	if f.DonationType != "" {
		addFilter("donation_type", f.DonationType)
	}
	if f.BloodBankID != nil {
		addFilter("blood_bank_id", *f.BloodBankID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY expiry_date ASC, id ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	return r.queryUnits(ctx, query, total, args...)
}

func (r *repoPG) queryUnits(ctx context.Context, query string, total int, args ...interface{}) ([]*BloodUnit, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BloodUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, u *BloodUnit, expected Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE blood_unit SET status=$2,
			dispatched_to=$3, dispatched_at=$4, dispatch_notes=$5,
			used_for=$6, used_at=$7, discard_reason=$8, discarded_at=$9,
			reserved_for_request_id=$10, updated_at=NOW()
		WHERE id = $1 AND status = $11`,
		u.ID, u.Status,
		u.DispatchedTo, u.DispatchedAt, u.DispatchNotes,
		u.UsedFor, u.UsedAt, u.DiscardReason, u.DiscardedAt,
		u.ReservedFor, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a vanished row from a lost race.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM blood_unit WHERE id = $1)`, u.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *repoPG) ListEligible(ctx context.Context, now time.Time) ([]*BloodUnit, error) {
	units, _, err := r.queryUnits(ctx, `SELECT `+unitCols+` FROM blood_unit
		WHERE status = $1 AND expiry_date > $2
		ORDER BY expiry_date ASC, id ASC`, 0, StatusInInventory, now)
	return units, err
}

func (r *repoPG) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*BloodUnit, error) {
	units, _, err := r.queryUnits(ctx, `SELECT `+unitCols+` FROM blood_unit
		WHERE reserved_for_request_id = $1
		ORDER BY expiry_date ASC, id ASC`, 0, requestID)
	return units, err
}

func (r *repoPG) ListExpiryCandidates(ctx context.Context, now time.Time) ([]*BloodUnit, error) {
	units, _, err := r.queryUnits(ctx, `SELECT `+unitCols+` FROM blood_unit
		WHERE status IN ($1, $2) AND expiry_date < $3
		ORDER BY expiry_date ASC, id ASC`, 0, StatusInInventory, StatusReserved, now)
	return units, err
}

func (r *repoPG) ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*BloodUnit, int, error) {
	const where = ` FROM blood_unit
		WHERE (status = 'expired' OR (status IN ('in_inventory', 'reserved') AND expiry_date < $1))`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, now).Scan(&total); err != nil {
		return nil, 0, err
	}
	return r.queryUnits(ctx, `SELECT `+unitCols+where+` ORDER BY expiry_date ASC, id ASC LIMIT $2 OFFSET $3`,
		total, now, limit, offset)
}

func (r *repoPG) ListExpiringSoon(ctx context.Context, now time.Time, days, limit, offset int) ([]*BloodUnit, int, error) {
	cutoff := now.AddDate(0, 0, days)
	const where = ` FROM blood_unit
		WHERE status IN ('in_inventory', 'reserved') AND expiry_date > $1 AND expiry_date <= $2`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, now, cutoff).Scan(&total); err != nil {
		return nil, 0, err
	}
	return r.queryUnits(ctx, `SELECT `+unitCols+where+` ORDER BY expiry_date ASC, id ASC LIMIT $3 OFFSET $4`,
		total, now, cutoff, limit, offset)
}

func (r *repoPG) Stats(ctx context.Context, now time.Time, soonDays int) (*Stats, error) {
	stats := &Stats{
		ByStatus:    make(map[string]int),
		ByBloodType: make(map[string]int),
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM blood_unit GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := r.pool.Query(ctx, `SELECT blood_type || rh_factor, COUNT(*)
		FROM blood_unit WHERE status = $1 GROUP BY blood_type, rh_factor`, StatusInInventory)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var label string
		var count int
		if err := typeRows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.ByBloodType[label] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	cutoff := now.AddDate(0, 0, soonDays)
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blood_unit
		WHERE status IN ('in_inventory', 'reserved') AND expiry_date > $1 AND expiry_date <= $2`,
		now, cutoff).Scan(&stats.ExpiringSoon); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blood_unit
		WHERE status = 'expired' OR (status IN ('in_inventory', 'reserved') AND expiry_date < $1)`,
		now).Scan(&stats.Expired); err != nil {
		return nil, err
	}

	return stats, nil
}

// ---- Status events ----

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewEventRepoPG(pool *pgxpool.Pool) EventRepository {
	return &eventRepoPG{pool: pool}
}

func (r *eventRepoPG) Append(ctx context.Context, e *StatusEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blood_unit_event (id, unit_id, from_status, to_status, actor, note, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.UnitID, e.FromStatus, e.ToStatus, e.Actor, e.Note, e.OccurredAt)
	return err
}

func (r *eventRepoPG) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*StatusEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, unit_id, from_status, to_status, actor, note, occurred_at
		FROM blood_unit_event WHERE unit_id = $1 ORDER BY occurred_at ASC, id ASC`, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*StatusEvent
	for rows.Next() {
		var e StatusEvent
		if err := rows.Scan(&e.ID, &e.UnitID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Note, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
