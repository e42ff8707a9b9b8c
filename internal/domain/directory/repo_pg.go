package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type donorRepoPG struct{ pool *pgxpool.Pool }

func NewDonorRepoPG(pool *pgxpool.Pool) DonorRepository {
	return &donorRepoPG{pool: pool}
}

const donorCols = `id, name, email, phone, blood_type, rh_factor,
	longitude, latitude, active, created_at, updated_at`

func scanDonor(row pgx.Row) (*Donor, error) {
	var d Donor
	var lon, lat *float64
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.BloodType, &d.RhFactor,
		&lon, &lat, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lon != nil && lat != nil {
		d.Coordinates = &Coordinates{Longitude: *lon, Latitude: *lat}
	}
	return &d, nil
}

func coordsCols(c *Coordinates) (lon, lat *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Longitude, &c.Latitude
}

func (rp *donorRepoPG) Create(ctx context.Context, d *Donor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	lon, lat := coordsCols(d.Coordinates)
	_, err := rp.pool.Exec(ctx, `
		INSERT INTO donor (id, name, email, phone, blood_type, rh_factor, longitude, latitude, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.Name, d.Email, d.Phone, d.BloodType, d.RhFactor, lon, lat, d.Active)
	return err
}

func (rp *donorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Donor, error) {
	return scanDonor(rp.pool.QueryRow(ctx, `SELECT `+donorCols+` FROM donor WHERE id = $1`, id))
}

func (rp *donorRepoPG) List(ctx context.Context, f DonorFilters, limit, offset int) ([]*Donor, int, error) {
	query := `SELECT ` + donorCols + ` FROM donor WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM donor WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+f.Name+"%")
		idx++
	}
	if f.BloodType != "" {
		query += fmt.Sprintf(` AND blood_type = $%d`, idx)
		countQuery += fmt.Sprintf(` AND blood_type = $%d`, idx)
		args = append(args, f.BloodType)
		idx++
	}
	if f.RhFactor != "" {
		query += fmt.Sprintf(` AND rh_factor = $%d`, idx)
		countQuery += fmt.Sprintf(` AND rh_factor = $%d`, idx)
		args = append(args, f.RhFactor)
		idx++
	}
	if f.ActiveOnly {
		query += ` AND active`
		countQuery += ` AND active`
	}

	var total int
	if err := rp.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := rp.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (rp *donorRepoPG) Update(ctx context.Context, d *Donor) error {
	lon, lat := coordsCols(d.Coordinates)
	tag, err := rp.pool.Exec(ctx, `
		UPDATE donor
		SET name = $2, email = $3, phone = $4, blood_type = $5, rh_factor = $6,
			longitude = $7, latitude = $8, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Email, d.Phone, d.BloodType, d.RhFactor, lon, lat)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (rp *donorRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := rp.pool.Exec(ctx,
		`UPDATE donor SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// orgRepoPG serves one of the organization tables. The table name is fixed at
// construction, never caller input.
type orgRepoPG struct {
	pool  *pgxpool.Pool
	table string
}

func NewBloodBankRepoPG(pool *pgxpool.Pool) OrgRepository {
	return &orgRepoPG{pool: pool, table: "blood_bank"}
}

func NewInstitutionRepoPG(pool *pgxpool.Pool) OrgRepository {
	return &orgRepoPG{pool: pool, table: "medical_institution"}
}

const orgCols = `id, name, email, phone, address, longitude, latitude, active, created_at, updated_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	var lon, lat *float64
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address,
		&lon, &lat, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lon != nil && lat != nil {
		o.Coordinates = &Coordinates{Longitude: *lon, Latitude: *lat}
	}
	return &o, nil
}

func (rp *orgRepoPG) Create(ctx context.Context, o *Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	lon, lat := coordsCols(o.Coordinates)
	_, err := rp.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, email, phone, address, longitude, latitude, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, rp.table),
		o.ID, o.Name, o.Email, o.Phone, o.Address, lon, lat, o.Active)
	return err
}

func (rp *orgRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(rp.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, orgCols, rp.table), id))
}

func (rp *orgRepoPG) List(ctx context.Context, f OrgFilters, limit, offset int) ([]*Organization, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE 1=1`, orgCols, rp.table)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE 1=1`, rp.table)
	var args []interface{}
	idx := 1

	if f.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+f.Name+"%")
		idx++
	}
	if f.ActiveOnly {
		query += ` AND active`
		countQuery += ` AND active`
	}

	var total int
	if err := rp.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := rp.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

func (rp *orgRepoPG) Update(ctx context.Context, o *Organization) error {
	lon, lat := coordsCols(o.Coordinates)
	tag, err := rp.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET name = $2, email = $3, phone = $4, address = $5,
			longitude = $6, latitude = $7, updated_at = NOW()
		WHERE id = $1`, rp.table),
		o.ID, o.Name, o.Email, o.Phone, o.Address, lon, lat)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (rp *orgRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := rp.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET active = $2, updated_at = NOW() WHERE id = $1`, rp.table), id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
