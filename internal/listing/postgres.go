package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGStore implements Store using PostgreSQL. Amenities are stored as jsonb.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const listingColumns = `id, owner_id, title, description, address, city, rent_amount, amenities, photo_url, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, l *Listing) error {
	amenities, _ := json.Marshal(l.Amenities)
	_, err := s.db.ExecContext(ctx,
		`insert into listings(`+listingColumns+`)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		l.ID, l.OwnerID, l.Title, l.Description, l.Address, l.City,
		l.RentAmount, amenities, l.PhotoURL, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+listingColumns+` from listings where id=$1`, id)
	return scanListing(row.Scan)
}

func (s *PGStore) List(ctx context.Context, filter Filter) ([]*Listing, error) {
	query := `select ` + listingColumns + ` from listings`
	args := []any{}
	if filter.City != "" {
		query += ` where lower(city) = lower($1)`
		args = append(args, filter.City)
	}
	query += ` order by created_at asc`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		if filter.City != "" {
			query += ` limit $2`
		} else {
			query += ` limit $1`
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, id string, update Update) (*Listing, error) {
	var amenities []byte
	if update.Amenities != nil {
		amenities, _ = json.Marshal(*update.Amenities)
	}
	row := s.db.QueryRowContext(ctx,
		`update listings set
			title = coalesce($2, title),
			description = coalesce($3, description),
			address = coalesce($4, address),
			city = coalesce($5, city),
			rent_amount = coalesce($6, rent_amount),
			amenities = coalesce($7, amenities),
			photo_url = coalesce($8, photo_url),
			updated_at = $9
		 where id=$1
		 returning `+listingColumns,
		id, update.Title, update.Description, update.Address, update.City,
		update.RentAmount, amenities, update.PhotoURL, time.Now().UTC(),
	)
	return scanListing(row.Scan)
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from listings where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanListing(scan func(dest ...any) error) (*Listing, error) {
	var (
		l         Listing
		amenities []byte
	)
	err := scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Address, &l.City,
		&l.RentAmount, &amenities, &l.PhotoURL, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(amenities, &l.Amenities)
	return &l, nil
}
