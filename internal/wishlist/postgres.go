package wishlist

import (
	"context"
	"database/sql"
)

// PGStore implements Store using PostgreSQL. Idempotent convergence under
// concurrent adds comes from the primary key on (user_id, listing_id) plus
// `on conflict do nothing`; insertion order from the seq sequence.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Add(ctx context.Context, subjectID, listingID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`insert into wishlist_entries(user_id, listing_id) values($1,$2)
		 on conflict (user_id, listing_id) do nothing`,
		subjectID, listingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PGStore) Remove(ctx context.Context, subjectID, listingID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from wishlist_entries where user_id=$1 and listing_id=$2`,
		subjectID, listingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PGStore) ListingIDs(ctx context.Context, subjectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select listing_id from wishlist_entries where user_id=$1 order by seq asc`,
		subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
