package folders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("folder not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Folder groups the documents and submissions of one intake package,
// typically everything a broker sent in a single email.
type Folder struct {
	PublicID  string    `json:"public_id"`
	OwnerUID  string    `json:"owner_uid"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Repo) Create(ctx context.Context, ownerUID, name, source string) (*Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}

	for i := 0; i < 5; i++ {
		publicID, err := NewPublicID("sub")
		if err != nil {
			return nil, err
		}

		const q = `
insert into folders (public_id, owner_uid, name, source)
values ($1, $2, $3, nullif($4,''))
returning public_id, owner_uid, name, coalesce(source,''), created_at, updated_at;
`
		var f Folder
		err = r.db.QueryRow(ctx, q, publicID, ownerUID, name, source).
			Scan(&f.PublicID, &f.OwnerUID, &f.Name, &f.Source, &f.CreatedAt, &f.UpdatedAt)

		if err == nil {
			return &f, nil
		}

		// unique violation on public_id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique folder id")
}

func (r *Repo) Get(ctx context.Context, ownerUID, publicID string) (*Folder, error) {
	const q = `
select public_id, owner_uid, name, coalesce(source,''), created_at, updated_at
from folders
where owner_uid = $1 and public_id = $2 and deleted_at is null;
`
	var f Folder
	err := r.db.QueryRow(ctx, q, ownerUID, publicID).
		Scan(&f.PublicID, &f.OwnerUID, &f.Name, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) List(ctx context.Context, ownerUID string) ([]Folder, error) {
	const q = `
select public_id, owner_uid, name, coalesce(source,''), created_at, updated_at
from folders
where owner_uid = $1 and deleted_at is null
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Folder, 0, 16)
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.PublicID, &f.OwnerUID, &f.Name, &f.Source, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) Rename(ctx context.Context, ownerUID, publicID, newName string) (*Folder, error) {
	const q = `
update folders
set name = $3, updated_at = now()
where owner_uid = $1 and public_id = $2 and deleted_at is null
returning public_id, owner_uid, name, coalesce(source,''), created_at, updated_at;
`
	var f Folder
	err := r.db.QueryRow(ctx, q, ownerUID, publicID, newName).
		Scan(&f.PublicID, &f.OwnerUID, &f.Name, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) SoftDelete(ctx context.Context, ownerUID, publicID string) (bool, error) {
	const q = `
update folders
set deleted_at = now(), updated_at = now()
where owner_uid = $1 and public_id = $2 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, ownerUID, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
