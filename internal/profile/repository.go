package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists profiles.
type Repository interface {
	// Upsert inserts the profile or updates the row with the same auth user id,
	// returning the stored row.
	Upsert(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	GetByAuthUserID(ctx context.Context, authUserID string) (Profile, error)
	// ListOthers returns every profile except the one owned by authUserID.
	ListOthers(ctx context.Context, authUserID string) ([]Profile, error)
}

// PostgresRepository implements Repository using PostgreSQL. It connects as
// the database owner, so row-level security does not apply.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, auth_user_id, email, name, company_name, created_at`

// Upsert inserts or updates on auth_user_id.
func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	authUserID, err := uuid.Parse(p.AuthUserID)
	if err != nil {
		return Profile{}, err
	}
	row := r.db.QueryRow(ctx, `INSERT INTO profiles (auth_user_id, email, name, company_name)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (auth_user_id) DO UPDATE
        SET email = EXCLUDED.email, name = EXCLUDED.name, company_name = EXCLUDED.company_name
        RETURNING `+profileColumns, authUserID, p.Email, nullable(p.Name), nullable(p.CompanyName))
	return scanProfile(row)
}

// Get fetches a profile by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Profile, error) {
	profileID, err := uuid.Parse(id)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, profileID))
}

// GetByAuthUserID fetches the profile owned by an auth user.
func (r *PostgresRepository) GetByAuthUserID(ctx context.Context, authUserID string) (Profile, error) {
	id, err := uuid.Parse(authUserID)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE auth_user_id = $1`, id))
}

// ListOthers lists every profile not owned by authUserID.
func (r *PostgresRepository) ListOthers(ctx context.Context, authUserID string) ([]Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles
        WHERE auth_user_id::text <> $1 ORDER BY created_at`, authUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		id, authUserID    uuid.UUID
		name, companyName *string
		createdAt         time.Time
		p                 Profile
	)
	if err := row.Scan(&id, &authUserID, &p.Email, &name, &companyName, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.ID = id.String()
	p.AuthUserID = authUserID.String()
	if name != nil {
		p.Name = *name
	}
	if companyName != nil {
		p.CompanyName = *companyName
	}
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
