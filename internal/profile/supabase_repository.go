package profile

import (
	"context"

	"github.com/paycasso/paycasso/internal/supabase"
)

const table = "profiles"

// SupabaseRepository implements Repository over PostgREST with the service
// role key.
type SupabaseRepository struct {
	client *supabase.Client
}

// NewSupabaseRepository builds a PostgREST-backed profile repository.
func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

type row struct {
	ID          string  `json:"id,omitempty"`
	AuthUserID  string  `json:"auth_user_id"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	CompanyName *string `json:"company_name"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func (r row) profile() Profile {
	p := Profile{ID: r.ID, AuthUserID: r.AuthUserID, Email: r.Email}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.CompanyName != nil {
		p.CompanyName = *r.CompanyName
	}
	p.CreatedAt = supabase.ParseTimestamp(r.CreatedAt)
	return p
}

// Upsert merges on auth_user_id. The returned profile may have an empty ID if
// PostgREST answered without a representation.
func (r *SupabaseRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	in := row{AuthUserID: p.AuthUserID, Email: p.Email, Name: nullable(p.Name), CompanyName: nullable(p.CompanyName)}
	var out []row
	if err := r.client.From(table).Select("*").Upsert(ctx, in, "auth_user_id", &out); err != nil {
		return Profile{}, err
	}
	if len(out) == 0 {
		return Profile{}, nil
	}
	return out[0].profile(), nil
}

// Get fetches a profile by id.
func (r *SupabaseRepository) Get(ctx context.Context, id string) (Profile, error) {
	return r.one(ctx, r.client.From(table).Select("*").Eq("id", id).Limit(1))
}

// GetByAuthUserID fetches the profile owned by an auth user.
func (r *SupabaseRepository) GetByAuthUserID(ctx context.Context, authUserID string) (Profile, error) {
	return r.one(ctx, r.client.From(table).Select("*").Eq("auth_user_id", authUserID).Limit(1))
}

// ListOthers lists every profile not owned by authUserID.
func (r *SupabaseRepository) ListOthers(ctx context.Context, authUserID string) ([]Profile, error) {
	var rows []row
	if err := r.client.From(table).Select("*").Neq("auth_user_id", authUserID).Order("created_at", true).Find(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.profile())
	}
	return out, nil
}

func (r *SupabaseRepository) one(ctx context.Context, q *supabase.Query) (Profile, error) {
	var rows []row
	if err := q.Find(ctx, &rows); err != nil {
		return Profile{}, err
	}
	if len(rows) == 0 {
		return Profile{}, ErrNotFound
	}
	return rows[0].profile(), nil
}
