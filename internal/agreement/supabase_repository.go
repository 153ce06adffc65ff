package agreement

import (
	"context"
	"fmt"

	"github.com/paycasso/paycasso/internal/contracts"
	"github.com/paycasso/paycasso/internal/supabase"
)

const table = "agreements"

// SupabaseRepository implements Repository over PostgREST with the service
// role key.
type SupabaseRepository struct {
	client *supabase.Client
}

// NewSupabaseRepository builds a PostgREST-backed agreement repository.
func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

type row struct {
	ID                   string             `json:"id,omitempty"`
	DepositorProfileID   string             `json:"depositor_profile_id"`
	BeneficiaryProfileID string             `json:"beneficiary_profile_id"`
	DocumentName         string             `json:"document_name"`
	Amounts              []contracts.Amount `json:"amounts"`
	Tasks                []string           `json:"tasks"`
	Status               string             `json:"status"`
	CreatedAt            string             `json:"created_at,omitempty"`
}

func (r row) agreement() Agreement {
	return Agreement{
		ID:                   r.ID,
		DepositorProfileID:   r.DepositorProfileID,
		BeneficiaryProfileID: r.BeneficiaryProfileID,
		DocumentName:         r.DocumentName,
		Amounts:              r.Amounts,
		Tasks:                r.Tasks,
		Status:               Status(r.Status),
		CreatedAt:            supabase.ParseTimestamp(r.CreatedAt),
	}
}

func (r *SupabaseRepository) Create(ctx context.Context, a Agreement) (Agreement, error) {
	in := row{
		DepositorProfileID:   a.DepositorProfileID,
		BeneficiaryProfileID: a.BeneficiaryProfileID,
		DocumentName:         a.DocumentName,
		Amounts:              a.Amounts,
		Tasks:                a.Tasks,
		Status:               string(a.Status),
	}
	var out []row
	if err := r.client.From(table).Select("*").Insert(ctx, in, &out); err != nil {
		return Agreement{}, err
	}
	if len(out) == 0 {
		return Agreement{}, fmt.Errorf("insert agreement: empty representation")
	}
	return out[0].agreement(), nil
}

func (r *SupabaseRepository) ListForProfile(ctx context.Context, profileID string) ([]Agreement, error) {
	var rows []row
	err := r.client.From(table).Select("*").
		Or(fmt.Sprintf("depositor_profile_id.eq.%s,beneficiary_profile_id.eq.%s", profileID, profileID)).
		Order("created_at", false).
		Find(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]Agreement, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.agreement())
	}
	return out, nil
}
