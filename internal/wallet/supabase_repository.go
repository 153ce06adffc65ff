package wallet

import (
	"context"

	"github.com/paycasso/paycasso/internal/supabase"
)

const table = "wallets"

// SupabaseRepository implements Repository over PostgREST with the service
// role key.
type SupabaseRepository struct {
	client *supabase.Client
}

// NewSupabaseRepository builds a PostgREST-backed wallet repository.
func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

type row struct {
	ID             string `json:"id,omitempty"`
	ProfileID      string `json:"profile_id"`
	CircleWalletID string `json:"circle_wallet_id"`
	WalletSetID    string `json:"wallet_set_id"`
	WalletAddress  string `json:"wallet_address"`
	WalletType     string `json:"wallet_type"`
	AccountType    string `json:"account_type"`
	Blockchain     string `json:"blockchain"`
	Currency       string `json:"currency"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func (r row) wallet() Wallet {
	return Wallet{
		ID:             r.ID,
		ProfileID:      r.ProfileID,
		CircleWalletID: r.CircleWalletID,
		WalletSetID:    r.WalletSetID,
		WalletAddress:  r.WalletAddress,
		WalletType:     r.WalletType,
		AccountType:    r.AccountType,
		Blockchain:     r.Blockchain,
		Currency:       r.Currency,
		CreatedAt:      supabase.ParseTimestamp(r.CreatedAt),
	}
}

// Create inserts a wallet record.
func (r *SupabaseRepository) Create(ctx context.Context, w Wallet) (Wallet, error) {
	in := row{
		ProfileID:      w.ProfileID,
		CircleWalletID: w.CircleWalletID,
		WalletSetID:    w.WalletSetID,
		WalletAddress:  w.WalletAddress,
		WalletType:     w.WalletType,
		AccountType:    w.AccountType,
		Blockchain:     w.Blockchain,
		Currency:       w.Currency,
	}
	var out []row
	if err := r.client.From(table).Select("*").Insert(ctx, in, &out); err != nil {
		return Wallet{}, err
	}
	if len(out) == 0 {
		return w, nil
	}
	return out[0].wallet(), nil
}

// GetByProfileID fetches the wallet record owned by a profile.
func (r *SupabaseRepository) GetByProfileID(ctx context.Context, profileID string) (Wallet, error) {
	var rows []row
	err := r.client.From(table).Select("*").Eq("profile_id", profileID).Order("created_at", true).Limit(1).Find(ctx, &rows)
	if err != nil {
		return Wallet{}, err
	}
	if len(rows) == 0 {
		return Wallet{}, ErrNotFound
	}
	return rows[0].wallet(), nil
}

// ProfilesWithWallets reports which profiles own at least one wallet.
func (r *SupabaseRepository) ProfilesWithWallets(ctx context.Context, profileIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ProfileID string `json:"profile_id"`
	}
	if err := r.client.From(table).Select("profile_id").In("profile_id", profileIDs).Find(ctx, &rows); err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.ProfileID] = true
	}
	return out, nil
}
