package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists wallet records.
type Repository interface {
	Create(ctx context.Context, w Wallet) (Wallet, error)
	GetByProfileID(ctx context.Context, profileID string) (Wallet, error)
	// ProfilesWithWallets reports which of the given profiles own a wallet.
	ProfilesWithWallets(ctx context.Context, profileIDs []string) (map[string]bool, error)
}

// PostgresRepository stores wallet records in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const walletColumns = `id, profile_id, circle_wallet_id, wallet_set_id, wallet_address, wallet_type, account_type, blockchain, currency, created_at`

// Create inserts a wallet record and returns it with its generated id.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) (Wallet, error) {
	profileID, err := uuid.Parse(w.ProfileID)
	if err != nil {
		return Wallet{}, err
	}
	row := r.db.QueryRow(ctx, `INSERT INTO wallets (profile_id, circle_wallet_id, wallet_set_id, wallet_address, wallet_type, account_type, blockchain, currency)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+walletColumns,
		profileID, w.CircleWalletID, w.WalletSetID, w.WalletAddress, w.WalletType, w.AccountType, w.Blockchain, w.Currency)
	return scanWallet(row)
}

// GetByProfileID fetches the wallet record owned by a profile.
func (r *PostgresRepository) GetByProfileID(ctx context.Context, profileID string) (Wallet, error) {
	id, err := uuid.Parse(profileID)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	return scanWallet(r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE profile_id = $1 ORDER BY created_at LIMIT 1`, id))
}

// ProfilesWithWallets reports which profiles own at least one wallet.
func (r *PostgresRepository) ProfilesWithWallets(ctx context.Context, profileIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT DISTINCT profile_id::text FROM wallets WHERE profile_id::text = ANY($1)`, profileIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w                                            Wallet
		id, profileID                                uuid.UUID
		address, walletType, accountType, blockchain *string
		createdAt                                    time.Time
	)
	if err := row.Scan(&id, &profileID, &w.CircleWalletID, &w.WalletSetID, &address, &walletType, &accountType, &blockchain, &w.Currency, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.ProfileID = profileID.String()
	w.WalletAddress = deref(address)
	w.WalletType = deref(walletType)
	w.AccountType = deref(accountType)
	w.Blockchain = deref(blockchain)
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
