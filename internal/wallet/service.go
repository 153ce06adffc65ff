package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/paycasso/paycasso/internal/circle"
)

// Custody is the part of the vendor API the wallet views read from.
type Custody interface {
	Balances(ctx context.Context, walletID string) ([]circle.TokenBalance, error)
	GetTransaction(ctx context.Context, id string) (circle.Transaction, error)
	ListTransactions(ctx context.Context, walletID string) ([]circle.Transaction, error)
}

// Service reads wallet records and their live state at the vendor.
type Service struct {
	repo     Repository
	custody  Custody
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService builds a wallet service. custody and cache may be nil; without
// custody every vendor read fails with circle.ErrNotConfigured.
func NewService(repo Repository, custody Custody, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, custody: custody, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Create stores a wallet record. Currency is always USDC.
func (s *Service) Create(ctx context.Context, w Wallet) (Wallet, error) {
	w.Currency = CurrencyUSDC
	return s.repo.Create(ctx, w)
}

// ForProfile returns the wallet record owned by a profile.
func (s *Service) ForProfile(ctx context.Context, profileID string) (Wallet, error) {
	return s.repo.GetByProfileID(ctx, profileID)
}

// Balance sums the USDC token balances of a vendor wallet.
func (s *Service) Balance(ctx context.Context, circleWalletID string) (Balance, error) {
	if s.custody == nil {
		return Balance{}, circle.ErrNotConfigured
	}
	balances, err := s.custody.Balances(ctx, circleWalletID)
	if err != nil {
		return Balance{}, err
	}
	total := decimal.Zero
	for _, b := range balances {
		if !strings.EqualFold(b.Token.Symbol, CurrencyUSDC) {
			continue
		}
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return Balance{}, fmt.Errorf("%w: balance amount %q", circle.ErrMalformedResponse, b.Amount)
		}
		total = total.Add(amount)
	}
	return Balance{WalletID: circleWalletID, Amount: total, Currency: CurrencyUSDC, AsOf: time.Now().UTC()}, nil
}

// Transaction fetches one vendor transaction.
func (s *Service) Transaction(ctx context.Context, id string) (circle.Transaction, error) {
	if s.custody == nil {
		return circle.Transaction{}, circle.ErrNotConfigured
	}
	return s.custody.GetTransaction(ctx, id)
}

// Transactions lists the transactions of a vendor wallet. Lists are cached
// briefly since the dashboard polls them.
func (s *Service) Transactions(ctx context.Context, circleWalletID string) ([]TransactionSummary, error) {
	key := "wallet:txs:" + circleWalletID
	cached, err := getFromCache[[]TransactionSummary](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("transaction cache read failed", "wallet_id", circleWalletID, "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	if s.custody == nil {
		return nil, circle.ErrNotConfigured
	}
	txs, err := s.custody.ListTransactions(ctx, circleWalletID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionSummary, 0, len(txs))
	for _, tx := range txs {
		amounts := tx.Amounts
		if amounts == nil {
			amounts = []string{}
		}
		out = append(out, TransactionSummary{
			ID:              tx.ID,
			Amount:          amounts,
			Status:          tx.State,
			TransactionType: tx.TransactionType,
			CreateDate:      tx.CreateDate,
		})
	}
	if len(out) > 0 {
		if err := setInCache(ctx, s.cache, key, out, s.cacheTTL); err != nil {
			s.logger.Warn("transaction cache write failed", "wallet_id", circleWalletID, "error", err)
		}
	}
	return out, nil
}

func getFromCache[T any](ctx context.Context, rdb *redis.Client, key string) (*T, error) {
	if rdb == nil {
		return nil, nil
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func setInCache(ctx context.Context, rdb *redis.Client, key string, data any, ttl time.Duration) error {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
