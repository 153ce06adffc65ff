package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/logging"
)

type fakeCustody struct {
	balances  []circle.TokenBalance
	txs       []circle.Transaction
	tx        circle.Transaction
	err       error
	listCalls int
	getCalls  int
	lastGetID string
}

func (f *fakeCustody) Balances(context.Context, string) ([]circle.TokenBalance, error) {
	return f.balances, f.err
}

func (f *fakeCustody) GetTransaction(_ context.Context, id string) (circle.Transaction, error) {
	f.getCalls++
	f.lastGetID = id
	return f.tx, f.err
}

func (f *fakeCustody) ListTransactions(context.Context, string) ([]circle.Transaction, error) {
	f.listCalls++
	return f.txs, f.err
}

func tokenBalance(symbol, amount string) circle.TokenBalance {
	var b circle.TokenBalance
	b.Token.Symbol = symbol
	b.Amount = amount
	return b
}

func TestServiceCreateForcesUSDC(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil, 0, logging.Discard())
	ctx := context.Background()

	created, err := svc.Create(ctx, Wallet{ProfileID: "p-1", CircleWalletID: "cw-1", WalletSetID: "ws-1", Currency: "EUR"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if created.Currency != CurrencyUSDC {
		t.Fatalf("expected USDC, got %s", created.Currency)
	}
	fetched, err := svc.ForProfile(ctx, "p-1")
	if err != nil {
		t.Fatalf("for profile: %v", err)
	}
	if fetched.CircleWalletID != "cw-1" {
		t.Fatalf("unexpected wallet %+v", fetched)
	}
	if _, err := svc.ForProfile(ctx, "p-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceBalanceSumsUSDC(t *testing.T) {
	custody := &fakeCustody{balances: []circle.TokenBalance{
		tokenBalance("USDC", "10.25"),
		tokenBalance("ETH-SEPOLIA", "3"),
		tokenBalance("usdc", "0.75"),
	}}
	svc := NewService(NewMemoryRepository(), custody, nil, 0, logging.Discard())

	balance, err := svc.Balance(context.Background(), "cw-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount.String() != "11" {
		t.Fatalf("expected 11, got %s", balance.Amount.String())
	}
}

func TestServiceBalanceRejectsBadAmount(t *testing.T) {
	custody := &fakeCustody{balances: []circle.TokenBalance{tokenBalance("USDC", "lots")}}
	svc := NewService(NewMemoryRepository(), custody, nil, 0, logging.Discard())
	if _, err := svc.Balance(context.Background(), "cw-1"); !errors.Is(err, circle.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestServiceTransactionsAreCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	custody := &fakeCustody{txs: []circle.Transaction{{ID: "t-1", State: "COMPLETE", TransactionType: "INBOUND", CreateDate: "2024-01-01T00:00:00Z"}}}
	svc := NewService(NewMemoryRepository(), custody, cache, time.Minute, logging.Discard())
	ctx := context.Background()

	first, err := svc.Transactions(ctx, "cw-1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(first) != 1 || first[0].Status != "COMPLETE" || first[0].Amount == nil {
		t.Fatalf("unexpected summaries %+v", first)
	}
	second, err := svc.Transactions(ctx, "cw-1")
	if err != nil {
		t.Fatalf("cached transactions: %v", err)
	}
	if len(second) != 1 || custody.listCalls != 1 {
		t.Fatalf("expected cached result, vendor called %d times", custody.listCalls)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := svc.Transactions(ctx, "cw-1"); err != nil {
		t.Fatalf("transactions after expiry: %v", err)
	}
	if custody.listCalls != 2 {
		t.Fatalf("expected vendor call after expiry, got %d", custody.listCalls)
	}
}

func TestServiceWithoutCustody(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil, 0, logging.Discard())
	if _, err := svc.Transaction(context.Background(), "t-1"); !errors.Is(err, circle.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
