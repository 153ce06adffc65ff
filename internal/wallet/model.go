package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyUSDC is the only currency wallet records are created with.
const CurrencyUSDC = "USDC"

// ErrNotFound is returned when no wallet record matches.
var ErrNotFound = errors.New("wallet not found")

// Wallet is the local record of a custodial wallet held at the vendor.
type Wallet struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profile_id"`
	CircleWalletID string    `json:"circle_wallet_id"`
	WalletSetID    string    `json:"wallet_set_id"`
	WalletAddress  string    `json:"wallet_address"`
	WalletType     string    `json:"wallet_type"`
	AccountType    string    `json:"account_type"`
	Blockchain     string    `json:"blockchain"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

// Balance is the live USDC balance of a vendor wallet.
type Balance struct {
	WalletID string
	Amount   decimal.Decimal
	Currency string
	AsOf     time.Time
}

// TransactionSummary is the list view of a vendor transaction.
type TransactionSummary struct {
	ID              string   `json:"id"`
	Amount          []string `json:"amount"`
	Status          string   `json:"status"`
	TransactionType string   `json:"transactionType"`
	CreateDate      string   `json:"createDate"`
}
