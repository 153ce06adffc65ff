package circle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// WalletSet groups wallets that share a key hierarchy.
type WalletSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CustodyType string `json:"custodyType"`
	CreateDate  string `json:"createDate"`
}

// Wallet is a custodial wallet on one blockchain.
type Wallet struct {
	ID          string `json:"id"`
	WalletSetID string `json:"walletSetId"`
	CustodyType string `json:"custodyType"`
	Address     string `json:"address"`
	Blockchain  string `json:"blockchain"`
	AccountType string `json:"accountType"`
	State       string `json:"state"`
	CreateDate  string `json:"createDate"`
}

// TokenBalance is the holding of one token in a wallet. Amount is a decimal
// string in token units.
type TokenBalance struct {
	Amount string `json:"amount"`
	Token  struct {
		ID         string `json:"id"`
		Symbol     string `json:"symbol"`
		Blockchain string `json:"blockchain"`
		Decimals   int    `json:"decimals"`
	} `json:"token"`
}

// CreateWalletSetInput names the new wallet set.
type CreateWalletSetInput struct {
	Name string
}

// CreateWalletInput describes the single wallet to create in a set.
type CreateWalletInput struct {
	WalletSetID string
	Blockchain  string
	AccountType string
}

// CreateWalletSet creates a wallet set. A response without a set id is
// ErrMalformedResponse.
func (c *Client) CreateWalletSet(ctx context.Context, input CreateWalletSetInput) (WalletSet, error) {
	ciphertext, err := c.entitySecretCiphertext(ctx)
	if err != nil {
		return WalletSet{}, err
	}
	body := map[string]any{
		"idempotencyKey":         uuid.NewString(),
		"entitySecretCiphertext": ciphertext,
		"name":                   input.Name,
	}
	var resp envelope[struct {
		WalletSet *WalletSet `json:"walletSet"`
	}]
	if err := c.do(ctx, http.MethodPost, "/v1/w3s/developer/walletSets", body, &resp); err != nil {
		return WalletSet{}, fmt.Errorf("create wallet set: %w", err)
	}
	if resp.Data.WalletSet == nil || resp.Data.WalletSet.ID == "" {
		return WalletSet{}, fmt.Errorf("create wallet set: %w: missing wallet set id", ErrMalformedResponse)
	}
	return *resp.Data.WalletSet, nil
}

// CreateWallet creates exactly one wallet in the given set. A response
// without a wallet id is ErrMalformedResponse.
func (c *Client) CreateWallet(ctx context.Context, input CreateWalletInput) (Wallet, error) {
	ciphertext, err := c.entitySecretCiphertext(ctx)
	if err != nil {
		return Wallet{}, err
	}
	body := map[string]any{
		"idempotencyKey":         uuid.NewString(),
		"entitySecretCiphertext": ciphertext,
		"walletSetId":            input.WalletSetID,
		"blockchains":            []string{input.Blockchain},
		"count":                  1,
		"accountType":            input.AccountType,
	}
	var resp envelope[struct {
		Wallets []Wallet `json:"wallets"`
	}]
	if err := c.do(ctx, http.MethodPost, "/v1/w3s/developer/wallets", body, &resp); err != nil {
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	if len(resp.Data.Wallets) == 0 || resp.Data.Wallets[0].ID == "" {
		return Wallet{}, fmt.Errorf("create wallet: %w: missing wallet id", ErrMalformedResponse)
	}
	return resp.Data.Wallets[0], nil
}

// Balances returns the token balances held by a wallet.
func (c *Client) Balances(ctx context.Context, walletID string) ([]TokenBalance, error) {
	var resp envelope[struct {
		TokenBalances []TokenBalance `json:"tokenBalances"`
	}]
	path := "/v1/w3s/wallets/" + url.PathEscape(walletID) + "/balances"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("wallet balances: %w", err)
	}
	return resp.Data.TokenBalances, nil
}
