package circle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Transaction is a transfer recorded against a wallet.
type Transaction struct {
	ID              string   `json:"id"`
	Amounts         []string `json:"amounts"`
	State           string   `json:"state"`
	Blockchain      string   `json:"blockchain"`
	TransactionType string   `json:"transactionType"`
	CreateDate      string   `json:"createDate"`
	UpdateDate      string   `json:"updateDate"`
}

func (t Transaction) complete() bool {
	return t.ID != "" && t.State != "" && t.Blockchain != "" &&
		t.TransactionType != "" && t.CreateDate != "" && t.UpdateDate != ""
}

// GetTransaction fetches one transaction. A missing transaction is
// ErrNotFound; one missing required fields is ErrMalformedResponse.
func (c *Client) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	var resp envelope[struct {
		Transaction *Transaction `json:"transaction"`
	}]
	if err := c.do(ctx, http.MethodGet, "/v1/w3s/transactions/"+url.PathEscape(id), nil, &resp); err != nil {
		return Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if resp.Data.Transaction == nil {
		return Transaction{}, ErrNotFound
	}
	if !resp.Data.Transaction.complete() {
		return Transaction{}, fmt.Errorf("get transaction: %w", ErrMalformedResponse)
	}
	return *resp.Data.Transaction, nil
}

// ListTransactions lists every transaction of a wallet, including those not
// initiated through this entity.
func (c *Client) ListTransactions(ctx context.Context, walletID string) ([]Transaction, error) {
	query := url.Values{}
	query.Set("walletIds", walletID)
	query.Set("includeAll", "true")
	var resp envelope[struct {
		Transactions []Transaction `json:"transactions"`
	}]
	if err := c.do(ctx, http.MethodGet, "/v1/w3s/transactions?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return resp.Data.Transactions, nil
}
