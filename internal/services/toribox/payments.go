package toribox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Transaction is a user payment
type Transaction struct {
	ID        string    `json:"_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	Email     string    `json:"email,omitempty"`
	Coins     int       `json:"coins,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Completed reports whether the payment went through
func (t Transaction) Completed() bool {
	return t.Status == "completed"
}

type transactionResponse struct {
	Transaction struct {
		Data json.RawMessage `json:"data"`
	} `json:"transaction"`
}

// transactions decodes transaction.data, which is a list for the listing
// endpoint and may be a single object for the detail endpoint
func (r transactionResponse) transactions() ([]Transaction, error) {
	data := bytes.TrimSpace(r.Transaction.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Transaction{}, nil
	}

	if data[0] == '{' {
		var single Transaction
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		return []Transaction{single}, nil
	}

	var list []Transaction
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return list, nil
}

func pageQuery(page, limit int) string {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	return q.Encode()
}

// ListTransactions returns one page of transactions
func (c *Client) ListTransactions(ctx context.Context, token string, page, limit int) ([]Transaction, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	var resp transactionResponse
	path := "/api/users/transaction/get?" + pageQuery(page, limit)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return resp.transactions()
}

// GetTransaction returns the records of a single transaction
func (c *Client) GetTransaction(ctx context.Context, token, id string, page, limit int) ([]Transaction, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	var resp transactionResponse
	path := "/api/users/transaction/get/" + url.PathEscape(id) + "?" + pageQuery(page, limit)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return resp.transactions()
}

// Wallet is the admin wallet
type Wallet struct {
	Balance float64 `json:"balance"`
}

// GetWallet returns the admin wallet balance. A missing wallet has a zero balance.
func (c *Client) GetWallet(ctx context.Context, token string) (Wallet, error) {
	if err := requireToken(token); err != nil {
		return Wallet{}, err
	}

	var resp struct {
		Wallet *Wallet `json:"wallet"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/wallet/get", token, nil, &resp); err != nil {
		return Wallet{}, fmt.Errorf("failed to get wallet: %w", err)
	}
	if resp.Wallet == nil {
		return Wallet{}, nil
	}
	return *resp.Wallet, nil
}

// PaystackRequest starts a wallet top-up through Paystack
type PaystackRequest struct {
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Amount   float64 `json:"amount"`
	Coins    int     `json:"coins"`
	Currency string  `json:"currency"`
}

// PaystackSession is a started Paystack checkout
type PaystackSession struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference,omitempty"`
}

// CreatePaystackSession starts a checkout and returns the URL the payer must open
func (c *Client) CreatePaystackSession(ctx context.Context, token string, req PaystackRequest) (*PaystackSession, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if req.FullName == "" || req.Amount <= 0 || req.Coins <= 0 {
		return nil, fmt.Errorf("full name, a positive amount and a positive coin count are required")
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	var resp struct {
		Session *PaystackSession `json:"session"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/paystack/generate/session", token, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to generate Paystack session: %w", err)
	}
	if resp.Session == nil || resp.Session.AuthorizationURL == "" {
		return nil, fmt.Errorf("no payment URL received from server")
	}

	c.logger.WithField("reference", resp.Session.Reference).Info("Paystack session created")
	return resp.Session, nil
}
