package wallet

import (
	"context"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/veilledger/veil/models"
	"github.com/veilledger/veil/repo"
)

// MockLedgerClient is an in-memory SubmissionClient for testing. By
// default it accepts every submission and reports it committed,
// assigning sequential output sids the way the ledger server does.
// Individual behaviors can be overridden through the function fields.
type MockLedgerClient struct {
	State           string
	LedgerStateFunc func(ctx context.Context) (string, error)
	SubmitFunc      func(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error)
	TxnStatusFunc   func(ctx context.Context, txID string) (*models.TxnStatus, error)

	mtx       sync.Mutex
	nextSID   int
	submitted map[string]*models.FinalizedTransaction
	statuses  map[string]*models.TxnStatus
}

// NewMockLedgerClient returns a MockLedgerClient with the default
// accept-and-commit behavior.
func NewMockLedgerClient() *MockLedgerClient {
	return &MockLedgerClient{
		State:     "state_0",
		submitted: make(map[string]*models.FinalizedTransaction),
		statuses:  make(map[string]*models.TxnStatus),
	}
}

func (c *MockLedgerClient) LedgerState(ctx context.Context) (string, error) {
	if c.LedgerStateFunc != nil {
		return c.LedgerStateFunc(ctx)
	}
	return c.State, nil
}

func (c *MockLedgerClient) Submit(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error) {
	if c.SubmitFunc != nil {
		return c.SubmitFunc(ctx, tx)
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, ok := c.submitted[tx.TxID]; !ok {
		c.submitted[tx.TxID] = tx

		var sids []string
		for _, op := range tx.Body.Operations {
			for range op.Outputs {
				sids = append(sids, fmt.Sprintf("txo_%d", c.nextSID))
				c.nextSID++
			}
		}
		c.statuses[tx.TxID] = &models.TxnStatus{
			Status:  models.TxStatusCommitted,
			TxoSIDs: sids,
		}
	}
	return &models.SubmissionResult{Accepted: true, TxID: tx.TxID}, nil
}

func (c *MockLedgerClient) TxnStatus(ctx context.Context, txID string) (*models.TxnStatus, error) {
	if c.TxnStatusFunc != nil {
		return c.TxnStatusFunc(ctx, txID)
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if status, ok := c.statuses[txID]; ok {
		return status, nil
	}
	return &models.TxnStatus{Status: models.TxStatusPending}, nil
}

// MockWallet builds a wallet backed by an in-memory database and a
// MockLedgerClient, suitable for testing.
func MockWallet() (*Wallet, *MockLedgerClient, error) {
	dir, err := ioutil.TempDir("", "veil")
	if err != nil {
		return nil, nil, err
	}
	r, err := repo.NewMemoryRepo(dir)
	if err != nil {
		return nil, nil, err
	}
	client := NewMockLedgerClient()
	return NewWallet(r.DB(), client), client, nil
}
