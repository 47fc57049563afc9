package api

import (
	"context"

	"github.com/veilledger/veil/models"
	"github.com/veilledger/veil/wallet"
)

// WalletIface is the interface the gateway uses to interact with the
// wallet. Using an interface here allows the handlers to be tested
// against a mock.
type WalletIface interface {
	// ListTxos returns the outputs matching the filter, most recently
	// known first.
	ListTxos(filter models.TxoFilter) ([]models.Txo, error)

	// Transaction returns the record for a finalized transaction.
	Transaction(txID string) (*models.TransactionRecord, error)

	// Assets returns all defined assets.
	Assets() ([]models.Asset, error)

	// Identities returns the wallet's identities.
	Identities() ([]models.Identity, error)

	// Submit sends a finalized transaction to the ledger.
	Submit(ctx context.Context, txID string) (*models.TxnStatus, error)
}

// Enforce at compile time that the wallet implements this interface.
var _ WalletIface = (*wallet.Wallet)(nil)
