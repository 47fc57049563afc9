package api

import (
	"context"

	"github.com/veilledger/veil/models"
)

type mockWallet struct {
	listTxosFunc    func(filter models.TxoFilter) ([]models.Txo, error)
	transactionFunc func(txID string) (*models.TransactionRecord, error)
	assetsFunc      func() ([]models.Asset, error)
	identitiesFunc  func() ([]models.Identity, error)
	submitFunc      func(ctx context.Context, txID string) (*models.TxnStatus, error)
}

func (m *mockWallet) ListTxos(filter models.TxoFilter) ([]models.Txo, error) {
	return m.listTxosFunc(filter)
}

func (m *mockWallet) Transaction(txID string) (*models.TransactionRecord, error) {
	return m.transactionFunc(txID)
}

func (m *mockWallet) Assets() ([]models.Asset, error) {
	return m.assetsFunc()
}

func (m *mockWallet) Identities() ([]models.Identity, error) {
	return m.identitiesFunc()
}

func (m *mockWallet) Submit(ctx context.Context, txID string) (*models.TxnStatus, error) {
	return m.submitFunc(ctx, txID)
}
