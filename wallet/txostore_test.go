package wallet

import (
	"testing"
	"time"

	"github.com/veilledger/veil/models"
)

func TestWallet_TxoStore(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-time.Hour)
	txos := []models.Txo{
		{SID: "txo_0", Owner: "alice", Amount: 100, AssetType: "veil_token", CreatedAt: base},
		{SID: "txo_1", Owner: "alice", Amount: 200, AssetType: "veil_token", CreatedAt: base.Add(time.Minute)},
		{SID: "txo_2", Owner: "bob", Amount: 300, AssetType: "veil_token", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range txos {
		if err := w.RegisterTxo(&txos[i]); err != nil {
			t.Fatal(err)
		}
	}

	// Registration is idempotent; the original row wins.
	dup := &models.Txo{SID: "txo_0", Owner: "mallory", Amount: 9999}
	if err := w.RegisterTxo(dup); err != nil {
		t.Fatal(err)
	}
	txo, err := w.Txo("txo_0")
	if err != nil {
		t.Fatal(err)
	}
	if txo.Owner != "alice" || txo.Amount != 100 {
		t.Errorf("Expected original row to survive re-registration, got %s %d", txo.Owner, txo.Amount)
	}

	all, err := w.ListTxos(models.TxoFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 txos, got %d", len(all))
	}
	for i, sid := range []string{"txo_2", "txo_1", "txo_0"} {
		if all[i].SID != sid {
			t.Errorf("Expected %s at position %d, got %s", sid, i, all[i].SID)
		}
	}

	aliceTxos, err := w.ListTxos(models.TxoFilter{Owner: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(aliceTxos) != 2 {
		t.Fatalf("Expected 2 txos for alice, got %d", len(aliceTxos))
	}

	if err := w.MarkSpent("txo_1"); err != nil {
		t.Fatal(err)
	}
	unspent, err := w.ListTxos(models.TxoFilter{Owner: "alice", UnspentOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(unspent) != 1 || unspent[0].SID != "txo_0" {
		t.Fatalf("Expected only txo_0 unspent for alice, got %d", len(unspent))
	}

	// Spending twice or spending an unknown sid is an error.
	if err := w.MarkSpent("txo_1"); err != ErrTxoNotFound {
		t.Errorf("Expected ErrTxoNotFound for double spend, got %v", err)
	}
	if err := w.MarkSpent("txo_missing"); err != ErrTxoNotFound {
		t.Errorf("Expected ErrTxoNotFound, got %v", err)
	}
	if _, err := w.Txo("txo_missing"); err != ErrTxoNotFound {
		t.Errorf("Expected ErrTxoNotFound, got %v", err)
	}
}
