package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/veilledger/veil/models"
)

func TestWallet_DefineAndIssueAsset(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := w.Keychain().GenerateIdentity("alice"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := w.Keychain().GenerateIdentity("bob"); err != nil {
		t.Fatal(err)
	}

	asset, err := w.DefineAsset("alice", "veil_token", "test token")
	if err != nil {
		t.Fatal(err)
	}
	if asset.Code != "veil_token" {
		t.Errorf("Expected asset code veil_token, got %s", asset.Code)
	}

	if _, err := w.DefineAsset("bob", "veil_token", ""); err != ErrAssetExists {
		t.Errorf("Expected ErrAssetExists, got %v", err)
	}
	if _, err := w.IssueAsset("alice", "no_such_asset", 100, false); err != ErrAssetNotFound {
		t.Errorf("Expected ErrAssetNotFound, got %v", err)
	}
	if _, err := w.IssueAsset("bob", "veil_token", 100, false); err == nil {
		t.Error("Expected issuance by non-issuer to fail")
	} else if _, ok := err.(ErrNotOwner); !ok {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}

	txo, err := w.IssueAsset("alice", "veil_token", 10000, false)
	if err != nil {
		t.Fatal(err)
	}
	if txo.Amount != 10000 || txo.AssetType != "veil_token" {
		t.Errorf("Expected 10000 veil_token, got %d %s", txo.Amount, txo.AssetType)
	}
	if txo.Spent {
		t.Error("Expected issued txo to be unspent")
	}
}

func TestWallet_IssueConfidentialAsset(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := w.Keychain().GenerateIdentity("alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}

	txo, err := w.IssueAsset("alice", "veil_token", 5000, true)
	if err != nil {
		t.Fatal(err)
	}
	if txo.Amount != 0 {
		t.Errorf("Expected no plaintext amount on confidential txo, got %d", txo.Amount)
	}
	if len(txo.Ciphertext) == 0 || len(txo.Commitment) == 0 {
		t.Error("Expected ciphertext and commitment on confidential txo")
	}

	record, err := w.Keychain().Unseal("alice", txo.Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if record.Amount != 5000 || record.AssetType != "veil_token" {
		t.Errorf("Expected sealed record of 5000 veil_token, got %d %s", record.Amount, record.AssetType)
	}
}

func TestWallet_TransferEndToEnd(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	alice, _, err := w.Keychain().GenerateIdentity("alice")
	if err != nil {
		t.Fatal(err)
	}
	bob, _, err := w.Keychain().GenerateIdentity("bob")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 10000, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	err = w.AddTransfer("tx1", &TransferRequest{
		TxoSID:        issued.SID,
		Amount:        100,
		ChangeAmount:  9900,
		Sender:        "alice",
		Receiver:      "bob",
		ReceiverLocal: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	ftx, err := w.Finalize("tx1")
	if err != nil {
		t.Fatal(err)
	}
	if ftx.TxID == "" {
		t.Fatal("Expected a transaction id")
	}

	status, err := w.Submit(context.Background(), ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.TxStatusCommitted {
		t.Fatalf("Expected committed status, got %s", status.Status)
	}

	spent, err := w.Txo(issued.SID)
	if err != nil {
		t.Fatal(err)
	}
	if !spent.Spent {
		t.Error("Expected input to be marked spent")
	}

	bobTxos, err := w.ListTxos(models.TxoFilter{Owner: bob.Address(), UnspentOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(bobTxos) != 1 {
		t.Fatalf("Expected 1 txo for bob, got %d", len(bobTxos))
	}
	if bobTxos[0].Amount != 100 || bobTxos[0].AssetType != "veil_token" {
		t.Errorf("Expected bob to hold 100 veil_token, got %d %s", bobTxos[0].Amount, bobTxos[0].AssetType)
	}

	aliceTxos, err := w.ListTxos(models.TxoFilter{Owner: alice.Address(), UnspentOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(aliceTxos) != 1 {
		t.Fatalf("Expected 1 unspent txo for alice, got %d", len(aliceTxos))
	}
	if aliceTxos[0].Amount != 9900 {
		t.Errorf("Expected change of 9900, got %d", aliceTxos[0].Amount)
	}

	if _, err := w.Builder("tx1"); err != ErrBuilderNotFound {
		t.Errorf("Expected builder to be removed after submit, got %v", err)
	}
	record, err := w.Transaction(ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.TxStatusCommitted {
		t.Errorf("Expected committed record, got %s", record.Status)
	}
}

func TestWallet_ConfidentialTransferEndToEnd(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := w.Keychain().GenerateIdentity("alice"); err != nil {
		t.Fatal(err)
	}
	bob, _, err := w.Keychain().GenerateIdentity("bob")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 10000, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	err = w.AddTransfer("tx1", &TransferRequest{
		TxoSID:             issued.SID,
		Amount:             100,
		ChangeAmount:       9900,
		AmountConfidential: true,
		AssetConfidential:  true,
		Sender:             "alice",
		Receiver:           "bob",
		ReceiverLocal:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	ftx, err := w.Finalize("tx1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Submit(context.Background(), ftx.TxID); err != nil {
		t.Fatal(err)
	}

	bobTxos, err := w.ListTxos(models.TxoFilter{Owner: bob.Address(), UnspentOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(bobTxos) != 1 {
		t.Fatalf("Expected 1 txo for bob, got %d", len(bobTxos))
	}
	if bobTxos[0].Amount != 0 || bobTxos[0].AssetType != "" {
		t.Error("Expected bob's txo to carry no plaintext amount or asset type")
	}

	record, err := w.Keychain().Unseal("bob", bobTxos[0].Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if record.Amount != 100 || record.AssetType != "veil_token" {
		t.Errorf("Expected sealed record of 100 veil_token, got %d %s", record.Amount, record.AssetType)
	}
}

func TestWallet_SubmitRejected(t *testing.T) {
	w, client, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	issued, ftx := finalizedTransfer(t, w)

	client.SubmitFunc = func(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error) {
		return &models.SubmissionResult{Accepted: false, Reason: "input already spent"}, nil
	}

	status, err := w.Submit(context.Background(), ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.TxStatusRejected {
		t.Fatalf("Expected rejected status, got %s", status.Status)
	}
	if status.Reason != "input already spent" {
		t.Errorf("Expected rejection reason to round trip, got %q", status.Reason)
	}

	txo, err := w.Txo(issued.SID)
	if err != nil {
		t.Fatal(err)
	}
	if txo.Spent {
		t.Error("Expected input of rejected transaction to remain unspent")
	}

	record, err := w.Transaction(ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.TxStatusRejected {
		t.Errorf("Expected rejected record, got %s", record.Status)
	}
	if _, err := w.Builder("tx1"); err != ErrBuilderNotFound {
		t.Errorf("Expected builder to be discarded, got %v", err)
	}
}

func TestWallet_SubmitIdempotent(t *testing.T) {
	w, client, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	_, ftx := finalizedTransfer(t, w)

	var submits int
	client.SubmitFunc = func(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error) {
		submits++
		client.SubmitFunc = nil
		return client.Submit(ctx, tx)
	}

	if _, err := w.Submit(context.Background(), ftx.TxID); err != nil {
		t.Fatal(err)
	}

	// A second submit must not hit the ledger again.
	client.SubmitFunc = func(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error) {
		submits++
		return nil, errors.New("unexpected resubmission")
	}
	status, err := w.Submit(context.Background(), ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.TxStatusCommitted {
		t.Errorf("Expected committed status on resubmit, got %s", status.Status)
	}
	if submits != 1 {
		t.Errorf("Expected exactly 1 ledger submission, got %d", submits)
	}
}

func TestWallet_SubmitPendingThenCommitted(t *testing.T) {
	w, client, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	issued, ftx := finalizedTransfer(t, w)

	client.TxnStatusFunc = func(ctx context.Context, txID string) (*models.TxnStatus, error) {
		return &models.TxnStatus{Status: models.TxStatusPending}, nil
	}

	status, err := w.Submit(context.Background(), ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.TxStatusPending {
		t.Fatalf("Expected pending status, got %s", status.Status)
	}

	txo, err := w.Txo(issued.SID)
	if err != nil {
		t.Fatal(err)
	}
	if txo.Spent {
		t.Error("Expected input to remain unspent while commit is pending")
	}

	// The commit landed; retrying the submit applies it.
	client.TxnStatusFunc = nil
	status, err = w.Submit(context.Background(), ftx.TxID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.TxStatusCommitted {
		t.Fatalf("Expected committed status on retry, got %s", status.Status)
	}
	txo, err = w.Txo(issued.SID)
	if err != nil {
		t.Fatal(err)
	}
	if !txo.Spent {
		t.Error("Expected input to be spent after commit")
	}
}

func TestWallet_SubmitUnknownTransaction(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Submit(context.Background(), "deadbeef"); err != ErrTxNotFound {
		t.Errorf("Expected ErrTxNotFound, got %v", err)
	}
}

// finalizedTransfer builds a wallet state with a single finalized
// 100/9900 transfer from alice to bob in builder "tx1".
func finalizedTransfer(t *testing.T, w *Wallet) (*models.Txo, *models.FinalizedTransaction) {
	t.Helper()

	if _, _, err := w.Keychain().GenerateIdentity("alice"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := w.Keychain().GenerateIdentity("bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 10000, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	err = w.AddTransfer("tx1", &TransferRequest{
		TxoSID:        issued.SID,
		Amount:        100,
		ChangeAmount:  9900,
		Sender:        "alice",
		Receiver:      "bob",
		ReceiverLocal: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	ftx, err := w.Finalize("tx1")
	if err != nil {
		t.Fatal(err)
	}
	return issued, ftx
}
