package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/veilledger/veil/models"
)

func TestWallet_BuilderLifecycle(t *testing.T) {
	w, client, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}
	client.State = "state_42"

	builder, err := w.OpenBuilder(context.Background(), "tx1")
	if err != nil {
		t.Fatal(err)
	}
	if builder.State != models.BuilderStateOpen {
		t.Errorf("Expected open state, got %s", builder.State)
	}
	if builder.SnapshotToken != "state_42" {
		t.Errorf("Expected builder bound to state_42, got %s", builder.SnapshotToken)
	}

	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != ErrBuilderExists {
		t.Errorf("Expected ErrBuilderExists, got %v", err)
	}

	if err := w.CancelBuilder("tx1"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Builder("tx1"); err != ErrBuilderNotFound {
		t.Errorf("Expected ErrBuilderNotFound after cancel, got %v", err)
	}
	if err := w.CancelBuilder("tx1"); err != ErrBuilderNotFound {
		t.Errorf("Expected ErrBuilderNotFound, got %v", err)
	}
}

func TestWallet_AddTransferBuilderErrors(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	err = w.AddTransfer("nope", &TransferRequest{})
	if err != ErrBuilderNotFound {
		t.Errorf("Expected ErrBuilderNotFound, got %v", err)
	}

	finalizedTransfer(t, w)
	err = w.AddTransfer("tx1", &TransferRequest{})
	if err != ErrBuilderFinalized {
		t.Errorf("Expected ErrBuilderFinalized, got %v", err)
	}
}

func TestWallet_FinalizeNoOperations(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize("tx1"); err != ErrNoOperations {
		t.Errorf("Expected ErrNoOperations, got %v", err)
	}
}

func TestWallet_FinalizeInsufficientFunds(t *testing.T) {
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
	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 1000, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	err = w.AddTransfer("tx1", &TransferRequest{
		TxoSID:        issued.SID,
		Amount:        900,
		ChangeAmount:  200,
		Sender:        "alice",
		Receiver:      "bob",
		ReceiverLocal: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.Finalize("tx1")
	insufficient, ok := err.(ErrInsufficientFunds)
	if !ok {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if insufficient.In != 1000 || insufficient.Out != 1100 {
		t.Errorf("Expected in 1000 out 1100, got in %d out %d", insufficient.In, insufficient.Out)
	}

	// The builder stays open after a failed finalize.
	builder, err := w.Builder("tx1")
	if err != nil {
		t.Fatal(err)
	}
	if builder.State != models.BuilderStateOpen {
		t.Errorf("Expected builder to remain open, got %s", builder.State)
	}
}

func TestWallet_FinalizeUnbalanced(t *testing.T) {
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
	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 1000, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	err = w.AddTransfer("tx1", &TransferRequest{
		TxoSID:        issued.SID,
		Amount:        100,
		ChangeAmount:  800,
		Sender:        "alice",
		Receiver:      "bob",
		ReceiverLocal: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.Finalize("tx1")
	unbalanced, ok := err.(ErrUnbalanced)
	if !ok {
		t.Fatalf("Expected ErrUnbalanced, got %v", err)
	}
	if unbalanced.In != 1000 || unbalanced.Out != 900 {
		t.Errorf("Expected in 1000 out 900, got in %d out %d", unbalanced.In, unbalanced.Out)
	}
}

func TestWallet_FinalizeDoubleSpentInput(t *testing.T) {
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
	if _, err := w.DefineAsset("alice", "veil_token", ""); err != nil {
		t.Fatal(err)
	}
	issued, err := w.IssueAsset("alice", "veil_token", 1000, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenBuilder(context.Background(), "tx1"); err != nil {
		t.Fatal(err)
	}
	req := &TransferRequest{
		TxoSID:        issued.SID,
		Amount:        1000,
		Sender:        "alice",
		Receiver:      "bob",
		ReceiverLocal: true,
	}
	if err := w.AddTransfer("tx1", req); err != nil {
		t.Fatal(err)
	}
	if err := w.AddTransfer("tx1", req); err != nil {
		t.Fatal(err)
	}

	_, err = w.Finalize("tx1")
	if _, ok := err.(ErrInvalidTxo); !ok {
		t.Fatalf("Expected ErrInvalidTxo for duplicate input, got %v", err)
	}
}

func TestWallet_FinalizeTxIDAndSignature(t *testing.T) {
	w, _, err := MockWallet()
	if err != nil {
		t.Fatal(err)
	}

	_, ftx := finalizedTransfer(t, w)

	serialized, err := json.Marshal(ftx.Body)
	if err != nil {
		t.Fatal(err)
	}
	digest := sha256.Sum256(serialized)
	if ftx.TxID != hex.EncodeToString(digest[:]) {
		t.Error("Expected transaction id to be the hash of the serialized body")
	}

	if len(ftx.Signatures) != 1 {
		t.Fatalf("Expected 1 signature, got %d", len(ftx.Signatures))
	}
	alice, err := w.Keychain().Identity("alice")
	if err != nil {
		t.Fatal(err)
	}
	if ftx.Signatures[0].Address != alice.Address() {
		t.Errorf("Expected signature by %s, got %s", alice.Address(), ftx.Signatures[0].Address)
	}
	if !ed25519.Verify(ed25519.PublicKey(alice.SignPub), serialized, ftx.Signatures[0].Signature) {
		t.Error("Expected a valid signature over the serialized body")
	}

	builder, err := w.Builder("tx1")
	if err != nil {
		t.Fatal(err)
	}
	if builder.State != models.BuilderStateFinalized {
		t.Errorf("Expected finalized builder state, got %s", builder.State)
	}
	if builder.TxID != ftx.TxID {
		t.Errorf("Expected builder to record tx id %s, got %s", ftx.TxID, builder.TxID)
	}
}

func TestWallet_FinalizeStripsConfidentialFields(t *testing.T) {
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

	outputs := ftx.Body.Operations[0].Outputs
	if len(outputs) != 2 {
		t.Fatalf("Expected payment and change outputs, got %d", len(outputs))
	}
	for i, out := range outputs {
		if out.Amount != 0 {
			t.Errorf("Expected output %d amount stripped from wire form, got %d", i, out.Amount)
		}
		if out.AssetType != "" {
			t.Errorf("Expected output %d asset type stripped from wire form, got %s", i, out.AssetType)
		}
		if len(out.Ciphertext) == 0 || len(out.Commitment) == 0 {
			t.Errorf("Expected output %d to carry ciphertext and commitment", i)
		}
		if !out.AmountConfidential || !out.AssetConfidential {
			t.Errorf("Expected output %d to share the confidentiality policy", i)
		}
	}
}
