package cmd

import (
	"context"
	"fmt"

	"github.com/veilledger/veil/models"
	"github.com/veilledger/veil/wallet"
)

// InitTransaction opens a new named transaction builder bound to the
// ledger's current state.
type InitTransaction struct {
	Args struct {
		Name string `positional-arg-name:"name" description:"Name for the new transaction builder"`
	} `positional-args:"yes" required:"yes"`
}

// Execute opens the builder.
func (x *InitTransaction) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	builder, err := w.OpenBuilder(context.Background(), x.Args.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Opened builder %q at ledger state %s\n", builder.Name, builder.SnapshotToken)
	return nil
}

// TransferAssets adds a transfer operation to an open builder. The
// operation's fields are collected from interactive prompts; the
// prompt order is a stable surface that automation depends on.
type TransferAssets struct {
	Builder string `long:"builder" description:"Name of the transaction builder to add the transfer to" required:"true"`
}

// Execute prompts for the transfer fields and adds the operation.
func (x *TransferAssets) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	req := &wallet.TransferRequest{}

	if req.Amount, err = promptUint(stdin, "Amount to transfer"); err != nil {
		return err
	}
	if req.ChangeAmount, err = promptUint(stdin, "Change amount"); err != nil {
		return err
	}
	if req.TxoSID, err = promptString(stdin, "Sid of the txo to spend"); err != nil {
		return err
	}
	if req.AmountConfidential, err = promptBool(stdin, "Hide the amount"); err != nil {
		return err
	}
	if req.AssetConfidential, err = promptBool(stdin, "Hide the asset type"); err != nil {
		return err
	}
	if req.Sender, err = promptString(stdin, "Sender identity"); err != nil {
		return err
	}
	if req.Receiver, err = promptString(stdin, "Receiver"); err != nil {
		return err
	}
	if req.ReceiverLocal, err = promptBool(stdin, "Is the receiver a local identity"); err != nil {
		return err
	}
	if req.Unlock, err = promptBool(stdin, "Unlock the input with your key"); err != nil {
		return err
	}

	// Conditional follow-ups. A confidential payment to a remote
	// receiver needs the receiver's public box key; a hidden input
	// that is not being unlocked needs the asset type stated.
	if !req.ReceiverLocal && (req.AmountConfidential || req.AssetConfidential) {
		if req.ReceiverBoxKey, err = promptHex(stdin, "Receiver box key (hex)"); err != nil {
			return err
		}
	}
	if !req.Unlock {
		txo, err := w.Txo(req.TxoSID)
		if err == nil && txo.AssetConfidential {
			if req.AssetType, err = promptString(stdin, "Asset type of the input"); err != nil {
				return err
			}
		}
	}

	if err := w.AddTransfer(x.Builder, req); err != nil {
		return err
	}
	fmt.Printf("Added transfer to builder %q\n", x.Builder)
	return nil
}

// BuildTransaction finalizes a builder into an immutable, signed
// transaction ready for submission.
type BuildTransaction struct {
	Builder string `long:"builder" description:"Name of the transaction builder to finalize" required:"true"`
}

// Execute finalizes the builder and prints the transaction id.
func (x *BuildTransaction) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	ftx, err := w.Finalize(x.Builder)
	if err != nil {
		return err
	}
	fmt.Printf("Built transaction %s\n", ftx.TxID)
	return nil
}

// SubmitTx submits a finalized transaction to the ledger.
type SubmitTx struct {
	Args struct {
		TxID string `positional-arg-name:"tx-id" description:"Id of the transaction to submit"`
	} `positional-args:"yes" required:"yes"`
}

// Execute submits the transaction and reports the outcome. Submission
// tolerates one transient network failure; re-running the command for
// a transaction the ledger already accepted returns the prior result.
func (x *SubmitTx) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	status, err := w.Submit(context.Background(), x.Args.TxID)
	if err != nil {
		return err
	}

	switch status.Status {
	case models.TxStatusCommitted:
		fmt.Printf("Transaction %s committed\n", x.Args.TxID)
		for _, sid := range status.TxoSIDs {
			fmt.Printf("New txo: %s\n", sid)
		}
	case models.TxStatusRejected:
		fmt.Printf("Transaction %s rejected: %s\n", x.Args.TxID, status.Reason)
	default:
		fmt.Printf("Transaction %s accepted, commit pending. Re-run submit to check again.\n", x.Args.TxID)
	}
	return nil
}
