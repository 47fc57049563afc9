package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/jinzhu/gorm"
	"github.com/veilledger/veil/database"
	"github.com/veilledger/veil/models"
)

// TxBuilder is a named, in-progress transaction accumulating transfer
// operations. Exactly one builder exists per name at a time. Builders
// are bound to a ledger state token at open time and move through the
// lifecycle open -> finalized -> removed on submit.
type TxBuilder struct {
	Name          string
	State         string
	SnapshotToken string
	TxID          string
	Ops           []models.TransferOperation
}

// OpenBuilder creates a new empty transaction builder bound to the
// ledger's current state. It returns ErrBuilderExists if the name is
// already in use.
func (w *Wallet) OpenBuilder(ctx context.Context, name string) (*TxBuilder, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	token, err := w.client.LedgerState(ctx)
	if err != nil {
		return nil, err
	}

	builder := &TxBuilder{
		Name:          name,
		State:         models.BuilderStateOpen,
		SnapshotToken: token,
	}
	err = w.db.Update(func(tx database.Tx) error {
		var existing models.BuilderRecord
		if err := tx.Read().Where("name = ?", name).First(&existing).Error; err == nil {
			return ErrBuilderExists
		} else if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		return saveBuilder(tx, builder)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Opened transaction builder %q at ledger state %s", name, token)
	return builder, nil
}

// Builder returns the builder with the given name.
func (w *Wallet) Builder(name string) (*TxBuilder, error) {
	var record models.BuilderRecord
	err := w.db.View(func(tx database.Tx) error {
		return tx.Read().Where("name = ?", name).First(&record).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrBuilderNotFound
	} else if err != nil {
		return nil, err
	}
	return builderFromRecord(&record)
}

// AddTransfer encodes the transfer request and appends the resulting
// operation to the named builder. The txo store is not touched; all
// accumulated state can still be abandoned without side effects.
func (w *Wallet) AddTransfer(name string, req *TransferRequest) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	builder, err := w.Builder(name)
	if err != nil {
		return err
	}
	if builder.State != models.BuilderStateOpen {
		return ErrBuilderFinalized
	}

	op, err := w.encodeTransfer(req)
	if err != nil {
		return err
	}
	builder.Ops = append(builder.Ops, *op)

	return w.db.Update(func(tx database.Tx) error {
		return saveBuilder(tx, builder)
	})
}

// CancelBuilder discards an open builder. Cancellation touches nothing
// outside the wallet's own database.
func (w *Wallet) CancelBuilder(name string) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	builder, err := w.Builder(name)
	if err != nil {
		return err
	}
	if builder.State != models.BuilderStateOpen {
		return ErrBuilderFinalized
	}
	return w.db.Update(func(tx database.Tx) error {
		return tx.Delete("name", name, nil, &models.BuilderRecord{})
	})
}

// Finalize validates that the builder's operations balance, signs the
// transaction body with each sending identity, assigns the transaction
// id and transitions the builder to the finalized state. This is the
// only irreversible builder transition.
//
// For every asset touched the output total must equal the input total.
// Outputs exceeding inputs surface as ErrInsufficientFunds, which also
// covers an unlocked confidential input that turned out to be smaller
// than the caller claimed. An input referenced twice within the same
// transaction fails with ErrInvalidTxo.
func (w *Wallet) Finalize(name string) (*models.FinalizedTransaction, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	builder, err := w.Builder(name)
	if err != nil {
		return nil, err
	}
	if builder.State != models.BuilderStateOpen {
		return nil, ErrBuilderFinalized
	}
	if len(builder.Ops) == 0 {
		return nil, ErrNoOperations
	}

	if err := checkBalance(builder.Ops); err != nil {
		return nil, err
	}

	body := models.TxBody{
		SnapshotToken: builder.SnapshotToken,
		Operations:    builder.Ops,
	}
	wire := wireBody(body)

	serialized, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(serialized)
	txID := hex.EncodeToString(digest[:])

	signatures, err := w.signBody(serialized, builder.Ops)
	if err != nil {
		return nil, err
	}

	ftx := &models.FinalizedTransaction{
		TxID:       txID,
		Body:       wire,
		Signatures: signatures,
	}
	raw, err := json.Marshal(ftx)
	if err != nil {
		return nil, err
	}

	builder.State = models.BuilderStateFinalized
	builder.TxID = txID

	err = w.db.Update(func(tx database.Tx) error {
		if err := saveBuilder(tx, builder); err != nil {
			return err
		}
		return tx.Save(&models.TransactionRecord{
			TxID:   txID,
			Status: models.TxStatusPending,
			Raw:    raw,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Finalized builder %q as transaction %s", name, txID)
	return ftx, nil
}

// checkBalance verifies per-asset input/output totals and rejects
// duplicate inputs.
func checkBalance(ops []models.TransferOperation) error {
	var (
		inTotals  = make(map[string]uint64)
		outTotals = make(map[string]uint64)
		seen      = make(map[string]bool)
	)
	for _, op := range ops {
		for _, in := range op.Inputs {
			if seen[in.SID] {
				return ErrInvalidTxo(in.SID)
			}
			seen[in.SID] = true
			inTotals[in.AssetType] += in.Amount
		}
		for _, out := range op.Outputs {
			outTotals[out.AssetType] += out.Amount
		}
	}

	for asset, out := range outTotals {
		in := inTotals[asset]
		if out > in {
			return ErrInsufficientFunds{AssetType: asset, In: in, Out: out}
		}
	}
	for asset, in := range inTotals {
		out := outTotals[asset]
		if in != out {
			return ErrUnbalanced{AssetType: asset, In: in, Out: out}
		}
	}
	return nil
}

// signBody collects one signature over the serialized body per
// distinct sending identity.
func (w *Wallet) signBody(serialized []byte, ops []models.TransferOperation) ([]models.OpSignature, error) {
	var (
		signatures []models.OpSignature
		signed     = make(map[string]bool)
	)
	for _, op := range ops {
		if signed[op.Sender] {
			continue
		}
		signed[op.Sender] = true

		sig, err := w.keychain.SignByAddress(op.Sender, serialized)
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, models.OpSignature{
			Address:   op.Sender,
			Signature: sig,
		})
	}
	return signatures, nil
}

// wireBody strips the plaintext amount and asset type from
// confidential outputs, leaving only the sealed record and the
// commitment. The transaction id is computed over this form.
func wireBody(body models.TxBody) models.TxBody {
	wire := models.TxBody{
		SnapshotToken: body.SnapshotToken,
		Operations:    make([]models.TransferOperation, len(body.Operations)),
	}
	for i, op := range body.Operations {
		wireOp := models.TransferOperation{
			Sender:  op.Sender,
			Inputs:  append([]models.TxoRef(nil), op.Inputs...),
			Outputs: make([]models.Output, len(op.Outputs)),
		}
		for j, out := range op.Outputs {
			if out.AmountConfidential {
				out.Amount = 0
			}
			if out.AssetConfidential {
				out.AssetType = ""
			}
			wireOp.Outputs[j] = out
		}
		wire.Operations[i] = wireOp
	}
	return wire
}

func (w *Wallet) builderByTxID(txID string) (*TxBuilder, error) {
	var record models.BuilderRecord
	err := w.db.View(func(tx database.Tx) error {
		return tx.Read().Where("tx_id = ?", txID).First(&record).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrBuilderNotFound
	} else if err != nil {
		return nil, err
	}
	return builderFromRecord(&record)
}

func saveBuilder(tx database.Tx, builder *TxBuilder) error {
	ops, err := json.Marshal(builder.Ops)
	if err != nil {
		return err
	}
	return tx.Save(&models.BuilderRecord{
		Name:          builder.Name,
		State:         builder.State,
		SnapshotToken: builder.SnapshotToken,
		TxID:          builder.TxID,
		Ops:           ops,
	})
}

func builderFromRecord(record *models.BuilderRecord) (*TxBuilder, error) {
	builder := &TxBuilder{
		Name:          record.Name,
		State:         record.State,
		SnapshotToken: record.SnapshotToken,
		TxID:          record.TxID,
	}
	if len(record.Ops) > 0 {
		if err := json.Unmarshal(record.Ops, &builder.Ops); err != nil {
			return nil, err
		}
	}
	return builder, nil
}
