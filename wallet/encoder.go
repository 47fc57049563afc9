package wallet

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/veilledger/veil/models"
)

// TransferRequest is the typed form of one transfer operation. The CLI
// collects these fields from its interactive prompts; the field order
// there is a stable protocol surface but internally the request is
// just this struct.
type TransferRequest struct {
	// TxoSID selects the unspent output to consume.
	TxoSID string

	// Amount is paid to the receiver. ChangeAmount is returned to the
	// sender; zero means no change output is emitted.
	Amount       uint64
	ChangeAmount uint64

	// AssetType is only consulted when the input's asset type is
	// hidden and the input is not being unlocked, in which case the
	// sender must state the asset being moved.
	AssetType string

	// Confidentiality policy applied to both produced outputs.
	AmountConfidential bool
	AssetConfidential  bool

	// Sender is the local identity that owns the input.
	Sender string

	// Receiver is a local identity name when ReceiverLocal is true,
	// otherwise the receiver's wallet address.
	Receiver      string
	ReceiverLocal bool

	// ReceiverBoxKey is the remote receiver's curve25519 public key,
	// required to seal a confidential payment for a remote receiver.
	// The receiver's secret is never needed to encode.
	ReceiverBoxKey []byte

	// Unlock decrypts a confidential input with the sender's own box
	// key before encoding so the true input amount is known locally.
	Unlock bool
}

// encodeTransfer validates the request against the txo store and the
// keychain and produces a transfer operation with a payment output and
// (for nonzero change) a change output. Both outputs always carry the
// same confidentiality flags.
//
// Whether amount+change actually fits in the input is not decided
// here: a confidential input that was not unlocked has no locally
// known amount, so short inputs surface at finalize time as
// ErrInsufficientFunds instead.
func (w *Wallet) encodeTransfer(req *TransferRequest) (*models.TransferOperation, error) {
	sender, err := w.keychain.Identity(req.Sender)
	if err != nil {
		return nil, err
	}

	txo, err := w.Txo(req.TxoSID)
	if err == ErrTxoNotFound {
		return nil, ErrInvalidTxo(req.TxoSID)
	} else if err != nil {
		return nil, err
	}
	if txo.Spent {
		return nil, ErrInvalidTxo(req.TxoSID)
	}
	if txo.Owner != sender.Address() {
		return nil, ErrNotOwner{SID: req.TxoSID, Sender: req.Sender}
	}

	input, err := w.resolveInput(req, txo, sender)
	if err != nil {
		return nil, err
	}

	recvAddr, recvBoxKey, err := w.resolveReceiver(req)
	if err != nil {
		return nil, err
	}

	confidential := req.AmountConfidential || req.AssetConfidential

	payment, err := buildOutput(recvAddr, recvBoxKey, req.Amount, input.AssetType, req, confidential)
	if err != nil {
		return nil, err
	}

	outputs := []models.Output{*payment}
	if req.ChangeAmount > 0 {
		change, err := buildOutput(sender.Address(), sender.BoxPub, req.ChangeAmount, input.AssetType, req, confidential)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *change)
	}

	return &models.TransferOperation{
		Sender:  sender.Address(),
		Inputs:  []models.TxoRef{*input},
		Outputs: outputs,
	}, nil
}

// resolveInput determines the amount and asset type being consumed.
// For a confidential input the sender either unlocks it with their own
// box key, or states the values and lets the ledger be the judge.
func (w *Wallet) resolveInput(req *TransferRequest, txo *models.Txo, sender *models.Identity) (*models.TxoRef, error) {
	ref := &models.TxoRef{SID: txo.SID}

	switch {
	case txo.Confidential() && req.Unlock:
		record, err := w.keychain.Unseal(sender.Name, txo.Ciphertext)
		if err != nil {
			return nil, err
		}
		ref.Amount = record.Amount
		ref.AssetType = record.AssetType
	case txo.Confidential():
		// Not unlocked: take the caller's claimed values. The sum is
		// what the outputs must balance against; the ledger verifies
		// the commitment on submission.
		ref.Amount = req.Amount + req.ChangeAmount
		ref.AssetType = req.AssetType
		if !txo.AssetConfidential && txo.AssetType != "" {
			ref.AssetType = txo.AssetType
		}
	default:
		ref.Amount = txo.Amount
		ref.AssetType = txo.AssetType
	}
	return ref, nil
}

// resolveReceiver returns the payment output's recipient address and,
// for confidential transfers, the box key to seal the record to.
func (w *Wallet) resolveReceiver(req *TransferRequest) (string, []byte, error) {
	if req.ReceiverLocal {
		receiver, err := w.keychain.Identity(req.Receiver)
		if err != nil {
			return "", nil, err
		}
		return receiver.Address(), receiver.BoxPub, nil
	}
	return req.Receiver, req.ReceiverBoxKey, nil
}

// buildOutput produces a single output under the request's
// confidentiality policy. Confidential outputs carry a record sealed
// to the recipient's box key plus a commitment; the plaintext fields
// are retained locally for balance checking and stripped from the wire
// form at finalize.
func buildOutput(recipient string, boxKey []byte, amount uint64, assetType string, req *TransferRequest, confidential bool) (*models.Output, error) {
	out := &models.Output{
		Recipient:          recipient,
		Amount:             amount,
		AssetType:          assetType,
		AmountConfidential: req.AmountConfidential,
		AssetConfidential:  req.AssetConfidential,
	}
	if confidential {
		record := &models.TxoRecord{Amount: amount, AssetType: assetType}
		ciphertext, err := SealRecord(boxKey, record)
		if err != nil {
			return nil, err
		}
		out.Ciphertext = ciphertext
		out.Commitment = commitRecord(record, ciphertext)
	}
	return out, nil
}

// commitRecord computes the opaque commitment the ledger uses to check
// balance without seeing the plaintext. The ciphertext's nonce prefix
// doubles as the blinding salt.
func commitRecord(record *models.TxoRecord, ciphertext []byte) []byte {
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], record.Amount)

	h := sha256.New()
	h.Write(amt[:])
	h.Write([]byte(record.AssetType))
	if len(ciphertext) >= nonceBytes {
		h.Write(ciphertext[:nonceBytes])
	}
	return h.Sum(nil)
}
