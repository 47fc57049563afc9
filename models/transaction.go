package models

import (
	"time"
)

// Transaction status values recorded in the database.
const (
	TxStatusPending   = "PENDING"
	TxStatusCommitted = "COMMITTED"
	TxStatusRejected  = "REJECTED"
)

// TxoRef references a transaction output consumed as an input. The
// amount and asset type are the plaintext values as known to the
// sender at encode time. For a confidential input which was not
// unlocked these are the sender's claimed values and the ledger has
// the final say.
type TxoRef struct {
	SID       string `json:"sid"`
	Amount    uint64 `json:"amount"`
	AssetType string `json:"assetType"`
}

// Output describes a single transaction output to be created on the
// ledger. For confidential outputs the plaintext amount and asset
// type are omitted from the serialized form and the sealed record
// plus commitment are sent instead.
type Output struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,omitempty"`
	AssetType string `json:"assetType,omitempty"`

	AmountConfidential bool `json:"amountConfidential"`
	AssetConfidential  bool `json:"assetConfidential"`

	Ciphertext []byte `json:"ciphertext,omitempty"`
	Commitment []byte `json:"commitment,omitempty"`
}

// TransferOperation is a single encoded transfer: one or more inputs
// and the payment/change outputs they fund. Sender is the wallet
// address whose identity signs for the consumed inputs.
type TransferOperation struct {
	Sender  string   `json:"sender"`
	Inputs  []TxoRef `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// TxBody is the canonical, deterministic transaction payload. The
// transaction ID is the hex encoded sha256 hash of its JSON
// serialization, so resubmitting the same body always yields the
// same ID.
type TxBody struct {
	SnapshotToken string              `json:"snapshotToken"`
	Operations    []TransferOperation `json:"operations"`
}

// OpSignature is an ed25519 signature over the transaction body by
// one of the sending identities.
type OpSignature struct {
	Address   string `json:"address"`
	Signature []byte `json:"signature"`
}

// FinalizedTransaction is an immutable snapshot of a builder's
// operations, produced exactly once at finalize time.
type FinalizedTransaction struct {
	TxID       string        `json:"txid"`
	Body       TxBody        `json:"body"`
	Signatures []OpSignature `json:"signatures"`
}

// TransactionRecord is the database row tracking a finalized
// transaction through submission.
type TransactionRecord struct {
	TxID   string `gorm:"primary_key" json:"txid"`
	Status string `gorm:"index" json:"status"`

	// Raw is the JSON serialized FinalizedTransaction.
	Raw []byte `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// SubmissionResult is the ledger's response to a submitted
// transaction.
type SubmissionResult struct {
	Accepted bool   `json:"accepted"`
	TxID     string `json:"txid,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// TxnStatus is the ledger's view of a previously accepted
// transaction. When the status is committed TxoSIDs holds the
// ledger-assigned identifiers for the transaction's outputs, in
// output order.
type TxnStatus struct {
	Status  string   `json:"status"`
	TxoSIDs []string `json:"txoSids,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}
