package models

import (
	"time"
)

// Txo is an unspent (or spent) transaction output known to this wallet.
//
// For confidential outputs the plaintext Amount and AssetType columns
// are zero valued and the true record is held in Ciphertext, sealed to
// the owner's box key. The Commitment is the opaque value the ledger
// uses to verify balance without seeing the plaintext.
type Txo struct {
	// The column name is pinned because gorm's name conversion would
	// otherwise map SID to s_id.
	SID string `gorm:"column:sid;primary_key" json:"sid"`

	Owner     string `gorm:"index" json:"owner"`
	AssetType string `json:"assetType,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`

	AmountConfidential bool `json:"amountConfidential"`
	AssetConfidential  bool `json:"assetConfidential"`

	Ciphertext []byte `json:"ciphertext,omitempty"`
	Commitment []byte `json:"commitment,omitempty"`

	Spent bool   `gorm:"index" json:"spent"`
	TxID  string `json:"txid,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Confidential returns true if either the amount or the asset type
// of this output is hidden.
func (t *Txo) Confidential() bool {
	return t.AmountConfidential || t.AssetConfidential
}

// TxoFilter restricts the set of outputs returned by a store listing.
// A zero value filter matches everything.
type TxoFilter struct {
	// Owner, if set, restricts results to outputs owned by the given
	// wallet address.
	Owner string

	// UnspentOnly, if true, excludes outputs which have been consumed
	// as transaction inputs.
	UnspentOnly bool
}

// TxoRecord is the plaintext payload sealed inside a confidential
// output's ciphertext.
type TxoRecord struct {
	Amount    uint64 `json:"amount"`
	AssetType string `json:"assetType"`
}
