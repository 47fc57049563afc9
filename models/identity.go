package models

import (
	"encoding/hex"
	"time"
)

// Identity is a named key pair held by this wallet. The signing key is
// an ed25519 key used to sign finalized transactions. The box key is a
// curve25519 key used to unseal confidential output records addressed
// to this identity.
//
// Both private keys are derived from the identity's mnemonic seed and
// can be recovered from it.
type Identity struct {
	Name string `gorm:"primary_key" json:"name"`

	SignPub  []byte `json:"signPub"`
	SignPriv []byte `json:"-"`
	BoxPub   []byte `json:"boxPub"`
	BoxPriv  []byte `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// Address returns the identity's public wallet address. Txo ownership
// is recorded against this string.
func (i *Identity) Address() string {
	return hex.EncodeToString(i.SignPub)
}
