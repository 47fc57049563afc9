package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrBuilderNotFound is returned when operating on a builder name
	// that was never opened or has already been removed.
	ErrBuilderNotFound = errors.New("builder not found")

	// ErrBuilderExists is returned when opening a builder with a name
	// that is already in use.
	ErrBuilderExists = errors.New("builder already exists")

	// ErrBuilderFinalized is returned when mutating a builder that has
	// already been finalized.
	ErrBuilderFinalized = errors.New("builder is finalized")

	// ErrNoOperations is returned when finalizing a builder with no
	// transfer operations.
	ErrNoOperations = errors.New("builder has no operations")

	// ErrTxoNotFound is returned when a referenced txo is unknown to
	// the store or has already been spent.
	ErrTxoNotFound = errors.New("txo not found")

	// ErrTxNotFound is returned when a transaction id is unknown.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrIdentityNotFound is returned when a named identity does not
	// exist in the keychain.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityExists is returned when generating an identity with a
	// name that is already in use.
	ErrIdentityExists = errors.New("identity already exists")

	// ErrAssetExists is returned when defining an asset with a code
	// that is already in use.
	ErrAssetExists = errors.New("asset already exists")

	// ErrAssetNotFound is returned when issuing an undefined asset.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrDecryptionFailed is returned when a confidential record cannot
	// be unsealed with the presented key.
	ErrDecryptionFailed = errors.New("failed to decrypt confidential record")

	// ErrMissingReceiverKey is returned when encoding a confidential
	// transfer to a remote receiver without the receiver's public box
	// key. The receiver's secret key is never required.
	ErrMissingReceiverKey = errors.New("receiver box key required for confidential output")
)

// ErrInvalidTxo identifies a transfer input which is unknown, spent,
// or referenced more than once within a single transaction.
type ErrInvalidTxo string

func (e ErrInvalidTxo) Error() string {
	return fmt.Sprintf("invalid txo: %s", string(e))
}

// ErrNotOwner is returned when a transfer input is not owned by the
// stated sender.
type ErrNotOwner struct {
	SID    string
	Sender string
}

func (e ErrNotOwner) Error() string {
	return fmt.Sprintf("txo %s is not owned by %s", e.SID, e.Sender)
}

// ErrUnbalanced is returned at finalize time when the input total for
// an asset does not match the output total.
type ErrUnbalanced struct {
	AssetType string
	In        uint64
	Out       uint64
}

func (e ErrUnbalanced) Error() string {
	return fmt.Sprintf("unbalanced transaction: asset %s inputs %d outputs %d", e.AssetType, e.In, e.Out)
}

// ErrInsufficientFunds is returned at finalize time when the outputs
// for an asset exceed the available inputs.
type ErrInsufficientFunds struct {
	AssetType string
	In        uint64
	Out       uint64
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: asset %s inputs %d outputs %d", e.AssetType, e.In, e.Out)
}
