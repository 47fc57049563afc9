package wallet

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/op/go-logging"
	"github.com/veilledger/veil/database"
	"github.com/veilledger/veil/models"
)

var log = logging.MustGetLogger("WALLET")

const (
	// commitPollAttempts is the number of times Submit polls the ledger
	// for the status of an accepted transaction before giving up and
	// returning a pending status.
	commitPollAttempts = 3

	// commitPollInterval is the delay between status polls.
	commitPollInterval = time.Second
)

// SubmissionClient is the wallet's view of the ledger server. The
// client package provides the production implementation.
type SubmissionClient interface {
	// LedgerState returns an opaque token identifying the ledger's
	// current state. Builders are bound to the token at open time.
	LedgerState(ctx context.Context) (string, error)

	// Submit sends a finalized transaction to the ledger. Submission
	// is idempotent per transaction id: resubmitting an accepted
	// transaction returns the prior acceptance.
	Submit(ctx context.Context, tx *models.FinalizedTransaction) (*models.SubmissionResult, error)

	// TxnStatus returns the ledger's view of a previously accepted
	// transaction.
	TxnStatus(ctx context.Context, txID string) (*models.TxnStatus, error)
}

// Wallet ties together the keychain, the txo store, the transaction
// builders and the submission client for one wallet session.
//
// Builder mutation is serialized with an internal mutex; the database
// provides snapshot consistent reads for everything else.
type Wallet struct {
	db       database.Database
	keychain *Keychain
	client   SubmissionClient

	mtx sync.Mutex
}

// NewWallet returns a Wallet backed by the given database and ledger
// client.
func NewWallet(db database.Database, client SubmissionClient) *Wallet {
	return &Wallet{
		db:       db,
		keychain: NewKeychain(db),
		client:   client,
	}
}

// Keychain returns the wallet's keychain.
func (w *Wallet) Keychain() *Keychain {
	return w.keychain
}

// Identities returns all identities held by this wallet.
func (w *Wallet) Identities() ([]models.Identity, error) {
	return w.keychain.Identities()
}

// DefineAsset records a new asset type issuable by the given identity.
func (w *Wallet) DefineAsset(issuer, code, memo string) (*models.Asset, error) {
	identity, err := w.keychain.Identity(issuer)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		Code:   code,
		Issuer: identity.Address(),
		Memo:   memo,
	}
	err = w.db.Update(func(tx database.Tx) error {
		var existing models.Asset
		if err := tx.Read().Where("code = ?", code).First(&existing).Error; err == nil {
			return ErrAssetExists
		} else if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		return tx.Save(asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Assets returns all defined assets.
func (w *Wallet) Assets() ([]models.Asset, error) {
	var assets []models.Asset
	err := w.db.View(func(tx database.Tx) error {
		return tx.Read().Order("created_at asc").Find(&assets).Error
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// IssueAsset mints new units of a defined asset to its issuer and
// registers the resulting output as unspent. Only the asset's issuer
// may issue.
func (w *Wallet) IssueAsset(issuer, code string, amount uint64, confidential bool) (*models.Txo, error) {
	identity, err := w.keychain.Identity(issuer)
	if err != nil {
		return nil, err
	}

	var asset models.Asset
	err = w.db.View(func(tx database.Tx) error {
		return tx.Read().Where("code = ?", code).First(&asset).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrAssetNotFound
	} else if err != nil {
		return nil, err
	}
	if asset.Issuer != identity.Address() {
		return nil, ErrNotOwner{SID: code, Sender: issuer}
	}

	sid, err := newIssuanceSID(code, identity.Address())
	if err != nil {
		return nil, err
	}
	txo := &models.Txo{
		SID:                sid,
		Owner:              identity.Address(),
		AmountConfidential: confidential,
		AssetConfidential:  false,
	}
	// Only the amount is hidden on a confidential issuance; the asset
	// type stays plaintext.
	txo.AssetType = code
	if confidential {
		record := &models.TxoRecord{Amount: amount, AssetType: code}
		ciphertext, err := SealRecord(identity.BoxPub, record)
		if err != nil {
			return nil, err
		}
		txo.Ciphertext = ciphertext
		txo.Commitment = commitRecord(record, ciphertext)
	} else {
		txo.Amount = amount
	}

	if err := w.RegisterTxo(txo); err != nil {
		return nil, err
	}
	log.Infof("Issued %d of asset %s to %s as %s", amount, code, issuer, txo.SID)
	return txo, nil
}

// Transaction returns the database record for a finalized transaction.
func (w *Wallet) Transaction(txID string) (*models.TransactionRecord, error) {
	var record models.TransactionRecord
	err := w.db.View(func(tx database.Tx) error {
		return tx.Read().Where("tx_id = ?", txID).First(&record).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrTxNotFound
	} else if err != nil {
		return nil, err
	}
	return &record, nil
}

// Submit sends a previously finalized transaction to the ledger and,
// once the ledger reports it committed, applies the result to the txo
// store: inputs are marked spent and the new outputs registered under
// their ledger assigned sids.
//
// Submit is idempotent. Resubmitting a transaction the ledger has
// already accepted returns the prior result, and a submission that
// comes back still pending can be retried by calling Submit again.
func (w *Wallet) Submit(ctx context.Context, txID string) (*models.TxnStatus, error) {
	record, err := w.Transaction(txID)
	if err != nil {
		return nil, err
	}
	if record.Status == models.TxStatusCommitted {
		return &models.TxnStatus{Status: models.TxStatusCommitted}, nil
	}

	var ftx models.FinalizedTransaction
	if err := json.Unmarshal(record.Raw, &ftx); err != nil {
		return nil, err
	}

	result, err := w.client.Submit(ctx, &ftx)
	if err != nil {
		return nil, err
	}

	if !result.Accepted {
		log.Warningf("Transaction %s rejected: %s", txID, result.Reason)
		if err := w.discardRejected(txID, result.Reason); err != nil {
			return nil, err
		}
		return &models.TxnStatus{Status: models.TxStatusRejected, Reason: result.Reason}, nil
	}

	status := &models.TxnStatus{Status: models.TxStatusPending}
	for i := 0; i < commitPollAttempts; i++ {
		status, err = w.client.TxnStatus(ctx, txID)
		if err != nil {
			return nil, err
		}
		if status.Status != models.TxStatusPending {
			break
		}
		select {
		case <-time.After(commitPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	switch status.Status {
	case models.TxStatusCommitted:
		if err := w.applyCommit(txID, status.TxoSIDs); err != nil {
			return nil, err
		}
		log.Infof("Transaction %s committed", txID)
	case models.TxStatusRejected:
		log.Warningf("Transaction %s rejected: %s", txID, status.Reason)
		if err := w.discardRejected(txID, status.Reason); err != nil {
			return nil, err
		}
	default:
		log.Infof("Transaction %s accepted, commit still pending", txID)
	}
	return status, nil
}

// applyCommit marks the transaction's inputs spent and registers its
// outputs as new unspent txos. The ledger assigns output sids in
// output order; if it returned none we fall back to txid derived sids.
func (w *Wallet) applyCommit(txID string, txoSIDs []string) error {
	builder, err := w.builderByTxID(txID)
	if err != nil {
		return err
	}

	return w.db.Update(func(tx database.Tx) error {
		var n int
		for _, op := range builder.Ops {
			for _, in := range op.Inputs {
				if err := markSpent(tx, in.SID); err != nil && err != ErrTxoNotFound {
					return err
				}
			}
			for _, out := range op.Outputs {
				sid := deriveSID(txID, n)
				if n < len(txoSIDs) {
					sid = txoSIDs[n]
				}
				n++

				txo := &models.Txo{
					SID:                sid,
					Owner:              out.Recipient,
					AmountConfidential: out.AmountConfidential,
					AssetConfidential:  out.AssetConfidential,
					Ciphertext:         out.Ciphertext,
					Commitment:         out.Commitment,
					TxID:               txID,
				}
				if !out.AmountConfidential {
					txo.Amount = out.Amount
				}
				if !out.AssetConfidential {
					txo.AssetType = out.AssetType
				}
				if err := registerTxo(tx, txo); err != nil {
					return err
				}
			}
		}

		if err := tx.Update("status", models.TxStatusCommitted, nil, &models.TransactionRecord{TxID: txID}); err != nil {
			return err
		}
		return tx.Delete("name", builder.Name, nil, &models.BuilderRecord{})
	})
}

// discardRejected records the terminal rejection and discards the
// builder. Inputs were never marked spent so no store rollback is
// needed.
func (w *Wallet) discardRejected(txID, reason string) error {
	builder, err := w.builderByTxID(txID)
	if err != nil && err != ErrBuilderNotFound {
		return err
	}
	return w.db.Update(func(tx database.Tx) error {
		if err := tx.Update("status", models.TxStatusRejected, nil, &models.TransactionRecord{TxID: txID}); err != nil {
			return err
		}
		if builder != nil {
			return tx.Delete("name", builder.Name, nil, &models.BuilderRecord{})
		}
		return nil
	})
}

// newIssuanceSID builds a unique sid for an issuance output.
func newIssuanceSID(code, issuer string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	h := sha256.Sum256(append([]byte(code+issuer), nonce...))
	return "txo_" + hex.EncodeToString(h[:8]), nil
}

// deriveSID builds a deterministic sid for the nth output of a
// transaction, used when the ledger does not return explicit sids.
func deriveSID(txID string, n int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", txID, n)))
	return "txo_" + hex.EncodeToString(h[:8])
}
