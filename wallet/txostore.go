package wallet

import (
	"github.com/jinzhu/gorm"
	"github.com/veilledger/veil/database"
	"github.com/veilledger/veil/models"
)

// ListTxos returns the transaction outputs known to this wallet that
// match the given filter, most recently known first. Repeated queries
// return the same ordering absent a mutation in between.
func (w *Wallet) ListTxos(filter models.TxoFilter) ([]models.Txo, error) {
	var txos []models.Txo
	err := w.db.View(func(tx database.Tx) error {
		query := tx.Read().Order("created_at desc, sid desc")
		if filter.Owner != "" {
			query = query.Where("owner = ?", filter.Owner)
		}
		if filter.UnspentOnly {
			query = query.Where("spent = ?", false)
		}
		return query.Find(&txos).Error
	})
	if err != nil {
		return nil, err
	}
	return txos, nil
}

// Txo returns a single output by its sid.
func (w *Wallet) Txo(sid string) (*models.Txo, error) {
	var txo models.Txo
	err := w.db.View(func(tx database.Tx) error {
		return tx.Read().Where("sid = ?", sid).First(&txo).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrTxoNotFound
	} else if err != nil {
		return nil, err
	}
	return &txo, nil
}

// MarkSpent marks the output with the given sid as spent. It returns
// ErrTxoNotFound if the sid is unknown or the output has already been
// spent.
func (w *Wallet) MarkSpent(sid string) error {
	return w.db.Update(func(tx database.Tx) error {
		return markSpent(tx, sid)
	})
}

func markSpent(tx database.Tx, sid string) error {
	var txo models.Txo
	err := tx.Read().Where("sid = ?", sid).First(&txo).Error
	if gorm.IsRecordNotFoundError(err) {
		return ErrTxoNotFound
	} else if err != nil {
		return err
	}
	if txo.Spent {
		return ErrTxoNotFound
	}
	txo.Spent = true
	return tx.Save(&txo)
}

// RegisterTxo saves a newly confirmed output to the store. The
// registration is idempotent on duplicate sids so that confirming a
// resubmitted transaction is safe.
func (w *Wallet) RegisterTxo(txo *models.Txo) error {
	return w.db.Update(func(tx database.Tx) error {
		return registerTxo(tx, txo)
	})
}

func registerTxo(tx database.Tx, txo *models.Txo) error {
	var existing models.Txo
	err := tx.Read().Where("sid = ?", txo.SID).First(&existing).Error
	if err == nil {
		// Already registered.
		return nil
	} else if !gorm.IsRecordNotFoundError(err) {
		return err
	}
	return tx.Save(txo)
}
