package cmd

import (
	"fmt"

	"github.com/veilledger/veil/models"
)

// ListTxos lists the transaction outputs known to this wallet.
type ListTxos struct {
	Unspent bool   `long:"unspent" description:"Only list unspent txos"`
	ID      string `long:"id" description:"Only list txos owned by this address"`
}

// Execute prints the matching txos, most recently known first.
func (x *ListTxos) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	txos, err := w.ListTxos(models.TxoFilter{
		Owner:       x.ID,
		UnspentOnly: x.Unspent,
	})
	if err != nil {
		return err
	}

	for _, txo := range txos {
		amount := fmt.Sprintf("%d", txo.Amount)
		if txo.AmountConfidential {
			amount = "<hidden>"
		}
		asset := txo.AssetType
		if txo.AssetConfidential {
			asset = "<hidden>"
		}
		status := "unspent"
		if txo.Spent {
			status = "spent"
		}
		fmt.Printf("%s\towner=%s asset=%s amount=%s %s\n", txo.SID, txo.Owner, asset, amount, status)
	}
	return nil
}
