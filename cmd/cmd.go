package cmd

import (
	"bufio"
	"os"

	"github.com/op/go-logging"
	"github.com/veilledger/veil/client"
	"github.com/veilledger/veil/repo"
	"github.com/veilledger/veil/wallet"
)

var log = logging.MustGetLogger("CMD")

// stdin is the reader interactive prompts consume. Tests may replace
// it.
var stdin = bufio.NewReader(os.Stdin)

// loadWallet loads the config, opens the repo at the configured data
// directory and wires the wallet to the ledger client.
func loadWallet() (*repo.Repo, *wallet.Wallet, *repo.Config, error) {
	cfg, err := repo.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	r, err := repo.NewRepo(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	w := wallet.NewWallet(r.DB(), client.NewClient(cfg.LedgerAddr))
	return r, w, cfg, nil
}
