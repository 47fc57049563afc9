package cmd

import (
	"errors"
	"os"
	"path"

	"github.com/veilledger/veil/repo"
)

// Init initializes a new wallet data directory at the provided path.
type Init struct {
	DataDir string `short:"d" long:"datadir" description:"Directory to store data"`
	Force   bool   `short:"f" long:"force" description:"Force overwrite existing repo (dangerous!)"`
}

// Execute initializes the wallet repo.
func (x *Init) Execute(args []string) error {
	if x.DataDir == "" {
		x.DataDir = repo.DefaultHomeDir
	}

	if _, err := os.Stat(path.Join(x.DataDir, "veil.db")); err == nil && !x.Force {
		return errors.New("wallet is already initialized")
	}

	if x.Force {
		os.RemoveAll(x.DataDir)
	}

	if _, err := repo.LoadConfig(); err != nil {
		return err
	}

	r, err := repo.NewRepo(x.DataDir)
	if err != nil {
		return err
	}
	defer r.Close()

	log.Infof("Wallet initialized at %s", x.DataDir)
	return nil
}
