package cmd

import (
	"context"
	"fmt"

	"github.com/veilledger/veil/client"
	"github.com/veilledger/veil/repo"
)

// QueryLedgerState fetches the ledger's current state token.
type QueryLedgerState struct{}

// Execute queries the ledger server and prints the state token.
func (x *QueryLedgerState) Execute(args []string) error {
	cfg, err := repo.LoadConfig()
	if err != nil {
		return err
	}

	c := client.NewClient(cfg.LedgerAddr)
	state, err := c.LedgerState(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Ledger state: %s\n", state)
	return nil
}
