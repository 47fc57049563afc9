package main

import (
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/veilledger/veil/cmd"
)

func main() {
	parser := flags.NewParser(nil, flags.Default)

	commands := []struct {
		name    string
		short   string
		long    string
		command interface{}
	}{
		{
			"init",
			"initialize a new wallet",
			"The init command creates and initializes a new data directory and database.",
			&cmd.Init{},
		},
		{
			"key-gen",
			"generate a new key pair",
			"The key-gen command generates a new named identity with signing and box keys and prints the backup mnemonic.",
			&cmd.KeyGen{},
		},
		{
			"query-ledger-state",
			"query the ledger's current state",
			"The query-ledger-state command fetches the opaque token identifying the ledger's current state.",
			&cmd.QueryLedgerState{},
		},
		{
			"initialize-transaction",
			"open a new transaction builder",
			"The initialize-transaction command opens a new named transaction builder bound to the current ledger state.",
			&cmd.InitTransaction{},
		},
		{
			"define-asset",
			"define a new asset type",
			"The define-asset command records a new asset type issuable by one of this wallet's identities.",
			&cmd.DefineAsset{},
		},
		{
			"issue-asset",
			"issue units of a defined asset",
			"The issue-asset command mints new units of a defined asset to its issuer.",
			&cmd.IssueAsset{},
		},
		{
			"list-txos",
			"list transaction outputs",
			"The list-txos command lists the transaction outputs known to this wallet.",
			&cmd.ListTxos{},
		},
		{
			"transfer-assets",
			"add a transfer to a builder",
			"The transfer-assets command interactively adds a transfer operation to an open transaction builder.",
			&cmd.TransferAssets{},
		},
		{
			"build-transaction",
			"finalize a transaction builder",
			"The build-transaction command finalizes a builder into an immutable, signed transaction.",
			&cmd.BuildTransaction{},
		},
		{
			"submit",
			"submit a finalized transaction",
			"The submit command sends a finalized transaction to the ledger and reports the outcome.",
			&cmd.SubmitTx{},
		},
		{
			"gateway",
			"start the local API gateway",
			"The gateway command starts the local HTTP API server over the wallet.",
			&cmd.Gateway{},
		},
	}

	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.command); err != nil {
			log.Fatal(err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
