package cmd

import (
	"fmt"
)

// DefineAsset records a new asset type issuable by one of this
// wallet's identities.
type DefineAsset struct {
	Issuer string `long:"issuer" description:"Identity that will issue the asset" default:"default"`
}

// Execute prompts for the asset fields and saves the definition.
func (x *DefineAsset) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	code, err := promptString(stdin, "Asset code")
	if err != nil {
		return err
	}
	memo, err := promptString(stdin, "Memo")
	if err != nil {
		return err
	}

	asset, err := w.DefineAsset(x.Issuer, code, memo)
	if err != nil {
		return err
	}
	fmt.Printf("Defined asset %s issued by %s\n", asset.Code, x.Issuer)
	return nil
}

// IssueAsset mints new units of a defined asset to its issuer.
type IssueAsset struct {
	Issuer string `long:"issuer" description:"Identity issuing the asset" default:"default"`
}

// Execute prompts for the issuance fields and mints the output.
func (x *IssueAsset) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	code, err := promptString(stdin, "Asset code")
	if err != nil {
		return err
	}
	amount, err := promptUint(stdin, "Amount to issue")
	if err != nil {
		return err
	}
	confidential, err := promptBool(stdin, "Hide the amount")
	if err != nil {
		return err
	}

	txo, err := w.IssueAsset(x.Issuer, code, amount, confidential)
	if err != nil {
		return err
	}
	fmt.Printf("Issued %d of %s as %s\n", amount, code, txo.SID)
	return nil
}
