package cmd

import (
	"fmt"
)

// KeyGen generates a new named key pair for this wallet.
type KeyGen struct {
	Name     string `short:"n" long:"name" description:"Name for the new identity" default:"default"`
	Mnemonic string `short:"m" long:"mnemonic" description:"Restore the identity from an existing mnemonic seed"`
}

// Execute generates the identity and prints its address and backup
// mnemonic.
func (x *KeyGen) Execute(args []string) error {
	r, w, _, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	if x.Mnemonic != "" {
		identity, err := w.Keychain().RestoreIdentity(x.Name, x.Mnemonic)
		if err != nil {
			return err
		}
		fmt.Printf("Restored identity %s\n", x.Name)
		fmt.Printf("Address: %s\n", identity.Address())
		return nil
	}

	identity, mnemonic, err := w.Keychain().GenerateIdentity(x.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Generated identity %s\n", x.Name)
	fmt.Printf("Address: %s\n", identity.Address())
	fmt.Printf("Mnemonic: %s\n", mnemonic)
	return nil
}
