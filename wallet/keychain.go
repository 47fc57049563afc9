package wallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/jinzhu/gorm"
	"github.com/tyler-smith/go-bip39"
	"github.com/veilledger/veil/database"
	"github.com/veilledger/veil/models"
	"golang.org/x/crypto/nacl/box"
)

const (
	// Length of nacl nonce
	nonceBytes = 24

	// Length of nacl ephemeral public key
	ephemeralPublicKeyBytes = 32
)

// Keychain manages the wallet's named identities and the key material
// behind them. Each identity carries an ed25519 signing key and a
// curve25519 box key, both derived from the identity's mnemonic seed.
type Keychain struct {
	db database.Database
}

// NewKeychain returns a Keychain backed by the given database.
func NewKeychain(db database.Database) *Keychain {
	return &Keychain{db: db}
}

// GenerateIdentity creates a new named identity with a fresh mnemonic
// seed and persists it. The mnemonic is returned so the caller can
// display it for backup. It is not stored in plaintext outside the
// identity row.
func (k *Keychain) GenerateIdentity(name string) (*models.Identity, string, error) {
	mnemonic, err := createMnemonic(bip39.NewEntropy, bip39.NewMnemonic)
	if err != nil {
		return nil, "", err
	}
	identity, err := k.RestoreIdentity(name, mnemonic)
	if err != nil {
		return nil, "", err
	}
	return identity, mnemonic, nil
}

// RestoreIdentity derives an identity's keys from the given mnemonic
// seed and persists it under the given name.
func (k *Keychain) RestoreIdentity(name, mnemonic string) (*models.Identity, error) {
	signPriv, boxPub, boxPriv, err := deriveKeys(bip39.NewSeed(mnemonic, ""))
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{
		Name:     name,
		SignPub:  signPriv.Public().(ed25519.PublicKey),
		SignPriv: signPriv,
		BoxPub:   boxPub[:],
		BoxPriv:  boxPriv[:],
	}

	err = k.db.Update(func(tx database.Tx) error {
		var existing models.Identity
		if err := tx.Read().Where("name = ?", name).First(&existing).Error; err == nil {
			return ErrIdentityExists
		} else if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		return tx.Save(identity)
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Identity returns the identity with the given name.
func (k *Keychain) Identity(name string) (*models.Identity, error) {
	var identity models.Identity
	err := k.db.View(func(tx database.Tx) error {
		return tx.Read().Where("name = ?", name).First(&identity).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrIdentityNotFound
	} else if err != nil {
		return nil, err
	}
	return &identity, nil
}

// IdentityByAddress returns the identity whose signing public key
// matches the given wallet address.
func (k *Keychain) IdentityByAddress(addr string) (*models.Identity, error) {
	identities, err := k.Identities()
	if err != nil {
		return nil, err
	}
	for i := range identities {
		if identities[i].Address() == addr {
			return &identities[i], nil
		}
	}
	return nil, ErrIdentityNotFound
}

// Identities returns all identities held by this wallet.
func (k *Keychain) Identities() ([]models.Identity, error) {
	var identities []models.Identity
	err := k.db.View(func(tx database.Tx) error {
		return tx.Read().Order("created_at asc").Find(&identities).Error
	})
	if err != nil {
		return nil, err
	}
	return identities, nil
}

// Sign signs the message with the named identity's signing key.
func (k *Keychain) Sign(name string, message []byte) ([]byte, error) {
	identity, err := k.Identity(name)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(ed25519.PrivateKey(identity.SignPriv), message), nil
}

// SignByAddress signs the message with the signing key of the identity
// holding the given address.
func (k *Keychain) SignByAddress(addr string, message []byte) ([]byte, error) {
	identity, err := k.IdentityByAddress(addr)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(ed25519.PrivateKey(identity.SignPriv), message), nil
}

// Unseal decrypts a confidential txo record using the named identity's
// box key.
func (k *Keychain) Unseal(name string, ciphertext []byte) (*models.TxoRecord, error) {
	identity, err := k.Identity(name)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < nonceBytes+ephemeralPublicKeyBytes+1 {
		return nil, ErrDecryptionFailed
	}

	var nonce [nonceBytes]byte
	copy(nonce[:], ciphertext[:nonceBytes])

	var ephemPubkey [ephemeralPublicKeyBytes]byte
	copy(ephemPubkey[:], ciphertext[nonceBytes:nonceBytes+ephemeralPublicKeyBytes])

	var priv [32]byte
	copy(priv[:], identity.BoxPriv)

	plaintext, ok := box.Open(nil, ciphertext[nonceBytes+ephemeralPublicKeyBytes:], &nonce, &ephemPubkey, &priv)
	if !ok {
		return nil, ErrDecryptionFailed
	}

	var record models.TxoRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, ErrDecryptionFailed
	}
	return &record, nil
}

// SealRecord encrypts a txo record to the given curve25519 public key.
// The serialized form is nonce || ephemeral pubkey || box ciphertext.
func SealRecord(pubKey []byte, record *models.TxoRecord) ([]byte, error) {
	if len(pubKey) != ephemeralPublicKeyBytes {
		return nil, ErrMissingReceiverKey
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	// Generate an ephemeral key pair.
	ephemPub, ephemPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	var pk [32]byte
	copy(pk[:], pubKey)

	var nonce [nonceBytes]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	ciphertext := box.Seal(nil, plaintext, &nonce, &pk, ephemPriv)

	// Prepend the ephemeral public key.
	ciphertext = append(ephemPub[:], ciphertext...)

	// Prepend nonce.
	ciphertext = append(nonce[:], ciphertext...)
	return ciphertext, nil
}

func createMnemonic(newEntropy func(int) ([]byte, error), newMnemonic func([]byte) (string, error)) (string, error) {
	entropy, err := newEntropy(128)
	if err != nil {
		return "", err
	}
	mnemonic, err := newMnemonic(entropy)
	if err != nil {
		return "", err
	}
	return mnemonic, nil
}

// deriveKeys derives the identity's signing and box keys from the hd
// seed. The signing key is an ed25519 key seeded by the first hardened
// child and the box key is a curve25519 key seeded by the second.
func deriveKeys(seed []byte) (ed25519.PrivateKey, *[32]byte, *[32]byte, error) {
	masterPrivKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, nil, nil, err
	}

	purpose, err := masterPrivKey.Child(hdkeychain.HardenedKeyStart + 314)
	if err != nil {
		return nil, nil, nil, err
	}

	signHDKey, err := purpose.Child(0)
	if err != nil {
		return nil, nil, nil, err
	}

	boxHDKey, err := purpose.Child(1)
	if err != nil {
		return nil, nil, nil, err
	}

	signKey, err := signHDKey.ECPrivKey()
	if err != nil {
		return nil, nil, nil, err
	}

	boxKey, err := boxHDKey.ECPrivKey()
	if err != nil {
		return nil, nil, nil, err
	}

	signPriv := ed25519.NewKeyFromSeed(signKey.Serialize())

	boxPub, boxPriv, err := box.GenerateKey(bytes.NewReader(boxKey.Serialize()))
	if err != nil {
		return nil, nil, nil, err
	}

	return signPriv, boxPub, boxPriv, nil
}
