package wallet

import (
	"strings"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a BIP-39 seed in bytes (512 bits).
const SeedSize = 64

// NormalizeMnemonic collapses runs of whitespace so that pasted phrases with
// stray newlines or double spaces derive the same seed.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// ValidateMnemonic checks word count, wordlist membership and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// DeriveSeed stretches a mnemonic into a 64-byte seed with PBKDF2-HMAC-SHA512
// (2048 iterations, salt "mnemonic"). The passphrase is always empty.
func DeriveSeed(mnemonic string) ([]byte, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if mnemonic == "" {
		return nil, models.NewError(models.KindInvalidMnemonic, "mnemonic is empty")
	}
	// The bip39 errors are static strings, the phrase is never echoed.
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, &models.Error{
			Kind:    models.KindInvalidMnemonic,
			Message: "mnemonic failed wordlist or checksum validation",
			Err:     err,
		}
	}
	return seed, nil
}
