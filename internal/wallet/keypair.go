package wallet

import (
	"encoding/hex"
	"log/slog"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// Keypair is an ed25519 signing keypair. The secret seed stays inside and
// has no accessor; formatting or logging a Keypair yields its address.
type Keypair struct {
	full *keypair.Full
}

// FromSigningSeed wraps a 32-byte ed25519 seed.
func FromSigningSeed(seed [32]byte) (*Keypair, error) {
	full, err := keypair.FromRawSeed(seed)
	if err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "build keypair", Err: err}
	}
	return &Keypair{full: full}, nil
}

// Address returns the G... account identifier.
func (k *Keypair) Address() string {
	return k.full.Address()
}

// PublicKey returns the raw ed25519 public key, hex encoded.
func (k *Keypair) PublicKey() string {
	raw, err := strkey.Decode(strkey.VersionByteAccountID, k.full.Address())
	if err != nil {
		return ""
	}
	return hex.EncodeToString(raw)
}

// SignDecorated signs payload and attaches the key hint the network uses to
// match signatures to signers.
func (k *Keypair) SignDecorated(payload []byte) (xdr.DecoratedSignature, error) {
	return k.full.SignDecorated(payload)
}

// Verify checks sig against payload using the public half.
func (k *Keypair) Verify(payload, sig []byte) error {
	return k.full.Verify(payload, sig)
}

func (k *Keypair) String() string { return k.Address() }

// LogValue keeps the secret out of structured logs.
func (k *Keypair) LogValue() slog.Value { return slog.StringValue(k.Address()) }
