package wallet

import (
	"fmt"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
)

// Deriver turns a mnemonic into the signing keypair of one network account.
// Each network implements this with its own coin type.
type Deriver interface {
	// Network returns which ledger network this deriver targets
	Network() models.Network

	// Derive validates the mnemonic and returns the account keypair
	Derive(mnemonic string) (*Keypair, error)

	// Describe derives the account and returns only its public details
	Describe(mnemonic string) (*models.DerivedAddress, error)
}

// HDDeriver derives ed25519 accounts along a fixed SLIP-0010 path.
type HDDeriver struct {
	network models.Network
	path    Path
}

// NewDeriver returns a deriver for network along path.
func NewDeriver(network models.Network, path Path) *HDDeriver {
	return &HDDeriver{network: network, path: path}
}

// NewPiDeriver returns the deriver for m/44'/314159'/0'.
func NewPiDeriver() *HDDeriver {
	return NewDeriver(models.NetworkPi, PiAccountPath)
}

// NewStellarDeriver returns the SEP-0005 deriver for m/44'/148'/0'.
func NewStellarDeriver() *HDDeriver {
	return NewDeriver(models.NetworkStellar, AccountPath(CoinTypeStellar, 0))
}

func (d *HDDeriver) Network() models.Network {
	return d.network
}

// Path returns the derivation path.
func (d *HDDeriver) Path() Path {
	return d.path
}

// Derive runs mnemonic -> seed -> signing seed -> keypair. Intermediate
// secrets are zeroed before returning.
func (d *HDDeriver) Derive(mnemonic string) (*Keypair, error) {
	seed, err := DeriveSeed(mnemonic)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	return d.fromSeed(seed)
}

func (d *HDDeriver) fromSeed(seed []byte) (*Keypair, error) {
	signingSeed, err := DeriveSigningSeed(seed, d.path)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", d.path, err)
	}
	defer clear(signingSeed[:])

	return FromSigningSeed(signingSeed)
}

// Describe returns the address, path and hex public key of the account.
func (d *HDDeriver) Describe(mnemonic string) (*models.DerivedAddress, error) {
	kp, err := d.Derive(mnemonic)
	if err != nil {
		return nil, err
	}
	return &models.DerivedAddress{
		Network:        d.network,
		Address:        kp.Address(),
		DerivationPath: d.path.String(),
		PublicKey:      kp.PublicKey(),
	}, nil
}
