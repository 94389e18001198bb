package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/tyler-smith/go-bip32"
)

// SLIP-0010 master key domain for the ed25519 curve.
const ed25519Curve = "ed25519 seed"

// Registered BIP-44 coin types.
const (
	CoinTypePi      uint32 = 314159
	CoinTypeStellar uint32 = 148
)

// Path is a fully hardened derivation path. Every element already includes
// the hardened offset.
type Path []uint32

// AccountPath returns m/44'/coinType'/account'.
func AccountPath(coinType, account uint32) Path {
	return Path{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild + account,
	}
}

// PiAccountPath is m/44'/314159'/0'.
var PiAccountPath = AccountPath(CoinTypePi, 0)

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, idx := range p {
		if idx >= bip32.FirstHardenedChild {
			fmt.Fprintf(&sb, "/%d'", idx-bip32.FirstHardenedChild)
		} else {
			fmt.Fprintf(&sb, "/%d", idx)
		}
	}
	return sb.String()
}

type extendedKey struct {
	key       []byte
	chainCode []byte
}

func newMasterKey(seed []byte) (*extendedKey, error) {
	// SLIP-0010 accepts seeds between 128 and 512 bits.
	if len(seed) < 16 || len(seed) > SeedSize {
		return nil, models.NewError(models.KindDerivation, "seed length %d out of range", len(seed))
	}
	mac := hmac.New(sha512.New, []byte(ed25519Curve))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return &extendedKey{key: sum[:32], chainCode: sum[32:]}, nil
}

// hardenedChild computes HMAC-SHA512(chainCode, 0x00 || key || ser32(index)).
// ed25519 has no public derivation, so non-hardened indices are refused.
func (k *extendedKey) hardenedChild(index uint32) (*extendedKey, error) {
	if index < bip32.FirstHardenedChild {
		return nil, models.NewError(models.KindDerivation, "index %d is not hardened", index)
	}
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return &extendedKey{key: sum[:32], chainCode: sum[32:]}, nil
}

func (k *extendedKey) wipe() {
	clear(k.key)
	clear(k.chainCode)
}

// DeriveSigningSeed walks path over a BIP-39 seed and returns the 32-byte
// ed25519 signing seed at its end.
func DeriveSigningSeed(seed []byte, path Path) ([32]byte, error) {
	var out [32]byte

	key, err := newMasterKey(seed)
	if err != nil {
		return out, err
	}
	for _, idx := range path {
		child, err := key.hardenedChild(idx)
		key.wipe()
		if err != nil {
			return out, err
		}
		key = child
	}

	if len(key.key) != len(out) {
		return out, models.NewError(models.KindDerivation, "derived key has %d bytes", len(key.key))
	}
	copy(out[:], key.key)
	key.wipe()
	return out, nil
}
