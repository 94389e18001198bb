package wallet

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/pbkdf2"
)

const (
	abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	zooMnemonic     = "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong"
	// SEP-0005 test vector 1.
	illnessMnemonic = "illness spike retreat truth genius clock brain pass fit cave bargain toe"
)

func TestDeriveSeed_BIP39Vector(t *testing.T) {
	seed, err := DeriveSeed(abandonMnemonic)
	require.NoError(t, err)
	require.Len(t, seed, SeedSize)

	want := "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc1" +
		"9a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"
	assert.Equal(t, want, hex.EncodeToString(seed))
}

func TestDeriveSeed_MatchesPBKDF2(t *testing.T) {
	for _, m := range []string{abandonMnemonic, zooMnemonic, illnessMnemonic} {
		seed, err := DeriveSeed(m)
		require.NoError(t, err)

		want := pbkdf2.Key([]byte(m), []byte("mnemonic"), 2048, SeedSize, sha512.New)
		assert.Equal(t, want, seed, m)
	}
}

func TestDeriveSeed_NormalizesWhitespace(t *testing.T) {
	a, err := DeriveSeed(abandonMnemonic)
	require.NoError(t, err)
	b, err := DeriveSeed("  " + strings.ReplaceAll(abandonMnemonic, " ", " \n\t") + "\n")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeriveSeed_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"bad checksum", strings.Repeat("abandon ", 12)},
		{"unknown word", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon pineapplex"},
		{"wrong word count", "abandon abandon abandon"},
		{"uppercase", strings.ToUpper(abandonMnemonic)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := DeriveSeed(tt.mnemonic)
			require.Error(t, err)
			assert.Nil(t, seed)
			assert.True(t, errors.Is(err, models.ErrInvalidMnemonic))
			if strings.TrimSpace(tt.mnemonic) != "" {
				assert.NotContains(t, err.Error(), strings.Fields(tt.mnemonic)[0])
			}
		})
	}
}

func TestPath_String(t *testing.T) {
	assert.Equal(t, "m/44'/314159'/0'", PiAccountPath.String())
	assert.Equal(t, "m/44'/148'/3'", AccountPath(CoinTypeStellar, 3).String())
	assert.Equal(t, "m/44'/0", Path{bip32.FirstHardenedChild + 44, 0}.String())
}

func TestDeriveSigningSeed_SEP0005(t *testing.T) {
	seed, err := DeriveSeed(illnessMnemonic)
	require.NoError(t, err)

	signing, err := DeriveSigningSeed(seed, AccountPath(CoinTypeStellar, 0))
	require.NoError(t, err)
	assert.Equal(t, "4d691bc19b44a1383b1a0a130aaca3e05c3c1a371dbe45930ef9b761f7a74691", hex.EncodeToString(signing[:]))
}

func TestDeriveSigningSeed_PiPath(t *testing.T) {
	seed, err := DeriveSeed(abandonMnemonic)
	require.NoError(t, err)

	signing, err := DeriveSigningSeed(seed, PiAccountPath)
	require.NoError(t, err)
	assert.Equal(t, "7fe494b0c6cb0cadd2faa056fc51c8e4358123cf86ec6b3b5f25432acb351d3e", hex.EncodeToString(signing[:]))
}

func TestDeriveSigningSeed_Errors(t *testing.T) {
	seed, err := DeriveSeed(abandonMnemonic)
	require.NoError(t, err)

	_, err = DeriveSigningSeed(seed, Path{bip32.FirstHardenedChild + 44, 0})
	assert.True(t, errors.Is(err, models.ErrDerivation))

	_, err = DeriveSigningSeed(make([]byte, 8), PiAccountPath)
	assert.True(t, errors.Is(err, models.ErrDerivation))

	_, err = DeriveSigningSeed(make([]byte, 65), PiAccountPath)
	assert.True(t, errors.Is(err, models.ErrDerivation))
}

func TestDeriveSigningSeed_EmptyPathIsMaster(t *testing.T) {
	seed, err := DeriveSeed(abandonMnemonic)
	require.NoError(t, err)

	master, err := DeriveSigningSeed(seed, Path{})
	require.NoError(t, err)
	child, err := DeriveSigningSeed(seed, PiAccountPath)
	require.NoError(t, err)
	assert.NotEqual(t, master, child)
}

func TestDerivers_ConformanceVectors(t *testing.T) {
	tests := []struct {
		name     string
		deriver  *HDDeriver
		mnemonic string
		address  string
	}{
		{"stellar sep5", NewStellarDeriver(), illnessMnemonic, "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6"},
		{"pi abandon", NewPiDeriver(), abandonMnemonic, "GA2XRX65VZ4NRZG4FBQHREOR3Y2J3V55WW6KMUDCH64MFK2PBQB42JID"},
		{"pi zoo", NewPiDeriver(), zooMnemonic, "GAK7RHPR3SSVCPAUE3NVJVAW6KGSVGFAA4UQOFH4KBPMCJYVHLVLJDOT"},
		{"pi illness", NewPiDeriver(), illnessMnemonic, "GASWRHYE32A5A27TQWNRITIOZKOX7XQ6IVI4WEDGPVGX253D63UW2GJ3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := tt.deriver.Derive(tt.mnemonic)
			require.NoError(t, err)
			assert.Equal(t, tt.address, kp.Address())
		})
	}
}

func TestDerivers_Network(t *testing.T) {
	assert.Equal(t, models.NetworkPi, NewPiDeriver().Network())
	assert.Equal(t, models.NetworkStellar, NewStellarDeriver().Network())
	assert.Equal(t, PiAccountPath, NewPiDeriver().Path())
}

func TestDeriver_Deterministic(t *testing.T) {
	d := NewPiDeriver()
	for _, m := range []string{abandonMnemonic, zooMnemonic, illnessMnemonic} {
		kp1, err := d.Derive(m)
		require.NoError(t, err)
		kp2, err := d.Derive(m)
		require.NoError(t, err)
		assert.Equal(t, kp1.Address(), kp2.Address())
	}
}

func TestDeriver_DifferentMnemonics(t *testing.T) {
	d := NewPiDeriver()
	seen := map[string]string{}
	for _, m := range []string{abandonMnemonic, zooMnemonic, illnessMnemonic} {
		kp, err := d.Derive(m)
		require.NoError(t, err)
		if prev, ok := seen[kp.Address()]; ok {
			t.Fatalf("%q and %q produced the same address", prev, m)
		}
		seen[kp.Address()] = m
	}
}

func TestDeriver_InvalidMnemonic(t *testing.T) {
	kp, err := NewPiDeriver().Derive("not a mnemonic")
	assert.Nil(t, kp)
	assert.True(t, errors.Is(err, models.ErrInvalidMnemonic))
}

func TestDescribe(t *testing.T) {
	addr, err := NewPiDeriver().Describe(abandonMnemonic)
	require.NoError(t, err)
	assert.Equal(t, models.NetworkPi, addr.Network)
	assert.Equal(t, "GA2XRX65VZ4NRZG4FBQHREOR3Y2J3V55WW6KMUDCH64MFK2PBQB42JID", addr.Address)
	assert.Equal(t, "m/44'/314159'/0'", addr.DerivationPath)

	pub, err := hex.DecodeString(addr.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, ed25519.PublicKeySize)

	_, err = NewPiDeriver().Describe("not a mnemonic")
	assert.True(t, errors.Is(err, models.ErrInvalidMnemonic))
}

func TestKeypair_SignVerify(t *testing.T) {
	kp, err := NewPiDeriver().Derive(abandonMnemonic)
	require.NoError(t, err)

	payload := []byte("payment payload")
	dec, err := kp.SignDecorated(payload)
	require.NoError(t, err)
	sig := []byte(dec.Signature)
	assert.Len(t, sig, ed25519.SignatureSize)
	assert.NoError(t, kp.Verify(payload, sig))
	assert.Error(t, kp.Verify([]byte("tampered"), sig))

	pub, err := hex.DecodeString(kp.PublicKey())
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, payload, sig))
	assert.Equal(t, pub[len(pub)-4:], dec.Hint[:])
}

func TestKeypair_NeverFormatsSecret(t *testing.T) {
	kp, err := NewPiDeriver().Derive(abandonMnemonic)
	require.NoError(t, err)

	// Secret strkey of the abandon vector on the Pi path.
	secret := "SB76JFFQY3FQZLOS7KQFN7CRZDSDLAJDZ6DOY2Z3L4SUGKWLGUOT5IWU"
	for _, out := range []string{
		fmt.Sprint(kp),
		fmt.Sprintf("%v", kp),
		fmt.Sprintf("%s", kp),
		kp.LogValue().String(),
	} {
		assert.NotContains(t, out, secret)
		assert.NotContains(t, out, "7fe494b0c6cb0cadd2faa056fc51c8e4")
		assert.Equal(t, kp.Address(), out)
	}
}
