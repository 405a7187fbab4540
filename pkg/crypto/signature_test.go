package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow-chain.backend/pkg/crypto"
)

func TestSignAndVerifyRoundtrip(t *testing.T) {
	pair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	require.NotEmpty(t, pair.PrivateKey)
	require.NotEmpty(t, pair.PublicKey)

	digest := crypto.SigningDigest("contract-1", "party-1")
	require.Len(t, digest, 32)

	sig, err := crypto.Sign(pair.PrivateKey, digest)
	require.NoError(t, err)

	verifier := crypto.Secp256k1Verifier{}
	assert.True(t, verifier.Verify(pair.PublicKey, sig, digest))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	pair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	digest := crypto.SigningDigest("contract-1", "party-1")
	sig, err := crypto.Sign(pair.PrivateKey, digest)
	require.NoError(t, err)

	verifier := crypto.Secp256k1Verifier{}

	// wrong digest
	other := crypto.SigningDigest("contract-1", "party-2")
	assert.False(t, verifier.Verify(pair.PublicKey, sig, other))

	// wrong key
	otherPair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, verifier.Verify(otherPair.PublicKey, sig, digest))

	// not hex at all
	assert.False(t, verifier.Verify(pair.PublicKey, "zz-not-hex", digest))
	assert.False(t, verifier.Verify("zz-not-hex", sig, digest))

	// truncated
	assert.False(t, verifier.Verify(pair.PublicKey, sig[:20], digest))
}

func TestVerifyAccepts0xPrefixes(t *testing.T) {
	pair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	digest := crypto.SigningDigest("contract-1", "party-1")
	sig, err := crypto.Sign("0x"+pair.PrivateKey, digest)
	require.NoError(t, err)

	verifier := crypto.Secp256k1Verifier{}
	assert.True(t, verifier.Verify("0x"+pair.PublicKey, "0x"+sig, digest))
}

func TestSigningDigestIsStable(t *testing.T) {
	a := crypto.SigningDigest("c", "p")
	b := crypto.SigningDigest("c", "p")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, crypto.SigningDigest("c", "q"))
}

func TestSimulationVerifier(t *testing.T) {
	v := crypto.SimulationVerifier{}
	assert.True(t, v.Verify("pubkey", "sig-0123456789", nil))
	assert.False(t, v.Verify("", "sig-0123456789", nil))
	assert.False(t, v.Verify("pubkey", "short", nil))

	strict := crypto.SimulationVerifier{MinSignatureLength: 20}
	assert.False(t, strict.Verify("pubkey", "sig-0123456789", nil))
}

func TestKeccak256Hex(t *testing.T) {
	// keccak-256 of the empty string
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		crypto.Keccak256Hex(nil))
	assert.Len(t, crypto.Keccak256Hex([]byte("escrow")), 66)
}
