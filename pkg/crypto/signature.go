package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Party signatures are real secp256k1 signatures over the keccak-256 digest of
// the signing payload. Verification sits behind the Verifier interface so a
// relaxed verifier can be swapped in for simulations.

// Verifier checks a party signature against the party's public key.
type Verifier interface {
	Verify(publicKeyHex, signatureHex string, digest []byte) bool
}

// KeyPair holds a hex-encoded secp256k1 keypair. The public key is in the
// 65-byte uncompressed form.
type KeyPair struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
}

// GenerateKeyPair creates a new secp256k1 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &KeyPair{
		PrivateKey: hex.EncodeToString(ethcrypto.FromECDSA(priv)),
		PublicKey:  hex.EncodeToString(ethcrypto.FromECDSAPub(&priv.PublicKey)),
	}, nil
}

// SigningDigest returns the keccak-256 digest a party signs when signing a
// contract: keccak256(contractID || ":" || partyID).
func SigningDigest(contractID, partyID string) []byte {
	return ethcrypto.Keccak256([]byte(contractID + ":" + partyID))
}

// Sign produces a hex-encoded signature of the digest with the given
// hex-encoded private key.
func Sign(privateKeyHex string, digest []byte) (string, error) {
	priv, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	sig, err := ethcrypto.Sign(digest, priv)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Secp256k1Verifier verifies real secp256k1 signatures.
type Secp256k1Verifier struct{}

// Verify checks the signature against the public key. The recovery id byte, if
// present, is stripped before verification.
func (Secp256k1Verifier) Verify(publicKeyHex, signatureHex string, digest []byte) bool {
	pub, err := hex.DecodeString(strings.TrimPrefix(publicKeyHex, "0x"))
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return false
	}
	if len(sig) == 65 {
		sig = sig[:64]
	}
	if len(sig) != 64 {
		return false
	}
	return ethcrypto.VerifySignature(pub, digest, sig)
}

// SimulationVerifier accepts any non-trivial signature from a party with a
// non-empty public key. It preserves the engine's original placeholder check
// for environments where no trust guarantee is required.
type SimulationVerifier struct {
	MinSignatureLength int
}

func (v SimulationVerifier) Verify(publicKeyHex, signatureHex string, _ []byte) bool {
	min := v.MinSignatureLength
	if min <= 0 {
		min = 10
	}
	return publicKeyHex != "" && len(signatureHex) >= min
}

// Keccak256Hex returns the hex-encoded keccak-256 hash of data, 0x-prefixed.
func Keccak256Hex(data []byte) string {
	return "0x" + hex.EncodeToString(ethcrypto.Keccak256(data))
}
