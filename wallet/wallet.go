// Package wallet implements a multi-key signing wallet for EBSI
// transactions. A wallet holds one or more secp256k1 (ES256K) and P-256
// (ES256) keys for the same DID and rotates through the keys of an
// algorithm on every NextSigner call, so concurrent submissions use
// distinct accounts and never collide on a nonce.
package wallet

import (
	"fmt"
	"strings"
)

// Algorithm identifies a supported signature scheme.
type Algorithm string

const (
	AlgorithmES256K Algorithm = "ES256K"
	AlgorithmES256  Algorithm = "ES256"
)

// ParseAlgorithm converts a string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(s) {
	case "ES256K":
		return AlgorithmES256K, nil
	case "ES256":
		return AlgorithmES256, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, s)
	}
}

// KeyPairData is one configured private key.
type KeyPairData struct {
	Alg           Algorithm
	PrivateKeyHex string
}

// EntityKeyPair is the full key material of one DID entity.
type EntityKeyPair struct {
	DID  string
	Keys []KeyPairData
}

// Wallet is the signing collaborator consumed by the timestamp and
// track-and-trace clients.
type Wallet interface {
	// NextSigner returns the next key of the given algorithm, advancing the
	// rotation cursor. The cursor is never rolled back, even if the
	// downstream submission fails.
	NextSigner(alg Algorithm) (*Key, error)

	// SignVP builds and signs a Verifiable Presentation JWT embedding the
	// given credentials, used for the authorisation token exchange.
	SignVP(alg string, credentials []string) (string, error)

	GetEthAddress() string
	GetDid() string
	GetHexDid() string
}
