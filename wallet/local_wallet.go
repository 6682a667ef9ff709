package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LocalWallet holds the DID's key material in memory and signs locally.
type LocalWallet struct {
	did     string
	rotator *KeyRotator
}

// NewLocalWallet creates a wallet from the entity's key material. At least
// one ES256K key is required; transactions cannot be signed without one.
func NewLocalWallet(did string, keys []KeyPairData) (*LocalWallet, error) {
	if did == "" {
		return nil, fmt.Errorf("did is required")
	}
	rotator, err := NewKeyRotator(keys)
	if err != nil {
		return nil, err
	}
	if rotator.Len(AlgorithmES256K) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyForAlgorithm, AlgorithmES256K)
	}
	return &LocalWallet{did: did, rotator: rotator}, nil
}

// NextSigner returns the next key of the algorithm, advancing the rotation
// cursor.
func (w *LocalWallet) NextSigner(alg Algorithm) (*Key, error) {
	return w.rotator.Next(alg)
}

// GetEthAddress returns the address of the first ES256K key. Per-operation
// sender addresses come from NextSigner instead.
func (w *LocalWallet) GetEthAddress() string {
	key, err := w.rotator.First(AlgorithmES256K)
	if err != nil {
		return ""
	}
	return key.Address()
}

// GetDid returns the wallet's DID.
func (w *LocalWallet) GetDid() string {
	return w.did
}

// GetHexDid returns the DID hex-encoded with a 0x prefix, the form the
// Track and Trace contract stores as event sender.
func (w *LocalWallet) GetHexDid() string {
	return "0x" + hex.EncodeToString([]byte(w.did))
}

// SignVP builds a Verifiable Presentation embedding the given credential
// JWTs and signs it as a JWT with the wallet's key for the algorithm. VP
// signing does not advance the rotation cursor; only transaction signing
// consumes rotation slots.
func (w *LocalWallet) SignVP(alg string, credentials []string) (string, error) {
	algorithm, err := ParseAlgorithm(alg)
	if err != nil {
		return "", err
	}
	key, err := w.rotator.First(algorithm)
	if err != nil {
		return "", err
	}

	if credentials == nil {
		credentials = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   w.did,
		"sub":   w.did,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(5 * time.Minute).Unix(),
		"nonce": generateUUID(),
		"jti":   "urn:uuid:" + generateUUID(),
		"vp": map[string]interface{}{
			"@context":             []string{"https://www.w3.org/2018/credentials/v1"},
			"id":                   "urn:uuid:" + generateUUID(),
			"type":                 []string{"VerifiablePresentation"},
			"holder":               w.did,
			"verifiableCredential": credentials,
		},
	}

	var method jwt.SigningMethod
	switch algorithm {
	case AlgorithmES256K:
		method = ES256K
	default:
		method = jwt.SigningMethodES256
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["typ"] = "JWT"
	token.Header["kid"] = w.did + "#keys-1"

	signed, err := token.SignedString(key.priv)
	if err != nil {
		return "", &SignatureError{Err: err}
	}
	return signed, nil
}

func generateUUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
