package wallet

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is one private key held by the rotator.
type Key struct {
	alg     Algorithm
	priv    *ecdsa.PrivateKey
	address common.Address // zero for non-secp256k1 keys
}

// Alg returns the key's signature algorithm.
func (k *Key) Alg() Algorithm { return k.alg }

// Address returns the Ethereum address, lowercase hex. Only meaningful for
// ES256K keys.
func (k *Key) Address() string {
	return strings.ToLower(k.address.Hex())
}

func parseKey(data KeyPairData) (*Key, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	switch data.Alg {
	case AlgorithmES256K:
		priv := secp256k1.PrivKeyFromBytes(raw).ToECDSA()
		return &Key{
			alg:     AlgorithmES256K,
			priv:    priv,
			address: crypto.PubkeyToAddress(priv.PublicKey),
		}, nil
	case AlgorithmES256:
		priv, err := p256FromBytes(raw)
		if err != nil {
			return nil, err
		}
		return &Key{alg: AlgorithmES256, priv: priv}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, data.Alg)
	}
}

func p256FromBytes(d []byte) (*ecdsa.PrivateKey, error) {
	curve := elliptic.P256()
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 || k.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("private key out of range for P-256")
	}
	priv := &ecdsa.PrivateKey{D: k}
	priv.Curve = curve
	priv.X, priv.Y = curve.ScalarBaseMult(d)
	return priv, nil
}

// JWK is a minimal JSON Web Key rendering of an EC key pair.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d,omitempty"`
}

// ExportJWK renders the key as a private JWK. ES256K keys are exported on
// crv secp256k1, ES256 keys on P-256.
func (k *Key) ExportJWK() (*JWK, error) {
	switch k.alg {
	case AlgorithmES256K:
		priv, _ := btcec.PrivKeyFromBytes(k.priv.D.Bytes())
		pub := priv.PubKey()
		return &JWK{
			Kty: "EC",
			Crv: "secp256k1",
			X:   base64.RawURLEncoding.EncodeToString(padTo32(pub.X().Bytes())),
			Y:   base64.RawURLEncoding.EncodeToString(padTo32(pub.Y().Bytes())),
			D:   base64.RawURLEncoding.EncodeToString(padTo32(k.priv.D.Bytes())),
		}, nil
	case AlgorithmES256:
		return &JWK{
			Kty: "EC",
			Crv: "P-256",
			X:   base64.RawURLEncoding.EncodeToString(padTo32(k.priv.X.Bytes())),
			Y:   base64.RawURLEncoding.EncodeToString(padTo32(k.priv.Y.Bytes())),
			D:   base64.RawURLEncoding.EncodeToString(padTo32(k.priv.D.Bytes())),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, k.alg)
	}
}

func padTo32(b []byte) []byte {
	if len(b) >= 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
