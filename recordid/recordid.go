// Package recordid derives the content-addressed identifier of a timestamp
// record from post-mining data. The identifier does not exist before the
// owning transaction is mined: the derivation includes the block number the
// transaction landed in.
package recordid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// Encoding selects the multibase rendering. The read API accepted different
// forms across versions, so the variant is a configuration parameter rather
// than a constant.
type Encoding int

const (
	// EncodingBase64URL renders the raw 32-byte id as "u" + base64url.
	EncodingBase64URL Encoding = iota
	// EncodingMultihash wraps the id in a sha2-256 multihash header before
	// the base64url rendering.
	EncodingMultihash
)

// Identifier is one record or version id in its two canonical renderings.
// Hex is the on-chain-compatible form; Multibase is the form the read-side
// REST API accepts in paths.
type Identifier struct {
	Hex       string
	Multibase string
}

var recordIDArgs abi.Arguments

func init() {
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	recordIDArgs = abi.Arguments{
		{Type: addressType},
		{Type: uint256Type},
		{Type: bytesType},
	}
}

// Derive computes sha256(abi.encode(sender, blockNumber, payloadHash)) and
// renders it in both canonical encodings. It is pure: identical inputs
// yield byte-identical outputs.
func Derive(sender common.Address, blockNumber *big.Int, payloadHash []byte, enc Encoding) (Identifier, error) {
	if blockNumber == nil {
		return Identifier{}, fmt.Errorf("block number is required")
	}
	if len(payloadHash) == 0 {
		return Identifier{}, fmt.Errorf("payload hash is required")
	}

	packed, err := recordIDArgs.Pack(sender, blockNumber, payloadHash)
	if err != nil {
		return Identifier{}, fmt.Errorf("failed to abi-encode record id inputs: %w", err)
	}
	raw := sha256.Sum256(packed)

	mb, err := encodeMultibase(raw[:], enc)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{
		Hex:       "0x" + hex.EncodeToString(raw[:]),
		Multibase: mb,
	}, nil
}

// FromHex re-renders an existing hex identifier into both encodings, for
// callers that persisted only the hex form.
func FromHex(hexID string, enc Encoding) (Identifier, error) {
	raw, err := hex.DecodeString(trimPrefix0x(hexID))
	if err != nil {
		return Identifier{}, fmt.Errorf("malformed hex identifier: %w", err)
	}
	mb, err := encodeMultibase(raw, enc)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Hex: "0x" + hex.EncodeToString(raw), Multibase: mb}, nil
}

func encodeMultibase(raw []byte, enc Encoding) (string, error) {
	payload := raw
	if enc == EncodingMultihash {
		mh, err := multihash.Encode(raw, multihash.SHA2_256)
		if err != nil {
			return "", fmt.Errorf("failed to multihash-wrap identifier: %w", err)
		}
		payload = mh
	}
	mb, err := multibase.Encode(multibase.Base64url, payload)
	if err != nil {
		return "", fmt.Errorf("failed to multibase-encode identifier: %w", err)
	}
	return mb, nil
}

func trimPrefix0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
