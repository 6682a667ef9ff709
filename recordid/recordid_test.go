package recordid

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSender  = common.HexToAddress("0x9fc2a8b36e5cf947ac66df1e0b8e5a64c1f3fd5b")
	testPayload = sha256.Sum256([]byte("this is hash value 1"))
)

func TestDeriveIsDeterministic(t *testing.T) {
	first, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)
	second, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)

	assert.Equal(t, first.Hex, second.Hex)
	assert.Equal(t, first.Multibase, second.Multibase)
}

func TestDeriveMatchesManualEncoding(t *testing.T) {
	id, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)

	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	packed, err := abi.Arguments{
		{Type: addressType}, {Type: uint256Type}, {Type: bytesType},
	}.Pack(testSender, big.NewInt(100), testPayload[:])
	require.NoError(t, err)
	raw := sha256.Sum256(packed)

	assert.Equal(t, "0x"+hex.EncodeToString(raw[:]), id.Hex)
	assert.Equal(t, "u"+base64.RawURLEncoding.EncodeToString(raw[:]), id.Multibase)
}

func TestDeriveDistinguishesInputs(t *testing.T) {
	base, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)

	otherBlock, err := Derive(testSender, big.NewInt(101), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)
	assert.NotEqual(t, base.Hex, otherBlock.Hex)

	otherSender, err := Derive(common.HexToAddress("0x32f54a4d60b0cdf5ba4c6b3bf4db0e9f5a9cc1fe"), big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)
	assert.NotEqual(t, base.Hex, otherSender.Hex)
}

func TestDeriveMultihashVariant(t *testing.T) {
	raw, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingBase64URL)
	require.NoError(t, err)
	wrapped, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingMultihash)
	require.NoError(t, err)

	// same underlying bytes, different rendering
	assert.Equal(t, raw.Hex, wrapped.Hex)
	assert.NotEqual(t, raw.Multibase, wrapped.Multibase)

	// multihash header: code 0x12 (sha2-256), length 0x20
	require.True(t, strings.HasPrefix(wrapped.Multibase, "u"))
	decoded, err := base64.RawURLEncoding.DecodeString(wrapped.Multibase[1:])
	require.NoError(t, err)
	require.Len(t, decoded, 34)
	assert.Equal(t, byte(0x12), decoded[0])
	assert.Equal(t, byte(0x20), decoded[1])
	assert.Equal(t, strings.TrimPrefix(raw.Hex, "0x"), hex.EncodeToString(decoded[2:]))
}

func TestDeriveInputValidation(t *testing.T) {
	_, err := Derive(testSender, nil, testPayload[:], EncodingBase64URL)
	assert.Error(t, err)

	_, err = Derive(testSender, big.NewInt(100), nil, EncodingBase64URL)
	assert.Error(t, err)
}

func TestFromHex(t *testing.T) {
	id, err := Derive(testSender, big.NewInt(100), testPayload[:], EncodingMultihash)
	require.NoError(t, err)

	round, err := FromHex(id.Hex, EncodingMultihash)
	require.NoError(t, err)
	assert.Equal(t, id, round)

	_, err = FromHex("0xzz", EncodingBase64URL)
	assert.Error(t, err)
}
