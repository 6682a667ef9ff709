package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/trace4eu/go-ebsi-sdk/ledger"
)

// SignEthTx validates the unsigned transaction shape, signs it with this
// key under EIP-155 and returns the raw RLP transaction plus the r/s/v
// components. Validation happens before any signing so malformed input
// never costs a rotation slot.
func (k *Key) SignEthTx(unsigned *ledger.UnsignedTransaction) (*ledger.SignedTransaction, error) {
	if k.alg != AlgorithmES256K {
		return nil, &SignatureError{Err: fmt.Errorf("%w: eth transactions require ES256K, key is %s", ErrUnsupportedAlgorithm, k.alg)}
	}
	if err := validateUnsignedTransaction(unsigned); err != nil {
		return nil, err
	}

	nonce, err := parseQuantity(unsigned.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %w", err)
	}
	value, err := parseQuantity(unsigned.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	chainID, err := parseQuantity(unsigned.ChainID)
	if err != nil {
		return nil, fmt.Errorf("invalid chainId: %w", err)
	}
	gasLimit, err := parseQuantity(unsigned.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid gasLimit: %w", err)
	}
	gasPrice, err := parseQuantity(unsigned.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gasPrice: %w", err)
	}

	to := common.HexToAddress(unsigned.To)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce.Uint64(),
		GasPrice: gasPrice,
		Gas:      gasLimit.Uint64(),
		To:       &to,
		Value:    value,
		Data:     common.FromHex(unsigned.Data),
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), k.priv)
	if err != nil {
		return nil, &SignatureError{Err: err}
	}

	var buf bytes.Buffer
	if err := rlp.Encode(&buf, signed); err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	v, r, s := signed.RawSignatureValues()
	return &ledger.SignedTransaction{
		SignedRawTransaction: "0x" + hex.EncodeToString(buf.Bytes()),
		R:                    "0x" + r.Text(16),
		S:                    "0x" + s.Text(16),
		V:                    "0x" + v.Text(16),
	}, nil
}

func validateUnsignedTransaction(tx *ledger.UnsignedTransaction) error {
	switch {
	case tx.To == "":
		return &ValidationError{Field: "to"}
	case tx.Data == "":
		return &ValidationError{Field: "data"}
	case tx.ChainID == "":
		return &ValidationError{Field: "chainId"}
	case tx.Nonce == "":
		return &ValidationError{Field: "nonce"}
	case tx.Value == "":
		return &ValidationError{Field: "value"}
	}
	return nil
}

// parseQuantity accepts the hex quantity strings EBSI nodes return
// ("0x0", "0x1b4") as well as plain decimal.
func parseQuantity(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return big.NewInt(0), nil
		}
		n, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, fmt.Errorf("malformed hex quantity %q", s)
		}
		return n, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed quantity %q", s)
	}
	return n, nil
}
