package ledger

import (
	"errors"
	"fmt"
)

// ErrNotYetMined signals that eth_getTransactionReceipt returned null: the
// transaction is still pending. It is the only error the poller retries on.
var ErrNotYetMined = errors.New("transaction not yet mined")

// RevertedTransactionError is terminal: the transaction was included in a
// block but its execution was rolled back. Retrying can never succeed (the
// usual cause is a semantic conflict such as a duplicate event), so the
// poller short-circuits on it and callers should not resubmit.
type RevertedTransactionError struct {
	TransactionHash string
	Reason          string
}

func (e *RevertedTransactionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TransactionHash)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TransactionHash, e.Reason)
}

// ExhaustedRetryError is returned when the polling budget is consumed while
// the transaction is still pending. Unlike a revert, the transaction may
// still land later; callers can keep polling with GetTransactionReceipt.
type ExhaustedRetryError struct {
	TransactionHash string
	Attempts        int
}

func (e *ExhaustedRetryError) Error() string {
	return fmt.Sprintf("transaction %s not mined after %d attempts", e.TransactionHash, e.Attempts)
}

// RPCError is a JSON-RPC error envelope returned by an EBSI API node. The
// payload is surfaced unmodified; intent building is idempotent so the
// caller may retry the whole operation.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}
