// Package ledger implements the transaction lifecycle against an EBSI
// ledger API: building unsigned transaction intents over JSON-RPC,
// submitting signed transactions, and polling for confirmation until a
// terminal outcome (mined, reverted, or retry budget exhausted).
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/trace4eu/go-ebsi-sdk/config"
	"github.com/trace4eu/go-ebsi-sdk/internal/httpclient"
)

// ClientConfig holds the endpoints for one EBSI API. RPCEndpoint receives
// intent calls and sendSignedTransaction; it has no default because each
// API (timestamp, track and trace) exposes its own JSON-RPC endpoint.
// ReceiptEndpoint receives eth_getTransactionReceipt (the besu ledger
// endpoint).
type ClientConfig struct {
	RPCEndpoint     string
	ReceiptEndpoint string
	HTTPClient      *http.Client
}

// Client is a JSON-RPC 2.0 client for one EBSI API node.
type Client struct {
	rpcEndpoint     string
	receiptEndpoint string
	http            *http.Client
	poller          *Poller
}

// NewClient creates a ledger client. Zero config fields fall back to the
// pilot environment defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ReceiptEndpoint == "" {
		cfg.ReceiptEndpoint = config.LedgerJSONRPC()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New()
	}
	c := &Client{
		rpcEndpoint:     cfg.RPCEndpoint,
		receiptEndpoint: cfg.ReceiptEndpoint,
		http:            cfg.HTTPClient,
	}
	c.poller = NewPoller(c)
	return c
}

// Poller returns the confirmation poller bound to this client. Fields may
// be tuned before the first submission.
func (c *Client) Poller() *Poller {
	return c.poller
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

func (c *Client) call(ctx context.Context, endpoint, accessToken, method string, params any) (json.RawMessage, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint configured for %s", method)
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      rand.Intn(1000) + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned http %d: %s", method, resp.StatusCode, respBody)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// BuildIntent sends an intent call (e.g. createDocument,
// timestampRecordHashes, grantAccess) and returns the unsigned transaction
// skeleton prepared by the node. No retry happens at this layer; intent
// construction is read-only on the ledger, so the caller may retry the
// whole operation.
func (c *Client) BuildIntent(ctx context.Context, method string, params any, accessToken string) (*UnsignedTransaction, error) {
	result, err := c.call(ctx, c.rpcEndpoint, accessToken, method, []any{params})
	if err != nil {
		return nil, err
	}
	var tx UnsignedTransaction
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unsigned transaction: %w", err)
	}
	if tx.To == "" || tx.Data == "" {
		return nil, fmt.Errorf("%s returned an empty unsigned transaction", method)
	}
	return &tx, nil
}

type sendSignedParams struct {
	Protocol             string               `json:"protocol"`
	UnsignedTransaction  *UnsignedTransaction `json:"unsignedTransaction"`
	SignedRawTransaction string               `json:"signedRawTransaction"`
	R                    string               `json:"r"`
	S                    string               `json:"s"`
	V                    string               `json:"v"`
}

// SendSignedTransaction bundles the unsigned payload with the signature
// components and submits it. The returned hash is provisional until a
// receipt confirms inclusion.
func (c *Client) SendSignedTransaction(ctx context.Context, unsigned *UnsignedTransaction, signed *SignedTransaction, accessToken string) (string, error) {
	params := sendSignedParams{
		Protocol:             "eth",
		UnsignedTransaction:  unsigned,
		SignedRawTransaction: signed.SignedRawTransaction,
		R:                    signed.R,
		S:                    signed.S,
		V:                    signed.V,
	}
	result, err := c.call(ctx, c.rpcEndpoint, accessToken, "sendSignedTransaction", []any{params})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("failed to unmarshal transaction hash: %w", err)
	}
	return txHash, nil
}

// GetTransactionReceipt looks up the receipt for a transaction hash.
// A null result maps to ErrNotYetMined; a receipt carrying a revertReason
// maps to RevertedTransactionError.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash, accessToken string) (*TransactionReceipt, error) {
	result, err := c.call(ctx, c.receiptEndpoint, accessToken, "eth_getTransactionReceipt", []any{txHash})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, ErrNotYetMined
	}
	var receipt TransactionReceipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction receipt: %w", err)
	}
	if receipt.RevertReason != "" {
		return nil, &RevertedTransactionError{TransactionHash: txHash, Reason: receipt.RevertReason}
	}
	return &receipt, nil
}

// Submit sends the signed transaction. With waitMined=false it returns
// immediately with the provisional hash; with waitMined=true it polls until
// the transaction is mined or a terminal error occurs.
func (c *Client) Submit(ctx context.Context, unsigned *UnsignedTransaction, signed *SignedTransaction, accessToken string, waitMined bool) (*SubmitResult, error) {
	txHash, err := c.SendSignedTransaction(ctx, unsigned, signed, accessToken)
	if err != nil {
		return nil, err
	}
	if !waitMined {
		return &SubmitResult{TransactionHash: txHash}, nil
	}
	receipt, err := c.poller.Wait(ctx, txHash, accessToken)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{TransactionHash: txHash, Receipt: receipt}, nil
}
