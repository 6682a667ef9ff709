package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcHandler(t *testing.T, handle func(method string, params json.RawMessage) (any, *RPCError)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string          `json:"jsonrpc"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
			ID      int             `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestBuildIntent(t *testing.T) {
	unsigned := &UnsignedTransaction{
		To:       "0x32f54a4d60b0cdf5ba4c6b3bf4db0e9f5a9cc1fe",
		From:     "0x9fc2a8b36e5cf947ac66df1e0b8e5a64c1f3fd5b",
		Data:     "0xdeadbeef",
		Nonce:    "0x0",
		Value:    "0x0",
		ChainID:  "0x181f",
		GasLimit: "0x1e8480",
		GasPrice: "0x0",
	}

	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
			assert.Equal(t, "createDocument", method)
			return unsigned, nil
		})(w, r)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{RPCEndpoint: srv.URL, ReceiptEndpoint: srv.URL})
	got, err := c.BuildIntent(context.Background(), "createDocument", map[string]any{"documentHash": "0x01"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, unsigned, got)
	assert.Equal(t, "Bearer tok", gotAuth.Load())
}

func TestBuildIntentRPCError(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32602, Message: "invalid params"}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{RPCEndpoint: srv.URL, ReceiptEndpoint: srv.URL})
	_, err := c.BuildIntent(context.Background(), "createDocument", nil, "tok")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
	assert.Equal(t, "invalid params", rpcErr.Message)
}

func TestBuildIntentWithoutEndpoint(t *testing.T) {
	c := NewClient(ClientConfig{})

	_, err := c.BuildIntent(context.Background(), "createDocument", nil, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint configured")
}

func TestGetTransactionReceipt(t *testing.T) {
	tests := []struct {
		name    string
		result  any
		wantErr func(*testing.T, error)
	}{
		{
			name:   "pending",
			result: nil,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotYetMined)
			},
		},
		{
			name: "reverted",
			result: map[string]any{
				"transactionHash": "0xabc",
				"blockNumber":     "0x64",
				"revertReason":    "Event already exists",
			},
			wantErr: func(t *testing.T, err error) {
				var revertErr *RevertedTransactionError
				require.ErrorAs(t, err, &revertErr)
				assert.Equal(t, "Event already exists", revertErr.Reason)
			},
		},
		{
			name: "mined",
			result: map[string]any{
				"transactionHash": "0xabc",
				"blockNumber":     "0x64",
				"status":          "0x1",
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
				assert.Equal(t, "eth_getTransactionReceipt", method)
				return tt.result, nil
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{RPCEndpoint: srv.URL, ReceiptEndpoint: srv.URL})
			receipt, err := c.GetTransactionReceipt(context.Background(), "0xabc", "tok")
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x64", receipt.BlockNumber)
		})
	}
}

func TestSubmitWithoutWaiting(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
		assert.Equal(t, "sendSignedTransaction", method)
		return "0xdeadbeef", nil
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{RPCEndpoint: srv.URL, ReceiptEndpoint: srv.URL})
	result, err := c.Submit(context.Background(), &UnsignedTransaction{}, &SignedTransaction{}, "tok", false)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", result.TransactionHash)
	assert.Nil(t, result.Receipt)
}

func TestSubmitWaitMined(t *testing.T) {
	var receiptCalls atomic.Int32
	srv := httptest.NewServer(rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
		switch method {
		case "sendSignedTransaction":
			return "0xdeadbeef", nil
		case "eth_getTransactionReceipt":
			if receiptCalls.Add(1) < 2 {
				return nil, nil
			}
			return map[string]any{"transactionHash": "0xdeadbeef", "blockNumber": "0x64"}, nil
		default:
			t.Errorf("unexpected method %s", method)
			return nil, &RPCError{Code: -32601, Message: "method not found"}
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{RPCEndpoint: srv.URL, ReceiptEndpoint: srv.URL})
	c.Poller().Interval = time.Millisecond

	result, err := c.Submit(context.Background(), &UnsignedTransaction{}, &SignedTransaction{}, "tok", true)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", result.TransactionHash)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "0x64", result.Receipt.BlockNumber)
	assert.Equal(t, int32(2), receiptCalls.Load())
}
