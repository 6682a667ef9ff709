package tnt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trace4eu/go-ebsi-sdk/authorisation"
	"github.com/trace4eu/go-ebsi-sdk/ledger"
	"github.com/trace4eu/go-ebsi-sdk/wallet"
)

const (
	testDID          = "did:ebsi:zobuuYAHkAbRFCcqdcJfTgR"
	testDocumentHash = "0x3cd16f4a40b17b5b8a841ddee32b8c98b9ad08b0a4d4d6a4e464631c7f30b1e7"
)

type fakeAuth struct {
	scopes []string
}

func (a *fakeAuth) GetAccessToken(ctx context.Context, alg, scope string, credentials []string) (*authorisation.TokenResponse, error) {
	a.scopes = append(a.scopes, scope)
	return &authorisation.TokenResponse{AccessToken: "test-token"}, nil
}

func newTestWallet(t *testing.T) wallet.Wallet {
	t.Helper()
	w, err := wallet.NewLocalWallet(testDID, []wallet.KeyPairData{
		{Alg: wallet.AlgorithmES256K, PrivateKeyHex: "c4877a6d51c382b25a57684b5ac0a70398ab77b0eda0fcece0ca14ed00737e57"},
	})
	require.NoError(t, err)
	return w
}

// mockLedger answers transaction intents with a signable payload and lets
// tests script the receipt and inspect the last intent.
type mockLedger struct {
	t *testing.T

	intentMethod string
	intentParams json.RawMessage
	receipt      map[string]any
	receiptErr   *ledger.RPCError
	rest         http.Handler
}

func (m *mockLedger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		m.rest.ServeHTTP(w, r)
		return
	}

	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     int               `json:"id"`
	}
	require.NoError(m.t, json.NewDecoder(r.Body).Decode(&req))

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "sendSignedTransaction":
		resp["result"] = "0xabc"
	case "eth_getTransactionReceipt":
		if m.receiptErr != nil {
			resp["error"] = m.receiptErr
		} else {
			resp["result"] = m.receipt
		}
	default:
		m.intentMethod = req.Method
		m.intentParams = req.Params[0]
		var params struct {
			From string `json:"from"`
		}
		require.NoError(m.t, json.Unmarshal(req.Params[0], &params))
		resp["result"] = map[string]any{
			"to":       "0x32f54a4d60b0cdf5ba4c6b3bf4db0e9f5a9cc1fe",
			"from":     params.From,
			"data":     "0xdeadbeef",
			"nonce":    "0x0",
			"value":    "0x0",
			"chainId":  "0x181f",
			"gasLimit": "0x1e8480",
			"gasPrice": "0x0",
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T, mock *mockLedger, cfg ClientConfig) (*Client, *fakeAuth) {
	t.Helper()
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	auth := &fakeAuth{}
	cfg.Wallet = newTestWallet(t)
	cfg.Auth = auth
	cfg.RPCEndpoint = srv.URL
	cfg.APIEndpoint = srv.URL
	cfg.ReceiptEndpoint = srv.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)
	c.Ledger().Poller().Interval = time.Millisecond
	return c, auth
}

func minedReceipt() map[string]any {
	return map[string]any{"transactionHash": "0xabc", "blockNumber": "0x64"}
}

func TestCreateDocument(t *testing.T) {
	mock := &mockLedger{t: t, receipt: minedReceipt()}
	c, auth := newTestClient(t, mock, ClientConfig{})

	got, err := c.CreateDocument(context.Background(), testDocumentHash, `{"type":"invoice"}`, true)
	require.NoError(t, err)
	assert.Equal(t, testDocumentHash, got)
	assert.Equal(t, []string{authorisation.ScopeTntCreate}, auth.scopes)
	assert.Equal(t, "createDocument", mock.intentMethod)

	var params struct {
		DocumentHash   string `json:"documentHash"`
		DidEbsiCreator string `json:"didEbsiCreator"`
	}
	require.NoError(t, json.Unmarshal(mock.intentParams, &params))
	assert.Equal(t, testDocumentHash, params.DocumentHash)
	assert.Equal(t, testDID, params.DidEbsiCreator)
}

func TestCreateDocumentMetadataSchema(t *testing.T) {
	schema := `{"type":"object","required":["type"],"properties":{"type":{"type":"string"}}}`
	mock := &mockLedger{t: t, receipt: minedReceipt()}
	c, _ := newTestClient(t, mock, ClientConfig{MetadataSchema: schema})

	_, err := c.CreateDocument(context.Background(), testDocumentHash, `{"other":1}`, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
	// no transaction was built for invalid metadata
	assert.Empty(t, mock.intentMethod)

	_, err = c.CreateDocument(context.Background(), testDocumentHash, `{"type":"invoice"}`, true)
	require.NoError(t, err)
}

func TestAddEventToDocument(t *testing.T) {
	mock := &mockLedger{t: t, receipt: minedReceipt()}
	c, auth := newTestClient(t, mock, ClientConfig{})

	got, err := c.AddEventToDocument(context.Background(), testDocumentHash, "0xevent1", `{"step":"shipped"}`, "warehouse-7", true)
	require.NoError(t, err)
	assert.Equal(t, "0xevent1", got)
	assert.Equal(t, []string{authorisation.ScopeTntWrite}, auth.scopes)
	assert.Equal(t, "writeEvent", mock.intentMethod)

	var params struct {
		EventParams struct {
			DocumentHash string `json:"documentHash"`
			ExternalHash string `json:"externalHash"`
			Sender       string `json:"sender"`
			Origin       string `json:"origin"`
			Metadata     string `json:"metadata"`
		} `json:"eventParams"`
	}
	require.NoError(t, json.Unmarshal(mock.intentParams, &params))
	assert.Equal(t, testDocumentHash, params.EventParams.DocumentHash)
	assert.Equal(t, "0xevent1", params.EventParams.ExternalHash)
	assert.Equal(t, "warehouse-7", params.EventParams.Origin)
	assert.True(t, strings.HasPrefix(params.EventParams.Sender, "0x"))
}

func TestAddEventToDocumentDuplicateReverts(t *testing.T) {
	mock := &mockLedger{t: t, receipt: map[string]any{
		"transactionHash": "0xabc",
		"blockNumber":     "0x64",
		"revertReason":    "Event already exists",
	}}
	c, _ := newTestClient(t, mock, ClientConfig{})

	_, err := c.AddEventToDocument(context.Background(), testDocumentHash, "0xevent1", `{}`, "warehouse-7", true)
	require.Error(t, err)

	var revertErr *ledger.RevertedTransactionError
	require.ErrorAs(t, err, &revertErr)
	assert.Equal(t, "Event already exists", revertErr.Reason)
}

func TestGrantAndRevokeAccess(t *testing.T) {
	mock := &mockLedger{t: t, receipt: minedReceipt()}
	c, _ := newTestClient(t, mock, ClientConfig{})

	err := c.GrantAccessToDocument(context.Background(), testDocumentHash, testDID, "did:ebsi:zother", 0, 0, PermissionWrite, true)
	require.NoError(t, err)
	assert.Equal(t, "grantAccess", mock.intentMethod)

	var grant struct {
		GrantedByAccount string `json:"grantedByAccount"`
		SubjectAccount   string `json:"subjectAccount"`
		Permission       int    `json:"permission"`
	}
	require.NoError(t, json.Unmarshal(mock.intentParams, &grant))
	assert.Equal(t, testDID, grant.GrantedByAccount)
	assert.Equal(t, "did:ebsi:zother", grant.SubjectAccount)
	assert.Equal(t, int(PermissionWrite), grant.Permission)

	err = c.RevokeAccessToDocument(context.Background(), testDocumentHash, testDID, "did:ebsi:zother", PermissionWrite, true)
	require.NoError(t, err)
	assert.Equal(t, "revokeAccess", mock.intentMethod)

	var revoke struct {
		RevokedByAccount string `json:"revokedByAccount"`
	}
	require.NoError(t, json.Unmarshal(mock.intentParams, &revoke))
	assert.Equal(t, testDID, revoke.RevokedByAccount)
}

func TestIsDocumentMined(t *testing.T) {
	mock := &mockLedger{t: t}
	c, _ := newTestClient(t, mock, ClientConfig{})

	ok, err := c.IsDocumentMined(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.receipt = minedReceipt()
	ok, err = c.IsDocumentMined(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.True(t, ok)
}
