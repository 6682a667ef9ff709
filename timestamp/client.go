// Package timestamp implements the EBSI Timestamp API operations: creating
// content-addressed records, appending versions, managing record owners and
// plain hash timestamping. Every write goes through the full transaction
// lifecycle (intent, sign, submit, confirm) with one rotated wallet key per
// operation.
package timestamp

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/trace4eu/go-ebsi-sdk/authorisation"
	"github.com/trace4eu/go-ebsi-sdk/config"
	"github.com/trace4eu/go-ebsi-sdk/internal/httpclient"
	"github.com/trace4eu/go-ebsi-sdk/ledger"
	"github.com/trace4eu/go-ebsi-sdk/recordid"
	"github.com/trace4eu/go-ebsi-sdk/wallet"
)

// ClientConfig configures a timestamp client. Zero fields fall back to the
// pilot environment defaults.
type ClientConfig struct {
	Wallet          wallet.Wallet
	Auth            authorisation.AuthorisationApi
	RPCEndpoint     string
	APIEndpoint     string
	ReceiptEndpoint string
	HTTPClient      *http.Client
	// Encoding selects the multibase variant of derived record ids; it must
	// match the API version the read side targets.
	Encoding recordid.Encoding
}

// Client executes Timestamp API operations.
type Client struct {
	wallet   wallet.Wallet
	auth     authorisation.AuthorisationApi
	ledger   *ledger.Client
	api      string
	http     *http.Client
	encoding recordid.Encoding

	// version creation is serialized per record to keep inferred version
	// ids from colliding within this process
	versionMu sync.Mutex
	perRecord map[string]*sync.Mutex
}

// NewClient creates a timestamp client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Wallet == nil {
		return nil, fmt.Errorf("wallet is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = authorisation.New(cfg.Wallet)
	}
	if cfg.RPCEndpoint == "" {
		cfg.RPCEndpoint = config.TimestampJSONRPC()
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = config.TimestampAPI()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New()
	}
	return &Client{
		wallet: cfg.Wallet,
		auth:   cfg.Auth,
		ledger: ledger.NewClient(ledger.ClientConfig{
			RPCEndpoint:     cfg.RPCEndpoint,
			ReceiptEndpoint: cfg.ReceiptEndpoint,
			HTTPClient:      cfg.HTTPClient,
		}),
		api:       cfg.APIEndpoint,
		http:      cfg.HTTPClient,
		encoding:  cfg.Encoding,
		perRecord: make(map[string]*sync.Mutex),
	}, nil
}

// Ledger exposes the underlying ledger client, mainly to tune the
// confirmation poller.
func (c *Client) Ledger() *ledger.Client {
	return c.ledger
}

// TimestampRecordHashes creates a new record timestamping the given hash
// and returns its content-addressed identifier. The identifier is derived
// from the mined block number, so with waitMined=false only the provisional
// transaction hash is returned.
func (c *Client) TimestampRecordHashes(ctx context.Context, hashAlgorithmID int, hashValue, versionInfo string, timestampData []string, waitMined bool) (*RecordResult, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return nil, err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"hashAlgorithmIds": []int{hashAlgorithmID},
		"hashValues":       []string{hashValue},
		"versionInfo":      versionInfo,
	}
	if len(timestampData) > 0 {
		params["timestampData"] = timestampData
	}

	result, err := c.signAndSubmit(ctx, "timestampRecordHashes", params, signer, token.AccessToken, waitMined)
	if err != nil {
		return nil, err
	}
	out := &RecordResult{TransactionHash: result.TransactionHash}
	if result.Receipt != nil {
		id, err := c.deriveRecordID(signer.Address(), result.Receipt, hashValue)
		if err != nil {
			return nil, err
		}
		out.ID = id
	}
	return out, nil
}

// TimestampRecordVersionHashes appends a version to an existing record. The
// returned version id is the record's version count read before submission;
// the ledger assigns versions implicitly by append order. Version creation
// is serialized per record within this process, but two processes can still
// race on the same record.
func (c *Client) TimestampRecordVersionHashes(ctx context.Context, recordID recordid.Identifier, hashAlgorithmID int, hashValue, versionInfo string, timestampData []string, waitMined bool) (*VersionResult, error) {
	lock := c.recordLock(recordID.Multibase)
	lock.Lock()
	defer lock.Unlock()

	versions, err := c.GetRecordVersions(ctx, recordID.Multibase)
	if err != nil {
		return nil, fmt.Errorf("failed to read record versions: %w", err)
	}

	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return nil, err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"recordId":         recordID.Hex,
		"hashAlgorithmIds": []int{hashAlgorithmID},
		"hashValues":       []string{hashValue},
		"versionInfo":      versionInfo,
	}
	if len(timestampData) > 0 {
		params["timestampData"] = timestampData
	}

	result, err := c.signAndSubmit(ctx, "timestampRecordVersionHashes", params, signer, token.AccessToken, waitMined)
	if err != nil {
		return nil, err
	}
	return &VersionResult{
		TransactionHash: result.TransactionHash,
		VersionID:       versions.Total,
	}, nil
}

// InsertRecordOwner adds an owner to a record. Only current owners may call
// it. notAfter zero means no expiry.
func (c *Client) InsertRecordOwner(ctx context.Context, recordID recordid.Identifier, ownerID string, notBefore, notAfter int64, waitMined bool) (*TimestampResult, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return nil, err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"from":      signer.Address(),
		"recordId":  recordID.Hex,
		"ownerId":   ownerID,
		"notBefore": notBefore,
		"notAfter":  notAfter,
	}
	result, err := c.signAndSubmit(ctx, "insertRecordOwner", params, signer, token.AccessToken, waitMined)
	if err != nil {
		return nil, err
	}
	return &TimestampResult{TransactionHash: result.TransactionHash}, nil
}

// RevokeRecordOwner revokes an owner. The owner entry is kept by the ledger
// and marked revoked; history is preserved.
func (c *Client) RevokeRecordOwner(ctx context.Context, recordID recordid.Identifier, ownerID string, waitMined bool) (*TimestampResult, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return nil, err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"from":     signer.Address(),
		"recordId": recordID.Hex,
		"ownerId":  ownerID,
	}
	result, err := c.signAndSubmit(ctx, "revokeRecordOwner", params, signer, token.AccessToken, waitMined)
	if err != nil {
		return nil, err
	}
	return &TimestampResult{TransactionHash: result.TransactionHash}, nil
}

// TimestampHashes timestamps a hash without creating a record.
func (c *Client) TimestampHashes(ctx context.Context, hashAlgorithmID int, hashValue string, timestampData []string, waitMined bool) (*TimestampResult, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return nil, err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"hashAlgorithmIds": []int{hashAlgorithmID},
		"hashValues":       []string{hashValue},
	}
	if len(timestampData) > 0 {
		params["timestampData"] = timestampData
	}
	result, err := c.signAndSubmit(ctx, "timestampHashes", params, signer, token.AccessToken, waitMined)
	if err != nil {
		return nil, err
	}
	return &TimestampResult{TransactionHash: result.TransactionHash}, nil
}

// TimestampHashesConcurrently submits one timestampHashes transaction per
// entry concurrently. Each submission takes its own rotated key, so entries
// get independent nonce sequences as long as the batch does not exceed the
// configured key count.
func (c *Client) TimestampHashesConcurrently(ctx context.Context, entries []HashEntry, waitMined bool) ([]*TimestampResult, error) {
	results := make([]*TimestampResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			res, err := c.TimestampHashes(gctx, entry.HashAlgorithmID, entry.HashValue, entry.TimestampData, waitMined)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// IsTimestampMined reports whether the transaction behind a timestamp has a
// receipt.
func (c *Client) IsTimestampMined(ctx context.Context, txHash string) (bool, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTimestampWrite, nil)
	if err != nil {
		return false, err
	}
	_, err = c.ledger.GetTransactionReceipt(ctx, txHash, token.AccessToken)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ledger.ErrNotYetMined) {
		return false, nil
	}
	return false, err
}

func (c *Client) signAndSubmit(ctx context.Context, method string, params map[string]interface{}, signer *wallet.Key, accessToken string, waitMined bool) (*ledger.SubmitResult, error) {
	unsigned, err := c.ledger.BuildIntent(ctx, method, params, accessToken)
	if err != nil {
		return nil, err
	}
	signed, err := signer.SignEthTx(unsigned)
	if err != nil {
		return nil, err
	}
	return c.ledger.Submit(ctx, unsigned, signed, accessToken, waitMined)
}

func (c *Client) deriveRecordID(sender string, receipt *ledger.TransactionReceipt, hashValue string) (*recordid.Identifier, error) {
	blockNumber, ok := new(big.Int).SetString(trimPrefix0x(receipt.BlockNumber), 16)
	if !ok {
		return nil, fmt.Errorf("malformed block number %q in receipt", receipt.BlockNumber)
	}
	id, err := recordid.Derive(common.HexToAddress(sender), blockNumber, common.FromHex(hashValue), c.encoding)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Client) recordLock(recordID string) *sync.Mutex {
	c.versionMu.Lock()
	defer c.versionMu.Unlock()
	lock, ok := c.perRecord[recordID]
	if !ok {
		lock = &sync.Mutex{}
		c.perRecord[recordID] = lock
	}
	return lock
}

func trimPrefix0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
