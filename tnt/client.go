// Package tnt implements the EBSI Track and Trace API: document creation,
// event recording and document access management, each going through the
// full transaction lifecycle.
package tnt

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	"github.com/trace4eu/go-ebsi-sdk/authorisation"
	"github.com/trace4eu/go-ebsi-sdk/config"
	"github.com/trace4eu/go-ebsi-sdk/internal/httpclient"
	"github.com/trace4eu/go-ebsi-sdk/ledger"
	"github.com/trace4eu/go-ebsi-sdk/wallet"
)

// ClientConfig configures a track-and-trace client. Zero fields fall back
// to the pilot environment defaults.
type ClientConfig struct {
	Wallet          wallet.Wallet
	Auth            authorisation.AuthorisationApi
	RPCEndpoint     string
	APIEndpoint     string
	ReceiptEndpoint string
	HTTPClient      *http.Client
	// MetadataSchema, when set, is a JSON schema that document and event
	// metadata must satisfy before any transaction is built.
	MetadataSchema string
}

// Client executes Track and Trace API operations.
type Client struct {
	wallet         wallet.Wallet
	auth           authorisation.AuthorisationApi
	ledger         *ledger.Client
	api            string
	http           *http.Client
	metadataSchema *gojsonschema.Schema
}

// NewClient creates a track-and-trace client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Wallet == nil {
		return nil, fmt.Errorf("wallet is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = authorisation.New(cfg.Wallet)
	}
	if cfg.RPCEndpoint == "" {
		cfg.RPCEndpoint = config.TrackAndTraceJSONRPC()
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = config.TrackAndTraceAPI()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New()
	}

	var schema *gojsonschema.Schema
	if cfg.MetadataSchema != "" {
		var err error
		schema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.MetadataSchema))
		if err != nil {
			return nil, fmt.Errorf("invalid metadata schema: %w", err)
		}
	}

	return &Client{
		wallet: cfg.Wallet,
		auth:   cfg.Auth,
		ledger: ledger.NewClient(ledger.ClientConfig{
			RPCEndpoint:     cfg.RPCEndpoint,
			ReceiptEndpoint: cfg.ReceiptEndpoint,
			HTTPClient:      cfg.HTTPClient,
		}),
		api:            cfg.APIEndpoint,
		http:           cfg.HTTPClient,
		metadataSchema: schema,
	}, nil
}

// Ledger exposes the underlying ledger client, mainly to tune the
// confirmation poller.
func (c *Client) Ledger() *ledger.Client {
	return c.ledger
}

// CreateDocument registers a document hash on the ledger and returns the
// document hash on success. The creator becomes the document's first access
// grant.
func (c *Client) CreateDocument(ctx context.Context, documentHash, documentMetadata string, waitMined bool) (string, error) {
	if err := c.validateMetadata(documentMetadata); err != nil {
		return "", err
	}
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTntCreate, nil)
	if err != nil {
		return "", err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return "", err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"documentHash":     documentHash,
		"documentMetadata": documentMetadata,
		"didEbsiCreator":   c.wallet.GetDid(),
	}
	if _, err := c.signAndSubmit(ctx, "createDocument", params, signer, token.AccessToken, waitMined); err != nil {
		return "", err
	}
	return documentHash, nil
}

// AddEventToDocument records an event under an existing document and
// returns the event id on success. Submitting the same event id and hash
// twice makes the ledger revert the second transaction.
func (c *Client) AddEventToDocument(ctx context.Context, documentHash, eventID, eventMetadata, origin string, waitMined bool) (string, error) {
	if err := c.validateMetadata(eventMetadata); err != nil {
		return "", err
	}
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTntWrite, nil)
	if err != nil {
		return "", err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return "", err
	}

	params := map[string]interface{}{
		"from": signer.Address(),
		"eventParams": map[string]interface{}{
			"documentHash": documentHash,
			"externalHash": eventID,
			"sender":       c.wallet.GetHexDid(),
			"origin":       origin,
			"metadata":     eventMetadata,
		},
	}
	if _, err := c.signAndSubmit(ctx, "writeEvent", params, signer, token.AccessToken, waitMined); err != nil {
		return "", err
	}
	return eventID, nil
}

// GrantAccessToDocument grants a subject delegate or write permission on a
// document. Only holders of delegate permission may call it.
func (c *Client) GrantAccessToDocument(ctx context.Context, documentHash, grantedByDID, subjectDID string, grantedByAccType, subjectAccType int, permission Permission, waitMined bool) error {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTntWrite, nil)
	if err != nil {
		return err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"documentHash":     documentHash,
		"grantedByAccount": grantedByDID,
		"subjectAccount":   subjectDID,
		"grantedByAccType": grantedByAccType,
		"subjectAccType":   subjectAccType,
		"permission":       int(permission),
	}
	_, err = c.signAndSubmit(ctx, "grantAccess", params, signer, token.AccessToken, waitMined)
	return err
}

// RevokeAccessToDocument revokes a previously granted permission. The grant
// record itself is preserved; the subject joins the document's revoked set.
func (c *Client) RevokeAccessToDocument(ctx context.Context, documentHash, revokedByDID, subjectDID string, permission Permission, waitMined bool) error {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTntWrite, nil)
	if err != nil {
		return err
	}
	signer, err := c.wallet.NextSigner(wallet.AlgorithmES256K)
	if err != nil {
		return err
	}

	params := map[string]interface{}{
		"from":             signer.Address(),
		"documentHash":     documentHash,
		"revokedByAccount": revokedByDID,
		"subjectAccount":   subjectDID,
		"permission":       int(permission),
	}
	_, err = c.signAndSubmit(ctx, "revokeAccess", params, signer, token.AccessToken, waitMined)
	return err
}

// IsDocumentMined reports whether the document's creating transaction has a
// receipt.
func (c *Client) IsDocumentMined(ctx context.Context, txHash string) (bool, error) {
	token, err := c.auth.GetAccessToken(ctx, "ES256", authorisation.ScopeTntCreate, nil)
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

func (c *Client) validateMetadata(metadata string) error {
	if c.metadataSchema == nil {
		return nil
	}
	result, err := c.metadataSchema.Validate(gojsonschema.NewStringLoader(metadata))
	if err != nil {
		return fmt.Errorf("metadata validation failed: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("metadata does not match schema: %v", result.Errors())
	}
	return nil
}
