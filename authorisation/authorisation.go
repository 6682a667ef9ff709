// Package authorisation exchanges a signed Verifiable Presentation for a
// short-lived bearer access token scoped to one EBSI operation
// (timestamp_write, tnt_create, ...).
package authorisation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trace4eu/go-ebsi-sdk/config"
	"github.com/trace4eu/go-ebsi-sdk/internal/httpclient"
	"github.com/trace4eu/go-ebsi-sdk/wallet"
)

// Scopes accepted by the EBSI Authorisation API.
const (
	ScopeDidRInvite     = "didr_invite"
	ScopeDidRWrite      = "didr_write"
	ScopeTirInvite      = "tir_invite"
	ScopeTirWrite       = "tir_write"
	ScopeTimestampWrite = "timestamp_write"
	ScopeTntAuthorise   = "tnt_authorise"
	ScopeTntCreate      = "tnt_create"
	ScopeTntWrite       = "tnt_write"
)

// TokenResponse is the token endpoint's success payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token,omitempty"`
}

// Error is a failed token exchange: a non-2xx response, or a 2xx response
// whose access_token is not a well-formed JWT.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authorisation failed with http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("authorisation failed: %s", e.Body)
}

// AuthorisationApi is the token-exchange collaborator consumed by the
// timestamp and track-and-trace clients.
type AuthorisationApi interface {
	GetAccessToken(ctx context.Context, alg, scope string, credentials []string) (*TokenResponse, error)
}

// EbsiAuthorisationApi implements the exchange against the EBSI
// Authorisation API using OpenID Connect presentation exchange.
type EbsiAuthorisationApi struct {
	wallet  wallet.Wallet
	baseURL string
	http    *http.Client
}

// New creates an authorisation client bound to a wallet. The base URL
// defaults to the pilot Authorisation API.
func New(w wallet.Wallet) *EbsiAuthorisationApi {
	return &EbsiAuthorisationApi{
		wallet:  w,
		baseURL: config.AuthorisationAPI(),
		http:    httpclient.New(),
	}
}

// NewWithBaseURL creates an authorisation client against a specific
// Authorisation API deployment.
func NewWithBaseURL(w wallet.Wallet, baseURL string, client *http.Client) *EbsiAuthorisationApi {
	if client == nil {
		client = httpclient.New()
	}
	return &EbsiAuthorisationApi{wallet: w, baseURL: baseURL, http: client}
}

type openidMetadata struct {
	TokenEndpoint                  string `json:"token_endpoint"`
	PresentationDefinitionEndpoint string `json:"presentation_definition_endpoint"`
}

// GetAccessToken signs a VP with the wallet and exchanges it for a bearer
// token carrying the requested scope. The caller passes credential JWTs for
// the onboarding scopes that require one; for write scopes an empty VP is
// accepted.
func (a *EbsiAuthorisationApi) GetAccessToken(ctx context.Context, alg, scope string, credentials []string) (*TokenResponse, error) {
	metadata, err := a.fetchOpenidMetadata(ctx)
	if err != nil {
		return nil, err
	}

	signedVP, err := a.wallet.SignVP(alg, credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to sign presentation: %w", err)
	}

	submission, err := json.Marshal(presentationSubmission(scope))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal presentation submission: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "vp_token")
	form.Set("scope", "openid "+scope)
	form.Set("vp_token", signedVP)
	form.Set("presentation_submission", string(submission))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, metadata.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if token.AccessToken == "" || !isJWT(token.AccessToken) {
		return nil, &Error{Body: string(body)}
	}
	return &token, nil
}

func (a *EbsiAuthorisationApi) fetchOpenidMetadata(ctx context.Context) (*openidMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch openid metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var metadata openidMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode openid metadata: %w", err)
	}
	if metadata.TokenEndpoint == "" {
		return nil, fmt.Errorf("openid metadata has no token endpoint")
	}
	return &metadata, nil
}

// presentationSubmission builds the descriptor map the token endpoint
// expects. Onboarding scopes carry one nested jwt_vc descriptor; the write
// scopes present an empty VP.
func presentationSubmission(scope string) map[string]interface{} {
	descriptorMap := []interface{}{}
	switch scope {
	case ScopeDidRInvite, ScopeTirInvite, ScopeTntAuthorise:
		descriptorMap = []interface{}{
			map[string]interface{}{
				"id":     scope + "_credential",
				"format": "jwt_vp",
				"path":   "$",
				"path_nested": map[string]interface{}{
					"id":     scope + "_credential",
					"format": "jwt_vc",
					"path":   "$.vp.verifiableCredential[0]",
				},
			},
		}
	}
	return map[string]interface{}{
		"id":             generateSubmissionID(),
		"definition_id":  scope + "_presentation",
		"descriptor_map": descriptorMap,
	}
}

func isJWT(token string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	return err == nil
}
