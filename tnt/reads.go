package tnt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Read-side REST lookups. These return already-finalized ledger state and
// own no retry semantics.

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned http %d: %s", rawURL, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of GET %s: %w", rawURL, err)
	}
	return nil
}

// GetDocumentDetails fetches a document. The on-chain hex epoch datetime is
// rendered as RFC 3339.
func (c *Client) GetDocumentDetails(ctx context.Context, documentHash string) (*DocumentData, error) {
	var raw struct {
		Metadata  string `json:"metadata"`
		Timestamp struct {
			Datetime string `json:"datetime"`
			Source   string `json:"source"`
			Proof    string `json:"proof"`
		} `json:"timestamp"`
		Events  []string `json:"events"`
		Creator string   `json:"creator"`
	}
	u := c.api + "/documents/" + url.PathEscape(documentHash)
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	datetime, err := decodeHexEpoch(raw.Timestamp.Datetime)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentHash, err)
	}
	return &DocumentData{
		Metadata: raw.Metadata,
		Timestamp: Timestamp{
			Datetime: datetime,
			Source:   raw.Timestamp.Source,
			Proof:    raw.Timestamp.Proof,
		},
		Events:  raw.Events,
		Creator: raw.Creator,
	}, nil
}

// GetEventDetails fetches one event of a document. The API stores the
// caller-supplied id as externalHash and its own event hash as hash; this
// mapping is undone here.
func (c *Client) GetEventDetails(ctx context.Context, documentHash, eventID string) (*EventData, error) {
	var raw struct {
		ExternalHash string `json:"externalHash"`
		Hash         string `json:"hash"`
		Timestamp    struct {
			Datetime string `json:"datetime"`
			Source   string `json:"source"`
			Proof    string `json:"proof"`
		} `json:"timestamp"`
		Sender   string `json:"sender"`
		Origin   string `json:"origin"`
		Metadata string `json:"metadata"`
	}
	u := c.api + "/documents/" + url.PathEscape(documentHash) + "/events/" + url.PathEscape(eventID)
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	datetime, err := decodeHexEpoch(raw.Timestamp.Datetime)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return &EventData{
		EventHash: raw.ExternalHash,
		EventID:   raw.Hash,
		Timestamp: Timestamp{
			Datetime: datetime,
			Source:   raw.Timestamp.Source,
			Proof:    raw.Timestamp.Proof,
		},
		Sender:   raw.Sender,
		Origin:   raw.Origin,
		Metadata: raw.Metadata,
	}, nil
}

// GetAllDocuments lists documents. pageSize and pageAfter of zero mean the
// API defaults; either may be set without the other.
func (c *Client) GetAllDocuments(ctx context.Context, pageSize, pageAfter int) (*PagedObjectList, error) {
	u := c.api + "/documents"
	q := url.Values{}
	if pageSize > 0 {
		q.Set("page[size]", strconv.Itoa(pageSize))
	}
	if pageAfter > 0 {
		q.Set("page[after]", strconv.Itoa(pageAfter))
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var list PagedObjectList
	if err := c.getJSON(ctx, u, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetAllEventsOfDocument lists the event references of one document.
func (c *Client) GetAllEventsOfDocument(ctx context.Context, documentHash string) ([]ObjectRef, error) {
	var refs []ObjectRef
	u := c.api + "/documents/" + url.PathEscape(documentHash) + "/events"
	if err := c.getJSON(ctx, u, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// ListAccesses lists a document's access grants, revoked entries included.
func (c *Client) ListAccesses(ctx context.Context, documentHash string) (*AccessList, error) {
	var list AccessList
	u := c.api + "/accesses?documentId=" + url.QueryEscape(documentHash)
	if err := c.getJSON(ctx, u, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func decodeHexEpoch(hexEpoch string) (string, error) {
	seconds, err := strconv.ParseInt(strings.TrimPrefix(hexEpoch, "0x"), 16, 64)
	if err != nil {
		return "", fmt.Errorf("malformed datetime %q: %w", hexEpoch, err)
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339), nil
}
