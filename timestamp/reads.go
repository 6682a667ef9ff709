package timestamp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

// GetRecordVersions lists the versions of a record. The record id must be
// in its multibase form.
func (c *Client) GetRecordVersions(ctx context.Context, multibaseID string) (*RecordVersions, error) {
	var versions RecordVersions
	u := c.api + "/records/" + url.PathEscape(multibaseID) + "/versions"
	if err := c.getJSON(ctx, u, &versions); err != nil {
		return nil, err
	}
	return &versions, nil
}

// GetRecordVersionDetails fetches one version of a record.
func (c *Client) GetRecordVersionDetails(ctx context.Context, multibaseID, versionID string) (*RecordVersionDetails, error) {
	var details RecordVersionDetails
	u := c.api + "/records/" + url.PathEscape(multibaseID) + "/versions/" + url.PathEscape(versionID)
	if err := c.getJSON(ctx, u, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTimestampDetails fetches one timestamp by id.
func (c *Client) GetTimestampDetails(ctx context.Context, timestampID string) (*TimestampData, error) {
	var data TimestampData
	u := c.api + "/timestamps/" + url.PathEscape(timestampID)
	if err := c.getJSON(ctx, u, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
