package timestamp

import (
	"github.com/trace4eu/go-ebsi-sdk/recordid"
)

// Hash algorithm ids accepted by the Timestamp API.
const (
	HashAlgSHA256 = 0
	HashAlgSHA512 = 1
)

// RecordResult is the outcome of creating a record. ID is derived from the
// mined receipt and is nil when the caller opted out of confirmation; in
// that case only the provisional transaction hash is known and the record
// must not be assumed to exist.
type RecordResult struct {
	TransactionHash string
	ID              *recordid.Identifier
}

// VersionResult is the outcome of creating a record version. VersionID is
// inferred from the version count read before submission, not assigned by
// the ledger.
type VersionResult struct {
	TransactionHash string
	VersionID       int
}

// TimestampResult is the outcome of a plain timestampHashes call.
type TimestampResult struct {
	TransactionHash string
}

// VersionRef is one entry of a record's version listing.
type VersionRef struct {
	VersionID string `json:"versionId"`
	Href      string `json:"href"`
}

// RecordVersions is the read API's version listing for one record.
type RecordVersions struct {
	Self     string       `json:"self"`
	Items    []VersionRef `json:"items"`
	Total    int          `json:"total"`
	PageSize int          `json:"pageSize"`
}

// RecordVersionDetails is the read API's detail view of one version.
type RecordVersionDetails struct {
	Hashes     []string `json:"hashes"`
	Info       []string `json:"info"`
	Timestamps []string `json:"timestamps"`
}

// TimestampData is the read API's detail view of one timestamp.
type TimestampData struct {
	Hash            string `json:"hash"`
	TimestampedBy   string `json:"timestampedBy"`
	BlockNumber     int64  `json:"blockNumber"`
	Timestamp       string `json:"timestamp"`
	TransactionHash string `json:"transactionHash"`
	Data            string `json:"data"`
}

// HashEntry is one unit of a concurrent batch submission.
type HashEntry struct {
	HashAlgorithmID int
	HashValue       string
	TimestampData   []string
}
