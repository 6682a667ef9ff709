package tnt

// Permission levels of a document access grant.
type Permission int

const (
	PermissionDelegate Permission = 0
	PermissionWrite    Permission = 1
)

// Timestamp is the proof-of-inclusion metadata the ledger attaches to
// documents and events. Datetime is RFC 3339 once decoded from the chain's
// hex epoch form.
type Timestamp struct {
	Datetime string `json:"datetime"`
	Source   string `json:"source"`
	Proof    string `json:"proof"`
}

// DocumentData is the detail view of a tracked document.
type DocumentData struct {
	Metadata  string    `json:"metadata"`
	Timestamp Timestamp `json:"timestamp"`
	Events    []string  `json:"events"`
	Creator   string    `json:"creator"`
}

// EventData is the detail view of one document event. An event belongs to
// exactly one document and is immutable once mined; the ledger reverts a
// second event with the same id and hash.
type EventData struct {
	EventHash string    `json:"eventHash"`
	EventID   string    `json:"eventId"`
	Timestamp Timestamp `json:"timestamp"`
	Sender    string    `json:"sender"`
	Origin    string    `json:"origin"`
	Metadata  string    `json:"metadata"`
}

// ObjectRef is one entry of a listing response.
type ObjectRef struct {
	DocumentID string `json:"documentId"`
	EventID    string `json:"eventId,omitempty"`
	Href       string `json:"href,omitempty"`
}

// PagedObjectList is a paginated listing of documents.
type PagedObjectList struct {
	Self     string      `json:"self"`
	Items    []ObjectRef `json:"items"`
	Total    int         `json:"total"`
	PageSize int         `json:"pageSize"`
}

// AccessGrant is one entry of a document's access list. Revocation never
// deletes a grant; the effective permission set is granted minus revoked,
// evaluated by the read API.
type AccessGrant struct {
	DocumentID string `json:"documentId"`
	GrantedBy  string `json:"grantedBy"`
	Subject    string `json:"subject"`
	Permission string `json:"permission"`
}

// AccessList is a document's access listing.
type AccessList struct {
	Items []AccessGrant `json:"items"`
	Total int           `json:"total"`
}
