package catalog

import "time"

// Collection is a named grouping of catalog items owned by one principal.
// Immutable once created except for the title.
type Collection struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item is a committed ingestion result. The pair (CollectionID, Fingerprint)
// is unique within the catalog; the database enforces it, and callers must
// treat a violation as "already present" rather than a hard error.
type Item struct {
	ID            string     `json:"id"`
	CollectionID  string     `json:"collectionId"`
	Owner         string     `json:"owner"`
	Fingerprint   string     `json:"fingerprint"`
	FileName      string     `json:"fileName"`
	MimeType      string     `json:"mimeType"`
	SizeBytes     int64      `json:"sizeBytes"`
	ModifiedAt    *time.Time `json:"modifiedAt,omitempty"`
	CapturedAt    *time.Time `json:"capturedAt,omitempty"`
	Width         int        `json:"width,omitempty"`
	Height        int        `json:"height,omitempty"`
	RenditionPath string     `json:"renditionPath"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// QuotaAccount is the per-principal storage budget. used_bytes <= limit_bytes
// holds at every observable instant; the reservation operation enforces it
// atomically at the database, never with a client-side check.
type QuotaAccount struct {
	Owner      string `json:"owner"`
	UsedBytes  int64  `json:"usedBytes"`
	LimitBytes int64  `json:"limitBytes"`
}
