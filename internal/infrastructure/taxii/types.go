// Package taxii implements a TAXII 2.1 pull client: discovery, collection
// listing, and paginated object retrieval with per-feed authentication and
// retry.
package taxii

import "time"

// Discovery is the response of the TAXII discovery endpoint.
type Discovery struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Default     string   `json:"default,omitempty"`
	APIRoots    []string `json:"api_roots,omitempty"`
}

// Collection describes one collection under an API root.
type Collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CanRead     bool     `json:"can_read"`
	CanWrite    bool     `json:"can_write"`
	MediaTypes  []string `json:"media_types,omitempty"`
}

// collectionsResponse is the wire shape of the collections endpoint.
type collectionsResponse struct {
	Collections []Collection `json:"collections"`
}

// Envelope is one page of objects from a collection. More signals that the
// server holds further pages beyond this one.
type Envelope struct {
	More    bool             `json:"more"`
	Objects []map[string]any `json:"objects"`
}

// Page couples an envelope with the date-added bounds the server reported
// for it. DateAddedLast feeds the next poll's added_after cursor.
type Page struct {
	Envelope       Envelope
	DateAddedFirst time.Time
	DateAddedLast  time.Time
}

// GetObjectsParams narrows an object retrieval request.
type GetObjectsParams struct {
	AddedAfter time.Time
	Limit      int
	Offset     int
}
