package remote

import (
	"encoding/json"
	"time"
)

// Entity is the wire representation of an entity record. Canonical
// responses always carry EntityID, UpdatedAt and Version.
type Entity struct {
	EntityID  string          `json:"entity_id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Status    string          `json:"status,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Version   string          `json:"version,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Curation is the wire representation of a curation record.
type Curation struct {
	CurationID string    `json:"curation_id"`
	EntityID   string    `json:"entity_id"`
	CuratorID  string    `json:"curator_id,omitempty"`
	Category   string    `json:"category,omitempty"`
	Concept    string    `json:"concept,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Version    string    `json:"version,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListOptions narrows and paginates list requests.
type ListOptions struct {
	UpdatedAfter *time.Time
	Cursor       string
	PageSize     int
}

// EntityPage is one page of an entity listing.
type EntityPage struct {
	Count      int      `json:"count"`
	NextCursor *string  `json:"next_cursor"`
	Entities   []Entity `json:"entities"`
}

// CurationPage is one page of a curation listing.
type CurationPage struct {
	Count      int        `json:"count"`
	NextCursor *string    `json:"next_cursor"`
	Curations  []Curation `json:"curations"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
