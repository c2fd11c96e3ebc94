package models

import "time"

// Marker status values. A marker never returns to active once it has
// been cleaned or removed.
const (
	MarkerStatusActive  = "active"
	MarkerStatusCleaned = "cleaned"
	MarkerStatusRemoved = "removed"
)

type Marker struct {
	ID          string  `json:"id" db:"id"`
	Lat         float64 `json:"lat" db:"lat"`
	Lng         float64 `json:"lng" db:"lng"`
	Description string  `json:"description" db:"description"`
	Address     *string `json:"address,omitempty" db:"address"`
	Status      string  `json:"status" db:"status"`
	ReportedBy  string  `json:"reported_by" db:"reported_by"`
	CreatedAt   int64   `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt   int64   `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// MarkerResponse is what we send to the client with ISO timestamps
type MarkerResponse struct {
	ID           string  `json:"id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Description  string  `json:"description"`
	Address      *string `json:"address,omitempty"`
	Status       string  `json:"status"`
	ReportedBy   string  `json:"reported_by"`
	CreatedAtIso string  `json:"createdAtIso"`
	UpdatedAtIso string  `json:"updatedAtIso"`
}

// CreateMarkerRequest is the request body for POST /api/markers
type CreateMarkerRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
	Address     *string `json:"address,omitempty"`
}

// UpdateMarkerStatusRequest is the request body for PATCH /api/markers/:id/status
type UpdateMarkerStatusRequest struct {
	Status string `json:"status"` // "cleaned" or "removed"; "active" is rejected
}

// ToMarkerResponse converts a Marker to MarkerResponse
func (m *Marker) ToMarkerResponse() MarkerResponse {
	return MarkerResponse{
		ID:           m.ID,
		Lat:          m.Lat,
		Lng:          m.Lng,
		Description:  m.Description,
		Address:      m.Address,
		Status:       m.Status,
		ReportedBy:   m.ReportedBy,
		CreatedAtIso: time.Unix(m.CreatedAt, 0).Format(time.RFC3339),
		UpdatedAtIso: time.Unix(m.UpdatedAt, 0).Format(time.RFC3339),
	}
}
