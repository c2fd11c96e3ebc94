package models

import "time"

// Point history entry kinds. Earned entries carry a positive delta,
// used entries a negative one. Entries are immutable once written.
const (
	PointTypeEarned = "earned"
	PointTypeUsed   = "used"
)

type PointHistory struct {
	ID             string  `json:"id" db:"id"`
	UserID         string  `json:"user_id" db:"user_id"`
	Points         int     `json:"points" db:"points"` // Signed delta
	Type           string  `json:"type" db:"type"`
	Description    string  `json:"description" db:"description"`
	RelatedPhotoID *string `json:"related_photo_id,omitempty" db:"related_photo_id"`
	CreatedAt      int64   `json:"created_at" db:"created_at"` // Unix timestamp
}

// AbsolutePoints returns the unsigned size of the delta.
func (h *PointHistory) AbsolutePoints() int {
	if h.Points < 0 {
		return -h.Points
	}
	return h.Points
}

// PointHistoryResponse is what we send to the client
type PointHistoryResponse struct {
	ID             string  `json:"id"`
	Points         int     `json:"points"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	RelatedPhotoID *string `json:"related_photo_id,omitempty"`
	CreatedAtIso   string  `json:"createdAtIso"`
}

// ToPointHistoryResponse converts a PointHistory to PointHistoryResponse
func (h *PointHistory) ToPointHistoryResponse() PointHistoryResponse {
	return PointHistoryResponse{
		ID:             h.ID,
		Points:         h.Points,
		Type:           h.Type,
		Description:    h.Description,
		RelatedPhotoID: h.RelatedPhotoID,
		CreatedAtIso:   time.Unix(h.CreatedAt, 0).Format(time.RFC3339),
	}
}

// PointStatistics aggregates a user's ledger for GET /api/points/statistics
type PointStatistics struct {
	TotalEarned     int `json:"total_earned"`
	TotalUsed       int `json:"total_used"`
	CurrentPoints   int `json:"current_points"`
	AvailablePoints int `json:"available_points"`
}
