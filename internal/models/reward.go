package models

import "time"

// Reward status values. The immediate-exchange flow creates rewards
// already approved; pending/rejected remain for interface compatibility
// with clients built against the older review flow.
const (
	RewardStatusPending  = "pending"
	RewardStatusApproved = "approved"
	RewardStatusRejected = "rejected"
)

type Reward struct {
	ID          string `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"user_id"`
	PointsUsed  int    `json:"points_used" db:"points_used"`
	RewardType  string `json:"reward_type" db:"reward_type"`
	Status      string `json:"status" db:"status"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`     // Unix timestamp
	ProcessedAt *int64 `json:"processed_at,omitempty" db:"processed_at"` // Unix timestamp
}

// RewardResponse is what we send to the client
type RewardResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	PointsUsed     int     `json:"points_used"`
	RewardType     string  `json:"reward_type"`
	Status         string  `json:"status"`
	CreatedAtIso   string  `json:"createdAtIso"`
	ProcessedAtIso *string `json:"processedAtIso,omitempty"`
}

// ExchangeRequest is the request body for POST /api/rewards/exchange
type ExchangeRequest struct {
	Points     int    `json:"points"`
	RewardType string `json:"reward_type"`
}

// ToRewardResponse converts a Reward to RewardResponse
func (r *Reward) ToRewardResponse() RewardResponse {
	resp := RewardResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		PointsUsed:   r.PointsUsed,
		RewardType:   r.RewardType,
		Status:       r.Status,
		CreatedAtIso: time.Unix(r.CreatedAt, 0).Format(time.RFC3339),
	}

	if r.ProcessedAt != nil {
		iso := time.Unix(*r.ProcessedAt, 0).Format(time.RFC3339)
		resp.ProcessedAtIso = &iso
	}

	return resp
}
