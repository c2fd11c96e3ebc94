package models

import "time"

// Photo type values. A before photo documents the litter report, an
// after photo is the cleanup proof that goes through verification.
const (
	PhotoTypeBefore = "before"
	PhotoTypeAfter  = "after"
)

// Verification status values. pending -> approved|rejected, terminal.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

type Photo struct {
	ID                 string   `json:"id" db:"id"`
	MarkerID           string   `json:"marker_id" db:"marker_id"`
	UserID             string   `json:"user_id" db:"user_id"`
	ImagePath          string   `json:"image_path" db:"image_path"`
	Type               string   `json:"type" db:"type"`
	VerificationStatus string   `json:"verification_status" db:"verification_status"`
	JudgeResponse      *string  `json:"judge_response,omitempty" db:"judge_response"`
	Confidence         *float64 `json:"confidence,omitempty" db:"confidence"`
	VerifiedAt         *int64   `json:"verified_at,omitempty" db:"verified_at"` // Unix timestamp
	CreatedAt          int64    `json:"created_at" db:"created_at"`             // Unix timestamp
}

// IsPending reports whether the photo is still awaiting a verdict.
func (p *Photo) IsPending() bool {
	return p.VerificationStatus == VerificationPending
}

// PhotoResponse is what we send to the client
type PhotoResponse struct {
	ID                 string   `json:"id"`
	MarkerID           string   `json:"marker_id"`
	UserID             string   `json:"user_id"`
	ImagePath          string   `json:"image_path"`
	Type               string   `json:"type"`
	VerificationStatus string   `json:"verification_status"`
	Confidence         *float64 `json:"confidence,omitempty"`
	VerifiedAtIso      *string  `json:"verifiedAtIso,omitempty"`
	CreatedAtIso       string   `json:"createdAtIso"`
}

// ToPhotoResponse converts a Photo to PhotoResponse
func (p *Photo) ToPhotoResponse() PhotoResponse {
	resp := PhotoResponse{
		ID:                 p.ID,
		MarkerID:           p.MarkerID,
		UserID:             p.UserID,
		ImagePath:          p.ImagePath,
		Type:               p.Type,
		VerificationStatus: p.VerificationStatus,
		Confidence:         p.Confidence,
		CreatedAtIso:       time.Unix(p.CreatedAt, 0).Format(time.RFC3339),
	}

	if p.VerifiedAt != nil {
		iso := time.Unix(*p.VerifiedAt, 0).Format(time.RFC3339)
		resp.VerifiedAtIso = &iso
	}

	return resp
}

// VerificationStatusResponse summarizes a marker's verification state
// for GET /api/markers/:id/verification
type VerificationStatusResponse struct {
	MarkerID     string          `json:"marker_id"`
	MarkerStatus string          `json:"marker_status"`
	BeforeCount  int             `json:"before_count"`
	AfterCount   int             `json:"after_count"`
	Photos       []PhotoResponse `json:"photos"`
}
