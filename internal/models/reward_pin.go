package models

import "time"

// PinNumberLength is the fixed width of a formatted pin number,
// four 4-digit groups separated by dashes.
const PinNumberLength = 19

type RewardPin struct {
	ID        string `json:"id" db:"id"`
	RewardID  string `json:"reward_id" db:"reward_id"`
	PinNumber string `json:"-" db:"pin_number"` // Full code never serialized directly
	IssuedAt  int64  `json:"issued_at" db:"issued_at"`   // Unix timestamp
	ExpiresAt int64  `json:"expires_at" db:"expires_at"` // Unix timestamp, issued_at + 1 year
	IsUsed    bool   `json:"is_used" db:"is_used"`
	UsedAt    *int64 `json:"used_at,omitempty" db:"used_at"` // Unix timestamp
}

// IsExpiredAt reports whether the pin is expired at the given instant.
// The boundary is inclusive: a pin expiring exactly now is expired.
func (p *RewardPin) IsExpiredAt(now time.Time) bool {
	return now.Unix() >= p.ExpiresAt
}

// IsAvailableAt reports whether the pin can still be redeemed.
func (p *RewardPin) IsAvailableAt(now time.Time) bool {
	return !p.IsUsed && !p.IsExpiredAt(now)
}

// MaskedPinNumber blanks all but the last group of the code.
func (p *RewardPin) MaskedPinNumber() string {
	if len(p.PinNumber) < PinNumberLength {
		return "****-****-****-****"
	}
	return "****-****-****-" + p.PinNumber[15:]
}

// RewardPinResponse is what we send to the client after issuance.
// The full code appears exactly once, in the issuance response.
type RewardPinResponse struct {
	ID           string  `json:"id"`
	RewardID     string  `json:"reward_id"`
	PinNumber    string  `json:"pin_number"` // Masked except at issuance
	IssuedAtIso  string  `json:"issuedAtIso"`
	ExpiresAtIso string  `json:"expiresAtIso"`
	IsUsed       bool    `json:"is_used"`
	UsedAtIso    *string `json:"usedAtIso,omitempty"`
}

// RedeemPinRequest is the request body for POST /api/pins/redeem
type RedeemPinRequest struct {
	PinNumber string `json:"pin_number"`
}

// ToRewardPinResponse converts a RewardPin to its masked response form.
func (p *RewardPin) ToRewardPinResponse() RewardPinResponse {
	return p.toResponse(p.MaskedPinNumber())
}

// ToIssuedPinResponse converts a RewardPin to the issuance response,
// the only place the full code is ever visible.
func (p *RewardPin) ToIssuedPinResponse() RewardPinResponse {
	return p.toResponse(p.PinNumber)
}

func (p *RewardPin) toResponse(pin string) RewardPinResponse {
	resp := RewardPinResponse{
		ID:           p.ID,
		RewardID:     p.RewardID,
		PinNumber:    pin,
		IssuedAtIso:  time.Unix(p.IssuedAt, 0).Format(time.RFC3339),
		ExpiresAtIso: time.Unix(p.ExpiresAt, 0).Format(time.RFC3339),
		IsUsed:       p.IsUsed,
	}

	if p.UsedAt != nil {
		iso := time.Unix(*p.UsedAt, 0).Format(time.RFC3339)
		resp.UsedAtIso = &iso
	}

	return resp
}
