package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/models"
	"hamkae-backend/internal/services"
	"hamkae-backend/pkg/utils"
)

// ListPins returns the caller's pins in masked form, optionally
// filtered by ?filter=available|used.
func ListPins(rewards *services.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		pins, err := rewards.PinsForUser(claims.UserID, r.URL.Query().Get("filter"))
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				utils.Error(w, http.StatusBadRequest, "filter must be available or used")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "Failed to get pins")
			return
		}

		responses := make([]models.RewardPinResponse, 0, len(pins))
		for i := range pins {
			responses = append(responses, pins[i].ToRewardPinResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// RedeemPin consumes a pin code. Redemption happens at most once per
// pin, and expiry is checked against the inclusive boundary.
func RedeemPin(rewards *services.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RedeemPinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if len(req.PinNumber) != models.PinNumberLength {
			utils.Error(w, http.StatusBadRequest, "invalid pin format")
			return
		}

		pin, err := rewards.Redeem(req.PinNumber)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrInvalidCode):
				utils.Error(w, http.StatusNotFound, "invalid pin number")
			case errors.Is(err, common.ErrAlreadyUsed):
				utils.Error(w, http.StatusConflict, "pin already used")
			case errors.Is(err, common.ErrExpired):
				utils.Error(w, http.StatusGone, "pin expired")
			default:
				log.Printf("❌ Pin redemption failed: %v", err)
				utils.Error(w, http.StatusInternalServerError, "Failed to redeem pin")
			}
			return
		}

		log.Printf("✅ Pin redeemed: %s", pin.MaskedPinNumber())
		resp := pin.ToRewardPinResponse()
		utils.JSON(w, http.StatusOK, &resp)
	}
}
