package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/models"
	"hamkae-backend/internal/services"
	"hamkae-backend/pkg/utils"
)

// ExchangeResponse carries the reward and its pin. The full pin code
// appears here and nowhere else.
type ExchangeResponse struct {
	Reward models.RewardResponse    `json:"reward"`
	Pin    models.RewardPinResponse `json:"pin"`
}

// Exchange converts points into a reward backed by a fresh pin code.
func Exchange(rewards *services.RewardService, store *database.Store, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req models.ExchangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, err := rewards.Exchange(claims.UserID, req.Points, req.RewardType)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrValidation):
				utils.Error(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, common.ErrInsufficientBalance):
				utils.Error(w, http.StatusConflict, "insufficient points")
			case errors.Is(err, common.ErrCodeGenerationExhausted):
				utils.Error(w, http.StatusServiceUnavailable, "could not issue a pin, points refunded")
			default:
				log.Printf("❌ Exchange failed for user %s: %v", claims.UserID, err)
				utils.Error(w, http.StatusInternalServerError, "Failed to exchange points")
			}
			return
		}

		log.Printf("🎁 Reward issued: %s (%d points) for user %s", result.Reward.ID, req.Points, claims.UserID)

		if user, uerr := store.UserByID(claims.UserID); uerr == nil && user.FCMToken != nil {
			if perr := fcm.SendRewardIssuedNotification(*user.FCMToken, result.Reward.ID, result.Reward.RewardType); perr != nil {
				log.Printf("⚠️ Failed to push reward notification: %v", perr)
			}
		}

		utils.JSON(w, http.StatusCreated, ExchangeResponse{
			Reward: result.Reward.ToRewardResponse(),
			Pin:    result.Pin.ToIssuedPinResponse(),
		})
	}
}

// ListRewards returns the caller's rewards.
func ListRewards(rewards *services.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		list, err := rewards.RewardsForUser(claims.UserID, r.URL.Query().Get("status"))
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				utils.Error(w, http.StatusBadRequest, "invalid status filter")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "Failed to get rewards")
			return
		}

		responses := make([]models.RewardResponse, 0, len(list))
		for i := range list {
			responses = append(responses, list[i].ToRewardResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// RewardDetail is a reward with its pin in masked form.
type RewardDetail struct {
	Reward models.RewardResponse     `json:"reward"`
	Pin    *models.RewardPinResponse `json:"pin,omitempty"`
}

// GetReward returns one reward with its masked pin.
func GetReward(rewards *services.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		reward, pin, err := rewards.RewardWithPin(claims.UserID, chi.URLParam(r, "id"))
		if err != nil {
			switch {
			case errors.Is(err, common.ErrNotFound):
				utils.Error(w, http.StatusNotFound, "reward not found")
			case errors.Is(err, common.ErrForbidden):
				utils.Error(w, http.StatusForbidden, "not your reward")
			default:
				utils.Error(w, http.StatusInternalServerError, "Failed to get reward")
			}
			return
		}

		detail := RewardDetail{Reward: reward.ToRewardResponse()}
		if pin != nil {
			masked := pin.ToRewardPinResponse()
			detail.Pin = &masked
		}

		utils.JSON(w, http.StatusOK, detail)
	}
}
