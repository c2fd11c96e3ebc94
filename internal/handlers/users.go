package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/models"
	"hamkae-backend/pkg/utils"
)

// Me returns the authenticated user's profile with the current balance.
func Me(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := store.UserByID(claims.UserID)
		if errors.Is(err, common.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get user")
			return
		}

		resp := user.ToUserResponse()
		utils.JSON(w, http.StatusOK, &resp)
	}
}

// UpdateProfile changes the authenticated user's display name.
func UpdateProfile(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req models.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == nil || *req.Name == "" {
			utils.Error(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := store.UpdateUserName(claims.UserID, *req.Name); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "user not found")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}

		user, err := store.UserByID(claims.UserID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get user")
			return
		}

		resp := user.ToUserResponse()
		utils.JSON(w, http.StatusOK, &resp)
	}
}

// MyPoints returns just the caller's current balance.
func MyPoints(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		balance, err := store.UserBalance(claims.UserID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get balance")
			return
		}

		utils.JSON(w, http.StatusOK, map[string]int{"points": balance})
	}
}

// UpdateFCMToken registers the caller's device token for push delivery.
func UpdateFCMToken(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req models.UpdateFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			utils.Error(w, http.StatusBadRequest, "token is required")
			return
		}

		if err := store.UpdateUserFCMToken(claims.UserID, req.Token); err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to update token")
			return
		}

		utils.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
