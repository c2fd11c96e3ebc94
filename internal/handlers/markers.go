package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/models"
	"hamkae-backend/internal/services"
	"hamkae-backend/internal/websocket"
	"hamkae-backend/pkg/utils"
)

// CreateMarker reports a new litter location.
func CreateMarker(store *database.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req models.CreateMarkerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			utils.Error(w, http.StatusBadRequest, "invalid coordinates")
			return
		}
		if req.Description == "" {
			utils.Error(w, http.StatusBadRequest, "description is required")
			return
		}

		now := time.Now().Unix()
		marker := &models.Marker{
			ID:          uuid.New().String(),
			Lat:         req.Lat,
			Lng:         req.Lng,
			Description: req.Description,
			Address:     req.Address,
			Status:      models.MarkerStatusActive,
			ReportedBy:  claims.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.CreateMarker(marker); err != nil {
			log.Printf("❌ Failed to create marker: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to create marker")
			return
		}

		log.Printf("📍 Marker created: %s by %s", marker.ID, claims.UserID)
		if hub != nil {
			hub.BroadcastAll(websocket.EventMarkerCreated, marker.ToMarkerResponse())
		}

		resp := marker.ToMarkerResponse()
		utils.JSON(w, http.StatusCreated, &resp)
	}
}

// ListActiveMarkers returns all markers awaiting cleanup.
func ListActiveMarkers(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markers, err := store.ActiveMarkers()
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get markers")
			return
		}

		responses := make([]models.MarkerResponse, 0, len(markers))
		for i := range markers {
			responses = append(responses, markers[i].ToMarkerResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// ListVerifiedMarkers returns markers whose cleanup has been verified.
func ListVerifiedMarkers(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markers, err := store.CleanedMarkers()
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get markers")
			return
		}

		responses := make([]models.MarkerResponse, 0, len(markers))
		for i := range markers {
			responses = append(responses, markers[i].ToMarkerResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// GetMarker returns a single marker.
func GetMarker(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		marker, err := store.MarkerByID(chi.URLParam(r, "id"))
		if errors.Is(err, common.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "marker not found")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get marker")
			return
		}

		resp := marker.ToMarkerResponse()
		utils.JSON(w, http.StatusOK, &resp)
	}
}

// MyMarkers returns the caller's reported markers, optionally filtered
// by ?status=.
func MyMarkers(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		status := r.URL.Query().Get("status")

		var markers []models.Marker
		var err error
		if status != "" {
			if status != models.MarkerStatusActive && status != models.MarkerStatusCleaned && status != models.MarkerStatusRemoved {
				utils.Error(w, http.StatusBadRequest, "invalid status filter")
				return
			}
			markers, err = store.MarkersByReporterAndStatus(claims.UserID, status)
		} else {
			markers, err = store.MarkersByReporter(claims.UserID)
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get markers")
			return
		}

		responses := make([]models.MarkerResponse, 0, len(markers))
		for i := range markers {
			responses = append(responses, markers[i].ToMarkerResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// UpdateMarkerStatus moves a marker forward in its lifecycle. Only the
// reporter may remove their marker; cleaned is normally set by the
// verification flow but the reporter can set it manually too. A marker
// never returns to active.
func UpdateMarkerStatus(store *database.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		markerID := chi.URLParam(r, "id")

		var req models.UpdateMarkerStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		marker, err := store.MarkerByID(markerID)
		if errors.Is(err, common.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "marker not found")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get marker")
			return
		}

		if marker.ReportedBy != claims.UserID {
			utils.Error(w, http.StatusForbidden, "not your marker")
			return
		}

		now := time.Now().Unix()
		switch req.Status {
		case models.MarkerStatusCleaned:
			if err := store.MarkMarkerCleaned(markerID, now); err != nil {
				utils.Error(w, http.StatusInternalServerError, "Failed to update marker")
				return
			}
			if hub != nil {
				hub.BroadcastAll(websocket.EventMarkerCleaned, map[string]string{"marker_id": markerID})
			}

		case models.MarkerStatusRemoved:
			moved, err := store.MarkMarkerRemoved(markerID, now)
			if err != nil {
				utils.Error(w, http.StatusInternalServerError, "Failed to update marker")
				return
			}
			if !moved {
				utils.Error(w, http.StatusConflict, "marker already removed")
				return
			}
			if hub != nil {
				hub.BroadcastAll(websocket.EventMarkerRemoved, map[string]string{"marker_id": markerID})
			}

		default:
			utils.Error(w, http.StatusBadRequest, "status must be cleaned or removed")
			return
		}

		updated, err := store.MarkerByID(markerID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get marker")
			return
		}

		resp := updated.ToMarkerResponse()
		utils.JSON(w, http.StatusOK, &resp)
	}
}

// DeleteMarker deletes a marker and its photos. Image files are removed
// best-effort after the row is gone.
func DeleteMarker(store *database.Store, images services.ImageStore, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		markerID := chi.URLParam(r, "id")

		marker, err := store.MarkerByID(markerID)
		if errors.Is(err, common.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "marker not found")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get marker")
			return
		}

		if marker.ReportedBy != claims.UserID {
			utils.Error(w, http.StatusForbidden, "not your marker")
			return
		}

		photos, err := store.PhotosByMarker(markerID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get photos")
			return
		}

		if err := store.DeleteMarker(markerID); err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to delete marker")
			return
		}

		for i := range photos {
			if !images.Delete(photos[i].ImagePath) {
				log.Printf("⚠️ image %s already gone", photos[i].ImagePath)
			}
		}

		log.Printf("🗑️ Marker deleted: %s", markerID)
		if hub != nil {
			hub.BroadcastAll(websocket.EventMarkerRemoved, map[string]string{"marker_id": markerID})
		}

		utils.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
