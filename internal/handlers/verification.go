package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/models"
	"hamkae-backend/pkg/utils"
)

// VerificationStatus summarizes where a marker stands in the
// verification flow: its status, photo counts and per-photo verdicts.
func VerificationStatus(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		photos, err := store.PhotosByMarker(markerID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get photos")
			return
		}

		resp := models.VerificationStatusResponse{
			MarkerID:     markerID,
			MarkerStatus: marker.Status,
			Photos:       make([]models.PhotoResponse, 0, len(photos)),
		}

		for i := range photos {
			switch photos[i].Type {
			case models.PhotoTypeBefore:
				resp.BeforeCount++
			case models.PhotoTypeAfter:
				resp.AfterCount++
			}
			resp.Photos = append(resp.Photos, photos[i].ToPhotoResponse())
		}

		utils.JSON(w, http.StatusOK, &resp)
	}
}
