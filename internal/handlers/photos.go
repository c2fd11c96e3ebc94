package handlers

import (
	"errors"
	"io"
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
	"hamkae-backend/pkg/utils"
)

// UploadPhoto accepts a multipart photo upload for a marker. Uploading
// an after photo enqueues verification; the response returns
// immediately with the photo still pending.
func UploadPhoto(store *database.Store, images services.ImageStore, worker *services.VerificationWorker, maxUploadBytes int64) http.HandlerFunc {
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

		if marker.Status == models.MarkerStatusRemoved {
			utils.Error(w, http.StatusConflict, "marker has been removed")
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		photoType := r.FormValue("type")
		if photoType != models.PhotoTypeBefore && photoType != models.PhotoTypeAfter {
			utils.Error(w, http.StatusBadRequest, "type must be before or after")
			return
		}

		// Cleanup proof only makes sense while the marker still needs
		// cleaning; accepting it later would re-open the award flow.
		if photoType == models.PhotoTypeAfter && marker.Status != models.MarkerStatusActive {
			utils.Error(w, http.StatusConflict, "marker is not awaiting cleanup")
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "image file is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Failed to read image")
			return
		}

		ext, err := services.ValidateImage(data, header.Header.Get("Content-Type"), maxUploadBytes)
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				utils.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			utils.Error(w, http.StatusInternalServerError, "Failed to validate image")
			return
		}

		ref, err := images.Store(data, ext)
		if err != nil {
			log.Printf("❌ Failed to store image: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to store image")
			return
		}

		photo := &models.Photo{
			ID:                 uuid.New().String(),
			MarkerID:           markerID,
			UserID:             claims.UserID,
			ImagePath:          ref,
			Type:               photoType,
			VerificationStatus: models.VerificationPending,
			CreatedAt:          time.Now().Unix(),
		}

		if err := store.CreatePhoto(photo); err != nil {
			images.Delete(ref)
			log.Printf("❌ Failed to create photo: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to create photo")
			return
		}

		log.Printf("📷 Photo uploaded: %s (%s) for marker %s", photo.ID, photoType, markerID)

		// Verification only makes sense once cleanup proof exists.
		if photoType == models.PhotoTypeAfter {
			if err := worker.Enqueue(markerID, claims.UserID, photoType); err != nil {
				// The sweep will not find this upload without a task row,
				// so surface the failure instead of silently stalling.
				log.Printf("❌ Failed to enqueue verification for marker %s: %v", markerID, err)
				utils.Error(w, http.StatusInternalServerError, "Failed to schedule verification")
				return
			}
		}

		resp := photo.ToPhotoResponse()
		utils.JSON(w, http.StatusCreated, &resp)
	}
}

// ListMarkerPhotos returns a marker's photos, oldest first.
func ListMarkerPhotos(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markerID := chi.URLParam(r, "id")

		if _, err := store.MarkerByID(markerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "marker not found")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "Failed to get marker")
			return
		}

		photos, err := store.PhotosByMarker(markerID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get photos")
			return
		}

		responses := make([]models.PhotoResponse, 0, len(photos))
		for i := range photos {
			responses = append(responses, photos[i].ToPhotoResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}
