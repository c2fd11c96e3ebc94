package handlers

import (
	"net/http"
	"strconv"

	"hamkae-backend/internal/database"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/models"
	"hamkae-backend/internal/services"
	"hamkae-backend/pkg/utils"
)

// PointHistory returns the caller's ledger, optionally filtered by
// ?type=earned|used, ?from=&to= (unix seconds) or capped by ?limit=.
func PointHistory(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		q := r.URL.Query()

		var entries []models.PointHistory
		var err error

		switch {
		case q.Get("type") != "":
			pointType := q.Get("type")
			if pointType != models.PointTypeEarned && pointType != models.PointTypeUsed {
				utils.Error(w, http.StatusBadRequest, "type must be earned or used")
				return
			}
			entries, err = store.PointHistoriesByUserAndType(claims.UserID, pointType)

		case q.Get("from") != "" || q.Get("to") != "":
			from, ferr := strconv.ParseInt(q.Get("from"), 10, 64)
			to, terr := strconv.ParseInt(q.Get("to"), 10, 64)
			if ferr != nil || terr != nil || from > to {
				utils.Error(w, http.StatusBadRequest, "from and to must be unix timestamps with from <= to")
				return
			}
			entries, err = store.PointHistoriesByUserAndDateRange(claims.UserID, from, to)

		case q.Get("limit") != "":
			limit, lerr := strconv.Atoi(q.Get("limit"))
			if lerr != nil || limit <= 0 {
				utils.Error(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			entries, err = store.RecentPointHistories(claims.UserID, limit)

		default:
			entries, err = store.PointHistoriesByUser(claims.UserID)
		}

		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get point history")
			return
		}

		responses := make([]models.PointHistoryResponse, 0, len(entries))
		for i := range entries {
			responses = append(responses, entries[i].ToPointHistoryResponse())
		}

		utils.JSON(w, http.StatusOK, responses)
	}
}

// PointStatistics aggregates the caller's ledger.
func PointStatistics(points *services.PointsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stats, err := points.Statistics(claims.UserID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to get statistics")
			return
		}

		utils.JSON(w, http.StatusOK, stats)
	}
}
