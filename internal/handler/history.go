package handler

import (
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"vehicledetect/internal/dto"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/model"
	"vehicledetect/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// HistoryHandler lists recent runs and per-class totals from the journal.
func HistoryHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs := manager.Journal()
		if runs == nil {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
				Code:    dto.CodeHistoryDisabled,
				Message: "Run history is disabled. Set HISTORY_DB to enable it.",
			})
			return
		}

		limit := min(atoiDefault(r.URL.Query().Get("limit"), defaultHistoryLimit), maxHistoryLimit)

		recent, err := runs.Recent(limit)
		if err != nil {
			logger.Error("Error querying runs from database: %v", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Code: dto.CodeInternal, Message: "Internal Server Error"})
			return
		}

		classes, err := runs.ClassCounts()
		if err != nil {
			logger.Error("Error counting classes: %v", err)
			classes = []model.ClassCount{}
		}

		total, err := runs.Count()
		if err != nil {
			logger.Error("Error counting runs: %v", err)
			total = len(recent)
		}

		writeJSON(w, http.StatusOK, dto.HistoryData{
			Runs:    lo.Map(recent, func(run model.Run, _ int) dto.RunInfo { return dto.NewRunInfo(run) }),
			Classes: classes,
			Total:   total,
			Limit:   limit,
		})
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
