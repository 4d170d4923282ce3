package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"qc-line/internal/inspection"
	"qc-line/internal/lib/api"
	"qc-line/internal/lib/serial"
	"qc-line/internal/middleware/auth"
	"qc-line/internal/storage"
)

type ChecklistSubmitter interface {
	SubmitChecklist(ctx context.Context, sub inspection.Submission) ([]storage.ChecklistEntry, error)
}

type Request struct {
	Serial  string                           `json:"serial_number"`
	Results map[string]inspection.ItemResult `json:"results"`
	Photo   *string                          `json:"photo,omitempty"`
}

type Response struct {
	Status       string `json:"status"`
	SerialNumber string `json:"serial_number"`
	BatchID      string `json:"batch_id"`
	Rejected     bool   `json:"rejected"`
	Rows         int    `json:"rows"`
}

// SaveChecklist records the first inspection of a unit.
func SaveChecklist(log *slog.Logger, submitter ChecklistSubmitter) http.HandlerFunc {
	return submit(log, submitter, false)
}

// SaveReinspection records a rework inspection. Duplicates are allowed.
func SaveReinspection(log *slog.Logger, submitter ChecklistSubmitter) http.HandlerFunc {
	return submit(log, submitter, true)
}

func submit(log *slog.Logger, submitter ChecklistSubmitter, reinspection bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.save.SaveChecklist"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Bool("reinspection", reinspection),
		)

		inspector, ok := auth.UserFromContext(r.Context())
		if !ok {
			api.Error(w, r, http.StatusUnauthorized, "inspector is not authenticated")
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusBadRequest, "invalid JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entries, err := submitter.SubmitChecklist(ctx, inspection.Submission{
			Serial:       req.Serial,
			Results:      req.Results,
			Inspector:    inspector,
			Reinspection: reinspection,
			Photo:        req.Photo,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Status:       "success",
			SerialNumber: entries[0].SerialNumber,
			BatchID:      entries[0].BatchID,
			Rejected:     bool(entries[0].Rejected),
			Rows:         len(entries),
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		incomplete *inspection.IncompleteSubmissionError
		partial    *inspection.PartialWriteError
	)

	switch {
	case errors.As(err, &incomplete):
		log.Warn("incomplete checklist", slog.String("missing", strings.Join(incomplete.Missing, ",")))
		api.WriteError(w, r, http.StatusBadRequest, api.ErrorResponse{
			Error:   "incomplete checklist",
			Missing: incomplete.Missing,
		})
	case errors.Is(err, serial.ErrInvalidSerial):
		log.Warn("invalid serial number", slog.String("error", err.Error()))
		api.Error(w, r, http.StatusBadRequest, "invalid serial number")
	case errors.Is(err, inspection.ErrInvalidOption):
		log.Warn("invalid checklist option", slog.String("error", err.Error()))
		api.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, inspection.ErrAllItemsNotApplicable):
		log.Warn("all items N/A")
		api.Error(w, r, http.StatusBadRequest, "all checklist items are N/A")
	case errors.Is(err, inspection.ErrDuplicateSerial):
		log.Info("duplicate checklist", slog.String("error", err.Error()))
		api.Error(w, r, http.StatusConflict, "serial number already inspected, use reinspection")
	case errors.As(err, &partial):
		log.Error("partial checklist write", slog.String("error", err.Error()))
		api.WriteError(w, r, http.StatusInternalServerError, api.ErrorResponse{
			Error:   "checklist partially written",
			Written: &partial.Written,
			Total:   &partial.Total,
		})
	case errors.Is(err, inspection.ErrStoreUnavailable):
		log.Error("store unavailable", slog.String("error", err.Error()))
		api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		log.Error("failed to save checklist", slog.String("error", err.Error()))
		api.Error(w, r, http.StatusInternalServerError, "internal server error")
	}
}
