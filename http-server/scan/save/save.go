package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"qc-line/internal/lib/api"
	"qc-line/internal/lib/serial"
	"qc-line/internal/production"
	"qc-line/internal/storage"
)

type ScanRecorder interface {
	RecordScan(ctx context.Context, req production.ScanRequest) (storage.ProductionScan, error)
}

func SaveScan(log *slog.Logger, recorder ScanRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scan.save.SaveScan"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req production.ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusBadRequest, "invalid JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scan, err := recorder.RecordScan(ctx, req)
		switch {
		case err == nil:
		case errors.Is(err, serial.ErrInvalidSerial):
			log.Warn("invalid serial", slog.String("serial", req.Serial), slog.String("error", err.Error()))
			api.Error(w, r, http.StatusBadRequest, "invalid serial number")
			return
		case errors.Is(err, production.ErrAlreadyScanned):
			log.Info("duplicate scan", slog.String("serial", req.Serial))
			api.Error(w, r, http.StatusConflict, "serial number already scanned today")
			return
		case errors.Is(err, storage.ErrStoreUnavailable):
			log.Error("store unavailable", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		default:
			log.Error("failed to record scan", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusInternalServerError, "internal server error")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, scan)
	}
}
