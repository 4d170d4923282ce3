package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"qc-line/internal/lib/api"
	"qc-line/internal/production"
	"qc-line/internal/storage"
)

type ScanHistory interface {
	ScanHistory(ctx context.Context, day *production.Day) ([]storage.ProductionScan, error)
}

// GetScanHistory lists scans newest first. An optional ?date=YYYY-MM-DD keeps one day.
func GetScanHistory(log *slog.Logger, history ScanHistory, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scan.get.GetScanHistory"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var day *production.Day
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
				return
			}
			day = &d
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scans, err := history.ScanHistory(ctx, day)
		if err != nil {
			log.Error("failed to load scans", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, scans)
	}
}
