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
	"qc-line/internal/service/dashboard"
)

type ProductionDashboard interface {
	Production(ctx context.Context, day production.Day) (dashboard.Production, error)
}

type QualityDashboard interface {
	Quality(ctx context.Context) (dashboard.Quality, error)
}

func GetProduction(log *slog.Logger, d ProductionDashboard, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.GetProduction"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		day := production.DayOf(time.Now(), loc)
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
				return
			}
			day = parsed
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		result, err := d.Production(ctx, day)
		if err != nil {
			log.Error("failed to build production dashboard", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, result)
	}
}

func GetQuality(log *slog.Logger, d QualityDashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.GetQuality"

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		result, err := d.Quality(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("failed to build quality dashboard")
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, result)
	}
}
