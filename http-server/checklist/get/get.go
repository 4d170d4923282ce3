package get

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"qc-line/internal/inspection"
	"qc-line/internal/lib/api"
	"qc-line/internal/production"
	"qc-line/internal/service/workflow"
	"qc-line/internal/storage"
)

type ItemLister interface {
	Items() []inspection.ItemDefinition
}

type InspectionQueue interface {
	InspectionQueue(ctx context.Context, day production.Day) ([]string, error)
}

type ReinspectionQueue interface {
	ReinspectionQueue(ctx context.Context, day *production.Day) ([]string, error)
}

type ChecklistHistory interface {
	ChecklistHistory(ctx context.Context, serial string) ([]storage.ChecklistEntry, error)
}

type ApprovalResolver interface {
	Approval(ctx context.Context, serial string) (workflow.ApprovalState, error)
}

type QueueResponse struct {
	Date    string   `json:"date,omitempty"`
	Serials []string `json:"serial_numbers"`
}

func GetItems(log *slog.Logger, lister ItemLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, lister.Items())
	}
}

// GetPendingInspection lists serials scanned on ?date= (today by default)
// that still have no checklist.
func GetPendingInspection(log *slog.Logger, queue InspectionQueue, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.get.GetPendingInspection"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		day := production.DayOf(time.Now(), loc)
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
				return
			}
			day = d
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		serials, err := queue.InspectionQueue(ctx, day)
		if err != nil {
			log.Error("failed to load inspection queue", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, QueueResponse{Date: day.String(), Serials: serials})
	}
}

func GetReinspectionQueue(log *slog.Logger, queue ReinspectionQueue, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.get.GetReinspectionQueue"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var (
			day  *production.Day
			resp QueueResponse
		)
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
				return
			}
			day = &d
			resp.Date = d.String()
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		serials, err := queue.ReinspectionQueue(ctx, day)
		if err != nil {
			log.Error("failed to load reinspection queue", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		resp.Serials = serials
		render.JSON(w, r, resp)
	}
}

// GetChecklistHistory lists checklist rows newest first, ?serial= filters one unit.
func GetChecklistHistory(log *slog.Logger, history ChecklistHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.get.GetChecklistHistory"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entries, err := history.ChecklistHistory(ctx, strings.TrimSpace(r.URL.Query().Get("serial")))
		if err != nil {
			log.Error("failed to load checklists", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, entries)
	}
}

func GetApproval(log *slog.Logger, resolver ApprovalResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.get.GetApproval"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serial := strings.TrimSpace(chi.URLParam(r, "serial"))
		if serial == "" {
			api.Error(w, r, http.StatusBadRequest, "serial number is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		state, err := resolver.Approval(ctx, serial)
		if err != nil {
			log.Error("failed to resolve approval", slog.String("serial", serial), slog.String("error", err.Error()))
			api.Error(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		render.JSON(w, r, state)
	}
}
