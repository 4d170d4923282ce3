package generate_excel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"qc-line/internal/lib/api"
	"qc-line/internal/production"
	genexcel "qc-line/internal/service/generate-excel"
)

type GenerateExcelHandler interface {
	GenerateHistoryExcel(ctx context.Context, from, to production.Day) ([]byte, error)
}

// GenerateReportExcel exports scans and checklists between ?from= and ?to=.
// Missing bounds default to the first day of the current month and today.
func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateReportExcel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		now := time.Now().In(loc)
		from := production.DayOf(time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, loc), loc)
		to := production.DayOf(now, loc)

		if raw := r.URL.Query().Get("from"); raw != "" {
			d, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid from date")
				return
			}
			from = d
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			d, err := production.ParseDay(raw, loc)
			if err != nil {
				api.Error(w, r, http.StatusBadRequest, "invalid to date")
				return
			}
			to = d
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateHistoryExcel(ctx, from, to)
		if err != nil {
			if errors.Is(err, genexcel.ErrInvalidRange) {
				api.Error(w, r, http.StatusBadRequest, "to date is before from date")
				return
			}
			log.Error("failed to generate excel", slog.String("error", err.Error()))
			api.Error(w, r, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+genexcel.ReportFileName(from, to, now))
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write excel", slog.String("error", err.Error()))
		}
	}
}
