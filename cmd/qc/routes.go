package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getchecklist "qc-line/http-server/checklist/get"
	savechecklist "qc-line/http-server/checklist/save"
	getdashboard "qc-line/http-server/dashboard/get"
	generate_excel "qc-line/http-server/generate-report/generate-excel"
	getscan "qc-line/http-server/scan/get"
	savescan "qc-line/http-server/scan/save"
	"qc-line/internal/config"
	"qc-line/internal/inspection"
	"qc-line/internal/middleware/auth"
	"qc-line/internal/production"
	"qc-line/internal/service/dashboard"
	genexcel "qc-line/internal/service/generate-excel"
	"qc-line/internal/service/workflow"
)

type services struct {
	recorder  *production.Recorder
	writer    *inspection.Writer
	workflow  *workflow.Service
	dashboard *dashboard.Service
	excel     *genexcel.GenerateExcelService
}

func routes(cfg config.Config, log *slog.Logger, loc *time.Location, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	apiRouter := chi.NewRouter()
	apiRouter.Use(auth.BasicAuth("QC Line", cfg.Users))

	// apontamentos
	apiRouter.Post("/scans", savescan.SaveScan(log, svc.recorder))
	apiRouter.Get("/scans", getscan.GetScanHistory(log, svc.workflow, loc))

	// checklists
	apiRouter.Get("/checklists/items", getchecklist.GetItems(log, svc.writer))
	apiRouter.Get("/checklists/pending", getchecklist.GetPendingInspection(log, svc.workflow, loc))
	apiRouter.Get("/checklists/reinspection", getchecklist.GetReinspectionQueue(log, svc.workflow, loc))
	apiRouter.Get("/checklists", getchecklist.GetChecklistHistory(log, svc.workflow))
	apiRouter.Get("/checklists/{serial}/approval", getchecklist.GetApproval(log, svc.workflow))
	apiRouter.Post("/checklists", savechecklist.SaveChecklist(log, svc.writer))
	apiRouter.Post("/checklists/reinspection", savechecklist.SaveReinspection(log, svc.writer))

	// dashboards
	apiRouter.Get("/dashboard/production", getdashboard.GetProduction(log, svc.dashboard, loc))
	apiRouter.Get("/dashboard/quality", getdashboard.GetQuality(log, svc.dashboard))

	apiRouter.Get("/report/excel", generate_excel.GenerateReportExcel(log, svc.excel, loc))

	router.Mount("/api", apiRouter)

	serveFrontend(router, log, frontendDir)

	return router
}

const frontendDir = "./frontend-dist"

// serveFrontend serves the built SPA when it is shipped next to the binary.
func serveFrontend(router chi.Router, log *slog.Logger, dir string) {
	if _, err := os.Stat(dir); err != nil {
		log.Warn("frontend not found, serving API only", slog.String("path", dir))
		return
	}

	fileServer := http.FileServer(http.Dir(dir))
	router.Handle("/assets/*", fileServer)

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
