package route

import (
	"net/http"

	"distancemeter/internal/config"
	"distancemeter/internal/handler"
	"distancemeter/internal/logger"
	"distancemeter/internal/middleware"
	"distancemeter/internal/repository"
	"distancemeter/internal/service"

	"github.com/gorilla/mux"
)

// SetupRoutes registers pages, API endpoints and log views,
// and wraps the router with the authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger, auth *middleware.Auth,
	measureRepo repository.MeasurementRepository, detectionRepo repository.DetectionRepository) http.Handler {
	r := mux.NewRouter()

	// Pages: the three input variants
	r.HandleFunc("/", handler.UploadHandler(manager, cfg, logger)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/scan", handler.ScanHandler(manager, cfg, logger)).Methods(http.MethodGet)
	r.HandleFunc("/select", handler.SelectListHandler(cfg, logger)).Methods(http.MethodGet)
	r.HandleFunc("/select/thumb", handler.ThumbnailHandler(cfg, logger)).Methods(http.MethodGet)
	r.HandleFunc("/select/measure", handler.SelectMeasureHandler(manager, cfg, logger)).Methods(http.MethodGet)

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/measure", handler.MeasureAPIHandler(manager, cfg, logger)).Methods(http.MethodPost)
	api.HandleFunc("/view", handler.ViewWebsocketHandler(manager, logger))
	if measureRepo != nil {
		api.HandleFunc("/history", handler.GetHistoryHandler(cfg, logger, measureRepo, detectionRepo)).Methods(http.MethodGet)
		api.HandleFunc("/history/detections", handler.GetDetectionsHandler(logger, measureRepo, detectionRepo)).Methods(http.MethodGet)
		api.HandleFunc("/history/stats", handler.GetHistoryStatsHandler(logger, measureRepo)).Methods(http.MethodGet)
		api.HandleFunc("/history/delete", handler.DeleteResultHandler(cfg, logger, measureRepo)).Methods(http.MethodDelete, http.MethodPost)
		api.HandleFunc("/history/clear", handler.ClearHistoryHandler(cfg, logger, measureRepo)).Methods(http.MethodPost)
		api.HandleFunc("/results/view", handler.ViewResultHandler(cfg)).Methods(http.MethodGet)
	}

	// Log endpoints
	r.HandleFunc("/logs/{level:info|warning|error}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	r.HandleFunc("/logs/{level:info|warning|error}/clear", handler.ClearLogsHandler(logger)).Methods(http.MethodPost)

	// Auth endpoints
	r.HandleFunc("/login", handler.LoginPageHandler(logger)).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", handler.LoginHandler(auth, logger)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler)

	return auth.Middleware(r)
}
