package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"tracking.service/internal/api/handler"
	"tracking.service/internal/apisim"
	"tracking.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.TrackingService, sim *apisim.Simulator, timer *core.LiveTimer) *mux.Router {
	h := handler.TrackingHandler{
		Service:   service,
		Simulator: sim,
		Timer:     timer,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/data", h.GetUserData).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/break/start", h.StartBreak).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/break/end", h.EndBreak).Methods(http.MethodPost)
	api.HandleFunc("/monthly/{month}", h.MonthlyData).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{date}/activity", h.DayActivity).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{date}/details", h.DayDetails).Methods(http.MethodGet)
	api.HandleFunc("/timer", h.GetTimer).Methods(http.MethodGet)
	api.HandleFunc("/timer/selection", h.SelectUser).Methods(http.MethodPut)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
