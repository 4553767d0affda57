package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"tracking.service/internal/apisim"
	"tracking.service/internal/core"
	"tracking.service/internal/core/model"
	"tracking.service/pkg/logger"
)

type TrackingHandler struct {
	Service   *core.TrackingService
	Simulator *apisim.Simulator
	Timer     *core.LiveTimer
}

type SelectUserRequest struct {
	UserID string `json:"userId"`
}

type TimerResponse struct {
	core.TimerSnapshot
	ElapsedText   string  `json:"elapsedText"`
	DailyWorkTime float64 `json:"dailyWorkTime"`
	WorkTimeText  string  `json:"workTimeText"`
}

func (h *TrackingHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Simulator.GetUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *TrackingHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.User(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *TrackingHandler) GetUserData(w http.ResponseWriter, r *http.Request) {
	data, err := h.Simulator.GetUserData(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *TrackingHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	r = r.WithContext(logger.WithUser(r.Context(), userID))

	res, err := h.Simulator.StartBreak(r.Context(), userID)
	h.writeResult(w, r, res, err)
}

func (h *TrackingHandler) EndBreak(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	r = r.WithContext(logger.WithUser(r.Context(), userID))

	res, err := h.Simulator.EndBreak(r.Context(), userID)
	h.writeResult(w, r, res, err)
}

// writeResult maps a break result to 200 on success, 404 for an unknown user
// and 409 for a rejected transition. The body is the result in every case.
func (h *TrackingHandler) writeResult(w http.ResponseWriter, r *http.Request, res core.Result, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case res.Success:
		writeJSON(w, http.StatusOK, res)
	case res.User == nil:
		writeJSON(w, http.StatusNotFound, res)
	default:
		writeJSON(w, http.StatusConflict, res)
	}
}

func (h *TrackingHandler) MonthlyData(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	if _, err := model.ParseMonth(month); err != nil {
		http.Error(w, "Month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	data, err := h.Simulator.GetMonthlyData(r.Context(), month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *TrackingHandler) DayActivity(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, r)
	if !ok {
		return
	}
	filter := r.URL.Query().Get("user")
	if filter == "" {
		filter = core.FilterAll
	}

	activity, err := h.Service.DayActivity(r.Context(), date, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *TrackingHandler) DayDetails(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, r)
	if !ok {
		return
	}

	details, err := h.Service.DayDetails(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *TrackingHandler) GetTimer(w http.ResponseWriter, r *http.Request) {
	snap := h.Timer.Snapshot()
	resp := TimerResponse{
		TimerSnapshot: snap,
		ElapsedText:   model.FormatElapsed(snap.Elapsed),
		WorkTimeText:  model.FormatWorkTime(0),
	}

	if snap.UserID != "" {
		user, err := h.Service.User(r.Context(), snap.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if user != nil {
			resp.DailyWorkTime = user.DailyWorkTime
			resp.WorkTimeText = model.FormatWorkTime(user.DailyWorkTime)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) SelectUser(w http.ResponseWriter, r *http.Request) {
	var req SelectUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	ok, err := h.Timer.Select(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.Timer.Snapshot())
}

func (h *TrackingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Request abandoned")
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Service error")
	http.Error(w, "Service error processing request", http.StatusInternalServerError)
}

func parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse(model.DateLayout, mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, "Date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
