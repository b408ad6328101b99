package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"prep-progress-service/internal/app"
	"prep-progress-service/internal/domain"
)

// API exposes the progress use cases over JSON HTTP.
type API struct {
	service *app.ProgressService
}

func NewAPI(service *app.ProgressService) *API {
	return &API{service: service}
}

// Register wires the REST routes onto the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /v1/users/{id}/profile", a.handleSaveProfile)
	mux.HandleFunc("GET /v1/users/{id}/profile", a.handleProfile)
	mux.HandleFunc("POST /v1/users/{id}/results", a.handleRecordResult)
	mux.HandleFunc("GET /v1/users/{id}/summary", a.handleSummary)
	mux.HandleFunc("GET /v1/users/{id}/tasks", a.handleTasks)
	mux.HandleFunc("DELETE /v1/users/{id}/progress", a.handleClearProgress)
}

func (a *API) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile payload")
		return
	}
	stats, err := a.service.SaveProfile(r.Context(), userID, profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.service.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	var event domain.TestCompletion
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid test completion payload")
		return
	}
	summary, err := a.service.RecordTestResult(r.Context(), userID, event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	var today time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		today = parsed
	}
	tasks, err := a.service.TodaysTasks(r.Context(), r.PathValue("id"), today)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (a *API) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearProgress(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNegativeXP):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
