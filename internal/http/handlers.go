package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"warchest/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationStatus maps domain validation errors to 400 and everything
// else to 500.
func validationStatus(err error) int {
	for _, v := range []error{
		core.ErrInvalidAmount, core.ErrInvalidWeek, core.ErrInvalidDuration,
		core.ErrEmptyName, core.ErrUnknownCurrency, core.ErrInvalidBalance,
		core.ErrInvalidIncome, core.ErrInvalidSource,
	} {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	weeks := s.defaultWeeks
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !core.ValidWeekCount(n) {
			writeError(w, http.StatusBadRequest, "weeks must be one of 4, 8, 12, 26, 52")
			return
		}
		weeks = n
	}

	key := timelineCacheKey(weeks)
	if data, ok := s.timelineCache.Get(key); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	data, err := s.planner.Timeline(r.Context(), weeks, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute timeline", "weeks", weeks, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute timeline")
		return
	}

	s.timelineCache.Set(key, data)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.planner.Runs(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type createRunRequest struct {
	RunAt  time.Time        `json:"run_at"`
	Fields map[string]int64 `json:"fields"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RunAt.IsZero() {
		req.RunAt = time.Now()
	}

	id, err := s.planner.RecordRun(r.Context(), core.Run{RunAt: req.RunAt, Fields: req.Fields})
	if err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	s.invalidateTimelines()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	if err := s.planner.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}

	s.invalidateTimelines()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.planner.Events(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

type createEventRequest struct {
	Name         string          `json:"name"`
	Currency     core.CurrencyID `json:"currency"`
	Amount       int64           `json:"amount"`
	TriggerWeek  int             `json:"trigger_week"`
	DurationDays int             `json:"duration_days"`
	Priority     int             `json:"priority"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.planner.ScheduleEvent(r.Context(), core.SpendingEvent{
		Name:         req.Name,
		Currency:     req.Currency,
		Amount:       req.Amount,
		TriggerWeek:  req.TriggerWeek,
		DurationDays: req.DurationDays,
		Priority:     req.Priority,
	})
	if err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	s.invalidateTimelines()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := s.planner.RemoveEvent(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete event", "event_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.invalidateTimelines()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.ClearEvents(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Failed to clear events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear events")
		return
	}

	s.invalidateTimelines()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.planner.IncomeConfigs(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list income configs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list income configs")
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

type updateConfigRequest struct {
	Balance           int64             `json:"balance"`
	WeeklyIncome      int64             `json:"weekly_income"`
	GrowthRatePercent float64           `json:"growth_rate_percent"`
	Source            core.IncomeSource `json:"source"`
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	currency := core.CurrencyID(r.PathValue("currency"))
	if _, ok := core.GetCurrency(currency); !ok {
		writeError(w, http.StatusNotFound, "unknown currency")
		return
	}

	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Source == "" {
		req.Source = core.SourceManual
	}

	err := s.planner.UpdateIncomeConfig(r.Context(), core.IncomeConfig{
		Currency:          currency,
		Balance:           req.Balance,
		WeeklyIncome:      req.WeeklyIncome,
		GrowthRatePercent: req.GrowthRatePercent,
		Source:            req.Source,
	})
	if err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	s.invalidateTimelines()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDerivedValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.planner.DerivedValues(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list derived values", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list derived values")
		return
	}
	writeJSON(w, http.StatusOK, values)
}
