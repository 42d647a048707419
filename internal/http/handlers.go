package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gagyebu/internal/aggregate"
	"gagyebu/internal/core"
	"gagyebu/internal/cycle"
	"gagyebu/internal/ledger"
	"gagyebu/internal/query"
	"gagyebu/internal/sheets"
)

type partitionInfoPayload struct {
	Title   string `json:"title"`
	SheetID int64  `json:"sheet_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
}

type partitionsResponse struct {
	Partitions []partitionInfoPayload `json:"partitions"`
	Selection  string                 `json:"selection"`
	State      string                 `json:"state"`
	Refreshing bool                   `json:"refreshing"`
}

func (s *Server) handlePartitions(w http.ResponseWriter, r *http.Request) {
	infos := s.store.Partitions()
	payload := make([]partitionInfoPayload, 0, len(infos))
	for _, info := range infos {
		payload = append(payload, partitionInfoPayload{
			Title:   info.Title,
			SheetID: info.SheetID,
			Year:    info.Year,
			Month:   info.Month,
		})
	}

	writeJSON(w, http.StatusOK, partitionsResponse{
		Partitions: payload,
		Selection:  s.store.Selection(),
		State:      s.store.State().String(),
		Refreshing: s.store.Refreshing(),
	})
}

func (s *Server) handleSelectPartition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := sanitizeInput(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	// An unknown title is accepted; the view degrades to no data until a
	// refresh succeeds or the selection moves back.
	s.store.SelectPartition(title)
	_, cached := s.store.Partition(title)

	writeJSON(w, http.StatusOK, map[string]any{
		"selection": title,
		"cached":    cached,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RefreshSelected(r.Context()); err != nil {
		status, msg := statusForError(err)
		slog.ErrorContext(r.Context(), "Refresh failed", "error", err)
		writeError(w, status, msg)
		return
	}

	title := s.store.Selection()
	rows := 0
	if p, ok := s.store.Selected(); ok {
		rows = len(p.Rows)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"partition": title,
		"rows":      rows,
	})
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	// Detached from the request: the sequential sweep is paced by the
	// request interval and can easily outlive the HTTP exchange.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.store.RefreshAll(ctx); err != nil {
			slog.Error("Bulk refresh aborted", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type rowsResponse struct {
	Partition    string     `json:"partition"`
	State        string     `json:"state"`
	Headers      []string   `json:"headers"`
	Rows         [][]string `json:"rows"`
	TotalMatched int        `json:"total_matched"`
	Visible      int        `json:"visible"`
	HasMore      bool       `json:"has_more"`
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.Selected()
	if !ok {
		// No cached data for the selection: an empty view, not an error.
		writeJSON(w, http.StatusOK, rowsResponse{
			Partition: s.store.Selection(),
			State:     s.store.State().String(),
			Headers:   []string{},
			Rows:      [][]string{},
		})
		return
	}

	spec := parseQuerySpec(r)
	result := query.Apply(p, spec)

	writeJSON(w, http.StatusOK, rowsResponse{
		Partition:    p.Title,
		State:        s.store.State().String(),
		Headers:      p.Headers,
		Rows:         result.Rows,
		TotalMatched: result.TotalMatched,
		Visible:      result.Visible,
		HasMore:      result.HasMore,
	})
}

type summaryResponse struct {
	Partition       string           `json:"partition"`
	TotalBudget     int64            `json:"total_budget"`
	LivingExpense   int64            `json:"living_expense"`
	RemainingBudget int64            `json:"remaining_budget"`
	DailyBudget     int64            `json:"daily_budget"`
	UsagePercent    int              `json:"usage_percent"`
	ActualRemaining int64            `json:"actual_remaining"`
	Buckets         map[string]int64 `json:"buckets"`
	Details         [][]string       `json:"details"`
	Cycle           cyclePayload     `json:"cycle"`
}

type cyclePayload struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	TotalDays     int    `json:"total_days"`
	ElapsedDays   int    `json:"elapsed_days"`
	RemainingDays int    `json:"remaining_days"`
	IdealPercent  int    `json:"ideal_percent"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.Selected()
	if !ok {
		writeError(w, http.StatusNotFound, "no data for the selected partition")
		return
	}

	totals := aggregate.Aggregate(p, s.classifier)
	cyc := cycle.Compute(p.Title, time.Now())
	sum := aggregate.Summarize(totals, p.Budget, cyc)

	buckets := make(map[string]int64, len(totals.Buckets))
	for b, total := range totals.Buckets {
		buckets[b.String()] = total
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Partition:       p.Title,
		TotalBudget:     sum.TotalBudget,
		LivingExpense:   sum.LivingExpense,
		RemainingBudget: sum.RemainingBudget,
		DailyBudget:     sum.DailyBudget,
		UsagePercent:    sum.UsagePercent,
		ActualRemaining: sum.ActualRemaining,
		Buckets:         buckets,
		Details:         p.Details,
		Cycle: cyclePayload{
			Start:         sum.Cycle.Start.Format("2006-01-02"),
			End:           sum.Cycle.End.Format("2006-01-02"),
			TotalDays:     sum.Cycle.TotalDays,
			ElapsedDays:   sum.Cycle.ElapsedDays,
			RemainingDays: sum.Cycle.RemainingDays,
			IdealPercent:  sum.Cycle.IdealPercent,
		},
	})
}

func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cells []string `json:"cells"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Cells) == 0 {
		writeError(w, http.StatusBadRequest, "cells are required")
		return
	}
	for i, c := range req.Cells {
		req.Cells[i] = sanitizeInput(c)
	}

	if err := s.svc.AppendRow(r.Context(), req.Cells); err != nil {
		status, msg := statusForError(err)
		slog.ErrorContext(r.Context(), "Append row failed", "error", err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"partition": s.store.Selection(),
	})
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return
	}

	if err := s.svc.DeleteRow(r.Context(), idx); err != nil {
		status, msg := statusForError(err)
		slog.ErrorContext(r.Context(), "Delete row failed", "error", err, "row_index", idx)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"partition": s.store.Selection(),
	})
}

// statusForError maps domain errors onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNoPartition):
		return http.StatusConflict, "no partition selected"
	case ledger.IsAuthError(err):
		return http.StatusUnauthorized, "spreadsheet authorization expired"
	case ledger.IsAccessDenied(err):
		return http.StatusForbidden, "spreadsheet access denied"
	case errors.Is(err, sheets.ErrUnavailable):
		return http.StatusServiceUnavailable, "spreadsheet temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
