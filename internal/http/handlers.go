package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"kakeibo/internal/category"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/derive"
	"kakeibo/internal/loading"
	applog "kakeibo/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"records": s.state.Records(),
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var u core.RecordUpdate
	if !readJSON(w, r, &u) {
		return
	}

	_, err := s.records.Update(r.Context(), u)
	switch {
	case errors.Is(err, core.ErrRowNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("row %d not found", u.RowNumber))
		return
	case errors.Is(err, core.ErrInvalidRow), errors.Is(err, core.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Record update failed", "row_number", u.RowNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	genre := ""
	if u.Genre != nil {
		genre = *u.Genre
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogRecordUpdated(r.Context(), u.RowNumber, genre)

	s.invalidateViews()
	writeSuccess(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"genres": s.categories.Labels(),
	})
}

func (s *Server) handleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Genres []string `json:"genres"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	s.categories.Replace(r.Context(), body.Genres)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogCategoriesReplaced(r.Context(), len(s.categories.Labels()))
	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"genres":  s.categories.Labels(),
	})
}

// categoryOp is the PATCH /api/settings payload. Index-based ops address
// the registry in its current user order.
type categoryOp struct {
	Op        string `json:"op"`
	Label     string `json:"label,omitempty"`
	Index     int    `json:"index"`
	To        int    `json:"to"`
	Direction string `json:"direction,omitempty"`
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var op categoryOp
	if !readJSON(w, r, &op) {
		return
	}

	ctx := r.Context()
	var err error
	switch op.Op {
	case "add":
		s.categories.Add(ctx, op.Label)
	case "rename":
		_, err = s.categories.Rename(ctx, op.Index, op.Label)
	case "remove":
		_, err = s.categories.Remove(ctx, op.Index)
	case "reorder":
		_, err = s.categories.Reorder(ctx, op.Index, op.To)
	case "move":
		dir := category.Up
		if strings.EqualFold(op.Direction, "down") {
			dir = category.Down
		}
		_, err = s.categories.Move(ctx, op.Index, dir)
	default:
		writeError(w, http.StatusBadRequest, "unknown op: "+op.Op)
		return
	}

	switch {
	case errors.Is(err, core.ErrDuplicateLabel):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, core.ErrIndexRange), errors.Is(err, core.ErrEmptyLabel):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.ErrorContext(ctx, "Category op failed", "op", op.Op, "error", err)
		writeError(w, http.StatusInternalServerError, "category operation failed")
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"genres":  s.categories.Labels(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode := currency.ParseMode(q.Get("currency"))
	filter := derive.Filter{
		Genre: derive.FilterAll,
		Month: derive.FilterAll,
	}
	if v := strings.TrimSpace(q.Get("genre")); v != "" {
		filter.Genre = v
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		filter.Month = v
	}
	if strings.EqualFold(q.Get("sort"), "amount") {
		filter.SortKey = derive.SortByAmount
	}
	if strings.EqualFold(q.Get("order"), "asc") {
		filter.Order = derive.Asc
	}
	rateValue := currency.DefaultRate
	if s.rates != nil {
		rateValue = s.rates.Rate()
	}

	key := fmt.Sprintf("%d|%s|%s|%s|%d|%d|%g",
		s.generation.Load(), mode, filter.Genre, filter.Month, filter.SortKey, filter.Order, rateValue)
	if views, ok := s.dashCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "key", key)
		writeJSON(w, http.StatusOK, views)
		return
	}

	views := s.state.ViewsFor(filter, mode, rateValue)
	s.dashCache.Set(key, views)
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	rateValue := currency.DefaultRate
	var fetchedAt any
	if s.rates != nil {
		rateValue = s.rates.Rate()
		if t := s.rates.FetchedAt(); !t.IsZero() {
			fetchedAt = t
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rate":        rateValue,
		"defaultRate": currency.DefaultRate,
		"fetchedAt":   fetchedAt,
	})
}

func (s *Server) handleLoading(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"variant":  s.loading.Pick(),
		"variants": loading.Variants,
	})
}
