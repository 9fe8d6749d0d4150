package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/export"
	"github.com/cgulucan/bilanco/internal/pricing"
	"github.com/cgulucan/bilanco/internal/session"
)

// defaultUser is assumed when the request does not name one.
const defaultUser = "default"

// Handler provides the HTTP endpoints for the balance-sheet API.
type Handler struct {
	sessions *session.Service
	prices   *pricing.Service
}

// NewHandler creates a new API handler.
func NewHandler(sessions *session.Service, prices *pricing.Service) *Handler {
	return &Handler{sessions: sessions, prices: prices}
}

// GetPortfolio handles GET /api/v1/portfolio. It runs a full evaluation
// pass: accrual, pricing, valuation, ledger update and baseline P&L.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	req, err := evalRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := h.sessions.Evaluate(r.Context(), userParam(r), req)
	if err != nil {
		slog.Error("evaluation pass failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// rowsPayload is the PUT /api/v1/portfolio request body.
type rowsPayload struct {
	Assets []domain.AssetRow `json:"assets"`
	Debts  []domain.DebtRow  `json:"debts"`
}

// PutPortfolio handles PUT /api/v1/portfolio, replacing the user's rows.
func (h *Handler) PutPortfolio(w http.ResponseWriter, r *http.Request) {
	var payload rowsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := userParam(r)
	if err := h.sessions.UpdateRows(r.Context(), username, payload.Assets, payload.Debts); err != nil {
		slog.Error("updating rows failed", "user", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPrices handles GET /api/v1/prices, returning the current snapshot
// from cache or a fresh fetch.
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	snap := h.prices.Current(r.Context(), false)
	writeJSON(w, http.StatusOK, snap)
}

// RefreshPrices handles POST /api/v1/prices/refresh, bypassing the cache.
func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	snap := h.prices.Current(r.Context(), true)
	writeJSON(w, http.StatusOK, snap)
}

// GetHistory handles GET /api/v1/history, the trailing net-worth window.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 0)
	entries, err := h.sessions.HistoryWindow(r.Context(), userParam(r), days)
	if err != nil {
		slog.Error("history window failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetPnL handles GET /api/v1/pnl. A missing baseline or selected snapshot
// yields a partial report, not an error.
func (h *Handler) GetPnL(w http.ResponseWriter, r *http.Request) {
	req, err := evalRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := h.sessions.Evaluate(r.Context(), userParam(r), req)
	if err != nil {
		slog.Error("evaluation pass failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ev.PnL)
}

// ExportXLSX handles GET /api/v1/export, streaming the balance sheet as
// an xlsx workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	username := userParam(r)
	req, err := evalRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := h.sessions.Evaluate(r.Context(), username, req)
	if err != nil {
		slog.Error("evaluation pass failed", "user", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	st := export.Statement{
		Username: username,
		Date:     time.Now().Format(domain.DateFormat),
		Assets:   ev.Assets,
		Debts:    ev.Debts,
		Totals:   ev.Totals,
		PnL:      ev.PnL,
		History:  ev.History,
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bilanco-"+st.Date+".xlsx"))
	if err := export.WriteWorkbook(w, st); err != nil {
		slog.Error("workbook export failed", "user", username, "error", err)
	}
}

func userParam(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return defaultUser
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func evalRequestFromQuery(r *http.Request) (session.EvalRequest, error) {
	q := r.URL.Query()
	for _, name := range []string{"date", "base"} {
		if v := q.Get(name); v != "" {
			if _, err := time.Parse(domain.DateFormat, v); err != nil {
				return session.EvalRequest{}, fmt.Errorf("invalid %s, expected YYYY-MM-DD", name)
			}
		}
	}
	return session.EvalRequest{
		Side:         domain.ParseSide(q.Get("side")),
		SelectedDate: q.Get("date"),
		BaselineDate: q.Get("base"),
		WindowDays:   intParam(r, "days", 0),
		ForceRefresh: q.Get("refresh") == "1" || q.Get("refresh") == "true",
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
