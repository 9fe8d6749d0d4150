package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/cgulucan/bilanco/internal/pricing"
	"github.com/cgulucan/bilanco/internal/session"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, sessions *session.Service, prices *pricing.Service, adminAPIKey string) *http.Server {
	handler := NewHandler(sessions, prices)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/portfolio", handler.GetPortfolio)
	mux.HandleFunc("PUT /api/v1/portfolio", handler.PutPortfolio)
	mux.HandleFunc("GET /api/v1/prices", handler.GetPrices)
	mux.HandleFunc("GET /api/v1/history", handler.GetHistory)
	mux.HandleFunc("GET /api/v1/pnl", handler.GetPnL)
	mux.HandleFunc("GET /api/v1/export", handler.ExportXLSX)

	refreshHandler := http.HandlerFunc(handler.RefreshPrices)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/prices/refresh", requireAuth(adminAPIKey, refreshHandler))
	} else {
		mux.Handle("POST /api/v1/prices/refresh", refreshHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
