package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/config"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New("api-gateway", cfg.Env)
	defer log.Sync()

	// targets
	ticketURL := os.Getenv("TICKET_URL")
	if ticketURL == "" {
		ticketURL = "http://localhost:8083"
	}
	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		walletURL = "http://localhost:8082"
	}
	fixtureURL := os.Getenv("FIXTURE_URL")
	if fixtureURL == "" {
		fixtureURL = "http://localhost:8081"
	}
	ticket := rp(ticketURL)
	wallet := rp(walletURL)
	fixture := rp(fixtureURL)

	mux := http.NewServeMux()

	// tickets (ex.: /api/tickets/* -> ticket-service)
	mux.Handle("/api/tickets", http.StripPrefix("/api", ticket))
	mux.Handle("/api/tickets/", http.StripPrefix("/api", ticket))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet", http.StripPrefix("/api", wallet))
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	// fixtures (ex.: /api/fixtures/* -> fixture-simulator)
	mux.Handle("/api/fixtures", http.StripPrefix("/api", fixture))
	mux.Handle("/api/fixtures/", http.StripPrefix("/api", fixture))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
