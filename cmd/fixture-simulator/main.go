package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
	fixrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/fixture/repo"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/config"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/db"
	skafka "github.com/MichaelRouhana/fyp-bet-platform/internal/shared/kafka"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/logger"
	"github.com/MichaelRouhana/fyp-bet-platform/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Catálogo fixo de partidas simuladas
	fixtureCatalog = []fixture.Info{
		{ID: "FIX_001", HomeTeam: "Flamengo", AwayTeam: "Palmeiras", AllowBetting: true},
		{ID: "FIX_002", HomeTeam: "Grêmio", AwayTeam: "Internacional", AllowBetting: true},
		{ID: "FIX_003", HomeTeam: "Corinthians", AwayTeam: "Santos", AllowBetting: true},
		{ID: "FIX_004", HomeTeam: "São Paulo", AwayTeam: "Vasco", AllowBetting: true},
	}

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fixture_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixture_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	fixturesConcluded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixture_concluded_total",
		Help: "Partidas concluídas pelo simulador",
	})
)

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes WebSocket e o broadcast de atualizações de partidas
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

type server struct {
	log    *zap.Logger
	repo   *fixrepo.Postgres
	writer *skafka.Writer
	hub    *hub
}

// Handler GET /fixtures — catálogo completo
func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		s.log.Error("list fixtures", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Handler POST /fixtures/{id}/conclude e POST /fixtures/{id}/betting
func (s *server) fixtureHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/fixtures/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id, action := parts[0], parts[1]

	switch action {
	case "conclude":
		s.conclude(w, r, id)
	case "betting":
		s.setBetting(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *server) conclude(w http.ResponseWriter, r *http.Request, id string) {
	defer r.Body.Close()

	var req struct {
		HomeGoals   int    `json:"home_goals"`
		AwayGoals   int    `json:"away_goals"`
		FirstScorer string `json:"first_scorer"` // "HOME" | "AWAY" | ""
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.HomeGoals < 0 || req.AwayGoals < 0 {
		http.Error(w, "negative score", http.StatusBadRequest)
		return
	}

	applied, err := s.repo.Conclude(r.Context(), id, req.HomeGoals, req.AwayGoals, req.FirstScorer)
	if err != nil {
		s.log.Error("conclude fixture", zap.String("fixtureId", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !applied {
		// já finalizada ou inexistente
		http.Error(w, "fixture not open", http.StatusConflict)
		return
	}
	fixturesConcluded.Inc()

	s.publishConcluded(r.Context(), id, req.HomeGoals, req.AwayGoals, req.FirstScorer)
	s.broadcastState(r.Context(), id)

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"concluded"}`))
}

func (s *server) setBetting(w http.ResponseWriter, r *http.Request, id string) {
	defer r.Body.Close()

	var req struct {
		Allow bool `json:"allow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err := s.repo.SetBettable(r.Context(), id, req.Allow)
	if errors.Is(err, fixture.ErrNotFound) {
		http.Error(w, "fixture not open", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("set betting", zap.String("fixtureId", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.broadcastState(r.Context(), id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// publishConcluded emite fixture_concluded no Kafka; a varredura do worker
// cobre o caso de falha aqui
func (s *server) publishConcluded(ctx context.Context, id string, home, away int, firstScorer string) {
	evt := events.FixtureConcluded{
		FixtureID:   id,
		HomeGoals:   home,
		AwayGoals:   away,
		FirstScorer: firstScorer,
		TsUnixMs:    time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(evt)
	if err := skafka.WriteJSON(ctx, s.writer, id, b); err != nil {
		s.log.Error("publish fixture_concluded", zap.String("fixtureId", id), zap.Error(err))
		return
	}
	s.log.Info("fixture_concluded published",
		zap.String("fixtureId", id),
		zap.Int("homeGoals", home),
		zap.Int("awayGoals", away),
	)
}

func (s *server) broadcastState(ctx context.Context, id string) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		s.log.Warn("broadcast state", zap.String("fixtureId", id), zap.Error(err))
		return
	}
	s.hub.broadcast(f)
}

func main() {
	cfg := config.Load()
	log, err := logger.New("fixture-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(wsConnections, wsMessagesSent, fixturesConcluded)

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFixtureConcluded)
	defer writer.Close()

	repo := fixrepo.NewPostgres(pg)

	// Semeia o catálogo; partidas já existentes não são tocadas
	for i, f := range fixtureCatalog {
		f.KickoffAt = time.Now().Add(time.Duration(i+1) * time.Hour)
		if err := repo.Seed(context.Background(), f); err != nil {
			log.Fatal("seed fixture", zap.String("fixtureId", f.ID), zap.Error(err))
		}
	}
	log.Info("fixture catalog seeded", zap.Int("count", len(fixtureCatalog)))

	h := newHub(log)
	s := &server{log: log, repo: repo, writer: writer, hub: h}

	// Envia o estado do catálogo para os clientes conectados a cada 5 segundos
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			list, err := repo.List(context.Background())
			if err != nil {
				log.Warn("catalog refresh", zap.Error(err))
				continue
			}
			for _, f := range list {
				h.broadcast(f)
			}
		}
	}()

	// ==== MUX PÚBLICO: /ws, /fixtures e /fixtures/{id}/...
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	appMux.HandleFunc("/fixtures", s.listHandler)
	appMux.HandleFunc("/fixtures/", s.fixtureHandler)

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("fixture simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("fixture simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws,/fixtures"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
