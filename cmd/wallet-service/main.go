package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/config"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/db"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/logger"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/metrics"
	whttp "github.com/MichaelRouhana/fyp-bet-platform/internal/wallet/http"
	wrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/wallet/repo"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("wallet-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "wallet-service"), zap.String("env", cfg.Env))

	// Postgres para carteiras e ledger
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := wrepo.NewPostgres(pg)
	api := whttp.NewServer(log, repo)

	// /metrics e /healthz em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
