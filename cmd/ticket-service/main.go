package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	fixrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/fixture/repo"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/config"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/db"
	skafka "github.com/MichaelRouhana/fyp-bet-platform/internal/shared/kafka"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/logger"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/metrics"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
	thttp "github.com/MichaelRouhana/fyp-bet-platform/internal/ticket/http"
	kpub "github.com/MichaelRouhana/fyp-bet-platform/internal/ticket/producer"
	trepo "github.com/MichaelRouhana/fyp-bet-platform/internal/ticket/repo"
	wrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/wallet/repo"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("ticket-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ticket-service"), zap.String("env", cfg.Env))

	// Postgres: bilhetes, pernas, carteiras e fixtures vivem no mesmo banco
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer para ticket_placed
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlaced)
	defer writer.Close()

	// criação de bilhete só consulta a flag allow_betting, direto no banco
	wallet := wrepo.NewPostgres(pg)
	fixtures := fixrepo.NewPostgres(pg)
	store := trepo.NewPostgres(pg, wallet)
	builder := ticket.NewBuilder(log, wallet, fixtures, store)
	publ := kpub.NewKafkaPublisher(writer)

	api := thttp.NewServer(log, builder, publ)

	// /metrics e /healthz em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
