package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	fixcache "github.com/MichaelRouhana/fyp-bet-platform/internal/fixture/cache"
	fixrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/fixture/repo"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/settlement"
	sproducer "github.com/MichaelRouhana/fyp-bet-platform/internal/settlement/producer"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/settlement/pubsub"
	srepo "github.com/MichaelRouhana/fyp-bet-platform/internal/settlement/repo"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/cache"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/config"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/db"
	skafka "github.com/MichaelRouhana/fyp-bet-platform/internal/shared/kafka"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/logger"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/shared/metrics"
	wrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/wallet/repo"
	"github.com/MichaelRouhana/fyp-bet-platform/pkg/contracts/events"
)

// Métricas do worker de liquidação
var (
	fixturesConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_fixtures_consumed_total",
		Help: "Eventos fixture_concluded consumidos do Kafka",
	})
	legsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_legs_resolved_total",
		Help: "Pernas resolvidas, por resultado",
	}, []string{"outcome"})
	legsErrored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_legs_errored_total",
		Help: "Pernas cuja resolução falhou (permanecem PENDING)",
	})
	eventsDLQ = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_events_dlq_total",
		Help: "Eventos inválidos desviados para a DLQ",
	})
)

// fanoutPublisher emite leg_settled no Kafka e replica no canal Pub/Sub do
// Redis para consumidores de tempo real. Falha num destino não bloqueia o outro.
type fanoutPublisher struct {
	log   *zap.Logger
	kafka *sproducer.KafkaPublisher
	redis *pubsub.RedisBroadcaster
}

func (p *fanoutPublisher) PublishLegSettled(ctx context.Context, e events.LegSettled) error {
	err := p.kafka.PublishLegSettled(ctx, e)

	b, _ := json.Marshal(e)
	if perr := p.redis.Publish(ctx, b); perr != nil {
		p.log.Warn("redis broadcast failed", zap.String("legId", e.LegID), zap.Error(perr))
	}
	return err
}

func main() {
	cfg := config.Load()

	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "settlement-worker"), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Consumidor de fixture_concluded + writers de saída
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicFixtureConcluded, "settlement-worker")
	defer reader.Close()

	legWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLegSettled)
	defer legWriter.Close()

	dlqWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFixtureConcludedDLQ)
	defer dlqWriter.Close()

	prometheus.MustRegister(fixturesConsumed, legsResolved, legsErrored, eventsDLQ)

	wallet := wrepo.NewPostgres(pg)
	// placar final é imutável; o cache poupa o banco nas varreduras
	results := fixcache.NewCachedProvider(fixrepo.NewPostgres(pg), rdb, 10*time.Minute)
	engine := &settlement.Engine{
		Log:     log,
		Results: results,
		Store:   srepo.NewPostgres(pg, wallet),
		Publisher: &fanoutPublisher{
			log:   log,
			kafka: sproducer.NewKafkaPublisher(legWriter),
			redis: pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
		},
		OnResolved: func(outcome string) { legsResolved.WithLabelValues(outcome).Inc() },
		OnErrored:  func() { legsErrored.Inc() },
	}

	// /metrics e /healthz em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	// Varredura periódica: rede de segurança para eventos perdidos
	go func() {
		interval := time.Duration(cfg.SettlementSweepSeconds) * time.Second
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				rep, err := engine.Sweep(ctx)
				if err != nil {
					log.Warn("sweep failed", zap.Error(err))
					continue
				}
				if rep.Resolved > 0 || rep.Errored > 0 {
					log.Info("sweep done", zap.Int("resolved", rep.Resolved), zap.Int("errored", rep.Errored))
				}
			}
		}
	}()

	log.Info("consuming", zap.String("topic", cfg.TopicFixtureConcluded))
	for {
		key, value, err := skafka.ReadNext(ctx, reader)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutting down")
				return
			}
			log.Error("kafka read", zap.Error(err))
			continue
		}
		fixturesConsumed.Inc()

		var evt events.FixtureConcluded
		if err := json.Unmarshal(value, &evt); err != nil || evt.FixtureID == "" {
			// payload inválido vai pra DLQ com a key original
			eventsDLQ.Inc()
			log.Warn("invalid fixture_concluded payload", zap.ByteString("key", key))
			if derr := skafka.WriteJSON(ctx, dlqWriter, string(key), value); derr != nil {
				log.Error("dlq write failed", zap.Error(derr))
			}
			continue
		}

		rep, err := engine.ResolveFixture(ctx, evt.FixtureID)
		if err != nil {
			log.Error("resolve fixture", zap.String("fixtureId", evt.FixtureID), zap.Error(err))
			continue
		}
		log.Info("fixture resolved",
			zap.String("fixtureId", evt.FixtureID),
			zap.Int("resolved", rep.Resolved),
			zap.Int("errored", rep.Errored),
		)
	}
}
