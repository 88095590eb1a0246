package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"parasol/internal/audit"
	auditHandler "parasol/internal/audit/handler"
	"parasol/internal/jwttoken"
	"parasol/internal/ledger"
	ledgerHandler "parasol/internal/ledger/handler"
	ledgerService "parasol/internal/ledger/service"
	"parasol/internal/oracle"
	"parasol/internal/payout"
	"parasol/internal/payout/cyclelock"
	payoutHandler "parasol/internal/payout/handler"
	"parasol/internal/platform/config"
	"parasol/internal/platform/httpserver"
	"parasol/internal/platform/logger"
	"parasol/internal/platform/metrics"
	platformRedis "parasol/internal/platform/redis"
	"parasol/internal/settlement"
	httptransport "parasol/internal/transport/http"
	id "parasol/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	admin, err := id.ParseParticipantID(cfg.AdminIdentity)
	if err != nil {
		log.Error("invalid admin identity", "error", err)
		return
	}

	// Storage. Postgres when a DSN is configured, in-memory otherwise.
	var (
		ledgerStore ledger.Store
		auditStore  audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			return
		}
		defer db.Close()

		pgLedger := ledger.NewPostgresStore(db)
		if err := pgLedger.Init(ctx, cfg.InitialThresholds); err != nil {
			log.Error("failed to initialize ledger schema", "error", err)
			return
		}
		pgAudit := audit.NewPostgresStore(db)
		if err := pgAudit.Init(ctx); err != nil {
			log.Error("failed to initialize audit schema", "error", err)
			return
		}
		ledgerStore = pgLedger
		auditStore = pgAudit
	} else {
		ledgerStore = ledger.NewInMemoryStore(cfg.InitialThresholds)
		auditStore = audit.NewInMemoryStore()
	}

	// Optional Kafka sink for out-of-process audit consumers. Events reach
	// it through a channel-fed worker so a slow broker never blocks a
	// ledger operation.
	var (
		sinks       []audit.Sink
		auditWorker *audit.Worker
	)
	kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Error("failed to connect kafka sink", "error", err)
		return
	}
	if kafkaSink != nil {
		defer kafkaSink.Close()
		inbox := make(chan audit.Event, 256)
		sinks = append(sinks, audit.NewChannelSink(inbox, log))
		auditWorker = audit.NewWorker(kafkaSink, inbox, log)
	}
	trail := audit.NewPublisher(auditStore, sinks...)

	m := metrics.New()

	ledgerSvc, err := ledgerService.New(ledgerStore, admin,
		ledgerService.WithAudit(trail),
		ledgerService.WithMetrics(m),
		ledgerService.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build ledger service", "error", err)
		return
	}

	// Oracle. Live HTTP feed when configured, otherwise a static source that
	// reports conditions on the thresholds so no cycle ever breaches.
	var source oracle.Source
	if cfg.OracleURL != "" {
		source = oracle.NewHTTPSource(cfg.OracleURL)
	} else {
		source = &oracle.Static{Measurement: oracle.Measurement{
			Rainfall:    cfg.InitialThresholds.Rainfall,
			Temperature: cfg.InitialThresholds.Temperature,
		}}
		log.Warn("no oracle configured, using static no-breach source")
	}

	// Cross-process cycle lock when Redis is configured.
	var lock cyclelock.Lock = cyclelock.NewLocalLock()
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
		lock = cyclelock.NewRedisLock(redisClient.Client, cfg.CycleLockTTL)
	}

	processor, err := payout.New(ledgerSvc, source, settlement.NewMemoryRail(),
		payout.WithCycleLock(lock),
		payout.WithAudit(trail),
		payout.WithMetrics(m),
		payout.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build payout processor", "error", err)
		return
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "parasol", "parasol-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	router := httptransport.NewRouter(
		ledgerHandler.New(ledgerSvc, log, validator),
		payoutHandler.New(processor, log, validator),
		auditHandler.New(trail, admin, log, validator),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting parasol", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	if auditWorker != nil {
		g.Go(func() error {
			if err := auditWorker.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
	}
}
