package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"namemart/internal/auth"
	"namemart/internal/events"
	"namemart/internal/ledger"
	ledgerstore "namemart/internal/ledger/store"
	"namemart/internal/market"
	marketstore "namemart/internal/market/store"
	"namemart/internal/payments"
	"namemart/internal/platform/config"
	"namemart/internal/platform/httpserver"
	"namemart/internal/platform/logger"
	"namemart/internal/platform/metrics"
	platformredis "namemart/internal/platform/redis"
	"namemart/internal/registry"
	"namemart/internal/settlement"
	httptransport "namemart/internal/transport/http"
	id "namemart/pkg/domain"
)

// main wires the dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	marketAddr, err := id.ParseAddress(cfg.MarketAddress)
	if err != nil {
		return fmt.Errorf("market address: %w", err)
	}
	if _, err := id.ParseAddress(cfg.TreasuryAddress); err != nil {
		return fmt.Errorf("treasury address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		db          *sql.DB
		marketStore market.Store
		ledgerStore ledger.Store
	)
	switch cfg.Backend {
	case "postgres":
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		sales := marketstore.NewPostgres(db)
		if err := sales.EnsureSchema(ctx); err != nil {
			return err
		}
		balances := ledgerstore.NewPostgres(db)
		if err := balances.EnsureSchema(ctx); err != nil {
			return err
		}
		marketStore, ledgerStore = sales, balances
	default:
		marketStore, ledgerStore = marketstore.NewMemory(), ledgerstore.NewMemory()
	}

	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		ledgerStore = ledgerstore.NewRedis(redisClient)
		log.Info("balance ledger on redis", "pool_size", cfg.Redis.PoolSize)
	}

	var payer payments.Payer
	if cfg.TreasuryURL != "" {
		payer = payments.NewHTTPTreasurer(cfg.TreasuryURL, cfg.TreasuryTimeout, log)
	} else {
		log.Warn("no treasury configured, using in-process fake treasurer")
		payer = payments.NewFakeTreasurer()
	}

	var names registry.Client
	if cfg.RegistryURL != "" {
		names = registry.NewHTTPClient(cfg.RegistryURL, cfg.RegistryTimeout)
	} else {
		log.Warn("no registry configured, using in-process fake registry")
		names = registry.NewFakeClient()
	}

	var publisher events.Publisher = events.NewMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("market notifications on kafka", "topic", cfg.Kafka.Topic)
	}
	async := events.NewAsync(publisher, 256, log)

	escrow := ledger.NewService(ledgerStore, payer, m, log)
	service := market.NewService(market.Deps{
		Store:      marketStore,
		Registry:   names,
		Escrow:     escrow,
		Settlement: settlement.NewEngine(payer, escrow, m, log),
		Events:     async,
		Metrics:    m,
		Logger:     log,
		Market:     marketAddr,
		DB:         db,
	})

	jwt := auth.NewJWTService(cfg.JWTSigningKey, cfg.TokenTTL)
	router := httptransport.NewRouter(httptransport.Deps{
		Market:  service,
		Ledger:  escrow,
		Tokens:  jwt,
		Issuer:  jwt,
		Metrics: m,
		Logger:  log,
		DevMode: cfg.DevMode,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting namemart", "addr", cfg.Addr, "backend", cfg.Backend, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return async.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("namemart stopped")
	return nil
}
