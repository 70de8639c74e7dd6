package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	directoryhandler "vprove/internal/directory/handler"
	directorymetrics "vprove/internal/directory/metrics"
	directoryservice "vprove/internal/directory/service"
	directorystore "vprove/internal/directory/store"
	"vprove/internal/ledger"
	ledgerhandler "vprove/internal/ledger/handler"
	"vprove/internal/platform/config"
	"vprove/internal/platform/database"
	"vprove/internal/platform/health"
	"vprove/internal/platform/httpserver"
	kafkaproducer "vprove/internal/platform/kafka/producer"
	"vprove/internal/platform/logger"
	redisplatform "vprove/internal/platform/redis"
	"vprove/internal/registry/cache"
	registryhandler "vprove/internal/registry/handler"
	registrymetrics "vprove/internal/registry/metrics"
	registryservice "vprove/internal/registry/service"
	registrystore "vprove/internal/registry/store"
	"vprove/internal/token"
	httptransport "vprove/internal/transport/http"
	"vprove/migrations"
	id "vprove/pkg/domain"
	auditpublisher "vprove/pkg/platform/audit/publisher"
	auditsink "vprove/pkg/platform/audit/sink"
	auditmemory "vprove/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing vprove",
		"addr", cfg.Addr,
		"postgres", cfg.DatabaseURL != "",
		"redis", cfg.RedisURL != "",
		"kafka", cfg.KafkaBrokers != "",
	)

	var controller id.AccountID
	if cfg.ControllerAccount != "" {
		parsed, err := id.ParseAccountID(cfg.ControllerAccount)
		if err != nil {
			log.Error("invalid controller account", "error", err)
			os.Exit(1)
		}
		controller = parsed
	} else {
		log.Warn("no controller account configured, fee updates are disabled")
	}

	healthHandler := health.New()

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		if err := applyMigrations(pool.DB()); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	// Audit events always land in the in-memory store; Kafka is added when
	// brokers are configured.
	auditStores := auditsink.Fanout{auditmemory.New()}
	if cfg.KafkaBrokers != "" {
		producerCfg := kafkaproducer.DefaultConfig()
		producerCfg.Brokers = cfg.KafkaBrokers
		producer, err := kafkaproducer.New(producerCfg, log)
		if err != nil {
			log.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		auditStores = append(auditStores, auditsink.NewKafka(producer, cfg.AuditTopic))
	}
	publisher := auditpublisher.NewPublisher(auditStores,
		auditpublisher.WithAsyncBuffer(256),
		auditpublisher.WithPublisherLogger(log),
	)
	defer publisher.Close()

	regMetrics := registrymetrics.New()
	dirMetrics := directorymetrics.New()

	// One physical store backs the registry and the credential ledger so a
	// registration mints and records in the same commit.
	var (
		regStore interface {
			registryservice.Store
			ledger.Store
		}
		dirStore  directoryservice.Store
		txOptions []registryservice.Option
	)
	if pool != nil {
		regStore = registrystore.NewPostgres(pool.DB())
		dirStore = directorystore.NewPostgres(pool.DB())
		txOptions = append(txOptions, registryservice.WithStoreTx(newRegistryPostgresTx(pool.DB())))
		// The persisted fee survives restarts; an explicit REGISTRATION_FEE
		// overrides it.
		if cfg.RegistrationFeeSet {
			seedCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := regStore.SetRegistrationFee(seedCtx, id.Amount(cfg.RegistrationFee))
			cancel()
			if err != nil {
				log.Error("failed to apply configured registration fee", "error", err)
				os.Exit(1)
			}
			log.Info("registration fee applied from environment", "fee", cfg.RegistrationFee)
		}
	} else {
		log.Warn("no database configured, using in-memory stores")
		regStore = registrystore.NewInMemory(id.Amount(cfg.RegistrationFee))
		dirStore = directorystore.NewInMemory()
	}

	factory := directoryservice.NewFactory(dirStore, dirMetrics)

	registryOpts := append([]registryservice.Option{
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(publisher),
		registryservice.WithMetrics(regMetrics),
	}, txOptions...)
	if redisClient != nil {
		registryOpts = append(registryOpts,
			registryservice.WithNameCache(cache.New(redisClient.Client, cfg.NameCacheTTL, log)))
	}
	registrySvc := registryservice.New(regStore, factory, controller, registryOpts...)

	ledgerSvc := ledger.New(regStore, ledger.WithLogger(log))

	directorySvc := directoryservice.New(dirStore,
		directoryservice.WithLogger(log),
		directoryservice.WithAuditPublisher(publisher),
		directoryservice.WithMetrics(dirMetrics),
	)

	tokenSvc := token.NewService(cfg.JWTSigningKey, "vprove")

	router := httptransport.NewRouter(httptransport.Deps{
		Registry:  registryhandler.New(registrySvc, log),
		Ledger:    ledgerhandler.New(ledgerSvc, log),
		Directory: directoryhandler.New(directorySvc, log),
		Health:    healthHandler,
		Validator: tokenSvc,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if redisClient != nil {
		group.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					redisClient.RecordPoolStats()
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// applyMigrations executes the embedded schema files in lexical order. The
// statements are idempotent, so reapplying on every start is safe.
func applyMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
