package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "craft-beer-store/backend/internal/account/repository"
	"craft-beer-store/backend/internal/audit"
	auditrepo "craft-beer-store/backend/internal/audit/repository"
	authservice "craft-beer-store/backend/internal/auth/service"
	"craft-beer-store/backend/internal/catalog/cache"
	catalogrepo "craft-beer-store/backend/internal/catalog/repository"
	catalogservice "craft-beer-store/backend/internal/catalog/service"
	"craft-beer-store/backend/internal/config"
	"craft-beer-store/backend/internal/db"
	healthhandler "craft-beer-store/backend/internal/health/handler"
	"craft-beer-store/backend/internal/logging"
	orderrepo "craft-beer-store/backend/internal/order/repository"
	orderservice "craft-beer-store/backend/internal/order/service"
	"craft-beer-store/backend/internal/policy/engine"
	"craft-beer-store/backend/internal/security"
	"craft-beer-store/backend/internal/server"
	"craft-beer-store/backend/internal/server/interceptors"
	"craft-beer-store/backend/internal/telemetry"
	"craft-beer-store/backend/internal/telemetry/otel"
	"craft-beer-store/backend/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

type stores struct {
	db       *sql.DB
	accounts authservice.AccountRepo
	products catalogrepo.Repository
	orders   orderrepo.Repository
	audits   auditrepo.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "console", "craftbeer-backend").Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, otel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel providers")
	}
	providers.SetGlobal()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open stores")
	}
	if st.db != nil {
		defer st.db.Close()
	}

	tokens, err := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("token provider")
	}

	kp, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic, logging.Component(log, "kafka"))
	if err != nil {
		log.Fatal().Err(err).Msg("kafka producer")
	}
	loginMetrics, err := otel.NewMetricEmitter(providers.MeterProvider.Meter("craftbeer.auth"))
	if err != nil {
		log.Fatal().Err(err).Msg("auth metrics")
	}
	sinks := []telemetry.EventEmitter{
		audit.NewLogger(st.audits, logging.Component(log, "audit")),
		otel.NewEventEmitter(providers.LoggerProvider),
		loginMetrics,
	}
	var eventProducer producer.Producer
	if kp != nil {
		eventProducer = kp
		sinks = append(sinks, eventProducer)
		log.Info().Strs("brokers", cfg.KafkaBrokersList()).Str("topic", cfg.AuthEventsTopic).Msg("publishing auth events to kafka")
	}
	events := telemetry.NewAsyncEmitter(telemetry.NewMulti(sinks...), logging.Component(log, "events"))

	auth := authservice.NewAuthService(st.accounts, security.NewHasher(cfg.BcryptCost), tokens, events,
		logging.Component(log, "auth"), authservice.Options{
			Threshold:       cfg.LockoutThreshold,
			LockoutDuration: cfg.LockoutPeriod(),
			StoreTimeout:    cfg.StoreCallTimeout(),
			RecheckBlocked:  cfg.AuthRecheckBlocked,
			ClientIP:        interceptors.GetClientIP,
		})

	var listingCache catalogservice.ListingCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		listingCache = cache.NewRedisCache(rdb, cfg.CatalogTTL())
		log.Info().Str("addr", cfg.RedisAddr).Msg("catalog cache enabled")
	}

	policy, err := engine.NewOPAEvaluator(ctx, cfg.AdminEmailList(), logging.Component(log, "policy"))
	if err != nil {
		log.Fatal().Err(err).Msg("policy engine")
	}

	var pinger healthhandler.Pinger
	if st.db != nil {
		pinger = st.db
	}
	deps := server.Deps{
		Auth:        auth,
		Catalog:     catalogservice.NewCatalogService(st.products, listingCache, logging.Component(log, "catalog"), cfg.StoreCallTimeout()),
		Orders:      orderservice.NewOrderService(st.orders, logging.Component(log, "orders"), cfg.StoreCallTimeout()),
		Audit:       st.audits,
		Policy:      policy,
		Health:      healthhandler.NewChecker(pinger, policy),
		CORSOrigins: cfg.CORSOrigins(),
		Log:         log,
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	grpcSrv := server.NewGRPCServer(deps)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("grpc listen")
		}
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatal().Err(err).Msg("grpc serve")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()
	if err := events.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("auth events still in flight at shutdown")
	}
	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka close")
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return &stores{
			accounts: accountrepo.NewMemoryRepository(),
			products: catalogrepo.NewMemoryRepository(),
			orders:   orderrepo.NewMemoryRepository(),
			audits:   auditrepo.NewMemoryRepository(),
		}, nil
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, cfg.StoreCallTimeout())
	if err != nil {
		return nil, err
	}
	return &stores{
		db:       sqlDB,
		accounts: accountrepo.NewPostgresRepository(sqlDB),
		products: catalogrepo.NewPostgresRepository(sqlDB),
		orders:   orderrepo.NewPostgresRepository(sqlDB),
		audits:   auditrepo.NewPostgresRepository(sqlDB),
	}, nil
}
