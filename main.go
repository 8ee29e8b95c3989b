package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"pronto-core/internal/api"
	"pronto-core/internal/auth"
	"pronto-core/internal/config"
	"pronto-core/internal/database/migrations"
	"pronto-core/internal/events"
	"pronto-core/internal/kafka"
	"pronto-core/internal/logger"
	"pronto-core/internal/order"
	"pronto-core/internal/payment"
	"pronto-core/internal/session"
	"pronto-core/internal/storage"
	"pronto-core/internal/tables"
)

// domainPublisher is everything the services publish to Kafka.
type domainPublisher interface {
	order.KafkaPublisher
	session.KafkaPublisher
}

func connectPostgres(dsn string, lg *logger.Logger) *bun.DB {
	if dsn == "" {
		lg.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		lg.Info("DATABASE", fmt.Sprintf("connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = sqldb.Ping(); err == nil {
				break
			}
		}
		lg.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		lg.Fatal("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	lg.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(addr string, lg *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		lg.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	lg.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", addr))
	return client
}

func main() {
	lg := logger.NewLogger()
	defer lg.Close()

	lg.Info("APP", "starting Pronto order/session core")

	if err := godotenv.Load(); err != nil {
		lg.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	bunDB := connectPostgres(cfg.Database.DSN, lg)
	defer bunDB.Close()

	redisClient := connectRedis(cfg.Redis.Addr, lg)
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir).Up(); err != nil {
			lg.Fatal("DATABASE", fmt.Sprintf("migrations failed: %v", err))
		}
		lg.Info("DATABASE", "migrations applied")
	}

	var kafkaPub domainPublisher = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics()); err != nil {
			lg.Warn("KAFKA", fmt.Sprintf("topic creation might have failed: %v", err))
		}
		kafkaPub = producer
		lg.Info("KAFKA", fmt.Sprintf("producer connected to %v", cfg.Kafka.Brokers))
	} else {
		lg.Warn("KAFKA", "disabled; domain events will not leave the process")
	}

	store := storage.NewDB(bunDB)
	bridge := events.NewBridge(
		events.NewLog(redisClient, cfg.Events.Stream, cfg.Events.MaxLen),
		events.NewHub(),
		lg,
	)

	gateways := payment.NewRegistry()
	gateways.Register("cash", payment.CashGateway{})
	gateways.Register("card", payment.CashGateway{})
	if cfg.Payments.StripeKey != "" {
		gateways.Register("stripe", payment.NewStripeGateway(cfg.Payments.StripeKey, cfg.Payments.Currency, cfg.Payments.Timeout))
	}

	sessionService := session.NewService(store, bridge, kafkaPub, gateways, lg,
		cfg.Payments.TaxRate, cfg.Payments.TippingEnabled)
	orderService := order.NewService(store, bridge, kafkaPub, lg, cfg.Payments.TaxRate)

	handler := &api.Handler{
		Orders:   orderService,
		Sessions: sessionService,
		Store:    store,
		Bridge:   bridge,
		QR:       tables.NewQRGenerator(cfg.Tables.BaseURL, cfg.Tables.QRSize),
		Logger:   lg,
	}

	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.OIDCIssuer != "" {
		authMiddleware = auth.Middleware(cfg.Auth.OIDCIssuer)
		lg.Info("AUTH", "OIDC middleware applied to protected routes")
	} else {
		lg.Warn("AUTH", "OIDC_ISSUER not set; protected routes are open (dev mode)")
	}

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     handler.Routes(authMiddleware),
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: /api/events/stream holds connections open
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		lg.Info("HTTP", fmt.Sprintf("Pronto core running on %s", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("APP", "shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.Error("HTTP", fmt.Sprintf("server shutdown failed: %v", err))
	}
	lg.Info("APP", "stopped")
}
