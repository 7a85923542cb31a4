package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/fruitables/internal/cache"
	"github.com/fjod/fruitables/internal/config"
	"github.com/fjod/fruitables/internal/consumer"
	"github.com/fjod/fruitables/internal/health"
	h "github.com/fjod/fruitables/internal/http"
	"github.com/fjod/fruitables/internal/logger"
	"github.com/fjod/fruitables/internal/mail"
	"github.com/fjod/fruitables/internal/publisher"
	"github.com/fjod/fruitables/internal/repository"
	"github.com/fjod/fruitables/internal/service"
	"github.com/fjod/fruitables/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// otelhttp extracts incoming traceparent headers so log lines carry the caller's trace id
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("storefront starting...", "db_driver", cfg.DB.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database setup
	creds := &repository.Credentials{
		Driver:            cfg.DB.Driver,
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		Path:              cfg.DB.Path,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
	db, err := repository.NewDB(creds)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(creds); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed", "path", cfg.DB.MigrationsPath)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", "addr", cfg.Redis.Addr)

	var contacts service.ContactStore = repository.NewContactRepository(db)
	if cfg.Mongo.URI != "" {
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		mongoContacts := repository.NewMongoContactRepository(mongoDB)
		defer mongoContacts.Close(context.Background())
		if err := mongoContacts.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create contact indexes: %w", err)
		}
		contacts = mongoContacts
		log.Info("contact messages stored in mongodb", "db", cfg.Mongo.DBName)
	}

	var mailer mail.Sender
	if cfg.Mail.Host != "" {
		mailer = mail.NewBreakerSender(mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}), log)
	} else {
		log.Warn("SMTP_HOST not set, otp mails are only logged")
		mailer = mail.NewLogSender(log)
	}

	// Repositories and services
	products := repository.NewProductRepository(db)
	checkouts := repository.NewCheckoutRepository(db)
	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)

	catalogService := service.NewCatalogService(products)
	cartService := service.NewCartService(products, repository.NewCartRepository(db), cache.NewRedisCache(redisClient), cfg.ShippingCost, log)
	checkoutService := service.NewCheckoutService(checkouts, log)
	accountService := service.NewAccountService(repository.NewUserRepository(db), sessions, mailer, log)
	contactService := service.NewContactService(contacts, cfg.ContactRejectDuplicateName)
	reviewService := service.NewReviewService(repository.NewReviewRepository(db))

	if len(cfg.Kafka.Brokers) > 0 {
		poller := publisher.NewOutboxPoller(checkouts, publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...), log)
		go poller.Run(ctx)
		log.Info("outbox poller started", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)

		confirmations := consumer.NewConfirmationConsumer(
			consumer.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, cfg.Kafka.Brokers...), mailer, log)
		go confirmations.Run(ctx)
	} else {
		log.Warn("KAFKA_BROKERS not set, checkout events stay in the outbox")
	}

	// Health
	checker := health.NewChecker(map[string]health.Check{
		"db":    db.Ping,
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}, 10*time.Second, log)
	go checker.Run(ctx)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCHealthPort, err)
	}
	go func() {
		log.Info("grpc health listening", "port", cfg.GRPCHealthPort)
		if err := checker.Serve(lis); err != nil {
			log.Error("grpc health server failed", "error", err)
		}
	}()
	defer checker.Stop()

	// HTTP
	sessionManager := h.NewSessionManager(sessions, session.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL),
		cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.CookieSecure, log)
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.HTTP.MaxRequestBodySize,
	}, h.Services{
		Catalog:  catalogService,
		Cart:     cartService,
		Checkout: checkoutService,
		Accounts: accountService,
		Contact:  contactService,
		Reviews:  reviewService,
		Ready:    checker.Ready,
	}, sessionManager, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
