package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/telemetry"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	config.MustNonEmpty(
		config.Setting{Name: "DATABASE_URL", Value: cfg.DatabaseURL},
		config.Setting{Name: "JWT_SECRET", Value: string(cfg.JWTSecret)},
	)

	logger := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, version)
	if err != nil {
		log.Fatalf("tracer init error: %v", err)
	}

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatalf("migrations error: %v", err)
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var events service.EventPublisher = service.NopPublisher{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		events = producer
	} else {
		logger.Info("kafka disabled, events are dropped")
	}

	var index service.ProductIndex
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, using sql search", "error", err)
		} else {
			index = search.NewProductIndex(esClient, cfg.ESIndex)
		}
	}

	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)
	r := repo.New(gdb)

	authSvc := &service.AuthService{
		Repo:             r,
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		ResetTokenTTL:    cfg.ResetTokenTTL,
		AllowAdminSignup: cfg.AllowAdminSignup,
		Events:           events,
	}
	cartSvc := &service.CartService{Repo: r, Events: events}
	checkoutSvc := &service.CheckoutService{
		Repo:     r,
		Cart:     cartSvc,
		Gateway:  gateway,
		Shipping: pricing.Shipping{Threshold: cfg.ShippingThreshold, Fee: cfg.ShippingFee},
		Currency: cfg.Currency,
		Events:   events,
	}

	e := httpserver.New(logger, &httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Events: events}},
		CartHandler:     &httpserver.CartHTTP{Svc: cartSvc},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		AdminHandler: &httpserver.AdminHTTP{
			Orders:    &service.AdminOrderService{Repo: r, Currency: cfg.Currency, Events: events},
			Dashboard: &service.DashboardService{Repo: r},
		},
		JWTSecret: cfg.JWTSecret,
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})

	go checkoutSvc.RunSweeper(ctx, cfg.SweepInterval, cfg.PendingOrderTTL)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	closeAll(shutdownCtx, logger, gdb, producer, shutdownTracer)
	logger.Info("shutdown complete")
}

func closeAll(ctx context.Context, logger *slog.Logger, gdb *gorm.DB, producer *mykafka.Producer, shutdownTracer func(context.Context) error) {
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
}
