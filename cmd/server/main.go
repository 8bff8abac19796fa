package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/config"
	"github.com/supto/pharmacy-buddy/internal/realtime"
	"github.com/supto/pharmacy-buddy/internal/repository/mongodb"
	"github.com/supto/pharmacy-buddy/internal/repository/sheets"
	"github.com/supto/pharmacy-buddy/internal/scheduler"
	"github.com/supto/pharmacy-buddy/internal/server/handlers"
	"github.com/supto/pharmacy-buddy/internal/server/router"
	authsvc "github.com/supto/pharmacy-buddy/internal/service/auth"
	inventorysvc "github.com/supto/pharmacy-buddy/internal/service/inventory"
	purchasesvc "github.com/supto/pharmacy-buddy/internal/service/purchases"
	reportingsvc "github.com/supto/pharmacy-buddy/internal/service/reporting"
	requestsvc "github.com/supto/pharmacy-buddy/internal/service/requests"
	salesvc "github.com/supto/pharmacy-buddy/internal/service/sales"
	"github.com/supto/pharmacy-buddy/pkg/clients/identity"
	"github.com/supto/pharmacy-buddy/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var reportMirror sheets.Repository
	if cfg.Sheets.Enabled {
		reportMirror, err = sheets.NewReportSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets report mirror", zap.Error(err))
		}
		baseLogger.Info("google sheets report mirror enabled")
	}

	hub := realtime.NewHub(baseLogger.Named("realtime"))

	var verifier authsvc.TokenVerifier
	if cfg.Auth.ProviderURL != "" {
		verifier = authsvc.NewRemoteVerifier(identity.NewClient(cfg.Auth.ProviderURL))
		baseLogger.Info("remote token introspection enabled", zap.String("provider", cfg.Auth.ProviderURL))
	} else {
		verifier = authsvc.NewJWTVerifier(cfg.Auth.JWTSecret)
	}

	authService := authsvc.NewService(verifier, store, baseLogger.Named("svc.auth"))
	inventoryService := inventorysvc.NewService(store, hub, baseLogger.Named("svc.inventory"))
	saleService := salesvc.NewService(store, hub, baseLogger.Named("svc.sales"))
	purchaseService := purchasesvc.NewService(store, hub, baseLogger.Named("svc.purchases"))
	requestService := requestsvc.NewService(store, hub, baseLogger.Named("svc.requests"))
	reportingService := reportingsvc.NewService(store, reportMirror, hub, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(baseLogger.Named("handlers.auth")),
		Medicines: handlers.NewMedicineHandler(inventoryService, baseLogger.Named("handlers.medicines")),
		Sales:     handlers.NewSaleHandler(saleService, store, baseLogger.Named("handlers.sales")),
		Purchases: handlers.NewPurchaseHandler(purchaseService, store, baseLogger.Named("handlers.purchases")),
		Requests:  handlers.NewRequestHandler(requestService, store, baseLogger.Named("handlers.requests")),
		Users:     handlers.NewUserHandler(authService, baseLogger.Named("handlers.users")),
		Dashboard: handlers.NewDashboardHandler(reportingService, baseLogger.Named("handlers.dashboard")),
		Data:      handlers.NewDataHandler(store, hub, baseLogger.Named("handlers.data")),
	}, authService, hub, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingService, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
