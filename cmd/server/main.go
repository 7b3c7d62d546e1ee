package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/wealthflow-rebalancer/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/repository/sqldb"
	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/rest"
	"github.com/simaogato/wealthflow-rebalancer/internal/config"
	"github.com/simaogato/wealthflow-rebalancer/internal/logger"
	"github.com/simaogato/wealthflow-rebalancer/internal/portfolio"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/dashboard"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/seeder"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/wallet"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// 2. Setup Database
	if cfg.DBDriver == config.DriverSQLite && cfg.DBConnStr != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBConnStr), 0o755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create database directory")
		}
	}

	db, err := connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// 3. Initialize Repositories
	walletRepo := sqldb.NewWalletRepository(db)
	assetRepo := sqldb.NewAssetRepository(db)
	priceRepo := sqldb.NewPriceRepository(db)
	purchaseRepo := sqldb.NewPurchaseRepository(db)

	// 4. Initialize Services (Use Cases)
	walletService := wallet.NewWalletService(walletRepo, assetRepo, log)
	pricingService := pricing.NewPricingService(assetRepo, priceRepo, log)
	investingService := investing.NewInvestingService(walletRepo, assetRepo, purchaseRepo, pricingService, log)
	dashboardService := dashboard.NewDashboardService(investingService, log)

	if cfg.SeedFile != "" {
		p, err := portfolio.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("Failed to read seed portfolio")
		}
		if err := seeder.NewPortfolioSeeder(walletRepo, assetRepo, priceRepo, log).Seed(ctx, p); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed portfolio")
		}
	}

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)
	grpcadapter.RegisterRebalancerServiceServer(grpcServer,
		grpcadapter.NewServer(walletService, pricingService, investingService, dashboardService, log))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("Failed to listen")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// 6. Start HTTP Server
	handlers := rest.NewHandlers(walletService, pricingService, investingService, dashboardService, log)
	httpServer := rest.NewServer(cfg.HTTPAddr, rest.NewRouter(handlers, rest.RouterConfig{
		APIToken:    cfg.APIToken,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	}), log)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve HTTP server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, grpcServer, httpServer)
}

// connect opens the database, retrying while Postgres is still starting up
func connect(cfg *config.Config, log zerolog.Logger) (*sqldb.DB, error) {
	var db *sqldb.DB
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		db, err = sqldb.NewDB(cfg.DBDriver, cfg.DBConnStr)
		if err == nil || cfg.DBDriver != config.DriverPostgres {
			return db, err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Database not ready, retrying")
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(log zerolog.Logger, grpcServer *grpclib.Server, httpServer *rest.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")
}
