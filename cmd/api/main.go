package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-stock-reconciler/internal/config"
	"go-stock-reconciler/internal/handler"
	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"
	"go-stock-reconciler/internal/service"
	"go-stock-reconciler/pkg/database"
	"go-stock-reconciler/pkg/jwt"
	applog "go-stock-reconciler/pkg/logger"
	"go-stock-reconciler/pkg/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireJWT(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		zlog.Fatal("init tracing", zap.Error(err))
	}

	// 2. Setup Database
	db, err := database.Connect(database.Options{
		DSN:          cfg.DatabaseDSN,
		LogLevel:     cfg.GormLogLevel,
		MaxIdleConns: 10,
		MaxOpenConns: 100,
	})
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	// 3. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	receiptRepo := repository.NewReceiptRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	cylinderRepo := repository.NewCylinderRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	driftRepo := repository.NewDriftRepo(db)

	calculator := service.NewStockCalculator(productRepo, receiptRepo, saleRepo, cylinderRepo)
	synchronizer := service.NewStockSynchronizer(calculator, productRepo, driftRepo, cfg.SyncConcurrency, zlog)
	validator := service.NewStockValidator(calculator, productRepo, assignmentRepo)
	breakdown := service.NewStockBreakdownReporter(calculator, productRepo, assignmentRepo)
	allocator := service.NewInvoiceAllocator(invoiceRepo, service.AllocatorOptions{
		MaxAttempts: cfg.InvoiceMaxAttempts,
	}, zlog)
	assignmentService := service.NewAssignmentService(assignmentRepo, validator, synchronizer, zlog)
	saleService := service.NewSaleService(saleRepo, assignmentRepo, validator, allocator, synchronizer, service.SaleOptions{
		DirectPrefix:   cfg.DirectSalePrefix,
		EmployeePrefix: cfg.EmployeeSalePrefix,
	}, zlog)
	catalogService := service.NewCatalogService(productRepo, zlog)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTIssuer)

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Reconciler v1.0",
	})

	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	handler.RegisterRoutes(app, handler.Handlers{
		Stock:      handler.NewStockHandler(calculator, synchronizer, validator, breakdown),
		Invoice:    handler.NewInvoiceHandler(allocator),
		Sale:       handler.NewSaleHandler(saleService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Product:    handler.NewProductHandler(catalogService),
	}, tokens)

	// 5. Background resync
	if cfg.SyncInterval > 0 {
		zlog.Info("periodic stock sync enabled", zap.Duration("interval", cfg.SyncInterval))
		go synchronizer.RunPeriodic(ctx, cfg.SyncInterval)
	}

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			zlog.Panic("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	stop()
	if err := app.Shutdown(); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		zlog.Error("flush traces", zap.Error(err))
	}

	zlog.Info("server exited")
}
