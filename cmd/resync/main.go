// Command resync recalculates stored stock from the transaction logs, for one
// product or for the whole catalog, and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-stock-reconciler/internal/config"
	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"
	"go-stock-reconciler/internal/service"
	"go-stock-reconciler/pkg/database"
	applog "go-stock-reconciler/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	productFlag := flag.String("product", "", "sync a single product by UUID instead of all products")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(database.Options{
		DSN:          cfg.DatabaseDSN,
		LogLevel:     cfg.GormLogLevel,
		MaxIdleConns: 2,
		MaxOpenConns: cfg.SyncConcurrency + 2,
	})
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	productRepo := repository.NewProductRepo(db)
	calculator := service.NewStockCalculator(
		productRepo,
		repository.NewReceiptRepo(db),
		repository.NewSaleRepo(db),
		repository.NewCylinderRepo(db),
	)
	synchronizer := service.NewStockSynchronizer(calculator, productRepo, repository.NewDriftRepo(db), cfg.SyncConcurrency, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out interface{}
	if *productFlag != "" {
		productID, err := uuid.Parse(*productFlag)
		if err != nil {
			zlog.Fatal("invalid -product", zap.String("value", *productFlag), zap.Error(err))
		}
		out, err = synchronizer.Sync(ctx, productID, model.TriggerManual)
		if err != nil {
			zlog.Fatal("sync product", zap.String("product_id", productID.String()), zap.Error(err))
		}
	} else {
		summary, err := synchronizer.SyncAll(ctx, model.TriggerBatch)
		if err != nil {
			zlog.Fatal("sync all products", zap.Error(err))
		}
		out = summary
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		zlog.Fatal("write summary", zap.Error(err))
	}
}
