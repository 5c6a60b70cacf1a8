package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDriftLimit = 50
	maxDriftLimit     = 500
)

type SyncResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	Previous   int       `json:"previous"`
	Calculated int       `json:"calculated"`
	Difference int       `json:"difference"`
	Error      string    `json:"error,omitempty"`
}

type SyncSummary struct {
	TotalProducts int          `json:"total_products"`
	Successful    int          `json:"successful"`
	Failed        int          `json:"failed"`
	Results       []SyncResult `json:"results"`
}

// StockSynchronizer writes the calculated stock back onto the product. It is
// the only writer of Product.CurrentStock.
type StockSynchronizer interface {
	Sync(ctx context.Context, productID uuid.UUID, trigger model.SyncTrigger) (*SyncResult, error)
	SyncAll(ctx context.Context, trigger model.SyncTrigger) (*SyncSummary, error)
	RunPeriodic(ctx context.Context, interval time.Duration)
	RecentDrift(ctx context.Context, productID *uuid.UUID, limit int) ([]model.StockDrift, error)
}

type stockSynchronizer struct {
	calculator  StockCalculator
	productRepo repository.ProductRepository
	driftRepo   repository.DriftRepository
	concurrency int
	log         *zap.Logger
}

func NewStockSynchronizer(
	calculator StockCalculator,
	productRepo repository.ProductRepository,
	driftRepo repository.DriftRepository,
	concurrency int,
	log *zap.Logger,
) StockSynchronizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &stockSynchronizer{
		calculator:  calculator,
		productRepo: productRepo,
		driftRepo:   driftRepo,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *stockSynchronizer) Sync(ctx context.Context, productID uuid.UUID, trigger model.SyncTrigger) (*SyncResult, error) {
	ctx, span := tracer.Start(ctx, "StockSynchronizer.Sync", trace.WithAttributes(
		attribute.String("product.id", productID.String()),
		attribute.String("sync.trigger", string(trigger)),
	))
	defer span.End()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	calculated, err := s.calculator.Calculate(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &SyncResult{
		ProductID:  productID,
		Previous:   product.CurrentStock,
		Calculated: calculated,
		Difference: calculated - product.CurrentStock,
	}
	span.SetAttributes(attribute.Int("stock.difference", result.Difference))
	if result.Difference == 0 {
		return result, nil
	}

	if err := s.productRepo.UpdateCurrentStock(ctx, productID, calculated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.log.Warn("stock drift corrected",
		zap.String("product_id", productID.String()),
		zap.String("sku", product.SKU),
		zap.Int("previous", result.Previous),
		zap.Int("calculated", result.Calculated),
		zap.Int("difference", result.Difference),
		zap.String("trigger", string(trigger)),
	)
	drift := &model.StockDrift{
		ProductID:  productID,
		Previous:   result.Previous,
		Calculated: result.Calculated,
		Difference: result.Difference,
		Trigger:    trigger,
	}
	if err := s.driftRepo.Create(ctx, drift); err != nil {
		s.log.Error("record stock drift", zap.String("product_id", productID.String()), zap.Error(err))
	}

	return result, nil
}

// SyncAll syncs every product. One product failing is reported in the
// summary and never stops the others.
func (s *stockSynchronizer) SyncAll(ctx context.Context, trigger model.SyncTrigger) (*SyncSummary, error) {
	ctx, span := tracer.Start(ctx, "StockSynchronizer.SyncAll")
	defer span.End()

	ids, err := s.productRepo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, len(ids))
	var (
		mu     sync.Mutex
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.Sync(gctx, id, trigger)
			if err != nil {
				s.log.Error("sync product stock", zap.String("product_id", id.String()), zap.Error(err))
				results[i] = SyncResult{ProductID: id, Error: err.Error()}
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()

	summary := &SyncSummary{
		TotalProducts: len(ids),
		Successful:    len(ids) - failed,
		Failed:        failed,
		Results:       results,
	}
	span.SetAttributes(
		attribute.Int("sync.total", summary.TotalProducts),
		attribute.Int("sync.failed", summary.Failed),
	)
	s.log.Info("stock sync finished",
		zap.String("trigger", string(trigger)),
		zap.Int("total", summary.TotalProducts),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// RunPeriodic resyncs all products every interval until ctx is done.
func (s *stockSynchronizer) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SyncAll(ctx, model.TriggerSchedule); err != nil {
				s.log.Error("scheduled stock sync", zap.Error(err))
			}
		}
	}
}

func (s *stockSynchronizer) RecentDrift(ctx context.Context, productID *uuid.UUID, limit int) ([]model.StockDrift, error) {
	switch {
	case limit <= 0:
		limit = defaultDriftLimit
	case limit > maxDriftLimit:
		limit = maxDriftLimit
	}
	return s.driftRepo.FindRecent(ctx, productID, limit)
}
