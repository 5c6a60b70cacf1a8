package service

import (
	"context"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type DirectSaleRequest struct {
	CustomerName string            `json:"customer_name" validate:"max=255"`
	Items        []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type EmployeeSaleRequest struct {
	EmployeeID   uuid.UUID         `json:"employee_id" validate:"uuid_required"`
	CustomerName string            `json:"customer_name" validate:"max=255"`
	Items        []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SaleOptions struct {
	DirectPrefix   string
	EmployeePrefix string
	Now            func() time.Time
}

// SaleService records sales. Stock is checked first, then the invoice number
// and the sale rows are written together through the allocator's retry loop,
// and finally every touched product is resynced.
type SaleService interface {
	RecordDirectSale(ctx context.Context, req DirectSaleRequest, userID string) (*model.DirectSale, error)
	RecordEmployeeSale(ctx context.Context, req EmployeeSaleRequest, userID string) (*model.EmployeeSale, error)
}

type saleService struct {
	saleRepo       repository.SaleRepository
	assignmentRepo repository.AssignmentRepository
	validator      StockValidator
	allocator      InvoiceAllocator
	synchronizer   StockSynchronizer
	opts           SaleOptions
	log            *zap.Logger
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	assignmentRepo repository.AssignmentRepository,
	validator StockValidator,
	allocator InvoiceAllocator,
	synchronizer StockSynchronizer,
	opts SaleOptions,
	log *zap.Logger,
) SaleService {
	if opts.DirectPrefix == "" {
		opts.DirectPrefix = "INV"
	}
	if opts.EmployeePrefix == "" {
		opts.EmployeePrefix = "EMP"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &saleService{
		saleRepo:       saleRepo,
		assignmentRepo: assignmentRepo,
		validator:      validator,
		allocator:      allocator,
		synchronizer:   synchronizer,
		opts:           opts,
		log:            log,
	}
}

func (s *saleService) RecordDirectSale(ctx context.Context, req DirectSaleRequest, userID string) (*model.DirectSale, error) {
	if err := validateSaleItems(req, req.Items); err != nil {
		return nil, err
	}

	lines := sumByProduct(req.Items)
	for _, line := range lines {
		if _, err := s.validator.Require(ctx, ValidateRequest{
			ProductID: line.productID,
			Quantity:  line.quantity,
			Operation: "direct_sale",
		}); err != nil {
			return nil, err
		}
	}

	now := s.opts.Now()
	sale := &model.DirectSale{CustomerName: req.CustomerName, SoldAt: now}
	sale.CreatedBy = userID
	sale.UpdatedBy = userID
	for _, item := range req.Items {
		sale.Items = append(sale.Items, model.DirectSaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	number, err := s.allocator.InsertWithRetry(ctx, s.opts.DirectPrefix, now.Year(),
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			sale.InvoiceNumber = claim.Number
			return s.saleRepo.CreateDirectSale(ctx, sale, claim)
		})
	if err != nil {
		return nil, err
	}

	s.log.Info("direct sale recorded", zap.String("invoice_number", number), zap.Int("lines", len(sale.Items)))
	s.syncProducts(ctx, lines)
	return sale, nil
}

func (s *saleService) RecordEmployeeSale(ctx context.Context, req EmployeeSaleRequest, userID string) (*model.EmployeeSale, error) {
	if err := validateSaleItems(req, req.Items); err != nil {
		return nil, err
	}

	lines := sumByProduct(req.Items)
	var depletions []repository.Depletion
	for _, line := range lines {
		if _, err := s.validator.Require(ctx, ValidateRequest{
			ProductID:  line.productID,
			Quantity:   line.quantity,
			Operation:  "employee_sale",
			EmployeeID: &req.EmployeeID,
		}); err != nil {
			return nil, err
		}
		plan, err := s.planDepletion(ctx, req.EmployeeID, line)
		if err != nil {
			return nil, err
		}
		depletions = append(depletions, plan...)
	}

	now := s.opts.Now()
	sale := &model.EmployeeSale{EmployeeID: req.EmployeeID, CustomerName: req.CustomerName, SoldAt: now}
	sale.CreatedBy = userID
	sale.UpdatedBy = userID
	for _, item := range req.Items {
		sale.Items = append(sale.Items, model.EmployeeSaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	number, err := s.allocator.InsertWithRetry(ctx, s.opts.EmployeePrefix, now.Year(),
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			sale.InvoiceNumber = claim.Number
			return s.saleRepo.CreateEmployeeSale(ctx, sale, claim, depletions)
		})
	if err != nil {
		return nil, assignmentError(err)
	}

	s.log.Info("employee sale recorded",
		zap.String("invoice_number", number),
		zap.String("employee_id", req.EmployeeID.String()),
		zap.Int("depletions", len(depletions)),
	)
	s.syncProducts(ctx, lines)
	return sale, nil
}

// planDepletion spreads a line over the employee's received assignments,
// oldest first.
func (s *saleService) planDepletion(ctx context.Context, employeeID uuid.UUID, line productLine) ([]repository.Depletion, error) {
	held, err := s.assignmentRepo.FindHeld(ctx, employeeID, line.productID)
	if err != nil {
		return nil, err
	}

	var plan []repository.Depletion
	left := line.quantity
	for _, a := range held {
		if left == 0 {
			break
		}
		take := a.RemainingQuantity
		if take > left {
			take = left
		}
		plan = append(plan, repository.Depletion{AssignmentID: a.ID, Quantity: take})
		left -= take
	}
	if left > 0 {
		return nil, &InsufficientStockError{
			ProductID: line.productID,
			Operation: "employee_sale",
			Requested: line.quantity,
			Available: line.quantity - left,
			Shortfall: left,
		}
	}
	return plan, nil
}

// syncProducts refreshes stored stock after a sale. Failures are only logged;
// the next sync corrects them.
func (s *saleService) syncProducts(ctx context.Context, lines []productLine) {
	for _, line := range lines {
		if _, err := s.synchronizer.Sync(ctx, line.productID, model.TriggerSale); err != nil {
			s.log.Error("sync after sale", zap.String("product_id", line.productID.String()), zap.Error(err))
		}
	}
}

type productLine struct {
	productID uuid.UUID
	quantity  int
}

// sumByProduct merges repeated products, keeping first-seen order.
func sumByProduct(items []SaleItemRequest) []productLine {
	index := make(map[uuid.UUID]int, len(items))
	var lines []productLine
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, productLine{productID: item.ProductID, quantity: item.Quantity})
	}
	return lines
}

func validateSaleItems(req interface{}, items []SaleItemRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	for _, item := range items {
		if item.UnitPrice.IsNegative() {
			return validationError("UnitPrice", "gte")
		}
	}
	return nil
}
