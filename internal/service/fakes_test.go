package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// store is an in-memory stand-in for postgres shared by the fake repositories.
type store struct {
	mu sync.Mutex

	products      map[uuid.UUID]*model.Product
	receipts      []model.PurchaseReceipt
	directSales   []model.DirectSale
	employeeSales []model.EmployeeSale
	cylinders     []model.CylinderTransaction
	assignments   []*model.StockAssignment
	invoices      map[string]model.IssuedInvoice
	drifts        []model.StockDrift

	// failures injects errors by source name.
	failures    map[string]error
	productErrs map[uuid.UUID]error
	stockWrites int
}

func newStore() *store {
	return &store{
		products:    make(map[uuid.UUID]*model.Product),
		invoices:    make(map[string]model.IssuedInvoice),
		failures:    make(map[string]error),
		productErrs: make(map[uuid.UUID]error),
	}
}

func (s *store) fail(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[source]
}

func (s *store) addProduct(sku string, cost string) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Product{SKU: sku, Name: sku, CostPrice: decimal.RequireFromString(cost)}
	p.ID = uuid.New()
	s.products[p.ID] = p
	return p
}

func (s *store) addReceipt(productID uuid.UUID, qty int, status model.ReceiptStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, model.PurchaseReceipt{ProductID: productID, Quantity: qty, Status: status})
}

func (s *store) addDirectSale(productID uuid.UUID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directSales = append(s.directSales, model.DirectSale{
		Items: []model.DirectSaleItem{{ProductID: productID, Quantity: qty}},
	})
}

func (s *store) addEmployeeSale(productID uuid.UUID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employeeSales = append(s.employeeSales, model.EmployeeSale{
		Items: []model.EmployeeSaleItem{{ProductID: productID, Quantity: qty}},
	})
}

func (s *store) addCylinder(productID uuid.UUID, typ model.CylinderTxType, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := productID
	s.cylinders = append(s.cylinders, model.CylinderTransaction{ProductID: &id, Type: typ, Quantity: qty})
}

func (s *store) addAssignment(productID, employeeID uuid.UUID, qty int, status model.AssignmentStatus) *model.StockAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.StockAssignment{
		ProductID:         productID,
		EmployeeID:        employeeID,
		Quantity:          qty,
		RemainingQuantity: qty,
		Status:            status,
	}
	a.ID = uuid.New()
	s.assignments = append(s.assignments, a)
	return a
}

func (s *store) storedStock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].CurrentStock
}

func (s *store) assignment(id uuid.UUID) model.StockAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ID == id {
			return *a
		}
	}
	return model.StockAssignment{}
}

func (s *store) findAssignment(id uuid.UUID) *model.StockAssignment {
	for _, a := range s.assignments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// products

type fakeProducts struct{ *store }

func (f fakeProducts) Create(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	stored := *product
	stored.CurrentStock = 0
	f.products[product.ID] = &stored
	return nil
}

func (f fakeProducts) Update(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.SKU = product.SKU
	existing.Name = product.Name
	existing.Category = product.Category
	existing.Unit = product.Unit
	existing.CostPrice = product.CostPrice
	existing.FloorPrice = product.FloorPrice
	existing.UpdatedBy = product.UpdatedBy
	return nil
}

func (f fakeProducts) FindAll(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeProducts) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.productErrs[id]; err != nil {
		return nil, err
	}
	if err := f.failures["products"]; err != nil {
		return nil, err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeProducts) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeProducts) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["list"]; err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (f fakeProducts) UpdateCurrentStock(ctx context.Context, id uuid.UUID, stock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CurrentStock = stock
	f.stockWrites++
	return nil
}

// transaction sources

type fakeReceipts struct{ *store }

func (f fakeReceipts) SumReceivedByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	if err := f.fail("purchase receipts"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.receipts {
		if r.ProductID == productID && r.Status == model.ReceiptReceived {
			total += r.Quantity
		}
	}
	return total, nil
}

type fakeCylinders struct{ *store }

func (f fakeCylinders) SumByProduct(ctx context.Context, productID uuid.UUID) (repository.CylinderTotals, error) {
	if err := f.fail("cylinder transactions"); err != nil {
		return repository.CylinderTotals{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var totals repository.CylinderTotals
	for _, c := range f.cylinders {
		if c.ProductID == nil || *c.ProductID != productID {
			continue
		}
		switch c.Type {
		case model.CylinderReturn:
			totals.Returns += c.Quantity
		case model.CylinderDeposit, model.CylinderRefill:
			totals.Outflow += c.Quantity
		}
	}
	return totals, nil
}

type fakeSales struct{ *store }

func (f fakeSales) SumDirectSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	if err := f.fail("direct sales"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, s := range f.directSales {
		for _, item := range s.Items {
			if item.ProductID == productID {
				total += item.Quantity
			}
		}
	}
	return total, nil
}

func (f fakeSales) SumEmployeeSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	if err := f.fail("employee sales"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, s := range f.employeeSales {
		for _, item := range s.Items {
			if item.ProductID == productID {
				total += item.Quantity
			}
		}
	}
	return total, nil
}

func (f fakeSales) CreateDirectSale(ctx context.Context, sale *model.DirectSale, claim *model.IssuedInvoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.invoices[claim.Number]; taken {
		return repository.ErrDuplicateInvoice
	}
	f.invoices[claim.Number] = *claim
	f.directSales = append(f.directSales, *sale)
	return nil
}

func (f fakeSales) CreateEmployeeSale(ctx context.Context, sale *model.EmployeeSale, claim *model.IssuedInvoice, depletions []repository.Depletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.invoices[claim.Number]; taken {
		return repository.ErrDuplicateInvoice
	}
	want := make(map[uuid.UUID]int)
	for _, d := range depletions {
		want[d.AssignmentID] += d.Quantity
	}
	for id, qty := range want {
		a := f.findAssignment(id)
		if a == nil || a.Status != model.AssignmentReceived || a.RemainingQuantity < qty {
			return repository.ErrInsufficientCustody
		}
	}
	for id, qty := range want {
		f.findAssignment(id).RemainingQuantity -= qty
	}
	f.invoices[claim.Number] = *claim
	f.employeeSales = append(f.employeeSales, *sale)
	return nil
}

// assignments

type fakeAssignments struct{ *store }

func (f fakeAssignments) Create(ctx context.Context, assignment *model.StockAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	stored := *assignment
	f.assignments = append(f.assignments, &stored)
	return nil
}

func (f fakeAssignments) FindByID(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.findAssignment(id)
	if a == nil {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAssignments) FindHeld(ctx context.Context, employeeID, productID uuid.UUID) ([]model.StockAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StockAssignment
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && a.ProductID == productID &&
			a.Status == model.AssignmentReceived && a.RemainingQuantity > 0 {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f fakeAssignments) SumOutstandingByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, a := range f.assignments {
		if a.ProductID == productID && a.Status != model.AssignmentReturned {
			total += a.RemainingQuantity
		}
	}
	return total, nil
}

func (f fakeAssignments) SumHeldByEmployee(ctx context.Context, employeeID, productID uuid.UUID) (int, error) {
	if err := f.fail("stock assignments"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && a.ProductID == productID && a.Status == model.AssignmentReceived {
			total += a.RemainingQuantity
		}
	}
	return total, nil
}

func (f fakeAssignments) Transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.findAssignment(id)
	if a == nil {
		return repository.ErrNotFound
	}
	if a.Status != from {
		return repository.ErrStatusConflict
	}
	a.Status = to
	switch to {
	case model.AssignmentReceived:
		a.ReceivedAt = &at
	case model.AssignmentReturned:
		a.ReturnedAt = &at
	}
	return nil
}

func (f fakeAssignments) Deplete(ctx context.Context, id uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.findAssignment(id)
	switch {
	case a == nil:
		return repository.ErrNotFound
	case a.Status != model.AssignmentReceived:
		return repository.ErrStatusConflict
	case a.RemainingQuantity < quantity:
		return repository.ErrInsufficientCustody
	}
	a.RemainingQuantity -= quantity
	return nil
}

// invoices

type fakeInvoices struct{ *store }

func (f fakeInvoices) MaxSequence(ctx context.Context, prefix string, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := 0
	for _, inv := range f.invoices {
		if inv.Prefix == prefix && inv.Year == year && inv.Sequence > seq {
			seq = inv.Sequence
		}
	}
	return seq, nil
}

func (f fakeInvoices) Claim(ctx context.Context, claim *model.IssuedInvoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.invoices[claim.Number]; taken {
		return repository.ErrDuplicateInvoice
	}
	f.invoices[claim.Number] = *claim
	return nil
}

// drift

type fakeDrifts struct{ *store }

func (f fakeDrifts) Create(ctx context.Context, drift *model.StockDrift) error {
	if err := f.fail("drift"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drifts = append(f.drifts, *drift)
	return nil
}

func (f fakeDrifts) FindRecent(ctx context.Context, productID *uuid.UUID, limit int) ([]model.StockDrift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StockDrift
	for i := len(f.drifts) - 1; i >= 0 && len(out) < limit; i-- {
		if productID == nil || f.drifts[i].ProductID == *productID {
			out = append(out, f.drifts[i])
		}
	}
	return out, nil
}

// env wires every service over one store.
type env struct {
	store        *store
	calculator   StockCalculator
	synchronizer StockSynchronizer
	validator    StockValidator
	breakdown    StockBreakdownReporter
	allocator    InvoiceAllocator
	assignments  AssignmentService
	sales        SaleService
	catalog      CatalogService
}

var saleClock = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	st := newStore()
	log := zap.NewNop()

	products := fakeProducts{st}
	assignments := fakeAssignments{st}
	calculator := NewStockCalculator(products, fakeReceipts{st}, fakeSales{st}, fakeCylinders{st})
	synchronizer := NewStockSynchronizer(calculator, products, fakeDrifts{st}, 4, log)
	validator := NewStockValidator(calculator, products, assignments)
	allocator := NewInvoiceAllocator(fakeInvoices{st}, AllocatorOptions{}, log)

	return &env{
		store:        st,
		calculator:   calculator,
		synchronizer: synchronizer,
		validator:    validator,
		breakdown:    NewStockBreakdownReporter(calculator, products, assignments),
		allocator:    allocator,
		assignments:  NewAssignmentService(assignments, validator, synchronizer, log),
		sales: NewSaleService(fakeSales{st}, assignments, validator, allocator, synchronizer,
			SaleOptions{Now: func() time.Time { return saleClock }}, log),
		catalog: NewCatalogService(products, log),
	}
}
