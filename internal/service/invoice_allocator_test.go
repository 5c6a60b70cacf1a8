package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"go.uber.org/zap"
)

func TestFormatInvoiceNumber(t *testing.T) {
	cases := []struct {
		seq  int
		want string
	}{
		{1, "INV-2025-01"},
		{9, "INV-2025-09"},
		{10, "INV-2025-10"},
		{124, "INV-2025-124"},
	}
	for _, tc := range cases {
		if got := FormatInvoiceNumber("INV", 2025, tc.seq); got != tc.want {
			t.Errorf("FormatInvoiceNumber(%d) = %q, want %q", tc.seq, got, tc.want)
		}
	}
}

func TestAllocateSequential(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i, want := range []string{"INV-2025-01", "INV-2025-02", "INV-2025-03"} {
		got, err := e.allocator.Allocate(ctx, "INV", 2025)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if got != want {
			t.Errorf("Allocate #%d = %q, want %q", i, got, want)
		}
	}

	// Series are independent per prefix and year.
	if got, _ := e.allocator.Allocate(ctx, "INV", 2026); got != "INV-2026-01" {
		t.Errorf("new year = %q", got)
	}
	if got, _ := e.allocator.Allocate(ctx, "EMP", 2025); got != "EMP-2025-01" {
		t.Errorf("new prefix = %q", got)
	}
}

// barrierInvoices holds the first n MaxSequence reads until all n have been
// made, so every writer starts from the same maximum and collides.
type barrierInvoices struct {
	fakeInvoices
	n      int
	reads  int32
	ready  sync.WaitGroup
	claims int32
}

func newBarrierInvoices(st *store, n int) *barrierInvoices {
	b := &barrierInvoices{fakeInvoices: fakeInvoices{st}, n: n}
	b.ready.Add(n)
	return b
}

func (b *barrierInvoices) MaxSequence(ctx context.Context, prefix string, year int) (int, error) {
	seq, err := b.fakeInvoices.MaxSequence(ctx, prefix, year)
	if int(atomic.AddInt32(&b.reads, 1)) <= b.n {
		b.ready.Done()
		b.ready.Wait()
	}
	return seq, err
}

func (b *barrierInvoices) Claim(ctx context.Context, claim *model.IssuedInvoice) error {
	atomic.AddInt32(&b.claims, 1)
	return b.fakeInvoices.Claim(ctx, claim)
}

func TestAllocateConcurrent(t *testing.T) {
	const workers = 8
	st := newStore()
	invoices := newBarrierInvoices(st, workers)
	a := NewInvoiceAllocator(invoices, AllocatorOptions{}, zap.NewNop())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Allocate(context.Background(), "INV", 2025)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if numbers[n] {
				errs = append(errs, errors.New("duplicate "+n))
			}
			numbers[n] = true
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("allocation errors: %v", errs)
	}
	if len(numbers) != workers {
		t.Fatalf("got %d distinct numbers, want %d", len(numbers), workers)
	}
	if !numbers["INV-2025-01"] {
		t.Errorf("no writer won INV-2025-01: %v", numbers)
	}
	if got := atomic.LoadInt32(&invoices.claims); got <= workers {
		t.Errorf("%d claims for %d writers, expected collisions to force retries", got, workers)
	}
	if len(st.invoices) != workers {
		t.Errorf("registry holds %d claims, want %d", len(st.invoices), workers)
	}
}

func TestInsertWithRetryTakesNextNumberAfterLostRace(t *testing.T) {
	st := newStore()
	invoices := fakeInvoices{st}
	a := NewInvoiceAllocator(invoices, AllocatorOptions{}, zap.NewNop())

	var tried []string
	number, err := a.InsertWithRetry(context.Background(), "INV", 2025,
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			tried = append(tried, claim.Number)
			if len(tried) == 1 {
				// another writer commits the same number first
				rival := *claim
				if err := invoices.Claim(ctx, &rival); err != nil {
					t.Fatalf("rival claim: %v", err)
				}
				return repository.ErrDuplicateInvoice
			}
			return invoices.Claim(ctx, claim)
		})
	if err != nil {
		t.Fatalf("InsertWithRetry: %v", err)
	}
	if number != "INV-2025-02" {
		t.Errorf("number = %q, want INV-2025-02 (tried %v)", number, tried)
	}
	if next, _ := a.Allocate(context.Background(), "INV", 2025); next != "INV-2025-03" {
		t.Errorf("next number = %q, want INV-2025-03", next)
	}
}

func TestInsertWithRetryAddsSuffixAfterCollisions(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	st := newStore()
	invoices := fakeInvoices{st}
	a := NewInvoiceAllocator(invoices, AllocatorOptions{
		Now: func() time.Time { return fixed },
	}, zap.NewNop())

	var tried []string
	number, err := a.InsertWithRetry(context.Background(), "INV", 2025,
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			tried = append(tried, claim.Number)
			if len(tried) <= DefaultInvoiceSuffixAfter {
				rival := *claim
				invoices.Claim(ctx, &rival)
				return repository.ErrDuplicateInvoice
			}
			return invoices.Claim(ctx, claim)
		})
	if err != nil {
		t.Fatalf("InsertWithRetry: %v", err)
	}

	want := []string{
		"INV-2025-01",
		"INV-2025-02",
		"INV-2025-03",
		"INV-2025-04-" + strconv.FormatInt(fixed.UnixNano(), 36),
	}
	if len(tried) != len(want) {
		t.Fatalf("tried %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("attempt %d = %q, want %q", i+1, tried[i], want[i])
		}
	}
	if number != want[3] {
		t.Errorf("number = %q, want %q", number, want[3])
	}
}

func TestInsertWithRetryExhausted(t *testing.T) {
	st := newStore()
	a := NewInvoiceAllocator(fakeInvoices{st}, AllocatorOptions{MaxAttempts: 4}, zap.NewNop())

	calls := 0
	_, err := a.InsertWithRetry(context.Background(), "INV", 2025,
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			calls++
			return repository.ErrDuplicateInvoice
		})
	if !errors.Is(err, ErrInvoiceAllocationExhausted) {
		t.Fatalf("err = %v, want ErrInvoiceAllocationExhausted", err)
	}
	if !errors.Is(err, repository.ErrDuplicateInvoice) {
		t.Errorf("last conflict not wrapped: %v", err)
	}
	if calls != 4 {
		t.Errorf("insert called %d times, want 4", calls)
	}
}

func TestInsertWithRetryStopsOnOtherErrors(t *testing.T) {
	e := newEnv(t)
	calls := 0
	_, err := e.allocator.InsertWithRetry(context.Background(), "INV", 2025,
		func(ctx context.Context, claim *model.IssuedInvoice) error {
			calls++
			return errBoom
		})
	if !errors.Is(err, errBoom) || calls != 1 {
		t.Fatalf("err = %v after %d calls, want errBoom after 1", err, calls)
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		prefix string
		year   int
	}{
		{"inv", 2025},
		{"", 2025},
		{"IN-V", 2025},
		{"INV", 1999},
		{"INV", 10000},
	}
	for _, tc := range cases {
		if _, err := e.allocator.Allocate(context.Background(), tc.prefix, tc.year); !errors.Is(err, ErrValidation) {
			t.Errorf("Allocate(%q, %d) err = %v, want ErrValidation", tc.prefix, tc.year, err)
		}
	}
}
