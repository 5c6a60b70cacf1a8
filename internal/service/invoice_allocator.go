package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"
	"go-stock-reconciler/pkg/validator"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultInvoiceMaxAttempts = 10
	DefaultInvoiceSuffixAfter = 3
)

// InvoiceInsertFunc persists whatever carries the invoice number. It must
// insert claim under the issued_invoices unique index and return
// repository.ErrDuplicateInvoice when the number is already taken.
type InvoiceInsertFunc func(ctx context.Context, claim *model.IssuedInvoice) error

type AllocatorOptions struct {
	MaxAttempts int
	// SuffixAfter is how many collisions are tolerated before candidates get
	// a time-derived suffix.
	SuffixAfter int
	Now         func() time.Time
}

// InvoiceAllocator hands out PREFIX-YEAR-NN numbers without a counter: each
// attempt reads the current maximum and tries to insert the next one, and a
// unique index rejects the loser of any race.
type InvoiceAllocator interface {
	Allocate(ctx context.Context, prefix string, year int) (string, error)
	InsertWithRetry(ctx context.Context, prefix string, year int, insert InvoiceInsertFunc) (string, error)
}

type invoiceAllocator struct {
	invoiceRepo repository.InvoiceRepository
	opts        AllocatorOptions
	log         *zap.Logger
}

type allocateInput struct {
	Prefix string `validate:"required,invoice_prefix"`
	Year   int    `validate:"gte=2000,lte=9999"`
}

func NewInvoiceAllocator(invoiceRepo repository.InvoiceRepository, opts AllocatorOptions, log *zap.Logger) InvoiceAllocator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultInvoiceMaxAttempts
	}
	if opts.SuffixAfter < 1 {
		opts.SuffixAfter = DefaultInvoiceSuffixAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &invoiceAllocator{invoiceRepo: invoiceRepo, opts: opts, log: log}
}

// FormatInvoiceNumber renders PREFIX-YEAR-NN with at least two digits.
func FormatInvoiceNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%02d", prefix, year, sequence)
}

func (a *invoiceAllocator) Allocate(ctx context.Context, prefix string, year int) (string, error) {
	return a.InsertWithRetry(ctx, prefix, year, a.invoiceRepo.Claim)
}

func (a *invoiceAllocator) InsertWithRetry(ctx context.Context, prefix string, year int, insert InvoiceInsertFunc) (string, error) {
	if err := validate(allocateInput{Prefix: prefix, Year: year}); err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "InvoiceAllocator.InsertWithRetry", trace.WithAttributes(
		attribute.String("invoice.prefix", prefix),
		attribute.Int("invoice.year", year),
	))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < a.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		current, err := a.invoiceRepo.MaxSequence(ctx, prefix, year)
		if err != nil {
			return "", fmt.Errorf("read invoice sequence: %w", err)
		}

		// A lost race shows up in the next read, so the candidate is always
		// the next number after the current maximum.
		sequence := current + 1
		number := FormatInvoiceNumber(prefix, year, sequence)
		if attempt >= a.opts.SuffixAfter {
			number += "-" + strconv.FormatInt(a.opts.Now().UnixNano(), 36)
		}

		claim := &model.IssuedInvoice{
			Number:   number,
			Prefix:   prefix,
			Year:     year,
			Sequence: sequence,
		}
		err = insert(ctx, claim)
		if err == nil {
			span.SetAttributes(
				attribute.String("invoice.number", number),
				attribute.Int("invoice.attempts", attempt+1),
			)
			return number, nil
		}
		if !errors.Is(err, repository.ErrDuplicateInvoice) {
			span.RecordError(err)
			return "", err
		}

		lastErr = err
		a.log.Debug("invoice number collision",
			zap.String("number", number),
			zap.Int("attempt", attempt+1),
		)
	}

	a.log.Error("invoice allocation exhausted",
		zap.String("prefix", prefix),
		zap.Int("year", year),
		zap.Int("attempts", a.opts.MaxAttempts),
	)
	return "", fmt.Errorf("%w after %d attempts: %w", ErrInvoiceAllocationExhausted, a.opts.MaxAttempts, lastErr)
}

// validate runs struct validation and reports the first failure as ErrValidation.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs[0].FailedField, errs[0].Tag)
	}
	return nil
}
