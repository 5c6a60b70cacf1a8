package repository

import (
	"context"
	"errors"
	"time"

	"go-stock-reconciler/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.StockAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error)

	// FindHeld returns the employee's received assignments for a product that
	// still hold stock, oldest first.
	FindHeld(ctx context.Context, employeeID, productID uuid.UUID) ([]model.StockAssignment, error)

	// SumOutstandingByProduct sums remaining quantity over assignments still in
	// custody (assigned or received).
	SumOutstandingByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	SumHeldByEmployee(ctx context.Context, employeeID, productID uuid.UUID) (int, error)

	// Transition moves an assignment from one status to another. It fails with
	// ErrStatusConflict when the stored status is not from.
	Transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus, at time.Time) error
	Deplete(ctx context.Context, id uuid.UUID, quantity int) error
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.StockAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error) {
	var assignment model.StockAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &assignment, nil
}

func (r *assignmentRepo) FindHeld(ctx context.Context, employeeID, productID uuid.UUID) ([]model.StockAssignment, error) {
	var assignments []model.StockAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND product_id = ?", employeeID, productID).
		Where("status = ? AND remaining_quantity > 0", model.AssignmentReceived).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) SumOutstandingByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.StockAssignment{}).
		Where("product_id = ? AND status IN ?", productID,
			[]model.AssignmentStatus{model.AssignmentAssigned, model.AssignmentReceived}).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *assignmentRepo) SumHeldByEmployee(ctx context.Context, employeeID, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.StockAssignment{}).
		Where("employee_id = ? AND product_id = ? AND status = ?", employeeID, productID, model.AssignmentReceived).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *assignmentRepo) Transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus, at time.Time) error {
	updates := map[string]interface{}{"status": to}
	switch to {
	case model.AssignmentReceived:
		updates["received_at"] = at
	case model.AssignmentReturned:
		updates["returned_at"] = at
	}

	res := r.db.WithContext(ctx).Model(&model.StockAssignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *assignmentRepo) Deplete(ctx context.Context, id uuid.UUID, quantity int) error {
	err := depleteAssignment(r.db.WithContext(ctx), id, quantity)
	if !errors.Is(err, ErrInsufficientCustody) {
		return err
	}
	assignment, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return findErr
	}
	if assignment.Status != model.AssignmentReceived {
		return ErrStatusConflict
	}
	return err
}

func (r *assignmentRepo) missingOrConflict(ctx context.Context, id uuid.UUID) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrStatusConflict
}

// depleteAssignment is a conditional decrement: the row only changes when it
// is received and still holds at least quantity units.
func depleteAssignment(tx *gorm.DB, id uuid.UUID, quantity int) error {
	res := tx.Model(&model.StockAssignment{}).
		Where("id = ? AND status = ? AND remaining_quantity >= ?", id, model.AssignmentReceived, quantity).
		UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCustody
	}
	return nil
}
