package service

import (
	"context"
	"errors"
	"time"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AssignRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"uuid_required"`
	EmployeeID uuid.UUID `json:"employee_id" validate:"uuid_required"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
}

// AssignmentService drives custody through assigned -> received -> returned.
type AssignmentService interface {
	Assign(ctx context.Context, req AssignRequest, userID string) (*model.StockAssignment, error)
	Receive(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error)
	Deplete(ctx context.Context, id uuid.UUID, quantity int) (*model.StockAssignment, error)
	Return(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	validator      StockValidator
	synchronizer   StockSynchronizer
	now            func() time.Time
	log            *zap.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	validator StockValidator,
	synchronizer StockSynchronizer,
	log *zap.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		validator:      validator,
		synchronizer:   synchronizer,
		now:            time.Now,
		log:            log,
	}
}

func (s *assignmentService) Assign(ctx context.Context, req AssignRequest, userID string) (*model.StockAssignment, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if _, err := s.validator.Require(ctx, ValidateRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Operation: "assignment",
	}); err != nil {
		return nil, err
	}

	assignment := &model.StockAssignment{
		ProductID:         req.ProductID,
		EmployeeID:        req.EmployeeID,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		Status:            model.AssignmentAssigned,
	}
	assignment.CreatedBy = userID
	assignment.UpdatedBy = userID
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.log.Info("stock assigned",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("employee_id", req.EmployeeID.String()),
		zap.Int("quantity", req.Quantity),
	)
	return assignment, nil
}

func (s *assignmentService) Receive(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error) {
	return s.transition(ctx, id, model.AssignmentAssigned, model.AssignmentReceived)
}

// Deplete takes quantity out of a received assignment. Asking for more than
// remains fails with ErrInsufficientCustody and leaves the row unchanged.
func (s *assignmentService) Deplete(ctx context.Context, id uuid.UUID, quantity int) (*model.StockAssignment, error) {
	if quantity <= 0 {
		return nil, validationError("Quantity", "gt")
	}
	if err := s.assignmentRepo.Deplete(ctx, id, quantity); err != nil {
		return nil, assignmentError(err)
	}
	return s.Get(ctx, id)
}

// Return hands the remaining quantity back. The product is resynced so the
// stored stock reflects the assignment leaving custody.
func (s *assignmentService) Return(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error) {
	assignment, err := s.transition(ctx, id, model.AssignmentReceived, model.AssignmentReturned)
	if err != nil {
		return nil, err
	}
	if _, err := s.synchronizer.Sync(ctx, assignment.ProductID, model.TriggerAssignment); err != nil {
		s.log.Error("sync after assignment return",
			zap.String("assignment_id", id.String()),
			zap.String("product_id", assignment.ProductID.String()),
			zap.Error(err),
		)
	}
	return assignment, nil
}

func (s *assignmentService) Get(ctx context.Context, id uuid.UUID) (*model.StockAssignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, assignmentError(err)
	}
	return assignment, nil
}

func (s *assignmentService) transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus) (*model.StockAssignment, error) {
	if err := s.assignmentRepo.Transition(ctx, id, from, to, s.now()); err != nil {
		return nil, assignmentError(err)
	}
	s.log.Info("assignment status changed",
		zap.String("assignment_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return s.Get(ctx, id)
}

func assignmentError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAssignmentNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidTransition
	case errors.Is(err, repository.ErrInsufficientCustody):
		return ErrInsufficientCustody
	}
	return err
}
