package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
)

var projectTracer = otel.Tracer("service/projects")

// ProjectService manages savings projects.
type ProjectService struct {
	store  port.LedgerStore
	logger *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(store port.LedgerStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{store: store, logger: logger}
}

func (s *ProjectService) Create(ctx context.Context, userID string, req *domain.ProjectRequest) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Create")
	defer span.End()

	if req.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "account_id", Message: "account_id is required"}
	}
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if req.TargetAmount.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "target_amount", Message: "target_amount must be positive"}
	}
	if _, err := s.store.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccountID:    req.AccountID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline,
		Status:       domain.ProjectActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("name", project.Name),
	)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.List")
	defer span.End()

	return s.store.ListProjects(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Get")
	defer span.End()

	return s.store.GetProject(ctx, userID, projectID)
}

// Contribute moves money from the funding account into the project. The
// account debit and the saved-amount increase commit together; reaching the
// target flips the project to COMPLETED.
func (s *ProjectService) Contribute(ctx context.Context, userID, projectID string, req *domain.ContributeRequest) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Contribute")
	defer span.End()

	if req.Amount.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	var project *domain.Project
	err := s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		var err error
		project, err = st.GetProject(ctx, userID, projectID)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectActive {
			return &domain.ErrValidation{Field: "status", Message: "project is not active"}
		}

		account, err := st.GetAccount(ctx, userID, project.AccountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(req.Amount) {
			return &domain.ErrInsufficientFunds{
				Available: account.Balance.String(),
				Required:  req.Amount.String(),
			}
		}

		if err := st.AdjustBalance(ctx, project.AccountID, req.Amount.Neg()); err != nil {
			return err
		}

		now := time.Now().UTC()
		tx := &domain.Transaction{
			ID:          uuid.NewString(),
			AccountID:   project.AccountID,
			Amount:      req.Amount,
			Type:        domain.TransactionExpense,
			Category:    "savings",
			Description: "Project contribution: " + project.Name,
			Date:        now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		project.SavedAmount = project.SavedAmount.Add(req.Amount)
		if project.SavedAmount.GreaterThanOrEqual(project.TargetAmount) {
			project.Status = domain.ProjectCompleted
		}
		project.UpdatedAt = now
		_, err = st.UpdateProject(ctx, project)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project contribution",
		zap.String("project_id", projectID),
		zap.String("amount", req.Amount.String()),
		zap.String("status", string(project.Status)),
	)
	return project, nil
}

// SetStatus pauses, resumes or cancels a project.
func (s *ProjectService) SetStatus(ctx context.Context, userID, projectID string, status domain.ProjectStatus) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.SetStatus")
	defer span.End()

	switch status {
	case domain.ProjectActive, domain.ProjectPaused, domain.ProjectCancelled:
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "status must be ACTIVE, PAUSED or CANCELLED"}
	}

	project, err := s.store.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == domain.ProjectCompleted {
		return nil, &domain.ErrValidation{Field: "status", Message: "completed projects cannot change status"}
	}
	project.Status = status
	return s.store.UpdateProject(ctx, project)
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Delete")
	defer span.End()

	return s.store.DeleteProject(ctx, userID, projectID)
}
