package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/project"
	"go.uber.org/zap"
)

// SweepService carries the registration-end follow-up. It owns no timer;
// an external scheduler hits the admin endpoint that invokes it.
type SweepService struct {
	projectRepo project.ProjectRepository
	userRepo    identity.UserRepository
	email       EmailSender
	logger      *zap.Logger
}

// NewSweepService creates a new SweepService
func NewSweepService(
	projectRepo project.ProjectRepository,
	userRepo identity.UserRepository,
	email EmailSender,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		email:       email,
		logger:      logger,
	}
}

// SweepResult reports what a registration sweep touched
type SweepResult struct {
	ProjectsMoved int `json:"projects_moved"`
}

// RegistrationSweep finds projects whose registration period ended
// yesterday, moves them to Approval Pending and emails the operators.
// Email failures are logged and do not undo the status change.
func (s *SweepService) RegistrationSweep(ctx context.Context) (*SweepResult, error) {
	yesterday := time.Now().AddDate(0, 0, -1)
	projects, err := s.projectRepo.FindByRegistrationEndDate(ctx, yesterday)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for i := range projects {
		p := &projects[i]
		if p.Status != project.StatusInProgress {
			continue
		}
		p.MarkApprovalPending()
		if err := s.projectRepo.Save(ctx, p); err != nil {
			s.logger.Error("Failed to move project to approval pending",
				zap.String("project_id", p.ID.String()),
				zap.Error(err))
			continue
		}
		result.ProjectsMoved++
		s.notifyOperators(ctx, p)
	}

	s.logger.Info("Registration sweep completed", zap.Int("projects_moved", result.ProjectsMoved))
	return result, nil
}

func (s *SweepService) notifyOperators(ctx context.Context, p *project.Project) {
	operators, err := s.userRepo.FindByRole(ctx, identity.RoleOperator)
	if err != nil {
		s.logger.Warn("Failed to load operators for sweep notification", zap.Error(err))
		return
	}

	var recipients []string
	for i := range operators {
		if operators[i].Active {
			recipients = append(recipients, operators[i].Email)
		}
	}
	if len(recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("Registration closed: %s", p.Title)
	body := fmt.Sprintf("The registration period for project %q has ended. The project is now awaiting approval before vouchers can be issued.", p.Title)
	if err := s.email.SendEmail(ctx, recipients, subject, body); err != nil {
		s.logger.Warn("Failed to send sweep notification email",
			zap.String("project_id", p.ID.String()),
			zap.Error(err))
	}
}
