package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/repository"
)

// Seeder provisions the first-boot accounts and example tickets.
type Seeder struct {
	cfg     config.SeedConfig
	auth    *AuthService
	tickets *TicketService
	users   repository.UserRepository
	store   repository.TicketRepository
	logger  *zap.Logger
}

// NewSeeder wires a seeder over the given services and repositories.
func NewSeeder(cfg config.SeedConfig, authSvc *AuthService, ticketSvc *TicketService, repos *repository.Repositories, logger *zap.Logger) *Seeder {
	return &Seeder{
		cfg:     cfg,
		auth:    authSvc,
		tickets: ticketSvc,
		users:   repos.Users,
		store:   repos.Tickets,
		logger:  logger,
	}
}

// Run is idempotent: accounts are created when absent and example tickets
// only when no ticket exists yet.
func (s *Seeder) Run(ctx context.Context) error {
	admin, err := s.ensureUser(ctx, "Admin User", s.cfg.AdminEmail, s.cfg.AdminPassword, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	dev, err := s.ensureUser(ctx, "Dev One", s.cfg.UserEmail, s.cfg.UserPassword, domain.RoleUser)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count tickets: %w", err)
	}
	if count > 0 {
		s.logger.Info("seed tickets skipped", zap.Int64("existing", count))
		return nil
	}

	examples := []domain.Ticket{
		{
			Title:            "Bug page rapport",
			Description:      "Impossible de générer PDF",
			Status:           domain.TicketStatusOpen,
			UrgencyLevel:     domain.UrgencyMedium,
			Category:         domain.TicketCategoryBug,
			AssignedToUserID: &dev.ID,
		},
		{
			Title:            "Ajouter champ employé",
			Description:      "Champ pour responsable",
			Status:           domain.TicketStatusOpen,
			UrgencyLevel:     domain.UrgencyCritical,
			Category:         domain.TicketCategoryImprovement,
			AssignedToUserID: &dev.ID,
		},
	}
	for i := range examples {
		if err := s.tickets.Create(ctx, &examples[i], admin.ID); err != nil {
			return fmt.Errorf("seed ticket %q: %w", examples[i].Title, err)
		}
	}
	s.logger.Info("seeded example tickets", zap.Int("count", len(examples)))
	return nil
}

func (s *Seeder) ensureUser(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.HasRole(role) {
			if err := s.users.AddRole(ctx, existing.ID, role); err != nil {
				return nil, err
			}
			existing.Roles = append(existing.Roles, role)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user, err := s.auth.CreateUser(ctx, fullName, email, password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seeded account", zap.String("email", user.Email), zap.String("role", string(role)))
	return user, nil
}
