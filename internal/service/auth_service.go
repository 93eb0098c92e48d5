package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/repository"
)

// AuthService coordinates registration, login and session resolution.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL()),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		now:        clock,
	}
}

// Register creates an account with the User role and logs it in.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*domain.User, *auth.Session, error) {
	user, err := s.CreateUser(ctx, fullName, email, password, domain.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, session, nil
}

// CreateUser stores a new account holding roles without starting a session.
func (s *AuthService) CreateUser(ctx context.Context, fullName, email, password string, roles ...domain.Role) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, errors.New("full name and email are required")
	}
	if err := auth.CheckPasswordPolicy(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	session, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout revokes the server-side session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolves a session cookie value to its user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	user, _, err := s.ResolveSession(ctx, token)
	return user, err
}

// ResolveSession returns the user and session behind token. Invalid,
// expired and revoked tokens resolve to nils without an error.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, nil
	}
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, nil, nil
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != claims.Subject {
		return nil, nil, nil
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session user: %w", err)
	}
	return user, session, nil
}

// HasRole reports whether user holds role. A nil user holds nothing.
func (s *AuthService) HasRole(user *domain.User, role domain.Role) bool {
	return user.HasRole(role)
}

// DeleteUser removes an account. Accounts that created tickets are kept;
// tickets assigned to the account become unassigned and each one publishes
// a ticket_assigned event.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	unassigned, err := s.users.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUserReferenced):
		return ErrUserHasTickets
	default:
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int("unassigned_tickets", len(unassigned)))
	s.publishUnassigned(ctx, user, unassigned)
	return nil
}

func (s *AuthService) publishUnassigned(ctx context.Context, user *domain.User, ticketIDs []int64) {
	if s.dispatcher == nil {
		return
	}
	at := s.now().UTC()
	actor := ActorFromContext(ctx)
	for _, ticketID := range ticketIDs {
		previous := user.ID
		event := events.NewEvent(events.EventTicketAssigned, ticketID, actor, at, events.TicketAssignedPayload{
			PreviousAssigneeID:   &previous,
			PreviousAssigneeName: user.FullName,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish unassignment", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}
}

// GetUser returns the user or ErrUserNotFound.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns every account ordered by name.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) startSession(ctx context.Context, userID string) (*auth.Session, error) {
	issued := s.now().UTC()
	record := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(s.tokenMgr.TTL()),
	}
	token, err := s.tokenMgr.GenerateToken(record.ID, userID, record.IssuedAt, record.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.sessions.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &auth.Session{Token: token, Session: record}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
