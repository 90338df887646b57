package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	userserrors "tibacare/internal/users/errors"
	"tibacare/internal/users/password"
	"tibacare/internal/users/repository"
	"tibacare/internal/users/validator"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/model"
	"tibacare/pkg/sanitizer"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type UserService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.User, error)
	CreateSession(ctx context.Context, creds *model.Credentials) (*Session, error)
	GetByID(ctx context.Context, c auth.Capability, uid string) (*model.User, error)
	GetAll(ctx context.Context, c auth.Capability, limit int, offset int64) ([]*model.User, int64, error)
	UpdateRole(ctx context.Context, c auth.Capability, uid string, update *model.RoleUpdate) (*model.User, error)
}

type userService struct {
	repo         repository.UserRepository
	validator    *validator.UserValidator
	tokens       TokenIssuer
	cfg          *config.Config
	passwordCost int
	now          func() time.Time
}

func NewUserService(repo repository.UserRepository, validator *validator.UserValidator, tokens TokenIssuer, cfg *config.Config) UserService {
	return &userService{
		repo:         repo,
		validator:    validator,
		tokens:       tokens,
		cfg:          cfg,
		passwordCost: bcrypt.DefaultCost,
		now:          time.Now,
	}
}

// Register creates an account. The role is decided here from the configured
// email lists and is never taken from the request.
func (s *userService) Register(ctx context.Context, reg *model.Registration) (*model.User, error) {
	reg.Email = sanitizer.NormalizeEmail(reg.Email)
	reg.Name = sanitizer.NormalizeName(reg.Name)
	if err := s.validator.ValidateRegistration(reg); err != nil {
		return nil, validationError("Registration validation failed", err)
	}

	hash, err := password.Hash(reg.Password, s.passwordCost)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, apperrors.Validation("Registration validation failed", map[string]any{
				"fields": map[string]any{"password": err.Error()},
			})
		}
		return nil, apperrors.Internal("Failed to register user", err)
	}

	user := &model.User{
		UID:          uuid.NewString(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	user.Role = s.roleFor(user.Email)
	if user.Role == model.RoleProvider {
		user.ProviderID = user.UID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.cfg.Log.Info("User registered successfully", "uid", user.UID, "role", user.Role)
	return user, nil
}

func (s *userService) roleFor(email string) model.Role {
	switch {
	case containsEmail(s.cfg.AdminEmails, email):
		return model.RoleAdmin
	case containsEmail(s.cfg.ProviderEmails, email):
		return model.RoleProvider
	}
	return model.RolePatient
}

func containsEmail(list []string, email string) bool {
	return slices.ContainsFunc(list, func(e string) bool {
		return strings.EqualFold(strings.TrimSpace(e), email)
	})
}

// CreateSession checks the password and issues a token carrying the stored
// role. Unknown email and wrong password are indistinguishable.
func (s *userService) CreateSession(ctx context.Context, creds *model.Credentials) (*Session, error) {
	creds.Email = sanitizer.NormalizeEmail(creds.Email)
	if err := s.validator.ValidateCredentials(creds); err != nil {
		return nil, validationError("Credentials validation failed", err)
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Wrap(userserrors.ErrInvalidCredentials, apperrors.CodeUnauthorized, "Invalid email or password", http.StatusUnauthorized)
		}
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	if err := password.Verify(creds.Password, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.cfg.Log.Warn("Sign-in rejected", "uid", user.UID)
			return nil, apperrors.Wrap(userserrors.ErrInvalidCredentials, apperrors.CodeUnauthorized, "Invalid email or password", http.StatusUnauthorized)
		}
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.cfg.Log.Error("Failed to issue session token", "uid", user.UID, "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	s.cfg.Log.Info("Session created", "uid", user.UID, "role", user.Role)
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetByID lets users read their own record; admins read any.
func (s *userService) GetByID(ctx context.Context, c auth.Capability, uid string) (*model.User, error) {
	if !c.IsAuthenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !c.IsAdmin() && c.UserID != uid {
		return nil, apperrors.Forbidden("Cannot read another user")
	}
	return s.find(ctx, uid)
}

func (s *userService) GetAll(ctx context.Context, c auth.Capability, limit int, offset int64) ([]*model.User, int64, error) {
	if err := requireAdmin(c); err != nil {
		return nil, 0, err
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count users", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count users", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list users", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve users", errFind)
	}
	return users, count, nil
}

// UpdateRole is the only way a role changes after registration. Tokens
// issued before the change keep the old role until they expire.
func (s *userService) UpdateRole(ctx context.Context, c auth.Capability, uid string, update *model.RoleUpdate) (*model.User, error) {
	if err := requireAdmin(c); err != nil {
		return nil, err
	}
	update.ProviderID = strings.TrimSpace(update.ProviderID)
	if err := s.validator.ValidateRoleUpdate(update); err != nil {
		return nil, validationError("Role update validation failed", err)
	}
	if update.Role != model.RoleProvider {
		update.ProviderID = ""
	}

	if err := s.repo.UpdateRole(ctx, uid, update); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", uid)
		}
		return nil, apperrors.Internal("Failed to update role", err)
	}

	s.cfg.Log.Info("User role updated", "uid", uid, "role", update.Role, "by", c.UserID)
	return s.find(ctx, uid)
}

func (s *userService) find(ctx context.Context, uid string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", uid)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func requireAdmin(c auth.Capability) error {
	if !c.IsAuthenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !c.IsAdmin() {
		return apperrors.Forbidden("Administrator role required")
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
