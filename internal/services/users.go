package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"linkvault/internal/apperr"
	"linkvault/internal/auth"
	"linkvault/internal/models"
	"linkvault/internal/repository"
	"linkvault/pkg/utils"
)

const (
	resetTokenBytes    = 32
	errUserNotFound    = "User not found"
	errInvalidCreds    = "Invalid credentials"
	errEmailTaken      = "Email must be unique"
	errInvalidResetTok = "Invalid or expired token"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput holds the fields to change. Nil fields are left as is;
// an empty password keeps the current one.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *string
	Password string
}

type ResetTicket struct {
	Token     string    `json:"resetToken"`
	ExpiresAt time.Time `json:"expires"`
}

type UserService struct {
	users        repository.UserRepository
	cache        *repository.URLCache
	tokens       *auth.Manager
	auditService *AuditService
	logger       *slog.Logger
	resetTTL     time.Duration
	now          func() time.Time
	hashPassword func(string) (string, error)
}

func NewUserService(users repository.UserRepository, cache *repository.URLCache, tokens *auth.Manager, auditService *AuditService, logger *slog.Logger, resetTTL time.Duration) *UserService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &UserService{
		users:        users,
		cache:        cache,
		tokens:       tokens,
		auditService: auditService,
		logger:       logger,
		resetTTL:     resetTTL,
		now:          time.Now,
		hashPassword: utils.HashPassword,
	}
}

// Login verifies the credentials and issues an access token. Unknown email
// and wrong password yield the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperr.Validation("Email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apperr.New(apperr.KindInvalidCredentials, errInvalidCreds)
		}
		return "", mapRepoError(err, "")
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", apperr.New(apperr.KindInvalidCredentials, errInvalidCreds)
	}

	token, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "Could not issue token", err)
	}
	return token, nil
}

func (s *UserService) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*models.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, apperr.Validation("Name, email, password and role required")
	}
	if !models.IsValidRole(in.Role) {
		return nil, apperr.Validation("Role must be user or admin")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Password could not be hashed", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Wrap(apperr.KindConflict, errEmailTaken, err)
		}
		return nil, mapRepoError(err, "")
	}

	s.auditService.Record(ctx, actor, ActionCreateUser, map[string]interface{}{"user": user})
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	users, err := s.users.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, errUserNotFound)
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, actor Actor, id uint, in UpdateUserInput) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, errUserNotFound)
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validation("Name must not be empty")
		}
		user.Name = *in.Name
	}
	if in.Email != nil {
		if *in.Email == "" {
			return nil, apperr.Validation("Email must not be empty")
		}
		user.Email = *in.Email
	}
	if in.Role != nil {
		if !models.IsValidRole(*in.Role) {
			return nil, apperr.Validation("Role must be user or admin")
		}
		user.Role = *in.Role
	}
	if in.Password != "" {
		hash, err := s.hashPassword(in.Password)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Password could not be hashed", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Wrap(apperr.KindConflict, errEmailTaken, err)
		}
		return nil, mapRepoError(err, errUserNotFound)
	}

	s.auditService.Record(ctx, actor, ActionEditUser, map[string]interface{}{"user": user})
	return user, nil
}

// DeleteUser removes the user together with the short URLs they own and
// evicts those codes from the redirect cache.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	codes, err := s.users.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, errUserNotFound)
	}
	if err := s.cache.Delete(ctx, codes...); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate cached urls", "user_id", id, "count", len(codes), "error", err)
	}
	s.auditService.Record(ctx, actor, ActionDeleteUser, map[string]interface{}{"userId": id})
	return nil
}

// ForgotPassword issues a single-use reset token for the account, replacing
// any earlier one. Only a keyed hash of the token is stored.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (*ResetTicket, error) {
	if email == "" {
		return nil, apperr.Validation("Email required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, errUserNotFound)
	}

	raw, err := utils.GenerateToken(resetTokenBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Could not generate reset token", err)
	}
	expiresAt := s.now().UTC().Add(s.resetTTL)

	if err := s.users.SetResetToken(ctx, user.ID, s.tokens.HashResetToken(raw), expiresAt); err != nil {
		return nil, mapRepoError(err, errUserNotFound)
	}

	s.logger.InfoContext(ctx, "Password reset token issued", "user_id", user.ID)
	return &ResetTicket{Token: raw, ExpiresAt: expiresAt}, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *UserService) ResetPassword(ctx context.Context, ip, token, password string) (uint, error) {
	if token == "" || password == "" {
		return 0, apperr.Validation("Token and new password required")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindValidation, "Password could not be hashed", err)
	}

	userID, err := s.users.ConsumeResetToken(ctx, s.tokens.HashResetToken(token), hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return 0, apperr.Wrap(apperr.KindValidation, errInvalidResetTok, err)
		}
		return 0, mapRepoError(err, "")
	}

	actor := Actor{IP: ip}
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		actor = Actor{UserID: user.ID, Email: user.Email, Role: user.Role, IP: ip}
	}
	s.auditService.Record(ctx, actor, ActionResetPassword, map[string]interface{}{"userId": userID})
	return userID, nil
}

// EnsureAdmin creates an admin account with the given credentials unless a
// user with that email already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !repository.IsNotFound(err) {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.users.Create(ctx, &admin); err != nil {
		if repository.IsDuplicate(err) {
			return nil
		}
		return err
	}

	s.logger.InfoContext(ctx, "Seeded admin user", "email", email, "user_id", admin.ID)
	return nil
}
