package authn

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/launchkit/saas-starter/email"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/launchkit/saas-starter/services"
	"github.com/launchkit/saas-starter/utils"
)

const minPasswordLength = 8

// Session is the result of a successful signup or login.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Service implements signup, login, and the credential token flows.
type Service struct {
	users  repositories.UserRepository
	tokens repositories.TokenRepository
	hasher *Hasher
	issuer *TokenProvider
	mailer email.Sender
	appURL string
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new authentication service
func NewService(
	users repositories.UserRepository,
	tokens repositories.TokenRepository,
	hasher *Hasher,
	issuer *TokenProvider,
	mailer email.Sender,
	appURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		issuer: issuer,
		mailer: mailer,
		appURL: appURL,
		logger: logger,
		now:    time.Now,
	}
}

// Signup registers a new user and starts a session. A verification email is
// sent best-effort; a delivery failure does not block the signup.
func (s *Service) Signup(ctx context.Context, emailAddr, name, password string) (*Session, error) {
	emailAddr = utils.NormalizeEmail(emailAddr)
	if err := utils.ValidateEmail(emailAddr); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid email address", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "name is required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, services.WrapInternal("hash password", err)
	}

	user := models.NewUser(emailAddr, name, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateEmail
		}
		return nil, services.WrapInternal("create user", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("verification email not sent",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	session, err := s.startSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return session, nil
}

// Login authenticates a user by email and password.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	emailAddr = utils.NormalizeEmail(emailAddr)

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Burn a comparison so missing users cost the same as bad
			// passwords.
			_ = s.hasher.Compare("$2a$12$XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX", password)
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("get user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("compare password", err)
	}

	session, err := s.startSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return session, nil
}

// Me returns the user for an authenticated session.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("get user", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token and emails the reset link. Unknown
// addresses are dropped silently so the endpoint does not leak which emails
// have accounts.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return services.WrapInternal("get user", err)
	}

	raw, record, err := s.newCredentialToken(user.ID, models.TokenPasswordReset, models.PasswordResetTTL)
	if err != nil {
		return err
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return services.WrapInternal("store reset token", err)
	}

	msg := email.PasswordReset(user.Name, fmt.Sprintf("%s/reset-password?token=%s", s.appURL, raw))
	msg.To = user.Email
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		return services.WrapDependency("send password reset email", err)
	}

	s.logger.Info("password reset requested", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes a reset token and replaces the user's password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}

	record, err := s.consumeToken(ctx, rawToken, models.TokenPasswordReset)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return services.WrapInternal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, record.UserID, hash); err != nil {
		return services.WrapInternal("update password", err)
	}

	s.logger.Info("password reset", zap.String("user_id", record.UserID.String()))
	return nil
}

// VerifyEmail consumes a verification token and marks the address verified.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	record, err := s.consumeToken(ctx, rawToken, models.TokenEmailVerification)
	if err != nil {
		return err
	}

	if err := s.users.MarkEmailVerified(ctx, record.UserID); err != nil {
		return services.WrapInternal("mark email verified", err)
	}

	s.logger.Info("email verified", zap.String("user_id", record.UserID.String()))
	return nil
}

// ResendVerification sends a fresh verification email to the user.
func (s *Service) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrUserNotFound
		}
		return services.WrapInternal("get user", err)
	}
	if user.EmailVerified {
		return services.NewDomainError(services.ErrorTypeInvalidState, "email is already verified", nil)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return services.WrapDependency("send verification email", err)
	}
	return nil
}

func (s *Service) startSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.issuer.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, services.WrapInternal("issue session token", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) sendVerification(ctx context.Context, user *models.User) error {
	raw, record, err := s.newCredentialToken(user.ID, models.TokenEmailVerification, models.EmailVerificationTTL)
	if err != nil {
		return err
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return services.WrapInternal("store verification token", err)
	}

	msg := email.Verification(user.Name, fmt.Sprintf("%s/verify-email?token=%s", s.appURL, raw))
	msg.To = user.Email
	_, err = s.mailer.Send(ctx, msg)
	return err
}

// newCredentialToken mints a random token. The raw value goes into the
// emailed link; only its hash is stored.
func (s *Service) newCredentialToken(userID uuid.UUID, purpose models.TokenPurpose, ttl time.Duration) (string, *models.CredentialToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, services.WrapInternal("generate token", err)
	}
	raw := hex.EncodeToString(buf)
	record := models.NewCredentialToken(userID, purpose, HashToken(raw), ttl)
	return raw, record, nil
}

// consumeToken looks up, validates, and burns a credential token.
func (s *Service) consumeToken(ctx context.Context, rawToken string, purpose models.TokenPurpose) (*models.CredentialToken, error) {
	if rawToken == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "token is required", nil)
	}

	record, err := s.tokens.GetByHash(ctx, HashToken(rawToken), purpose)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTokenNotFound
		}
		return nil, services.WrapInternal("get token", err)
	}

	now := s.now()
	if record.UsedAt != nil {
		return nil, services.NewDomainError(services.ErrorTypeInvalidState, "this link has already been used", nil)
	}
	if !record.Usable(now) {
		return nil, services.NewDomainError(services.ErrorTypeExpired, "this link has expired", nil)
	}

	if err := s.tokens.Consume(ctx, record.ID, now); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, services.NewDomainError(services.ErrorTypeInvalidState, "this link has already been used", nil)
		}
		return nil, services.WrapInternal("consume token", err)
	}
	return record, nil
}

// HashToken returns the hex SHA-256 digest stored in place of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
