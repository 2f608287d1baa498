package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/val/markdown-notes/internal/config"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/email"
	"github.com/val/markdown-notes/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenLifetime is fixed at seven days with no sliding renewal.
const TokenLifetime = 7 * 24 * time.Hour

const PasswordPolicyMessage = "The password must have 8+ chars, uppercase letters (A-Z), lowercase letters (a-z), digits (0-9)"

// Claims is the user snapshot embedded in every session token. TokenVersion
// is the revocation counter at issuance time; the middleware compares it with
// the stored counter on every request. The verification fields are carried
// for display only and are never trusted for access decisions.
type Claims struct {
	Email            string     `json:"email"`
	IsAdmin          bool       `json:"isAdmin"`
	TokenVersion     int        `json:"tokenVersion"`
	IsVerified       bool       `json:"isVerified"`
	VerificationCode *string    `json:"verificationCode,omitempty"`
	CodeExpires      *time.Time `json:"codeExpires,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the numeric user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

type AuthService struct {
	userRepo repository.UserRepository
	notifier email.Notifier
	cfg      *config.Config
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, notifier email.Notifier, cfg *config.Config, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an unverified account and emails its verification code.
// The duplicate check here is a separate read before the insert; the unique
// index on users.email independently catches the race between them.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if !domain.ValidEmailFormat(input.Email) {
		return domain.Validation("Invalid email format")
	}

	if !domain.ValidPassword(input.Password) {
		return domain.Validation(PasswordPolicyMessage)
	}

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return domain.Conflict("Account already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	code, expires := domain.NewVerificationCode()
	user := &domain.User{
		Username:         input.Username,
		Email:            input.Email,
		PasswordHash:     string(hashedPassword),
		IsVerified:       false,
		VerificationCode: &code,
		CodeExpires:      &expires,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("Account already registered")
		}
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		s.logger.ErrorContext(ctx, "verification email failed", "email", user.Email, "error", err)
		return domain.Internal("Could not send verification email")
	}

	return nil
}

// Login checks the credentials and returns a fresh session token. It does not
// require a verified email; only verified-gated routes check that flag.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.NotFound(fmt.Sprintf("User with email %s not found", emailAddr))
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.Auth("Invalid credentials")
	}

	return s.IssueToken(user)
}

// IssueToken signs a seven-day session token for the user.
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", domain.Internal("JWT secret key is missing. Please check your .env file.")
	}

	now := time.Now()
	claims := Claims{
		Email:            user.Email,
		IsAdmin:          user.IsAdmin,
		TokenVersion:     user.TokenVersion,
		IsVerified:       user.IsVerified,
		VerificationCode: user.VerificationCode,
		CodeExpires:      user.CodeExpires,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks the signature and expiry claims only. Callers that
// need revocation freshness must use Authenticate; a signature check is cheap
// and local while a revocation check costs a store lookup.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, domain.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.Unauthorized("Invalid token")
	}
	return claims, nil
}

// Authenticate runs the full per-request machine: signature and expiry, then
// the revocation cross-check against the store. A deleted user counts as
// revoked.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, domain.Unauthorized("Invalid token")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Unauthorized("Token revoked. Please log in again")
		}
		return nil, err
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, domain.Unauthorized("Token revoked. Please log in again")
	}

	return claims, nil
}

// VerifyCode consumes a verification code. A matching, unexpired code flips
// the account to verified and clears the code in one store operation, so a
// second submission of the same code always fails.
func (s *AuthService) VerifyCode(ctx context.Context, emailAddr, code string) error {
	ok, err := s.userRepo.ConsumeVerificationCode(ctx, emailAddr, code)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Validation("Invalid or expired verification code")
	}
	return nil
}

// ErrAlreadyVerified signals the resend no-op; the handler turns it into a
// success response rather than a failure.
var ErrAlreadyVerified = errors.New("user already verified")

// ResendVerification replaces the outstanding code unconditionally and emails
// the new one. Any previously issued code becomes unusable.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	if !domain.ValidEmailFormat(emailAddr) {
		return domain.Validation("Invalid email format")
	}

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("User not found")
		}
		return err
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, expires := domain.NewVerificationCode()
	if _, err := s.userRepo.UpdateVerificationCode(ctx, user.ID, code, expires); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		s.logger.ErrorContext(ctx, "verification email failed", "email", user.Email, "error", err)
		return domain.Internal("Could not send verification email")
	}

	return nil
}

// GetUserByEmail backs the admin lookup endpoint.
func (s *AuthService) GetUserByEmail(ctx context.Context, emailAddr string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}
