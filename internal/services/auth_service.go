package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour

// AuthService handles registration, login, API tokens and the two guards.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg config.AuthConfig, m *metrics.Metrics, log zerolog.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		metrics:   m,
		log:       log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a regular account. The password is stored as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, false)
}

// CreateAdmin creates an administrator account.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, true)
}

func (s *AuthService) createUser(ctx context.Context, username, password string, admin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty: %w", models.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("password must not be empty: %w", models.ErrInvalidInput)
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s': %w", username, models.ErrUsernameTaken)
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsAdmin:      admin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Bool("admin", admin).Msg("user registered")
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield models.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		s.loginFailed(username)
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(username)
		return nil, models.ErrInvalidCredentials
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *AuthService) loginFailed(username string) {
	s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	s.log.Warn().Str("username", username).Msg("login failed")
}

// IssueToken returns a signed JWT for API clients that do not keep cookies.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// UserIDFromToken validates a token and extracts the user ID claim.
func (s *AuthService) UserIDFromToken(tokenString string) (uint, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return 0, err
	}
	// JSON numbers decode as float64.
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("invalid token: missing user_id")
	}
	return uint(id), nil
}

// GetUser returns the user with the given ID.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// RequireLogin is the must-be-logged-in guard.
func (s *AuthService) RequireLogin(_ context.Context, userID uint, ok bool) error {
	if !ok || userID == 0 {
		return models.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin is the must-be-admin guard. A missing identity, a user that no
// longer exists and a non-admin user are all forbidden.
func (s *AuthService) RequireAdmin(ctx context.Context, userID uint, ok bool) (*models.User, error) {
	if !ok || userID == 0 {
		return nil, models.ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrForbidden
		}
		return nil, err
	}
	if !user.IsAdmin {
		return nil, models.ErrForbidden
	}
	return user, nil
}

// EnsureAdmin creates the first administrator when none exists. An empty
// password is replaced by a random one, which is returned so the caller can
// show it once. created is false when an admin already existed.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (created bool, usedPassword string, err error) {
	exists, err := s.userRepo.AdminExists(ctx)
	if err != nil {
		return false, "", err
	}
	if exists {
		return false, "", nil
	}

	if password == "" {
		password = uuid.New().String()
	}
	if _, err := s.CreateAdmin(ctx, username, password); err != nil {
		return false, "", fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	return true, password, nil
}
