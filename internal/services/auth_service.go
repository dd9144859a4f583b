package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// ErrInvalidCredentials is returned on any login failure. Unknown email and
// wrong password are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthServiceImpl authenticates back-office operators and issues JWTs
type AuthServiceImpl struct {
	cfg          *config.Config
	operatorRepo repositories.OperatorRepository
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(cfg *config.Config, operatorRepo repositories.OperatorRepository) *AuthServiceImpl {
	return &AuthServiceImpl{
		cfg:          cfg,
		operatorRepo: operatorRepo,
	}
}

// Login verifies operator credentials and returns a signed session token
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	operator, err := s.operatorRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpiresIn) * time.Second)
	claims := jwt.MapClaims{
		"sub":   operator.ID.Hex(),
		"email": operator.Email,
		"role":  operator.Role,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	slog.Info("Operator logged in", "email", operator.Email, "role", operator.Role)
	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}
