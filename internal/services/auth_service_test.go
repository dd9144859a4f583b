package services

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func seedOperator(t *testing.T, repo *fakeOperatorRepo, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := repo.Create(context.Background(), &models.Operator{
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
	}); err != nil {
		t.Fatalf("failed to seed operator: %v", err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := newFakeOperatorRepo()
	seedOperator(t, repo, "ops@example.com", "hunter2")
	cfg := testConfig()

	svc := NewAuthService(cfg, repo)
	resp, err := svc.Login(context.Background(), "ops@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["email"] != "ops@example.com" {
		t.Errorf("expected email claim, got %v", claims["email"])
	}
	if claims["role"] != "admin" {
		t.Errorf("expected role claim, got %v", claims["role"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeOperatorRepo()
	seedOperator(t, repo, "ops@example.com", "hunter2")
	svc := NewAuthService(testConfig(), repo)

	if _, err := svc.Login(context.Background(), "ops@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}
