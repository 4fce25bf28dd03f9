package auth

import (
	"errors"
	"testing"
	"time"

	"iris/internal/config"
)

func newTestService(expiration time.Duration) *Service {
	return NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Expiration: expiration,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("unexpected hash %q", hash)
	}

	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(time.Hour)

	userID := "9b2f7c1e-4b7a-4c55-8f0e-0d1e2f3a4b5c"
	email := "ideator@example.com"

	token, jti, err := svc.GenerateToken(userID, email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("token and jti should not be empty")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, claims.UserID)
	}
	if claims.Email != email {
		t.Errorf("Expected email %s, got %s", email, claims.Email)
	}
	if claims.ID != jti {
		t.Errorf("Expected JTI %s, got %s", jti, claims.ID)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(-1 * time.Hour)

	token, jti, err := svc.GenerateToken("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken error = %v, want ErrExpiredToken", err)
	}

	// logout must still be able to read the JTI
	got, err := svc.ExtractJTI(token)
	if err != nil {
		t.Fatalf("ExtractJTI failed: %v", err)
	}
	if got != jti {
		t.Errorf("ExtractJTI = %s, want %s", got, jti)
	}
}

func TestValidateTokenFromOtherKey(t *testing.T) {
	issuer := newTestService(time.Hour)
	verifier := newTestService(time.Hour)

	token, _, err := issuer.GenerateToken("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed by another key should be rejected")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate random token: %v", err)
	}
	token2, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate second random token: %v", err)
	}
	if token1 == "" || token1 == token2 {
		t.Error("Random tokens should be non-empty and different")
	}
}

func TestPEMSecretIsSharedAcrossInstances(t *testing.T) {
	key, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("Failed to generate signing key: %v", err)
	}

	cfg := &config.JWTConfig{Secret: string(key), Expiration: time.Hour}
	issuer, verifier := NewService(cfg), NewService(cfg)

	token, _, err := issuer.GenerateToken("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	claims, err := verifier.ValidateToken(token)
	if err != nil {
		t.Fatalf("token from the same PEM key should validate: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q", claims.UserID)
	}
}
