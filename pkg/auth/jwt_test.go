package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestJWTService(t *testing.T, secret string, expiration time.Duration) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     secret,
		Issuer:     "appraisal-test",
		Expiration: expiration,
	})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t, "test-secret-key-for-unit-tests", 15*time.Minute)

	tokenString, err := svc.GenerateToken("user-7", "branch-ouaga", "A. Ouedraogo", []string{RoleCreditAgent})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if claims.UserID != "user-7" || claims.Subject != "user-7" {
		t.Errorf("UserID/Subject = %q/%q, want user-7", claims.UserID, claims.Subject)
	}
	if claims.TenantID != "branch-ouaga" {
		t.Errorf("TenantID = %q", claims.TenantID)
	}
	if claims.Name != "A. Ouedraogo" {
		t.Errorf("Name = %q", claims.Name)
	}
	if !claims.HasRole(RoleCreditAgent) {
		t.Errorf("Roles = %v, want credit_agent", claims.Roles)
	}
}

func TestValidateToken_RS256PublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey() error = %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "idp"})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}

	sign := func(method jwt.SigningMethod, signingKey any, issuer string) string {
		t.Helper()
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID:   "u1",
			TenantID: "t1",
			Roles:    []string{RoleRiskOfficer},
		}
		token, err := jwt.NewWithClaims(method, claims).SignedString(signingKey)
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return token
	}

	if _, err := validator.ValidateToken(sign(jwt.SigningMethodRS256, key, "idp")); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if _, err := validator.ValidateToken(sign(jwt.SigningMethodRS256, key, "someone-else")); err == nil {
		t.Error("ValidateToken() accepted a foreign issuer")
	}
	if _, err := validator.ValidateToken(sign(jwt.SigningMethodHS256, pubPEM, "idp")); err == nil {
		t.Error("ValidateToken() accepted an HS256 token signed with the public key")
	}
	if _, err := validator.GenerateToken("u1", "t1", "", nil); err == nil {
		t.Error("a public-key service must not sign tokens")
	}
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	if _, err := NewJWTService(JWTConfig{}); err == nil {
		t.Fatal("expected error when no key material is configured")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(t, "test-secret-key-for-unit-tests", -1*time.Hour)

	tokenString, err := svc.GenerateToken("u1", "t1", "", []string{RoleAuditor})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() expected error for expired token, got nil")
	}
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	svc1 := newTestJWTService(t, "secret-one", 15*time.Minute)
	svc2 := newTestJWTService(t, "secret-two", 15*time.Minute)

	tokenString, err := svc1.GenerateToken("u1", "t1", "", []string{RoleAuditor})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := svc2.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() expected error for invalid signature, got nil")
	}
}

func TestValidateToken_RequiresTenant(t *testing.T) {
	svc := newTestJWTService(t, "secret", 15*time.Minute)

	tokenString, err := svc.GenerateToken("u1", "", "", []string{RoleAuditor})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() expected error for token without tenant")
	}
}

func TestHasAnyRole(t *testing.T) {
	agent := Claims{Roles: []string{RoleCreditAgent}}
	admin := Claims{Roles: []string{RoleAdmin}}

	if !agent.HasAnyRole(RoleRiskOfficer, RoleCreditAgent) {
		t.Error("agent should satisfy a check that lists credit_agent")
	}
	if agent.HasAnyRole(RoleCommitteeMember) {
		t.Error("agent must not satisfy a committee check")
	}
	if !admin.HasAnyRole(RoleCommitteeMember) {
		t.Error("admin satisfies every role check")
	}
}

func TestClaimsFromContext(t *testing.T) {
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Error("ClaimsFromContext() ok = true for empty context, want false")
	}

	expected := &Claims{UserID: "u1", Roles: []string{RoleBranchManager}}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), expected))
	if !ok {
		t.Fatal("ClaimsFromContext() ok = false, want true")
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q", got.UserID)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t, "secret", 15*time.Minute)
	token, err := svc.GenerateToken("u1", "t1", "", []string{RoleCreditAgent})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var seen *Claims
	handler := HTTPMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("rejects a request without token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("attaches claims for a valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if seen == nil || seen.TenantID != "t1" {
			t.Errorf("claims = %+v", seen)
		}
	})
}
