package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndVerifyToken(t *testing.T) {
	token, err := SignToken("secret", "user-1", "pro", time.Hour)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	claims, err := VerifyToken("secret", token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Plan != "pro" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, _ := SignToken("secret", "user-1", "free", time.Hour)
	if _, err := VerifyToken("other-secret", token); err == nil {
		t.Fatal("VerifyToken() accepted a token signed with another secret")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	token, _ := SignToken("secret", "user-1", "free", -time.Minute)
	if _, err := VerifyToken("secret", token); err == nil {
		t.Fatal("VerifyToken() accepted an expired token")
	}
}

func TestAuthMiddleware(t *testing.T) {
	var seenUserID string
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}

	token, _ := SignToken("secret", "user-9", "free", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seenUserID != "user-9" {
		t.Fatalf("user id in context = %q", seenUserID)
	}
}

func TestAuthOptionalLetsAnonymousThrough(t *testing.T) {
	var seenUserID string
	handler := AuthOptional("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
	if seenUserID != "" {
		t.Fatalf("anonymous user id = %q", seenUserID)
	}

	token, _ := SignToken("secret", "user-3", "free", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seenUserID != "user-3" {
		t.Fatalf("authenticated user id = %q", seenUserID)
	}
}
