package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"adwork/internal/domain"
	"adwork/internal/middleware"
)

const tokenTTL = 7 * 24 * time.Hour

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers an email/password account on the free plan.
func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Plan:         domain.PlanFree,
		Credits:      domain.FreePlanCredits,
		Country:      middleware.CountryFromContext(r.Context()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		a.domainError(w, err)
		return
	}

	a.issueSession(w, user, http.StatusCreated)
}

// Signin exchanges email/password for a bearer token.
func (a *App) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	user, err := a.Users.GetByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
			return
		}
		a.domainError(w, err)
		return
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	a.issueSession(w, user, http.StatusOK)
}

func (a *App) issueSession(w http.ResponseWriter, user *domain.User, code int) {
	token, err := middleware.SignToken(a.Cfg.JWTSecret, user.ID, string(user.Plan), tokenTTL)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, code, map[string]any{
		"token": token,
		"user":  userPayload(user),
	})
}

func userPayload(user *domain.User) map[string]any {
	return map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"avatarUrl": user.AvatarURL,
		"plan":      user.Plan,
		"credits":   user.Credits,
		"country":   user.Country,
		"createdAt": user.CreatedAt,
	}
}
