package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"adwork/internal/config"
	"adwork/internal/domain"
	"adwork/internal/entitlement"
	"adwork/internal/generation"
	"adwork/internal/infra"
	"adwork/internal/mediasink"
	"adwork/internal/middleware"
)

// App holds the handler dependencies. Fields are plain so main and tests can
// assemble it directly.
type App struct {
	Cfg         *config.Config
	Log         *infra.Logger
	Pipeline    *generation.Pipeline
	Generations domain.GenerationRepository
	Users       domain.UserRepository
	Posts       domain.PostRepository
	Gate        *entitlement.Gate
	Sink        mediasink.Sink

	// Stripe checkout sessions already applied, so webhook redeliveries
	// cannot upgrade twice.
	stripeSessions sync.Map
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{"success": false, "error": message, "code": slug})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps the shared error taxonomy to an HTTP response. Unknown
// errors become an opaque 500 so provider internals never leak to clients.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrPayloadTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "uploaded file exceeds the plan limit")
	case errors.Is(err, domain.ErrInsufficientCred):
		a.error(w, http.StatusForbidden, "insufficient_credits", "not enough credits, upgrade your plan")
	case errors.Is(err, domain.ErrDuplicateEmail):
		a.error(w, http.StatusConflict, "duplicate_email", "email already registered")
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		a.error(w, http.StatusTooManyRequests, "rate_limited", "AI models are overloaded, please wait and try again")
	case errors.Is(err, domain.ErrUpstreamTimeout):
		a.error(w, http.StatusInternalServerError, "timeout", "generation timed out, please try again")
	case errors.Is(err, domain.ErrUpstreamConfig):
		a.error(w, http.StatusInternalServerError, "internal", "generation service is misconfigured")
	case errors.Is(err, domain.ErrGenerationRejected):
		a.error(w, http.StatusInternalServerError, "generation_failed", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
