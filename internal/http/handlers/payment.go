package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"adwork/internal/domain"
)

const maxWebhookBody = 64 << 10

type upgradeRequest struct {
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// PaymentUpgrade creates a Stripe Checkout session for the pro plan. The
// user id rides along as the client reference so the webhook can apply the
// upgrade.
func (a *App) PaymentUpgrade(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if a.Cfg.StripeAPIKey == "" || a.Cfg.StripePriceID == "" {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "payments are not configured")
		return
	}
	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "successUrl and cancelUrl required")
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(a.Cfg.StripePriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(userID),
	}
	s, err := session.New(params)
	if err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("stripe checkout session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create checkout session")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"sessionId": s.ID, "url": s.URL})
}

// PaymentWebhook consumes Stripe events. Only checkout.session.completed is
// acted on: the referenced user moves to the pro plan with a fresh credit
// allowance. Re-delivered events for an already-processed session are
// acknowledged without reapplying the upgrade.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), a.Cfg.StripeWebhookSecret)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid signature")
		return
	}

	if event.Type != "checkout.session.completed" {
		a.json(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "malformed session payload")
		return
	}
	if sess.ClientReferenceID == "" {
		a.Log.Warn().Str("session_id", sess.ID).Msg("checkout session without client reference")
		a.json(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	if _, already := a.stripeSessions.LoadOrStore(sess.ID, struct{}{}); already {
		a.json(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if err := a.Users.SetPlan(r.Context(), sess.ClientReferenceID, domain.PlanPro, domain.ProPlanCredits); err != nil {
		// Let Stripe redeliver; forget the session so the retry is processed.
		a.stripeSessions.Delete(sess.ID)
		a.Log.Error().Err(err).Str("user_id", sess.ClientReferenceID).Msg("plan upgrade failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to apply upgrade")
		return
	}
	a.Log.Info().Str("user_id", sess.ClientReferenceID).Str("session_id", sess.ID).Msg("upgrade succeeded")

	a.json(w, http.StatusOK, map[string]any{"received": true})
}
