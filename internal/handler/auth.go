package handler

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/KigaliAI/youtufy-app/internal/auth"
	"github.com/KigaliAI/youtufy-app/internal/middleware"
	"github.com/KigaliAI/youtufy-app/internal/service"
	"github.com/KigaliAI/youtufy-app/internal/store"
)

// stateTTL bounds how long a login attempt may sit between redirect and
// callback before the state nonce expires.
const stateTTL = 10 * time.Minute

type pendingState struct {
	userID    string
	expiresAt time.Time
}

// AuthHandler drives the authorization-code flow: it hands out consent URLs
// keyed by a one-time state nonce, exchanges the callback code for a
// credential and persists it.
type AuthHandler struct {
	flow  *auth.Flow
	creds store.CredentialStore
	subs  *service.SubscriptionService

	mu     sync.Mutex
	states map[string]pendingState
}

func NewAuthHandler(flow *auth.Flow, creds store.CredentialStore, subs *service.SubscriptionService) *AuthHandler {
	return &AuthHandler{
		flow:   flow,
		creds:  creds,
		subs:   subs,
		states: make(map[string]pendingState),
	}
}

// Login handles GET /api/auth/login — issues a state nonce bound to the
// calling user and redirects to the consent URL.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	state := uuid.NewString()
	h.mu.Lock()
	h.pruneLocked()
	h.states[state] = pendingState{userID: userID, expiresAt: time.Now().Add(stateTTL)}
	h.mu.Unlock()

	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(h.flow.AuthorizationURL(state))
}

// Callback handles GET /api/auth/callback?code=...&state=... — the
// authorization server redirect. The state nonce maps back to the user who
// started the flow; the code is exchanged for the initial credential.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "CONSENT_DENIED",
			"Authorization was denied: "+errParam)
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CALLBACK",
			"Missing code or state parameter")
	}

	h.mu.Lock()
	pending, ok := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()
	if !ok || time.Now().After(pending.expiresAt) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "STATE_EXPIRED",
			"Login attempt expired. Restart the sign-in flow.")
	}

	cred, err := h.flow.Exchange(c.Context(), pending.userID, code)
	if err != nil {
		return pipelineError(c, err)
	}

	if err := h.creds.Put(c.Context(), pending.userID, cred); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to store credential")
	}

	Metrics.AuthExchanges.Inc()
	return c.JSON(fiber.Map{"status": "connected"})
}

// Logout handles POST /api/auth/logout — destroys the stored credential and
// the cached aggregation result.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	if err := h.subs.Logout(c.Context(), userID); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to revoke credential")
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// pruneLocked drops expired state nonces. Caller holds the mutex.
func (h *AuthHandler) pruneLocked() {
	now := time.Now()
	for s, p := range h.states {
		if now.After(p.expiresAt) {
			delete(h.states, s)
		}
	}
}
