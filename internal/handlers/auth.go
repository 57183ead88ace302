package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
)

// StateStore issues and redeems single-use OAuth state tokens.
type StateStore interface {
	Create(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) error
}

type AuthHandler struct {
	cfg      services.AuthConfig
	provider services.IdentityProvider
	states   StateStore
	accounts *services.AccountService
	tokens   *services.TokenManager
	charts   *services.ChartService
}

type AuthHandlerConfig struct {
	Auth services.AuthConfig
	// Provider and States are nil when Google sign-in is not configured.
	Provider services.IdentityProvider
	States   StateStore
	Accounts *services.AccountService
	Tokens   *services.TokenManager
	Charts   *services.ChartService
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg.Auth,
		provider: cfg.Provider,
		states:   cfg.States,
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		charts:   cfg.Charts,
	}
}

type MeResponse struct {
	Success bool                 `json:"success"`
	User    models.PublicProfile `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LinkChartsRequest struct {
	AnonymousUserID string `json:"anonymousUserId" validate:"required,max=200"`
}

type LinkChartsResponse struct {
	Success     bool   `json:"success"`
	LinkedCount int    `json:"linkedCount"`
	Message     string `json:"message"`
}

func (h *AuthHandler) googleEnabled() bool {
	return h.provider != nil && h.states != nil
}

// GoogleLogin redirects to Google's consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.googleEnabled() {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured", "")
		return
	}
	state, err := h.states.Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// GoogleCallback finishes the OAuth handshake and hands the session token
// to the front-end through a redirect.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.googleEnabled() {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured", "")
		return
	}
	ctx := r.Context()
	log := logging.Ctx(ctx)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		log.Warn().Str("error", e).Msg("Google sign-in cancelled")
		h.redirectError(w, r, "access_denied")
		return
	}
	if err := h.states.Consume(ctx, q.Get("state")); err != nil {
		log.Warn().Err(err).Msg("OAuth state rejected")
		h.redirectError(w, r, "invalid_state")
		return
	}
	profile, err := h.provider.Exchange(ctx, q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("Google OAuth error")
		h.redirectError(w, r, "oauth_failed")
		return
	}
	acc, err := h.accounts.SignInWithGoogle(ctx, *profile)
	if err != nil {
		log.Error().Err(err).Msg("Google sign-in failed")
		h.redirectError(w, r, "signin_failed")
		return
	}
	token, err := h.tokens.Issue(acc.ID)
	if err != nil {
		log.Error().Err(err).Msg("Token issue failed")
		h.redirectError(w, r, "signin_failed")
		return
	}

	v := url.Values{}
	v.Set("token", token)
	v.Set("userId", acc.ID.Hex())
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?"+v.Encode(), http.StatusFound)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	v := url.Values{}
	v.Set("error", reason)
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?"+v.Encode(), http.StatusFound)
}

// Me returns the caller's public profile. Requires auth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromContext(r.Context())
	if acc == nil {
		writeServiceError(w, r, services.ErrAuthorizationRequired)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Success: true, User: acc.PublicProfile()})
}

// Logout is a no-op on the server; tokens are dropped by the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

// LinkCharts claims the caller's anonymous charts. Requires auth.
func (h *AuthHandler) LinkCharts(w http.ResponseWriter, r *http.Request) {
	var req LinkChartsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.charts.LinkAnonymous(r.Context(), middleware.AccountFromContext(r.Context()), req.AnonymousUserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkChartsResponse{
		Success:     true,
		LinkedCount: n,
		Message:     fmt.Sprintf("Linked %d chart(s) to your account", n),
	})
}
