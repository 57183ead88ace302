package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accountKey struct{}

// AccountFinder loads the account named by a session token.
type AccountFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

// Authenticator resolves "Authorization: Bearer <token>" to an account.
type Authenticator struct {
	tokens   *services.TokenManager
	accounts AccountFinder
}

func NewAuthenticator(tokens *services.TokenManager, accounts AccountFinder) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// 401 messages, in the order they are checked.
const (
	msgNoToken      = "Authentication required. Please login."
	msgInvalidToken = "Invalid or expired token. Please login again."
	msgNoAccount    = "User not found. Please login again."
)

// resolve returns the account, or a 401 message, or a store error.
func (a *Authenticator) resolve(r *http.Request) (*models.Account, string, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, msgNoToken, nil
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, msgInvalidToken, nil
	}
	id, err := claims.AccountID()
	if err != nil {
		return nil, msgInvalidToken, nil
	}
	acc, err := a.accounts.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return nil, msgNoAccount, nil
		}
		return nil, "", err
	}
	return acc, "", nil
}

// OptionalAuth attaches the account when the token checks out and otherwise
// lets the request through unauthenticated.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, msg, err := a.resolve(r)
		if acc == nil {
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Optional auth lookup failed")
			} else if msg != msgNoToken {
				logging.Ctx(r.Context()).Debug().Str("reason", msg).Msg("Optional auth ignored credential")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
	})
}

// RequireAuth rejects the request with 401 unless it carries a valid token
// for an existing account.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, msg, err := a.resolve(r)
		switch {
		case acc != nil:
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		case err != nil:
			logging.Ctx(r.Context()).Error().Err(err).Msg("Auth middleware error")
			writeError(w, http.StatusInternalServerError, "Authentication error")
		default:
			writeError(w, http.StatusUnauthorized, msg)
		}
	})
}

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acc)
}

// AccountFromContext returns the authenticated account, or nil.
func AccountFromContext(ctx context.Context) *models.Account {
	acc, _ := ctx.Value(accountKey{}).(*models.Account)
	return acc
}
