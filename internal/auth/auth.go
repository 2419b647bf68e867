package auth

import (
	"context"
	"net/http"

	"carshop/internal/models"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the fronting gateway after it verifies the
// caller's credentials with the identity provider. The gateway strips any
// client-supplied values for these headers, so the subject is an opaque
// identity the end user cannot forge.
const (
	HeaderSubject = "X-Identity-Subject"
	HeaderName    = "X-Identity-Name"
)

const callerKey = "carshop.caller"

// Caller is the resolved identity of the current request. IsAdmin comes
// from the server-held account row, never from client input.
type Caller struct {
	AccountID string
	IsAdmin   bool
}

// AccountResolver loads (or provisions) the account for a subject.
type AccountResolver interface {
	EnsureAccount(ctx context.Context, id, name string) (*models.Account, error)
}

// Middleware resolves the caller from the identity headers and loads the
// account record. Requests without a resolvable identity get 401. The
// account is created with a zero balance on first authenticated sighting.
func Middleware(accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(HeaderSubject)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": models.ErrUnauthenticated.Error(),
				"code":  "UNAUTHENTICATED",
			})
			return
		}

		account, err := accounts.EnsureAccount(c.Request.Context(), subject, c.GetHeader(HeaderName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "identity lookup failed",
				"code":  "STORE_UNAVAILABLE",
			})
			return
		}

		c.Set(callerKey, Caller{AccountID: account.ID, IsAdmin: account.IsAdmin})
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin privilege. It must run
// after Middleware; the flag was read from the account row on this very
// request, so a stale or client-side admin claim has no effect.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": models.ErrUnauthenticated.Error(),
				"code":  "UNAUTHENTICATED",
			})
			return
		}
		if !caller.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": models.ErrPermissionDenied.Error(),
				"code":  "PERMISSION_DENIED",
			})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller resolved by Middleware.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}
