package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/finledger/internal/actorctx"
	"github.com/geocoder89/finledger/internal/auth"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// AuthEvents records token check outcomes; *observability.Prom satisfies it.
type AuthEvents interface {
	AuthEvent(event, result string)
}

type AuthMiddleware struct {
	jwt    TokenVerifier
	events AuthEvents
}

func NewAuthMiddleware(jwt TokenVerifier, events AuthEvents) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, events: events}
}

// RequireAuth accepts only a valid access token in "Authorization: Bearer".
// The user id it carries is the only identity handlers trust.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.record("rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			m.record("rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			m.record("rejected")
			abortJSON(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired access token")
			return
		}

		m.record("ok")

		c.Set(CtxUserID, claims.UserID)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID))
		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("user.id", claims.UserID))

		c.Next()
	}
}

func (m *AuthMiddleware) record(result string) {
	if m.events != nil {
		m.events.AuthEvent("token", result)
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}
