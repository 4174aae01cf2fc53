package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/internal/auth"
	"github.com/tarhal-app/backend/internal/visibility"
)

const userIDContextKey = "userID"

// RequireAuth rejects requests without a valid identity. The viewer is
// resolved bearer-first with a refresh-cookie fallback.
func RequireAuth(tm *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewerID := resolveViewer(c, tm)
			if viewerID == visibility.AnonymousViewer {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			c.Set(userIDContextKey, viewerID)
			return next(c)
		}
	}
}

// OptionalAuth resolves the viewer identity when present and treats its
// absence as an anonymous viewer. Read endpoints use this so public content
// stays reachable without a token.
func OptionalAuth(tm *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(userIDContextKey, resolveViewer(c, tm))
			return next(c)
		}
	}
}

// UserID returns the authenticated user id from the request context, or
// visibility.AnonymousViewer.
func UserID(c echo.Context) uint {
	if id, ok := c.Get(userIDContextKey).(uint); ok {
		return id
	}
	return visibility.AnonymousViewer
}

func resolveViewer(c echo.Context, tm *auth.TokenManager) uint {
	if bearer := auth.ParseBearer(c.Request().Header.Get("Authorization")); bearer != "" {
		if claims, err := tm.ParseAccessToken(bearer); err == nil {
			return claims.UserID
		}
	}
	if cookie, err := c.Cookie(tm.RefreshCookieName()); err == nil && cookie.Value != "" {
		if claims, err := tm.ParseRefreshToken(c.Request().Context(), cookie.Value); err == nil {
			return claims.UserID
		}
	}
	return visibility.AnonymousViewer
}
