package middleware

import (
	"context"
	"net/http"

	"adops/internal/models"

	"github.com/labstack/echo/v4"
)

// ActionAuthorizer answers whether a member may act at a given level.
type ActionAuthorizer interface {
	AuthorizeAction(ctx context.Context, userID, accountID string, pt models.PermissionType, required models.AccessLevel) (bool, error)
}

// RequirePermission lets the request through when the caller holds at least level on pt in their account.
// It must run after the auth middleware.
func RequirePermission(authz ActionAuthorizer, pt models.PermissionType, level models.AccessLevel) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, accountID := GetUserID(c), GetAccountID(c)
			if userID == "" || accountID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			ok, err := authz.AuthorizeAction(c.Request().Context(), userID, accountID, pt, level)
			if err != nil {
				return log.Error("Permission lookup failed", err)
			}
			if !ok {
				log.Debug("Denied %s %s for user %s: needs %s on %s", c.Request().Method, c.Path(), userID, level, pt)
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}

			return next(c)
		}
	}
}

// RequireRead gates on VIEW_ACCESS, RequireWrite on FULL_ACCESS.
func RequireRead(authz ActionAuthorizer, pt models.PermissionType) echo.MiddlewareFunc {
	return RequirePermission(authz, pt, models.AccessView)
}

func RequireWrite(authz ActionAuthorizer, pt models.PermissionType) echo.MiddlewareFunc {
	return RequirePermission(authz, pt, models.AccessFull)
}
