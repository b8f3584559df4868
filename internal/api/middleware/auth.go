package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"adops/internal/models"
	"adops/internal/utils"
	"adops/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var log = logger.New("auth_middleware")

// MembershipLookup resolves the membership a token claims. It returns gorm.ErrRecordNotFound when there is none.
type MembershipLookup func(c echo.Context, userID, accountID string) (*models.UserAccount, error)

// GormMembershipLookup reads memberships with models.GetMembership.
func GormMembershipLookup(db *gorm.DB) MembershipLookup {
	return func(c echo.Context, userID, accountID string) (*models.UserAccount, error) {
		return models.GetMembership(userID, accountID, db.WithContext(c.Request().Context()))
	}
}

type AuthMiddleware struct {
	jwtSecret  string
	membership MembershipLookup
}

func NewAuthMiddleware(jwtSecret string, membership MembershipLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		membership: membership,
	}
}

func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			return m.validateJWT(c, tokenParts[1], next)
		}
	}
}

func (m *AuthMiddleware) validateJWT(c echo.Context, tokenString string, next echo.HandlerFunc) error {
	claims, err := utils.ParseJWT(tokenString, m.jwtSecret)
	if err != nil {
		log.Warn("Rejected token: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	// the account in the token must still be one the user belongs to
	membership, err := m.membership(c, claims.UserID, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Membership not found")
		}
		return log.Error("Membership lookup failed", err)
	}

	if err := injectAccountID(c, claims.AccountID); err != nil {
		return err
	}

	c.Set("userID", claims.UserID)
	c.Set("accountID", claims.AccountID)
	c.Set("email", claims.Email)
	c.Set("membership", membership)

	return next(c)
}

// injectAccountID overwrites accountId in JSON write bodies so clients cannot address another tenant.
func injectAccountID(c echo.Context, accountID string) error {
	req := c.Request()
	if req.Method != http.MethodPost && req.Method != http.MethodPut {
		return nil
	}
	if strings.Split(req.Header.Get(echo.HeaderContentType), ";")[0] != echo.MIMEApplicationJSON {
		return nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read body")
	}
	if err := req.Body.Close(); err != nil {
		log.Warn("Failed to close request body: %v", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		req.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	var bodyMap map[string]interface{}
	if err := json.Unmarshal(raw, &bodyMap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
	}

	bodyMap["accountId"] = accountID
	newBody, err := json.Marshal(bodyMap)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to encode body")
	}

	req.Body = io.NopCloser(bytes.NewBuffer(newBody))
	req.ContentLength = int64(len(newBody))
	return nil
}

// GetUserID Helper functions to get values from context
func GetUserID(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

func GetAccountID(c echo.Context) string {
	if id, ok := c.Get("accountID").(string); ok {
		return id
	}
	return ""
}

func GetEmail(c echo.Context) string {
	if email, ok := c.Get("email").(string); ok {
		return email
	}
	return ""
}

// GetMembership returns the membership loaded by the auth middleware, or nil.
func GetMembership(c echo.Context) *models.UserAccount {
	if m, ok := c.Get("membership").(*models.UserAccount); ok {
		return m
	}
	return nil
}
