package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"golang.org/x/time/rate"

	"adops/internal/access"
	"adops/internal/api/validator"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/config"
	"adops/internal/filesystem"
	"adops/internal/models"
	"adops/internal/storage"
	"adops/internal/utils"

	console "adops/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer exposes.
type Deps struct {
	DB         *gorm.DB
	Authorizer *access.Authorizer
	Resolver   *brands.Resolver
	Brands     *brands.Service
	Engine     *filesystem.Engine
	Storage    storage.ObjectStorage
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	deps   Deps
}

var log = console.New("API-Server")

// NewServer @title adops API
// @version 1.0
// @description Accounts, brand-scoped file trees and permission lattices.
// @host localhost:8080
// @BasePath /api/v1
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	e := echo.New()
	e.HideBanner = true

	v, err := validator.NewValidator(deps.Authorizer.Gate().Lattice())
	if err != nil {
		return nil, err
	}
	e.Validator = v

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("50M"))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit.RequestsPerSecond))))
	}

	e.HTTPErrorHandler = customHTTPErrorHandler

	s := &Server{
		echo:   e,
		config: cfg,
		deps:   deps,
	}

	if cfg.Admin.PanelEnabled && deps.DB != nil {
		if err := s.mountAdminPanel(); err != nil {
			log.Warn("Admin panel disabled: %v", err)
		}
	}

	s.registerRoutes()
	return s, nil
}

// mountAdminPanel exposes catalogue models to members with full user management.
func (s *Server) mountAdminPanel() error {
	gormIntegrator := admingorm.NewIntegrator(s.deps.DB)
	echoIntegrator := adminecho.NewIntegrator(s.echo.Group(""))

	adminPanel, err := admin.NewPanel(gormIntegrator, echoIntegrator, s.adminAccess, nil)
	if err != nil {
		return err
	}

	app, err := adminPanel.RegisterApp("adops", "adops Admin Panel", nil)
	if err != nil {
		return err
	}
	for _, model := range []interface{}{&models.Account{}, &models.ParentCompany{}, &models.Brand{}, &models.Playlist{}} {
		if _, err := app.RegisterModel(model, nil); err != nil {
			return err
		}
	}

	log.Success("Admin panel mounted")
	return nil
}

// adminAccess authenticates the bearer token itself since admin routes sit outside the API group.
func (s *Server) adminAccess(_ admin.PermissionRequest, ctx interface{}) (bool, error) {
	c, ok := ctx.(echo.Context)
	if !ok {
		return false, nil
	}
	token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	claims, err := utils.ParseJWT(token, s.config.JWT.Secret)
	if err != nil {
		return false, nil
	}
	return s.deps.Authorizer.AuthorizeAction(c.Request().Context(), claims.UserID, claims.AccountID,
		models.PermissionUserManagement, models.AccessFull)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrAclViolation), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorizedAction):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNodeNotFound), errors.Is(err, common.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateName), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message interface{}
		details interface{}
	)

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	var acl *common.AclViolationError
	switch {
	case errors.As(err, &he):
		code = he.Code
		message = he.Message
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		message = ve.Messages()
	default:
		code = statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error("Unhandled error on %s %s", err, c.Request().Method, c.Request().URL.Path)
			message = http.StatusText(code)
		} else {
			message = err.Error()
		}
		if errors.As(err, &acl) {
			details = map[string]interface{}{"offending": acl.Offending, "allowed": acl.Allowed}
		}
	}

	if !c.Response().Committed {
		body := map[string]interface{}{
			"error": message,
			"code":  code,
			"time":  time.Now().Format(time.RFC3339),
		}
		if details != nil {
			body["details"] = details
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
