package api

import (
	"adops/internal/api/middleware"
	"adops/internal/api/registry"
	"adops/internal/handlers"
	"adops/internal/models"
	"adops/internal/storage"

	_ "adops/docs/swagger"

	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	authz := s.deps.Authorizer
	authHandler := handlers.NewAuthHandler(s.deps.DB, s.config.JWT, authz, s.deps.Resolver)
	members := handlers.NewMembersHandler(s.deps.DB, authz, s.deps.Brands)
	brandsHandler := handlers.NewBrandsHandler(s.deps.Brands)
	fs := handlers.NewFilesystemHandler(s.deps.Engine, s.deps.Storage)
	uploads := handlers.NewUploadHandler(s.deps.Engine, s.deps.Storage)

	api := s.echo.Group("/api/v1")

	// Public
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	if local, ok := s.deps.Storage.(*storage.LocalStorage); ok {
		api.GET("/storage/download", handlers.NewStorageHandler(local).Download)
	}

	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret, middleware.GormMembershipLookup(s.deps.DB))
	protected := api.Group("", auth.Middleware())

	manageUsers := middleware.RequireWrite(authz, models.PermissionUserManagement)
	protected.GET("/users/me", authHandler.GetMe)
	protected.POST("/users/invite", members.Invite, manageUsers)
	protected.GET("/users/:id/permissions", members.GetPermissions, middleware.RequireRead(authz, models.PermissionUserManagement))
	protected.PUT("/users/:id/permissions", members.SetPermissions, manageUsers)
	protected.PUT("/users/:id/brands", members.SetBrands, manageUsers)
	protected.POST("/authorize", members.Authorize)

	protected.GET("/brands", brandsHandler.List, middleware.RequireRead(authz, models.PermissionBrandManagement))
	protected.POST("/brands", brandsHandler.Create, middleware.RequireWrite(authz, models.PermissionBrandManagement))

	writeFiles := middleware.RequireWrite(authz, models.PermissionFileManagement)
	protected.GET("/fs", fs.List, middleware.RequireRead(authz, models.PermissionFileManagement))
	protected.POST("/folders", fs.CreateFolder, writeFiles)
	protected.PUT("/folders/:id/acl", fs.SetFolderAcl, writeFiles)
	protected.POST("/files", uploads.UploadFile, writeFiles)
	protected.PUT("/files/:id/acl", fs.SetFileAcl, writeFiles)

	registry.RegisterCRUDRoutes(protected, s.deps.DB, authz)
}
