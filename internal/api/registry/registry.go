package registry

import (
	"github.com/labstack/echo/v4"

	"adops/internal/api/controllers"
	"adops/internal/api/middleware"
	"adops/internal/models"
	"adops/internal/services"

	"gorm.io/gorm"
)

// RegisterCRUDRoutes registers account-scoped CRUD routes for pass-through models.
func RegisterCRUDRoutes(g *echo.Group, db *gorm.DB, authz middleware.ActionAuthorizer) {
	// Parent companies are part of brand management
	// @Summary List parent companies
	// @Tags parent-companies
	// @Produce json
	// @Success 200 {array} models.ParentCompany
	// @Failure 403 {object} map[string]string "Forbidden"
	// @Router /parent-companies [get]
	//
	// @Summary Create parent company
	// @Tags parent-companies
	// @Accept json
	// @Produce json
	// @Param company body models.ParentCompany true "Parent company"
	// @Success 201 {object} models.ParentCompany
	// @Failure 409 {object} map[string]string "Duplicate name"
	// @Router /parent-companies [post]
	parentCompanies := controllers.NewBaseController(services.NewBaseService(db, models.ParentCompany{}))
	parentCompanies.RegisterRoutes(g, "/parent-companies",
		middleware.RequireRead(authz, models.PermissionBrandManagement),
		middleware.RequireWrite(authz, models.PermissionBrandManagement),
	)

	// @Summary List playlists
	// @Tags playlists
	// @Produce json
	// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
	// @Success 200 {array} models.Playlist
	// @Router /playlists [get]
	//
	// @Summary Update playlist
	// @Tags playlists
	// @Accept json
	// @Produce json
	// @Param id path string true "Playlist ID"
	// @Param playlist body models.Playlist true "Playlist"
	// @Success 200 {object} models.Playlist
	// @Failure 404 {object} map[string]string "Not found"
	// @Router /playlists/{id} [put]
	playlists := controllers.NewBaseController(services.NewBaseService(db, models.Playlist{}))
	playlists.RegisterRoutes(g, "/playlists",
		middleware.RequireRead(authz, models.PermissionPlaylistManagement),
		middleware.RequireWrite(authz, models.PermissionPlaylistManagement),
	)
}
