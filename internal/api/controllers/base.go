package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"adops/internal/api/middleware"
	"adops/internal/services"

	"github.com/labstack/echo/v4"
)

var reservedParams = map[string]bool{
	"page": true, "limit": true, "include": true, "sort": true, "order": true,
}

// BaseController exposes account-scoped CRUD for any model over echo.
// Service errors are returned as-is and mapped to status codes by the server's error handler.
type BaseController[T any] struct {
	service services.BaseService[T]
}

// NewBaseController creates a new base controller
func NewBaseController[T any](service services.BaseService[T]) *BaseController[T] {
	return &BaseController[T]{
		service: service,
	}
}

// parseIncludes parses the include query parameter and returns a slice of relationships to preload
func parseIncludes(ctx echo.Context) []string {
	include := ctx.QueryParam("include")
	if include == "" {
		return nil
	}
	return strings.Split(include, ",")
}

// Create handles creation of new entities
func (c *BaseController[T]) Create(ctx echo.Context) error {
	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	if err := c.service.Create(ctx.Request().Context(), middleware.GetAccountID(ctx), &entity, parseIncludes(ctx)...); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, entity)
}

// Get handles retrieval of a single entity
func (c *BaseController[T]) Get(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing id parameter")
	}

	entity, err := c.service.Get(ctx.Request().Context(), middleware.GetAccountID(ctx), id, parseIncludes(ctx)...)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// List handles retrieval of multiple entities with pagination and filtering
func (c *BaseController[T]) List(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	// every other query parameter is an equality filter on a column
	filters := make(map[string]interface{})
	for key, values := range ctx.QueryParams() {
		if !reservedParams[key] && len(values) > 0 {
			filters[key] = values[0]
		}
	}

	entities, total, err := c.service.List(ctx.Request().Context(), middleware.GetAccountID(ctx), services.ListParams{
		Page:     page,
		Limit:    limit,
		Filters:  filters,
		Sort:     ctx.QueryParam("sort"),
		Order:    ctx.QueryParam("order"),
		Includes: parseIncludes(ctx),
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"data":  entities,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Update handles updating an existing entity
func (c *BaseController[T]) Update(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing id parameter")
	}

	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	if err := c.service.Update(ctx.Request().Context(), middleware.GetAccountID(ctx), id, &entity, parseIncludes(ctx)...); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// Delete handles deletion of an entity
func (c *BaseController[T]) Delete(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing id parameter")
	}

	if err := c.service.Delete(ctx.Request().Context(), middleware.GetAccountID(ctx), id); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// RegisterRoutes registers CRUD routes for the controller. Reads and writes
// take separate middleware so callers can gate them at different access levels.
func (c *BaseController[T]) RegisterRoutes(g *echo.Group, path string, read, write echo.MiddlewareFunc) {
	group := g.Group(path)

	group.GET("", c.List, read)
	group.GET("/:id", c.Get, read)
	group.POST("", c.Create, write)
	group.PUT("/:id", c.Update, write)
	group.DELETE("/:id", c.Delete, write)
}
