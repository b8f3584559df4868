package handlers

import (
	"net/http"

	"adops/internal/api/middleware"
	"adops/internal/brands"

	"github.com/labstack/echo/v4"
)

type BrandsHandler struct {
	service *brands.Service
}

func NewBrandsHandler(service *brands.Service) *BrandsHandler {
	return &BrandsHandler{service: service}
}

type CreateBrandRequest struct {
	Name               string  `json:"name" validate:"required,min=1,max=200"`
	ParentCompanyID    *string `json:"parentCompanyId" validate:"omitempty,uuid"`
	PublisherSharePerc float64 `json:"publisherSharePerc" validate:"gte=0,lte=100"`
	AllowAllProducts   *bool   `json:"allowAllProducts"`
}

// Create adds a brand to the caller's account.
// @Summary Create brand
// @Tags brands
// @Accept json
// @Produce json
// @Param request body CreateBrandRequest true "Brand"
// @Success 201 {object} models.Brand
// @Failure 403 {object} map[string]string "Not a publisher"
// @Failure 409 {object} map[string]string "Duplicate name"
// @Router /brands [post]
func (h *BrandsHandler) Create(c echo.Context) error {
	var req CreateBrandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	brand, err := h.service.Create(c.Request().Context(), brands.CreateInput{
		AccountID:          middleware.GetAccountID(c),
		UserID:             middleware.GetUserID(c),
		Name:               req.Name,
		ParentCompanyID:    req.ParentCompanyID,
		PublisherSharePerc: req.PublisherSharePerc,
		AllowAllProducts:   req.AllowAllProducts,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, brand)
}

// List returns the brands the caller may see.
// @Summary List visible brands
// @Tags brands
// @Produce json
// @Success 200 {array} models.Brand
// @Router /brands [get]
func (h *BrandsHandler) List(c echo.Context) error {
	list, err := h.service.ListVisible(c.Request().Context(), middleware.GetUserID(c), middleware.GetAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": list, "total": len(list)})
}
