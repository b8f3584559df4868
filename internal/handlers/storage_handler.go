package handlers

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path"

	"adops/internal/storage"

	"github.com/labstack/echo/v4"
)

// StorageHandler serves payloads of the local provider behind signed tokens.
type StorageHandler struct {
	local *storage.LocalStorage
}

func NewStorageHandler(local *storage.LocalStorage) *StorageHandler {
	return &StorageHandler{local: local}
}

// Download streams the payload named by a signed token.
// @Summary Download a stored payload
// @Tags storage
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]string "Invalid or expired token"
// @Router /storage/download [get]
func (h *StorageHandler) Download(c echo.Context) error {
	key, err := h.local.VerifyToken(c.QueryParam("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired download token")
	}

	f, err := h.local.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound, "File not found")
		}
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+path.Base(key))
	return c.Stream(http.StatusOK, contentType, f)
}
