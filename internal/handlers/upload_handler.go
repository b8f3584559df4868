package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"adops/internal/api/middleware"
	"adops/internal/common"
	"adops/internal/filesystem"
	"adops/internal/storage"
	"adops/internal/utils/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UploadHandler struct {
	engine  *filesystem.Engine
	storage storage.ObjectStorage
	log     *logger.Logger
}

func NewUploadHandler(engine *filesystem.Engine, objects storage.ObjectStorage) *UploadHandler {
	return &UploadHandler{
		engine:  engine,
		storage: objects,
		log:     logger.New("upload_handler"),
	}
}

// UploadFile stores the payload and registers the file in the tree.
// @Summary Upload a file
// @Description Upload a file into a folder with a brand ACL
// @Tags filesystem
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param folderId formData string false "Containing folder, root when empty"
// @Param name formData string false "Display name, the original filename when empty"
// @Param allowAllBrands formData bool false "Visible to every brand"
// @Param brandIds formData []string false "Brands allowed when restricted"
// @Success 201 {object} filesystem.Node
// @Failure 400 {object} map[string]string "Validation error or ACL violation"
// @Failure 409 {object} map[string]string "Duplicate filename"
// @Router /files [post]
func (h *UploadHandler) UploadFile(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return echo.NewHTTPError(http.StatusBadRequest, "Content-Type must be multipart/form-data")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	}

	acl, err := parseFormACL(c)
	if err != nil {
		return err
	}

	var folderID *string
	if id := strings.TrimSpace(c.FormValue("folderId")); id != "" {
		folderID = &id
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = file.Filename
	}

	src, err := file.Open()
	if err != nil {
		return h.log.Error("Failed to open upload", err)
	}
	defer src.Close()

	ctx := c.Request().Context()
	accountID := middleware.GetAccountID(c)
	fileType := file.Header.Get(echo.HeaderContentType)

	key, err := h.storage.Put(ctx, storage.NewKey(accountID, file.Filename), src, file.Size, fileType)
	if err != nil {
		return h.log.Error("Failed to store payload for %s", err, file.Filename)
	}

	node, err := h.engine.CreateFile(ctx, filesystem.CreateFileInput{
		UserID:           middleware.GetUserID(c),
		AccountID:        accountID,
		FolderID:         folderID,
		Name:             name,
		OriginalFilename: file.Filename,
		StorageKey:       key,
		ContentType:      fileType,
		Size:             file.Size,
		ACL:              acl,
	})
	if err != nil {
		// the stored payload stays behind; the key is random so nothing can reach it
		h.log.Warn("Upload %s rejected after storing %s: %v", file.Filename, key, err)
		return err
	}

	h.log.Success("File uploaded successfully: %s", key)
	return c.JSON(http.StatusCreated, node)
}

// parseFormACL reads allowAllBrands and brandIds, accepting repeated or comma separated ids.
func parseFormACL(c echo.Context) (filesystem.ACL, error) {
	var acl filesystem.ACL

	if raw := c.FormValue("allowAllBrands"); raw != "" {
		allow, err := strconv.ParseBool(raw)
		if err != nil {
			return acl, fmt.Errorf("%w: allowAllBrands must be a boolean", common.ErrInvalidInput)
		}
		acl.AllowAllBrands = allow
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return acl, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if form == nil {
		return acl, nil
	}
	for _, raw := range form.Value["brandIds"] {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, err := uuid.Parse(id); err != nil {
				return acl, fmt.Errorf("%w: brand id %q is not a uuid", common.ErrInvalidInput, id)
			}
			acl.BrandIDs = append(acl.BrandIDs, id)
		}
	}
	return acl, nil
}
