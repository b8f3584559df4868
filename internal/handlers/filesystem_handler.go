package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adops/internal/api/middleware"
	"adops/internal/common"
	"adops/internal/filesystem"
	"adops/internal/models"
	"adops/internal/storage"
	"adops/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

const signedURLTTL = time.Hour

// FilesystemHandler serves the folder tree and its brand ACLs.
type FilesystemHandler struct {
	engine  *filesystem.Engine
	storage storage.ObjectStorage
	log     *logger.Logger
}

func NewFilesystemHandler(engine *filesystem.Engine, objects storage.ObjectStorage) *FilesystemHandler {
	return &FilesystemHandler{engine: engine, storage: objects, log: logger.New("filesystem_handler")}
}

type CreateFolderRequest struct {
	ParentID       *string  `json:"parentId" validate:"omitempty,uuid"`
	Name           string   `json:"name" validate:"required,min=1,max=255"`
	AllowAllBrands bool     `json:"allowAllBrands"`
	BrandIDs       []string `json:"brandIds" validate:"omitempty,dive,uuid"`
}

type SetAclRequest struct {
	AllowAllBrands bool     `json:"allowAllBrands"`
	BrandIDs       []string `json:"brandIds" validate:"omitempty,dive,uuid"`
}

// FileEntry is a listed file with a time-limited download link.
type FileEntry struct {
	filesystem.Node
	URL string `json:"url,omitempty"`
}

type ListingResponse struct {
	Folders []filesystem.Node `json:"folders"`
	Files   []FileEntry       `json:"files"`
}

// CreateFolder creates a folder whose brand set must fit inside its parent's.
// @Summary Create folder
// @Tags filesystem
// @Accept json
// @Produce json
// @Param request body CreateFolderRequest true "Folder"
// @Success 201 {object} filesystem.Node
// @Failure 400 {object} map[string]string "ACL violation"
// @Failure 409 {object} map[string]string "Duplicate name"
// @Router /folders [post]
func (h *FilesystemHandler) CreateFolder(c echo.Context) error {
	var req CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	node, err := h.engine.CreateFolder(c.Request().Context(), filesystem.CreateFolderInput{
		UserID:    middleware.GetUserID(c),
		AccountID: middleware.GetAccountID(c),
		ParentID:  req.ParentID,
		Name:      req.Name,
		ACL:       filesystem.ACL{AllowAllBrands: req.AllowAllBrands, BrandIDs: req.BrandIDs},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, node)
}

// SetFolderAcl changes a folder's ACL and narrows its subtree to match.
// @Summary Set folder ACL
// @Tags filesystem
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param request body SetAclRequest true "ACL"
// @Success 200 {object} filesystem.Node
// @Router /folders/{id}/acl [put]
func (h *FilesystemHandler) SetFolderAcl(c echo.Context) error {
	return h.setAcl(c, h.engine.SetFolderAcl)
}

// SetFileAcl changes a file's ACL.
// @Summary Set file ACL
// @Tags filesystem
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param request body SetAclRequest true "ACL"
// @Success 200 {object} filesystem.Node
// @Router /files/{id}/acl [put]
func (h *FilesystemHandler) SetFileAcl(c echo.Context) error {
	return h.setAcl(c, h.engine.SetFileAcl)
}

type aclSetter func(ctx context.Context, in filesystem.SetAclInput) (*filesystem.Node, error)

func (h *FilesystemHandler) setAcl(c echo.Context, set aclSetter) error {
	var req SetAclRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	node, err := set(c.Request().Context(), filesystem.SetAclInput{
		UserID:    middleware.GetUserID(c),
		AccountID: middleware.GetAccountID(c),
		NodeID:    c.Param("id"),
		ACL:       filesystem.ACL{AllowAllBrands: req.AllowAllBrands, BrandIDs: req.BrandIDs},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

// List returns the children of parentId the caller may see.
// @Summary List folder contents
// @Tags filesystem
// @Produce json
// @Param parentId query string false "Parent folder, root when empty"
// @Param status query []string false "Statuses to include, active when empty"
// @Success 200 {object} ListingResponse
// @Router /fs [get]
func (h *FilesystemHandler) List(c echo.Context) error {
	in := filesystem.ListInput{
		UserID:    middleware.GetUserID(c),
		AccountID: middleware.GetAccountID(c),
	}
	if parentID := c.QueryParam("parentId"); parentID != "" {
		in.ParentID = &parentID
	}
	for _, raw := range c.QueryParams()["status"] {
		for _, s := range strings.Split(raw, ",") {
			status := models.NodeStatus(strings.TrimSpace(s))
			if !models.IsValidNodeStatus(status) {
				return fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, status)
			}
			in.Statuses = append(in.Statuses, status)
		}
	}

	ctx := c.Request().Context()
	listing, err := h.engine.ListVisible(ctx, in)
	if err != nil {
		return err
	}

	resp := ListingResponse{Folders: listing.Folders, Files: make([]FileEntry, 0, len(listing.Files))}
	for _, f := range listing.Files {
		entry := FileEntry{Node: f}
		if f.StorageKey != "" {
			url, err := h.storage.GetSignedURL(ctx, f.StorageKey, signedURLTTL)
			if err != nil {
				h.log.Warn("No download link for file %s: %v", f.ID, err)
			} else {
				entry.URL = url
			}
		}
		resp.Files = append(resp.Files, entry)
	}
	if resp.Folders == nil {
		resp.Folders = []filesystem.Node{}
	}
	return c.JSON(http.StatusOK, resp)
}
