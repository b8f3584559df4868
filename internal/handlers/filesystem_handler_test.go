package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adops/internal/access"
	"adops/internal/api/validator"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/filesystem"
	"adops/internal/storage"
)

const (
	testUser    = "user-1"
	testAccount = "account-1"
	brandA      = "6f1c5a2e-0d6b-4c61-9a53-3f9d2f0a1b01"
	brandB      = "6f1c5a2e-0d6b-4c61-9a53-3f9d2f0a1b02"
)

type fsFixture struct {
	e       *echo.Echo
	engine  *filesystem.Engine
	local   *storage.LocalStorage
	handler *FilesystemHandler
	uploads *UploadHandler
}

func newFsFixture(t *testing.T) *fsFixture {
	t.Helper()
	e := echo.New()
	v, err := validator.NewValidator(access.DefaultLattice())
	require.NoError(t, err)
	e.Validator = v

	catalog := filesystem.NewMemoryCatalog()
	catalog.RegisterBrands(testAccount, brandA, brandB)
	engine := filesystem.NewEngine(catalog, brands.NewResolver(brands.NewMemoryMembershipStore()))
	local := storage.NewLocalStorage(afero.NewMemMapFs(), "http://files.test", "secret")
	return &fsFixture{
		e:       e,
		engine:  engine,
		local:   local,
		handler: NewFilesystemHandler(engine, local),
		uploads: NewUploadHandler(engine, local),
	}
}

func (f *fsFixture) context(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.Set("userID", testUser)
	c.Set("accountID", testAccount)
	return c, rec
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func (f *fsFixture) createFolder(t *testing.T, body CreateFolderRequest) filesystem.Node {
	t.Helper()
	c, rec := f.context(jsonRequest(http.MethodPost, "/api/v1/folders", body))
	require.NoError(t, f.handler.CreateFolder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var node filesystem.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	return node
}

func multipartUpload(t *testing.T, fields map[string][]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestCreateFolder(t *testing.T) {
	f := newFsFixture(t)

	node := f.createFolder(t, CreateFolderRequest{Name: "Campaigns", BrandIDs: []string{brandB, brandA}})
	assert.Equal(t, "Campaigns", node.Name)
	assert.False(t, node.AllowAllBrands)
	assert.ElementsMatch(t, []string{brandA, brandB}, node.BrandIDs)

	t.Run("child cannot widen parent", func(t *testing.T) {
		c, _ := f.context(jsonRequest(http.MethodPost, "/api/v1/folders", CreateFolderRequest{
			ParentID: &node.ID, Name: "Open", AllowAllBrands: true,
		}))
		err := f.handler.CreateFolder(c)
		assert.ErrorIs(t, err, common.ErrAclViolation)
	})

	t.Run("duplicate name", func(t *testing.T) {
		c, _ := f.context(jsonRequest(http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Campaigns", AllowAllBrands: true}))
		assert.ErrorIs(t, f.handler.CreateFolder(c), common.ErrDuplicateName)
	})

	t.Run("brand ids must be uuids", func(t *testing.T) {
		c, _ := f.context(jsonRequest(http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Bad", BrandIDs: []string{"nope"}}))
		var ve validator.ValidationErrors
		assert.ErrorAs(t, f.handler.CreateFolder(c), &ve)
	})
}

func TestSetFolderAcl_NarrowsSubtree(t *testing.T) {
	f := newFsFixture(t)
	parent := f.createFolder(t, CreateFolderRequest{Name: "Root", AllowAllBrands: true})
	child := f.createFolder(t, CreateFolderRequest{ParentID: &parent.ID, Name: "Child", BrandIDs: []string{brandA, brandB}})

	c, rec := f.context(jsonRequest(http.MethodPut, "/api/v1/folders/"+parent.ID+"/acl", SetAclRequest{BrandIDs: []string{brandA}}))
	c.SetParamNames("id")
	c.SetParamValues(parent.ID)
	require.NoError(t, f.handler.SetFolderAcl(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = f.context(httptest.NewRequest(http.MethodGet, "/api/v1/fs?parentId="+url.QueryEscape(parent.ID), nil))
	require.NoError(t, f.handler.List(c))

	var listing ListingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, child.ID, listing.Folders[0].ID)
	assert.Equal(t, []string{brandA}, listing.Folders[0].BrandIDs)
}

func TestSetFileAcl_UnknownNode(t *testing.T) {
	f := newFsFixture(t)
	c, _ := f.context(jsonRequest(http.MethodPut, "/api/v1/files/missing/acl", SetAclRequest{AllowAllBrands: true}))
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assert.ErrorIs(t, f.handler.SetFileAcl(c), common.ErrNodeNotFound)
}

func TestUploadListAndDownload(t *testing.T) {
	f := newFsFixture(t)
	folder := f.createFolder(t, CreateFolderRequest{Name: "Assets", BrandIDs: []string{brandA, brandB}})

	c, rec := f.context(multipartUpload(t, map[string][]string{
		"folderId": {folder.ID},
		"brandIds": {brandA},
	}, "banner.png", "png-bytes"))
	require.NoError(t, f.uploads.UploadFile(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var uploaded filesystem.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "banner.png", uploaded.Name)
	assert.Equal(t, []string{brandA}, uploaded.BrandIDs)
	assert.True(t, strings.HasPrefix(uploaded.StorageKey, "accounts/"+testAccount+"/"))

	c, rec = f.context(httptest.NewRequest(http.MethodGet, "/api/v1/fs?parentId="+url.QueryEscape(folder.ID), nil))
	require.NoError(t, f.handler.List(c))
	var listing ListingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)
	link, err := url.Parse(listing.Files[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/storage/download", link.Path)

	download := NewStorageHandler(f.local)
	rec = httptest.NewRecorder()
	dc := f.e.NewContext(httptest.NewRequest(http.MethodGet, link.RequestURI(), nil), rec)
	require.NoError(t, download.Download(dc))
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}

type unsignedStorage struct {
	*storage.LocalStorage
}

func (unsignedStorage) GetSignedURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("no credentials")
}

func TestList_WithoutSignedURLs(t *testing.T) {
	f := newFsFixture(t)
	c, rec := f.context(multipartUpload(t, map[string][]string{"allowAllBrands": {"true"}}, "plan.pdf", "pdf"))
	require.NoError(t, f.uploads.UploadFile(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	h := NewFilesystemHandler(f.engine, unsignedStorage{f.local})
	c, rec = f.context(httptest.NewRequest(http.MethodGet, "/api/v1/fs", nil))
	require.NoError(t, h.List(c))

	var listing ListingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "plan.pdf", listing.Files[0].Name)
	assert.Empty(t, listing.Files[0].URL)
}

func TestUpload_RejectsBrandOutsideFolder(t *testing.T) {
	f := newFsFixture(t)
	folder := f.createFolder(t, CreateFolderRequest{Name: "Assets", BrandIDs: []string{brandA}})

	c, _ := f.context(multipartUpload(t, map[string][]string{
		"folderId": {folder.ID},
		"brandIds": {brandA + "," + brandB},
	}, "spot.mp4", "video"))
	assert.ErrorIs(t, f.uploads.UploadFile(c), common.ErrAclViolation)
}

func TestUpload_InvalidForm(t *testing.T) {
	f := newFsFixture(t)

	c, _ := f.context(multipartUpload(t, map[string][]string{"brandIds": {"not-a-uuid"}}, "a.txt", "x"))
	assert.ErrorIs(t, f.uploads.UploadFile(c), common.ErrInvalidInput)

	c, _ = f.context(jsonRequest(http.MethodPost, "/api/v1/files", map[string]string{}))
	var he *echo.HTTPError
	require.ErrorAs(t, f.uploads.UploadFile(c), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestDownload_BadToken(t *testing.T) {
	f := newFsFixture(t)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/storage/download?token=forged", nil), rec)

	var he *echo.HTTPError
	require.ErrorAs(t, NewStorageHandler(f.local).Download(c), &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
