package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"adops/internal/access"
	"adops/internal/api/validator"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/config"
	"adops/internal/filesystem"
	"adops/internal/storage"
	"adops/internal/utils/dbtest"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, _ := dbtest.NewMock(t)
	resolver := brands.NewResolver(brands.NewMemoryMembershipStore())

	cfg := config.LoadTestConfig()
	srv, err := NewServer(cfg, Deps{
		DB:         db,
		Authorizer: access.NewAuthorizer(access.NewMemoryStore(), access.NewGate(access.DefaultLattice())),
		Resolver:   resolver,
		Brands:     brands.NewService(db, resolver),
		Engine:     filesystem.NewEngine(filesystem.NewMemoryCatalog(), resolver),
		Storage:    storage.NewLocalStorage(afero.NewMemMapFs(), "http://localhost:8081", cfg.JWT.Secret),
	})
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	for _, target := range []string{"/api/v1/users/me", "/api/v1/fs", "/api/v1/brands", "/api/v1/playlists"} {
		rec = serve(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec = serve(srv, http.MethodGet, "/api/v1/storage/download?token=bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&common.AclViolationError{Offending: []string{"b"}}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", common.ErrInvalidInput), http.StatusBadRequest},
		{common.ErrUnauthorizedAction, http.StatusForbidden},
		{fmt.Errorf("%w: folder x", common.ErrNodeNotFound), http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{common.ErrDuplicateName, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func handle(err error) (int, map[string]interface{}) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/folders", nil), rec)
	customHTTPErrorHandler(err, c)

	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	t.Run("acl violation carries details", func(t *testing.T) {
		code, body := handle(fmt.Errorf("create: %w", &common.AclViolationError{Offending: []string{"b2"}, Allowed: []string{"b1"}}))
		assert.Equal(t, http.StatusBadRequest, code)
		details, ok := body["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{"b2"}, details["offending"])
	})

	t.Run("http error keeps its code", func(t *testing.T) {
		code, body := handle(echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header"))
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Missing authorization header", body["error"])
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		code, body := handle(errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["error"])
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		v, err := validator.NewValidator(access.DefaultLattice())
		require.NoError(t, err)
		verr := v.Validate(&struct {
			Name string `json:"name" validate:"required"`
		}{})
		require.Error(t, verr)

		code, body := handle(verr)
		assert.Equal(t, http.StatusBadRequest, code)
		fields, ok := body["error"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, fields, "name")
	})
}
