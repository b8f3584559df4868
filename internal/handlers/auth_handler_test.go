package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"adops/internal/access"
	"adops/internal/api/validator"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/config"
	"adops/internal/models"
	"adops/internal/utils/dbtest"
)

const (
	callerID  = "8d0f1a4e-52c3-4b8e-9a3b-1c2d3e4f5a60"
	subjectID = "8d0f1a4e-52c3-4b8e-9a3b-1c2d3e4f5a61"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v, err := validator.NewValidator(access.DefaultLattice())
	require.NoError(t, err)
	e.Validator = v
	return e
}

func TestLogin_RejectsUnknownEmail(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	h := NewAuthHandler(db, config.JWTConfig{Secret: "s", TTLHours: 1}, nil, nil)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 AND is_deleted = false`).
		WithArgs("ghost@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e := newEcho(t)
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "Ghost@Example.com", Password: "pw"}), httptest.NewRecorder())

	var he *echo.HTTPError
	require.ErrorAs(t, h.Login(c), &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	h := NewAuthHandler(db, config.JWTConfig{Secret: "s", TTLHours: 1}, nil, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).AddRow(callerID, "ada@example.com", string(hash)))

	e := newEcho(t)
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "ada@example.com", Password: "battery staple"}), httptest.NewRecorder())

	var he *echo.HTTPError
	require.ErrorAs(t, h.Login(c), &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogin_IssuesTokenForCurrentAccount(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	h := NewAuthHandler(db, config.JWTConfig{Secret: "s", TTLHours: 1}, nil, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "current_account_id"}).
			AddRow(callerID, "ada@example.com", string(hash), testAccount))
	mock.ExpectQuery(`SELECT \* FROM "user_accounts" WHERE user_id = \$1 AND account_id = \$2`).
		WithArgs(callerID, testAccount, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_id"}).AddRow("m1", callerID, testAccount))

	e := newEcho(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "ada@example.com", Password: "correct horse"}), rec)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accountId":"`+testAccount+`"`)
}

func TestAuthorize(t *testing.T) {
	store := access.NewMemoryStore()
	authz := access.NewAuthorizer(store, access.NewGate(access.DefaultLattice()))
	ctx := context.Background()
	require.NoError(t, store.SetLevel(ctx, callerID, testAccount, models.PermissionFileManagement, models.AccessFull))
	require.NoError(t, store.SetLevel(ctx, subjectID, testAccount, models.PermissionWallet, models.AccessManageWallet))

	h := NewMembersHandler(nil, authz, brands.NewService(nil, nil))
	e := newEcho(t)

	call := func(req AuthorizeRequest) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/authorize", req), rec)
		c.Set("userID", callerID)
		c.Set("accountID", testAccount)
		return rec, h.Authorize(c)
	}

	rec, err := call(AuthorizeRequest{PermissionType: models.PermissionFileManagement, AccessLevel: models.AccessView})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"allowed":true`)

	_, err = call(AuthorizeRequest{UserID: subjectID, PermissionType: models.PermissionWallet, AccessLevel: models.AccessView})
	assert.ErrorIs(t, err, common.ErrUnauthorizedAction)

	require.NoError(t, store.SetLevel(ctx, callerID, testAccount, models.PermissionUserManagement, models.AccessView))
	rec, err = call(AuthorizeRequest{UserID: subjectID, PermissionType: models.PermissionWallet, AccessLevel: models.AccessFull})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"allowed":false`)

	_, err = call(AuthorizeRequest{PermissionType: "TELEPORTATION", AccessLevel: models.AccessView})
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
}

