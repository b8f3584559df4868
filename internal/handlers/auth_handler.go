package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adops/internal/access"
	"adops/internal/api/middleware"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/config"
	"adops/internal/events"
	"adops/internal/models"
	"adops/internal/utils"
	"adops/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db       *gorm.DB
	jwt      config.JWTConfig
	authz    *access.Authorizer
	resolver *brands.Resolver
	log      *logger.Logger
}

func NewAuthHandler(db *gorm.DB, jwt config.JWTConfig, authz *access.Authorizer, resolver *brands.Resolver) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, authz: authz, resolver: resolver, log: logger.New("AuthHandler")}
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	AccountName string `json:"accountName" validate:"required,min=2"`
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	AccountID string `json:"accountId" validate:"omitempty,uuid"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MeResponse is the caller, their current membership, grants and brand scope.
type MeResponse struct {
	User        models.User         `json:"user"`
	Membership  *models.UserAccount `json:"membership"`
	Permissions []access.Grant      `json:"permissions"`
	AllBrands   bool                `json:"allBrands"`
	BrandIDs    []string            `json:"brandIds"`
}

// Register creates an account, its first user and a publisher admin membership.
// @Summary Register a new account
// @Description Create an account with its first administrator
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Email or account name taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request().Context()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.log.Error("Failed to hash password", err)
	}

	var user models.User
	var account models.Account
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", common.ErrDuplicateName)
		}
		if err := tx.Model(&models.Account{}).Where("name = ?", req.AccountName).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: account name already taken", common.ErrDuplicateName)
		}

		account = models.Account{Name: req.AccountName}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		user = models.User{
			Email:            email,
			Password:         string(hashedPassword),
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			CurrentAccountID: account.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		membership := models.UserAccount{
			UserID:         user.ID,
			AccountID:      account.ID,
			RoleType:       models.RoleTypeAdmin,
			UserType:       models.UserTypePublisher,
			AllowAllBrands: true,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return models.AssignDefaultPermissions(tx, &membership)
	})
	if err != nil {
		return err
	}

	events.Emit("users.created", &user)
	h.log.Success("Registered %s with account %s", user.Email, account.Name)

	return h.issue(c, http.StatusCreated, user, account.ID)
}

// Login exchanges credentials for a token scoped to one account.
// @Summary Login user
// @Description Authenticate and return a JWT for the requested or current account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := models.GetUserByEmail(email, db)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	}
	if err != nil {
		h.log.Warn("Failed login for %s from %s", email, utils.ClientIP(c.Request()))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	accountID := req.AccountID
	if accountID == "" {
		accountID = user.CurrentAccountID
	}
	if accountID == "" {
		var first models.UserAccount
		if err := db.Where("user_id = ? AND is_deleted = ?", user.ID, false).Order("created_at ASC").First(&first).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "User has no account")
		}
		accountID = first.AccountID
	}

	if _, err := models.GetMembership(user.ID, accountID, db); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not a member of this account")
		}
		return err
	}

	if accountID != user.CurrentAccountID {
		if err := db.Model(user).Update("current_account_id", accountID).Error; err != nil {
			h.log.Warn("Failed to remember current account for %s: %v", user.ID, err)
		}
	}

	return h.issue(c, http.StatusOK, *user, accountID)
}

func (h *AuthHandler) issue(c echo.Context, status int, user models.User, accountID string) error {
	ttl := time.Duration(h.jwt.TTLHours) * time.Hour
	token, err := utils.GenerateJWT(user, accountID, h.jwt.Secret, ttl)
	if err != nil {
		return h.log.Error("Failed to generate token", err)
	}
	return c.JSON(status, TokenResponse{Token: token, AccountID: accountID, ExpiresAt: time.Now().Add(ttl)})
}

// GetMe returns the caller with their grants and brand scope in the current account.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} MeResponse
// @Router /users/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID, accountID := middleware.GetUserID(c), middleware.GetAccountID(c)

	var user models.User
	if err := h.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
		}
		return err
	}

	grants, err := h.authz.GrantsFor(ctx, userID, accountID)
	if err != nil {
		return err
	}
	scope := h.resolver.AccessibleBrands(ctx, userID, accountID)

	return c.JSON(http.StatusOK, MeResponse{
		User:        user,
		Membership:  middleware.GetMembership(c),
		Permissions: grants,
		AllBrands:   scope.Unrestricted,
		BrandIDs:    scope.List(),
	})
}
