package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"adops/internal/access"
	"adops/internal/api/middleware"
	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/events"
	"adops/internal/models"
	"adops/internal/utils"
	"adops/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 16

// MembersHandler manages who belongs to an account and what they may do there.
type MembersHandler struct {
	db     *gorm.DB
	authz  *access.Authorizer
	brands *brands.Service
	log    *logger.Logger
}

func NewMembersHandler(db *gorm.DB, authz *access.Authorizer, brandService *brands.Service) *MembersHandler {
	return &MembersHandler{db: db, authz: authz, brands: brandService, log: logger.New("members_handler")}
}

type InviteRequest struct {
	Email          string          `json:"email" validate:"required,email"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	UserType       models.UserType `json:"userType" validate:"required,user_type"`
	RoleType       models.RoleType `json:"roleType" validate:"omitempty,role_type"`
	AllowAllBrands *bool           `json:"allowAllBrands"`
	BrandIDs       []string        `json:"brandIds" validate:"omitempty,dive,uuid"`
}

type PermissionAssignment struct {
	PermissionType models.PermissionType `json:"permissionType" validate:"required,permission_type"`
	AccessLevel    models.AccessLevel    `json:"accessLevel" validate:"required,access_level"`
}

type SetPermissionsRequest struct {
	Permissions []PermissionAssignment `json:"permissions" validate:"required,min=1,dive"`
}

type SetBrandsRequest struct {
	AllowAllBrands bool     `json:"allowAllBrands"`
	BrandIDs       []string `json:"brandIds" validate:"omitempty,dive,uuid"`
}

type AuthorizeRequest struct {
	UserID         string                `json:"userId" validate:"omitempty,uuid"`
	PermissionType models.PermissionType `json:"permissionType" validate:"required,permission_type"`
	AccessLevel    models.AccessLevel    `json:"accessLevel" validate:"required,access_level"`
}

type AuthorizeResponse struct {
	UserID         string                `json:"userId"`
	PermissionType models.PermissionType `json:"permissionType"`
	AccessLevel    models.AccessLevel    `json:"accessLevel"`
	Allowed        bool                  `json:"allowed"`
}

// Invite adds a user to the caller's account, creating the user when the email is new.
// @Summary Invite a member
// @Tags users
// @Accept json
// @Produce json
// @Param request body InviteRequest true "Invitation"
// @Success 201 {object} models.UserAccount
// @Failure 409 {object} map[string]string "Already a member"
// @Router /users/invite [post]
func (h *MembersHandler) Invite(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	inviterID, accountID := middleware.GetUserID(c), middleware.GetAccountID(c)

	role := req.RoleType
	if role == "" {
		role = models.RoleTypeMember
	}
	if inviter := middleware.GetMembership(c); role == models.RoleTypeSuperAdmin &&
		(inviter == nil || inviter.RoleType != models.RoleTypeSuperAdmin) {
		return fmt.Errorf("%w: only a super admin can invite a super admin", common.ErrUnauthorizedAction)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	scope := brands.MemberBrandsInput{
		AccountID:      accountID,
		AllowAllBrands: req.AllowAllBrands == nil || *req.AllowAllBrands,
		BrandIDs:       req.BrandIDs,
	}
	var temporaryPassword string
	var membership models.UserAccount

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brandIDs, err := h.brands.ResolveBrandIDs(tx, scope)
		if err != nil {
			return err
		}

		user, err := models.GetUserByEmail(email, tx)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			temporaryPassword, err = utils.GenerateRandomString(temporaryPasswordLength)
			if err != nil {
				return err
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(temporaryPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user = &models.User{
				Email:            email,
				Password:         string(hashed),
				FirstName:        req.FirstName,
				LastName:         req.LastName,
				CurrentAccountID: accountID,
			}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		if _, err := models.GetMembership(user.ID, accountID, tx); err == nil {
			return fmt.Errorf("%w: %s is already a member", common.ErrDuplicateName, email)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		membership = models.UserAccount{
			UserID:         user.ID,
			AccountID:      accountID,
			RoleType:       role,
			UserType:       req.UserType,
			AllowAllBrands: true,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		if !scope.AllowAllBrands {
			if err := h.brands.ReplaceMemberBrands(tx, &membership, false, brandIDs); err != nil {
				return err
			}
		}
		return models.AssignDefaultPermissions(tx, &membership)
	})
	if err != nil {
		return err
	}

	h.log.Success("User %s invited %s to account %s as %s", inviterID, email, accountID, role)
	events.Emit(events.MemberInvited, events.Invitation{
		UserID:            membership.UserID,
		AccountID:         accountID,
		InvitedByID:       inviterID,
		TemporaryPassword: temporaryPassword,
	})

	return c.JSON(http.StatusCreated, membership)
}

func (h *MembersHandler) targetMember(c echo.Context) (string, error) {
	targetID := c.Param("id")
	if _, err := models.GetMembership(targetID, middleware.GetAccountID(c), h.db.WithContext(c.Request().Context())); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("member %s: %w", targetID, common.ErrNotFound)
		}
		return "", err
	}
	return targetID, nil
}

// GetPermissions lists one level per permission type for a member.
// @Summary Member permissions
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} access.Grant
// @Router /users/{id}/permissions [get]
func (h *MembersHandler) GetPermissions(c echo.Context) error {
	targetID, err := h.targetMember(c)
	if err != nil {
		return err
	}
	grants, err := h.authz.GrantsFor(c.Request().Context(), targetID, middleware.GetAccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grants)
}

// SetPermissions assigns levels to a member. Every assignment is checked against the caller's own level before any is stored.
// @Summary Assign member permissions
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetPermissionsRequest true "Levels"
// @Success 200 {array} access.Grant
// @Failure 403 {object} map[string]string "Above own level"
// @Router /users/{id}/permissions [put]
func (h *MembersHandler) SetPermissions(c echo.Context) error {
	var req SetPermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	targetID, err := h.targetMember(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	assignerID, accountID := middleware.GetUserID(c), middleware.GetAccountID(c)
	assignments := make([]access.Grant, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		assignments = append(assignments, access.Grant{Type: p.PermissionType, Level: p.AccessLevel})
	}
	if err := h.authz.AssignLevels(ctx, assignerID, targetID, accountID, assignments); err != nil {
		return err
	}

	grants, err := h.authz.GrantsFor(ctx, targetID, accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grants)
}

// SetBrands replaces a member's brand restriction.
// @Summary Set member brands
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetBrandsRequest true "Brand scope"
// @Success 200 {object} models.UserAccount
// @Router /users/{id}/brands [put]
func (h *MembersHandler) SetBrands(c echo.Context) error {
	var req SetBrandsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	membership, err := h.brands.SetMemberBrands(c.Request().Context(), brands.MemberBrandsInput{
		AccountID:      middleware.GetAccountID(c),
		UserID:         c.Param("id"),
		AllowAllBrands: req.AllowAllBrands,
		BrandIDs:       req.BrandIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, membership)
}

// Authorize answers whether a member holds a level. Asking about someone else needs user management view access.
// @Summary Check an authorization
// @Tags users
// @Accept json
// @Produce json
// @Param request body AuthorizeRequest true "Question"
// @Success 200 {object} AuthorizeResponse
// @Router /authorize [post]
func (h *MembersHandler) Authorize(c echo.Context) error {
	var req AuthorizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	callerID, accountID := middleware.GetUserID(c), middleware.GetAccountID(c)
	subject := req.UserID
	if subject == "" {
		subject = callerID
	}

	if subject != callerID {
		ok, err := h.authz.AuthorizeAction(ctx, callerID, accountID, models.PermissionUserManagement, models.AccessView)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: checking another member requires %s %s",
				common.ErrUnauthorizedAction, models.PermissionUserManagement, models.AccessView)
		}
	}

	allowed, err := h.authz.AuthorizeAction(ctx, subject, accountID, req.PermissionType, req.AccessLevel)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AuthorizeResponse{
		UserID:         subject,
		PermissionType: req.PermissionType,
		AccessLevel:    req.AccessLevel,
		Allowed:        allowed,
	})
}
