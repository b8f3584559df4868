package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"adops/internal/access"
	"adops/internal/models"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a validator whose access_level tag checks against lattice.
func NewValidator(lattice *access.Lattice) (echo.Validator, error) {
	v := playgroundvalidator.New()

	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validations := map[string]playgroundvalidator.Func{
		"permission_type": validatePermissionType(lattice),
		"access_level":    validateAccessLevel(lattice),
		"user_type":       validateUserType,
		"role_type":       validateRoleType,
		"node_status":     validateNodeStatus,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s: %w", tag, err)
		}
	}

	return &CustomValidator{validator: v}, nil
}

func validatePermissionType(lattice *access.Lattice) playgroundvalidator.Func {
	return func(fl playgroundvalidator.FieldLevel) bool {
		_, err := lattice.AllowedLevels(models.PermissionType(fl.Field().String()))
		return err == nil
	}
}

// validateAccessLevel accepts any level that belongs to at least one permission type.
// Whether it fits the specific type is checked by the authorizer.
func validateAccessLevel(lattice *access.Lattice) playgroundvalidator.Func {
	return func(fl playgroundvalidator.FieldLevel) bool {
		level := models.AccessLevel(fl.Field().String())
		for _, pt := range lattice.Types() {
			if lattice.IsValid(pt, level) {
				return true
			}
		}
		return false
	}
}

func validateUserType(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidUserType(models.UserType(fl.Field().String()))
}

func validateRoleType(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidRoleType(models.RoleType(fl.Field().String()))
}

func validateNodeStatus(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidNodeStatus(models.NodeStatus(fl.Field().String()))
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Messages renders one human-readable message per failing field.
func (ve ValidationErrors) Messages() map[string]string {
	errMap := make(map[string]string, len(ve))
	for _, err := range ve {
		field, param := err.Field(), err.Param()

		switch err.Tag() {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "uuid":
			errMap[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "oneof":
			errMap[field] = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "gte", "lte":
			errMap[field] = fmt.Sprintf("%s is out of range", field)
		case "permission_type":
			errMap[field] = fmt.Sprintf("%s must be a known permission type", field)
		case "access_level":
			errMap[field] = fmt.Sprintf("%s must be a known access level", field)
		case "user_type":
			errMap[field] = fmt.Sprintf("%s must be PUBLISHER or ADVERTISER", field)
		case "role_type":
			errMap[field] = fmt.Sprintf("%s must be one of: SUPER_ADMIN, ADMIN, MANAGER, MEMBER", field)
		case "node_status":
			errMap[field] = fmt.Sprintf("%s must be one of: active, inactive, archived, deleted", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, err.Tag())
		}
	}
	return errMap
}
