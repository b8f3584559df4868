package models

import (
	"adops/internal/config"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	console "adops/internal/utils/logger"
)

var log = console.New("SEEDER")

// Role-based default access levels, written as "PERMISSION_TYPE:LEVEL".
// A "*" permission type expands to every known type.
var rolePermissions = map[RoleType][]string{
	RoleTypeSuperAdmin: {"*:FULL_ACCESS"},
	RoleTypeAdmin:      {"*:FULL_ACCESS"},
	RoleTypeManager: {
		"*:VIEW_ACCESS",
		"BRAND_MANAGEMENT:FULL_ACCESS",
		"FILE_MANAGEMENT:FULL_ACCESS",
		"PLAYLIST_MANAGEMENT:FULL_ACCESS",
		"REPORT_GENERATION:GENERATE_REPORTS",
	},
	RoleTypeMember: {"*:VIEW_ACCESS"},
}

// DefaultPermissions expands the role mapping into one level per permission type.
// Later entries override earlier ones so wildcards can be refined.
func DefaultPermissions(role RoleType) (map[PermissionType]AccessLevel, error) {
	scopes, ok := rolePermissions[role]
	if !ok {
		return nil, fmt.Errorf("no default permissions for role %s", role)
	}

	levels := make(map[PermissionType]AccessLevel, len(AllPermissionTypes))
	for _, scope := range scopes {
		parts := strings.Split(scope, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid permission scope format: %s", scope)
		}

		level := AccessLevel(parts[1])
		if parts[0] == "*" {
			for _, pt := range AllPermissionTypes {
				levels[pt] = level
			}
			continue
		}
		levels[PermissionType(parts[0])] = level
	}
	return levels, nil
}

// AssignDefaultPermissions writes the role's default levels for a membership.
// Existing rows are left untouched.
func AssignDefaultPermissions(db *gorm.DB, membership *UserAccount) error {
	levels, err := DefaultPermissions(membership.RoleType)
	if err != nil {
		return err
	}

	var userPerms []UserPermission
	for _, pt := range AllPermissionTypes {
		level, ok := levels[pt]
		if !ok {
			continue
		}
		userPerms = append(userPerms, UserPermission{
			UserID:         membership.UserID,
			AccountID:      membership.AccountID,
			PermissionType: pt,
			AccessLevel:    level,
		})
	}

	if len(userPerms) == 0 {
		return nil
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&userPerms, 100).Error; err != nil {
		return fmt.Errorf("failed to create user permissions in bulk: %v", err)
	}

	return nil
}

// CreateSuperAdminFromEnv creates the first account and its super admin if none exists yet.
func CreateSuperAdminFromEnv(db *gorm.DB, cfg *config.Config) error {
	role := RoleTypeSuperAdmin

	var count int64
	db.Model(&UserAccount{}).Where("role_type = ?", role).Count(&count)
	log.Info("Super admin count: %d", count)
	if count > 0 {
		return nil
	}

	admin := cfg.Admin
	if admin.Email == "" {
		return fmt.Errorf("SUPERADMIN_EMAIL not set")
	}
	if admin.Password == "" {
		return fmt.Errorf("SUPERADMIN_PASSWORD not set")
	}
	if admin.AccountName == "" {
		return fmt.Errorf("SUPERADMIN_ACCOUNT_NAME not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		account := Account{Name: admin.AccountName}
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create account: %v", err)
		}

		user := User{
			FirstName:        admin.Name,
			Email:            admin.Email,
			Password:         string(hashedPassword),
			CurrentAccountID: account.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create superadmin user: %v", err)
		}

		membership := UserAccount{
			UserID:         user.ID,
			AccountID:      account.ID,
			RoleType:       role,
			UserType:       UserTypePublisher,
			AllowAllBrands: true,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to create superadmin membership: %v", err)
		}

		return AssignDefaultPermissions(tx, &membership)
	})
}
