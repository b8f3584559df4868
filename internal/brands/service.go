package brands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adops/internal/common"
	"adops/internal/events"
	"adops/internal/models"
	"adops/internal/utils/logger"

	"gorm.io/gorm"
)

type CreateInput struct {
	AccountID          string
	UserID             string
	Name               string
	ParentCompanyID    *string
	PublisherSharePerc float64
	AllowAllProducts   *bool
}

// MemberBrandsInput rewrites a membership's brand restriction.
type MemberBrandsInput struct {
	AccountID      string
	UserID         string
	AllowAllBrands bool
	BrandIDs       []string
}

type Service struct {
	db       *gorm.DB
	resolver *Resolver
	log      *logger.Logger
}

func NewService(db *gorm.DB, resolver *Resolver) *Service {
	return &Service{db: db, resolver: resolver, log: logger.New("brand_service")}
}

// Create adds a brand to the account. Only publisher members may create brands.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: brand name is required", common.ErrInvalidInput)
	}
	if in.PublisherSharePerc < 0 || in.PublisherSharePerc > 100 {
		return nil, fmt.Errorf("%w: publisher share must be between 0 and 100", common.ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	membership, err := models.GetMembership(in.UserID, in.AccountID, db)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user is not a member of this account", common.ErrUnauthorizedAction)
		}
		return nil, s.log.Error("Failed to load membership", err)
	}
	if membership.UserType != models.UserTypePublisher {
		return nil, fmt.Errorf("%w: only publisher users can create brands", common.ErrUnauthorizedAction)
	}

	var count int64
	if err := db.Model(&models.Brand{}).
		Where("account_id = ? AND name = ? AND is_deleted = ?", in.AccountID, name, false).
		Count(&count).Error; err != nil {
		return nil, s.log.Error("Failed to check brand name", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: brand %q already exists", common.ErrDuplicateName, name)
	}

	if in.ParentCompanyID != nil {
		var parents int64
		if err := db.Model(&models.ParentCompany{}).
			Where("id = ? AND account_id = ? AND is_deleted = ?", *in.ParentCompanyID, in.AccountID, false).
			Count(&parents).Error; err != nil {
			return nil, s.log.Error("Failed to check parent company", err)
		}
		if parents == 0 {
			return nil, fmt.Errorf("%w: parent company %s", common.ErrNotFound, *in.ParentCompanyID)
		}
	}

	brand := &models.Brand{
		AccountID:          in.AccountID,
		ParentCompanyID:    in.ParentCompanyID,
		Name:               name,
		Status:             models.BrandStatusActive,
		PublisherSharePerc: in.PublisherSharePerc,
		AllowAllProducts:   true,
		CreatedByID:        in.UserID,
	}
	if in.AllowAllProducts != nil {
		brand.AllowAllProducts = *in.AllowAllProducts
	}
	if err := db.Create(brand).Error; err != nil {
		return nil, s.log.Error("Failed to create brand", err)
	}
	return brand, nil
}

// ListVisible returns the account's brands the user may see, ordered by name.
func (s *Service) ListVisible(ctx context.Context, userID, accountID string) ([]models.Brand, error) {
	access := s.resolver.AccessibleBrands(ctx, userID, accountID)

	query := s.db.WithContext(ctx).Where("account_id = ? AND is_deleted = ?", accountID, false)
	if !access.Unrestricted {
		query = query.Where("id IN ?", access.List())
	}

	var brands []models.Brand
	if err := query.Order("name ASC").Find(&brands).Error; err != nil {
		return nil, s.log.Error("Failed to list brands", err)
	}
	return brands, nil
}

// SetMemberBrands replaces the membership's brand grants in one transaction.
// Allowing all brands clears the explicit grants.
func (s *Service) SetMemberBrands(ctx context.Context, in MemberBrandsInput) (*models.UserAccount, error) {
	var membership *models.UserAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		membership, err = models.GetMembership(in.UserID, in.AccountID, tx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: membership for user %s", common.ErrNotFound, in.UserID)
			}
			return err
		}

		brandIDs, err := s.ResolveBrandIDs(tx, in)
		if err != nil {
			return err
		}
		return s.ReplaceMemberBrands(tx, membership, in.AllowAllBrands, brandIDs)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidInput) {
			return nil, err
		}
		return nil, s.log.Error("Failed to update brands for user %s", err, in.UserID)
	}

	events.Emit(events.MembershipBrandsUpdated, membership)
	return membership, nil
}

// ResolveBrandIDs dedupes in.BrandIDs and checks that each one is a live brand of in.AccountID.
// It returns nil when all brands are allowed.
func (s *Service) ResolveBrandIDs(tx *gorm.DB, in MemberBrandsInput) ([]string, error) {
	if in.AllowAllBrands {
		return nil, nil
	}
	brandIDs := dedupe(in.BrandIDs)
	if len(brandIDs) == 0 {
		return brandIDs, nil
	}

	var known int64
	if err := tx.Model(&models.Brand{}).
		Where("account_id = ? AND id IN ? AND is_deleted = ?", in.AccountID, brandIDs, false).
		Count(&known).Error; err != nil {
		return nil, err
	}
	if int(known) != len(brandIDs) {
		return nil, fmt.Errorf("%w: unknown brand in %v", common.ErrInvalidInput, brandIDs)
	}
	return brandIDs, nil
}

// ReplaceMemberBrands writes the mode and grant rows of a persisted membership using tx.
// brandIDs must come from ResolveBrandIDs.
func (s *Service) ReplaceMemberBrands(tx *gorm.DB, membership *models.UserAccount, allowAll bool, brandIDs []string) error {
	if err := tx.Model(membership).Update("allow_all_brands", allowAll).Error; err != nil {
		return err
	}
	if err := tx.Where("user_brand_access_id = ?", membership.ID).Delete(&models.UserAccountBrand{}).Error; err != nil {
		return err
	}

	rows := make([]models.UserAccountBrand, 0, len(brandIDs))
	for _, id := range brandIDs {
		rows = append(rows, models.UserAccountBrand{UserBrandAccessID: membership.ID, BrandID: id})
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	membership.AllowAllBrands = allowAll
	membership.Brands = rows

	if !allowAll && len(rows) == 0 {
		s.log.Warn("User %s is restricted with no brand grants in account %s and will see every brand", membership.UserID, membership.AccountID)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
