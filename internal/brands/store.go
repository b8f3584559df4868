package brands

import (
	"context"
	"sync"

	"adops/internal/models"

	"gorm.io/gorm"
)

type GormMembershipStore struct {
	db *gorm.DB
}

func NewGormMembershipStore(db *gorm.DB) *GormMembershipStore {
	return &GormMembershipStore{db: db}
}

func (s *GormMembershipStore) BrandGrants(ctx context.Context, userID, accountID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.UserAccountBrand{}).
		Joins("JOIN user_accounts ON user_accounts.id = user_account_brands.user_brand_access_id").
		Where("user_accounts.user_id = ? AND user_accounts.account_id = ?", userID, accountID).
		Where("user_accounts.is_deleted = ? AND user_account_brands.is_deleted = ?", false, false).
		Pluck("user_account_brands.brand_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MemoryMembershipStore keeps brand grants in process.
type MemoryMembershipStore struct {
	mu     sync.RWMutex
	grants map[[2]string][]string
}

func NewMemoryMembershipStore() *MemoryMembershipStore {
	return &MemoryMembershipStore{grants: make(map[[2]string][]string)}
}

func (s *MemoryMembershipStore) BrandGrants(_ context.Context, userID, accountID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.grants[[2]string{userID, accountID}]...), nil
}

// SetGrants replaces the grants of (userID, accountID).
func (s *MemoryMembershipStore) SetGrants(userID, accountID string, brandIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[[2]string{userID, accountID}] = append([]string(nil), brandIDs...)
}
