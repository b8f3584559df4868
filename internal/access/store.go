package access

import (
	"context"
	"sync"

	"adops/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store loads and persists per-account permission grants.
type Store interface {
	Grants(ctx context.Context, userID, accountID string) ([]Grant, error)
	SetLevel(ctx context.Context, userID, accountID string, pt models.PermissionType, level models.AccessLevel) error
	// SetLevels writes every grant or none of them.
	SetLevels(ctx context.Context, userID, accountID string, grants []Grant) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Grants(ctx context.Context, userID, accountID string) ([]Grant, error) {
	var perms []models.UserPermission
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return GrantsFrom(perms), nil
}

// SetLevel upserts the single row for (user, account, type).
func (s *GormStore) SetLevel(ctx context.Context, userID, accountID string, pt models.PermissionType, level models.AccessLevel) error {
	return upsertLevel(s.db.WithContext(ctx), userID, accountID, pt, level)
}

func (s *GormStore) SetLevels(ctx context.Context, userID, accountID string, grants []Grant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range grants {
			if err := upsertLevel(tx, userID, accountID, g.Type, g.Level); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertLevel(db *gorm.DB, userID, accountID string, pt models.PermissionType, level models.AccessLevel) error {
	perm := models.UserPermission{
		UserID:         userID,
		AccountID:      accountID,
		PermissionType: pt,
		AccessLevel:    level,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "account_id"}, {Name: "permission_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_level", "updated_at"}),
	}).Create(&perm).Error
}

type memberKey struct {
	userID, accountID string
}

// MemoryStore keeps grants in process.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[memberKey]map[models.PermissionType]models.AccessLevel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[memberKey]map[models.PermissionType]models.AccessLevel)}
}

func (s *MemoryStore) Grants(_ context.Context, userID, accountID string) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := s.grants[memberKey{userID, accountID}]
	out := make([]Grant, 0, len(held))
	for _, pt := range models.AllPermissionTypes {
		if level, ok := held[pt]; ok {
			out = append(out, Grant{Type: pt, Level: level})
		}
	}
	for pt, level := range held {
		if !isProductType(pt) {
			out = append(out, Grant{Type: pt, Level: level})
		}
	}
	return out, nil
}

func (s *MemoryStore) SetLevel(ctx context.Context, userID, accountID string, pt models.PermissionType, level models.AccessLevel) error {
	return s.SetLevels(ctx, userID, accountID, []Grant{{Type: pt, Level: level}})
}

func (s *MemoryStore) SetLevels(_ context.Context, userID, accountID string, grants []Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{userID, accountID}
	if s.grants[key] == nil {
		s.grants[key] = make(map[models.PermissionType]models.AccessLevel)
	}
	for _, g := range grants {
		s.grants[key][g.Type] = g.Level
	}
	return nil
}

func isProductType(pt models.PermissionType) bool {
	for _, known := range models.AllPermissionTypes {
		if known == pt {
			return true
		}
	}
	return false
}
