package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"adops/internal/common"
	"adops/internal/events"

	"gorm.io/gorm"
)

// ListParams narrows a List call. Filter keys and Sort must name columns of the model.
type ListParams struct {
	Page     int
	Limit    int
	Filters  map[string]interface{}
	Sort     string
	Order    string
	Includes []string
}

// BaseService is account-scoped CRUD for models that carry an AccountID column.
type BaseService[T any] interface {
	Create(ctx context.Context, accountID string, entity *T, includes ...string) error
	Get(ctx context.Context, accountID, id string, includes ...string) (*T, error)
	List(ctx context.Context, accountID string, params ListParams) ([]T, int64, error)
	Update(ctx context.Context, accountID, id string, entity *T, includes ...string) error
	Delete(ctx context.Context, accountID, id string) error
}

// BaseServiceImpl implements BaseService
type BaseServiceImpl[T any] struct {
	db        *gorm.DB
	modelType T
	columns   map[string]bool
}

func GormTableName(db *gorm.DB, v any) string {
	return db.NamingStrategy.TableName(reflect.TypeOf(v).Name())
}

// NewBaseService creates a new base service
func NewBaseService[T any](db *gorm.DB, modelType T) BaseService[T] {
	return &BaseServiceImpl[T]{
		db:        db,
		modelType: modelType,
		columns:   columnsOf(db, modelType),
	}
}

func columnsOf(db *gorm.DB, model any) map[string]bool {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return map[string]bool{}
	}
	cols := make(map[string]bool, len(stmt.Schema.DBNames))
	for _, name := range stmt.Schema.DBNames {
		cols[name] = true
	}
	return cols
}

func (s *BaseServiceImpl[T]) table() string {
	return GormTableName(s.db, s.modelType)
}

// applyIncludes adds preload statements to the query for each include
func (s *BaseServiceImpl[T]) applyIncludes(query *gorm.DB, includes ...string) *gorm.DB {
	for _, include := range includes {
		query = query.Preload(include)
	}
	return query
}

func (s *BaseServiceImpl[T]) scoped(ctx context.Context, accountID string) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T)).
		Where("account_id = ? AND is_deleted = ?", accountID, false)
}

func (s *BaseServiceImpl[T]) Create(ctx context.Context, accountID string, entity *T, includes ...string) error {
	v := reflect.ValueOf(entity).Elem()
	if f := v.FieldByName("AccountID"); f.IsValid() && f.CanSet() && f.Kind() == reflect.String {
		f.SetString(accountID)
	}

	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", s.table(), common.ErrDuplicateName)
		}
		return err
	}

	// Reload the entity with includes if any are specified
	if len(includes) > 0 {
		id := v.FieldByName("ID").String()
		if err := s.applyIncludes(s.db.WithContext(ctx), includes...).First(entity, "id = ?", id).Error; err != nil {
			return err
		}
	}

	events.Emit(fmt.Sprintf("%s.created", s.table()), entity)
	return nil
}

func (s *BaseServiceImpl[T]) Get(ctx context.Context, accountID, id string, includes ...string) (*T, error) {
	var entity T
	query := s.applyIncludes(s.scoped(ctx, accountID), includes...)

	if err := query.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %s: %w", s.table(), id, common.ErrNotFound)
		}
		return nil, err
	}
	return &entity, nil
}

func (s *BaseServiceImpl[T]) List(ctx context.Context, accountID string, params ListParams) ([]T, int64, error) {
	var entities []T
	var total int64

	query := s.scoped(ctx, accountID)

	for key, value := range params.Filters {
		if !s.columns[key] {
			return nil, 0, fmt.Errorf("unknown filter %q: %w", key, common.ErrInvalidInput)
		}
		query = query.Where(fmt.Sprintf("%q = ?", key), value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Sort != "" {
		if !s.columns[params.Sort] {
			return nil, 0, fmt.Errorf("unknown sort field %q: %w", params.Sort, common.ErrInvalidInput)
		}
		order := "ASC"
		if strings.EqualFold(params.Order, "desc") {
			order = "DESC"
		}
		query = query.Order(fmt.Sprintf("%q %s", params.Sort, order))
	}

	if params.Page > 0 && params.Limit > 0 {
		query = query.Offset((params.Page - 1) * params.Limit).Limit(params.Limit)
	}

	query = s.applyIncludes(query, params.Includes...)

	if err := query.Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return entities, total, nil
}

func (s *BaseServiceImpl[T]) Update(ctx context.Context, accountID, id string, entity *T, includes ...string) error {
	result := s.db.WithContext(ctx).Model(entity).
		Where("id = ? AND account_id = ? AND is_deleted = ?", id, accountID, false).
		Omit("id", "account_id", "created_at").
		Updates(entity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", s.table(), id, common.ErrNotFound)
	}

	if len(includes) > 0 {
		if err := s.applyIncludes(s.db.WithContext(ctx), includes...).First(entity, "id = ?", id).Error; err != nil {
			return err
		}
	}

	events.Emit(fmt.Sprintf("%s.updated", s.table()), entity)
	return nil
}

// Delete is a soft delete; the row keeps its id so references stay valid.
func (s *BaseServiceImpl[T]) Delete(ctx context.Context, accountID, id string) error {
	result := s.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND account_id = ? AND is_deleted = ?", id, accountID, false).
		Updates(map[string]interface{}{"deleted_at": time.Now(), "is_deleted": true})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", s.table(), id, common.ErrNotFound)
	}

	events.Emit(fmt.Sprintf("%s.deleted", s.table()), id)
	return nil
}
