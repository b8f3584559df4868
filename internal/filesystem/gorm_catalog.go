package filesystem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adops/internal/common"
	"adops/internal/models"

	"gorm.io/gorm"
)

// NodeCriteria selects folders or files of one account under one parent.
type NodeCriteria struct {
	AccountID string
	ParentID  *string
	Name      string
	Statuses  []models.NodeStatus
}

func (c NodeCriteria) apply(query *gorm.DB, kind Kind) *gorm.DB {
	parentColumn, nameColumn := "parent_id", "name"
	if kind == KindFile {
		parentColumn, nameColumn = "folder_id", "original_filename"
	}

	query = query.Where("account_id = ? AND is_deleted = ?", c.AccountID, false)
	if c.ParentID == nil {
		query = query.Where(parentColumn + " IS NULL")
	} else {
		query = query.Where(parentColumn+" = ?", *c.ParentID)
	}
	if c.Name != "" {
		query = query.Where(nameColumn+" = ?", c.Name)
	}
	if len(c.Statuses) > 0 {
		query = query.Where("status IN ?", c.Statuses)
	}
	return query
}

// GormCatalog stores the tree in the folders/files tables and their brand access join tables.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func folderNode(f *models.Folder) Node {
	return Node{
		ID:             f.ID,
		Kind:           KindFolder,
		AccountID:      f.AccountID,
		ParentID:       f.ParentID,
		OwnerID:        f.OwnerID,
		Name:           f.Name,
		AllowAllBrands: f.AllowAllBrands,
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
	}
}

func fileNode(f *models.File) Node {
	return Node{
		ID:               f.ID,
		Kind:             KindFile,
		AccountID:        f.AccountID,
		ParentID:         f.FolderID,
		OwnerID:          f.OwnerID,
		Name:             f.Name,
		OriginalFilename: f.OriginalFilename,
		AllowAllBrands:   f.AllowAllBrands,
		Status:           f.Status,
		StorageKey:       f.StorageKey,
		ContentType:      f.ContentType,
		Size:             f.Size,
		CreatedAt:        f.CreatedAt,
	}
}

func (c *GormCatalog) GetNode(ctx context.Context, accountID string, kind Kind, id string) (*Node, error) {
	query := c.db.WithContext(ctx).Where("id = ? AND account_id = ? AND is_deleted = ?", id, accountID, false)

	var (
		node Node
		err  error
	)
	switch kind {
	case KindFolder:
		var folder models.Folder
		if err = query.First(&folder).Error; err == nil {
			node = folderNode(&folder)
		}
	case KindFile:
		var file models.File
		if err = query.First(&file).Error; err == nil {
			node = fileNode(&file)
		}
	default:
		return nil, fmt.Errorf("%w: node kind %q", common.ErrInvalidInput, kind)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNodeNotFound, kind, id)
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *GormCatalog) GetChildren(ctx context.Context, accountID string, parentID *string) ([]Node, []Node, error) {
	criteria := NodeCriteria{AccountID: accountID, ParentID: parentID}
	db := c.db.WithContext(ctx)

	var folders []models.Folder
	if err := criteria.apply(db.Model(&models.Folder{}), KindFolder).Order("name ASC, id ASC").Find(&folders).Error; err != nil {
		return nil, nil, err
	}
	var files []models.File
	if err := criteria.apply(db.Model(&models.File{}), KindFile).Order("name ASC, id ASC").Find(&files).Error; err != nil {
		return nil, nil, err
	}

	folderNodes := make([]Node, 0, len(folders))
	for i := range folders {
		folderNodes = append(folderNodes, folderNode(&folders[i]))
	}
	fileNodes := make([]Node, 0, len(files))
	for i := range files {
		fileNodes = append(fileNodes, fileNode(&files[i]))
	}
	return folderNodes, fileNodes, nil
}

func (c *GormCatalog) GetBrandSet(ctx context.Context, kind Kind, id string) ([]string, error) {
	sets, err := c.GetBrandSets(ctx, kind, []string{id})
	if err != nil {
		return nil, err
	}
	return sets[id], nil
}

func (c *GormCatalog) GetBrandSets(ctx context.Context, kind Kind, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	db := c.db.WithContext(ctx)
	switch kind {
	case KindFolder:
		var rows []models.FolderBrandAccess
		if err := db.Where("folder_id IN ?", ids).Order("brand_id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.FolderID] = append(out[r.FolderID], r.BrandID)
		}
	case KindFile:
		var rows []models.FileBrandAccess
		if err := db.Where("file_id IN ?", ids).Order("brand_id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.FileID] = append(out[r.FileID], r.BrandID)
		}
	default:
		return nil, fmt.Errorf("%w: node kind %q", common.ErrInvalidInput, kind)
	}
	return out, nil
}

// SetBrandSet replaces the node's brand rows. An empty set removes them all.
func (c *GormCatalog) SetBrandSet(ctx context.Context, kind Kind, id string, brandIDs []string) error {
	db := c.db.WithContext(ctx)
	switch kind {
	case KindFolder:
		if err := db.Where("folder_id = ?", id).Delete(&models.FolderBrandAccess{}).Error; err != nil {
			return err
		}
		if len(brandIDs) == 0 {
			return nil
		}
		rows := make([]models.FolderBrandAccess, 0, len(brandIDs))
		for _, b := range brandIDs {
			rows = append(rows, models.FolderBrandAccess{FolderID: id, BrandID: b})
		}
		return db.CreateInBatches(&rows, 100).Error
	case KindFile:
		if err := db.Where("file_id = ?", id).Delete(&models.FileBrandAccess{}).Error; err != nil {
			return err
		}
		if len(brandIDs) == 0 {
			return nil
		}
		rows := make([]models.FileBrandAccess, 0, len(brandIDs))
		for _, b := range brandIDs {
			rows = append(rows, models.FileBrandAccess{FileID: id, BrandID: b})
		}
		return db.CreateInBatches(&rows, 100).Error
	}
	return fmt.Errorf("%w: node kind %q", common.ErrInvalidInput, kind)
}

func (c *GormCatalog) SetMode(ctx context.Context, kind Kind, id string, allowAllBrands bool) error {
	var model interface{}
	switch kind {
	case KindFolder:
		model = &models.Folder{}
	case KindFile:
		model = &models.File{}
	default:
		return fmt.Errorf("%w: node kind %q", common.ErrInvalidInput, kind)
	}

	result := c.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("allow_all_brands", allowAllBrands)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", common.ErrNodeNotFound, kind, id)
	}
	return nil
}

func (c *GormCatalog) CreateNode(ctx context.Context, n *Node) error {
	db := c.db.WithContext(ctx)
	switch n.Kind {
	case KindFolder:
		folder := &models.Folder{
			AccountID:      n.AccountID,
			ParentID:       n.ParentID,
			OwnerID:        n.OwnerID,
			Name:           n.Name,
			AllowAllBrands: n.AllowAllBrands,
			Status:         n.Status,
		}
		folder.ID = n.ID
		if err := db.Create(folder).Error; err != nil {
			return err
		}
		n.ID, n.CreatedAt = folder.ID, folder.CreatedAt
	case KindFile:
		file := &models.File{
			AccountID:        n.AccountID,
			FolderID:         n.ParentID,
			OwnerID:          n.OwnerID,
			Name:             n.Name,
			OriginalFilename: n.OriginalFilename,
			StorageKey:       n.StorageKey,
			ContentType:      n.ContentType,
			Size:             n.Size,
			AllowAllBrands:   n.AllowAllBrands,
			Status:           n.Status,
		}
		file.ID = n.ID
		if err := db.Create(file).Error; err != nil {
			return err
		}
		n.ID, n.CreatedAt = file.ID, file.CreatedAt
	default:
		return fmt.Errorf("%w: node kind %q", common.ErrInvalidInput, n.Kind)
	}
	return nil
}

func (c *GormCatalog) NameTaken(ctx context.Context, accountID string, kind Kind, parentID *string, name string) (bool, error) {
	var model interface{} = &models.Folder{}
	if kind == KindFile {
		model = &models.File{}
	}

	var count int64
	criteria := NodeCriteria{AccountID: accountID, ParentID: parentID, Name: name}
	if err := criteria.apply(c.db.WithContext(ctx).Model(model), kind).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *GormCatalog) UnknownBrands(ctx context.Context, accountID string, brandIDs []string) ([]string, error) {
	if len(brandIDs) == 0 {
		return nil, nil
	}
	var known []string
	if err := c.db.WithContext(ctx).Model(&models.Brand{}).
		Where("account_id = ? AND id IN ? AND is_deleted = ?", accountID, brandIDs, false).
		Pluck("id", &known).Error; err != nil {
		return nil, err
	}
	return missing(brandIDs, known), nil
}

// Atomically runs fn in a transaction holding the account's advisory lock, so ACL
// writes within one account are serialised until commit.
func (c *GormCatalog) Atomically(ctx context.Context, accountID string, fn func(Catalog) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", accountID).Error; err != nil {
			return fmt.Errorf("failed to lock account %s: %w", accountID, err)
		}
		return fn(&GormCatalog{db: tx})
	})
}

// Snapshot runs fn in a read-only REPEATABLE READ transaction.
func (c *GormCatalog) Snapshot(ctx context.Context, fn func(Catalog) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormCatalog{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}
