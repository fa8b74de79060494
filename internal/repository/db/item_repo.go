package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/model"
)

type ItemRepository struct {
	DB *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository { return &ItemRepository{DB: db} }

func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List pages through items; an empty ownerID lists everyone's.
func (r *ItemRepository) List(ctx context.Context, ownerID string, skip, limit int) ([]model.Item, int64, error) {
	var (
		list  []model.Item
		count int64
	)
	q := r.DB.WithContext(ctx).Model(&model.Item{})
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at ASC, id ASC").Offset(skip).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

func (r *ItemRepository) Save(ctx context.Context, item *model.Item) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
