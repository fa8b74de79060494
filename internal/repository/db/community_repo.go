package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/model"
)

type CommunityRepository struct {
	DB *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository { return &CommunityRepository{DB: db} }

func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

// List returns every community, oldest first.
func (r *CommunityRepository) List(ctx context.Context) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *CommunityRepository) Save(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

// Delete hard-deletes the community; posts that referenced it keep existing without one.
func (r *CommunityRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).
			Where("community_id = ?", id).
			Update("community_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Community{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
