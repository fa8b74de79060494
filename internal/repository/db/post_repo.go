package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository { return &PostRepository{DB: db} }

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts newest first, optionally narrowed to one community.
func (r *PostRepository) List(ctx context.Context, communityID string, skip, limit int) ([]model.Post, int64, error) {
	var (
		list  []model.Post
		count int64
	)
	q := r.DB.WithContext(ctx).Model(&model.Post{})
	if communityID != "" {
		q = q.Where("community_id = ?", communityID)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC, id DESC").Offset(skip).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

func (r *PostRepository) Save(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Save(post).Error
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
