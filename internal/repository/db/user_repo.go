package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/realsbd/bicxchange/internal/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{DB: db} }

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]model.User, int64, error) {
	var (
		list  []model.User
		count int64
	)
	q := r.DB.WithContext(ctx).Model(&model.User{})
	q = q.Session(&gorm.Session{})
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at ASC, id ASC").Offset(skip).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

// Save writes every column of user.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User, hash string) error {
	if err := r.DB.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return err
	}
	user.Password = hash
	return nil
}

// Delete removes the user together with the items and posts it owns.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&model.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
