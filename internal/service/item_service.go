package service

import (
	"context"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

const msgItemNotFound = "Item not found"

// ItemService scopes every item to its owner; admins see and edit all items.
type ItemService struct {
	repo *db.ItemRepository
}

func NewItemService(repo *db.ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

func (s *ItemService) Create(ctx context.Context, caller Caller, in dto.ItemIn) (*model.Item, error) {
	it := &model.Item{Title: in.Title, Description: in.Description, OwnerID: caller.ID}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, ownerGone(err)
	}
	return it, nil
}

func (s *ItemService) Get(ctx context.Context, caller Caller, id string) (*model.Item, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgItemNotFound)
	}
	if it.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, errNoPermission
	}
	return it, nil
}

func (s *ItemService) List(ctx context.Context, caller Caller, skip, limit int) ([]model.Item, int64, error) {
	owner := caller.ID
	if caller.IsAdmin() {
		owner = ""
	}
	return s.repo.List(ctx, owner, skip, limit)
}

func (s *ItemService) Replace(ctx context.Context, caller Caller, id string, in dto.ItemIn) (*model.Item, error) {
	it, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	it.Title = in.Title
	it.Description = in.Description
	if err := s.repo.Save(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *ItemService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return notFound(s.repo.Delete(ctx, id), msgItemNotFound)
}
