package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

const (
	msgCommunityNotFound = "Community not found"
	msgCommunityExists   = "Community already exists"
)

type CommunityService struct {
	repo   *db.CommunityRepository
	events notifier
	log    zerolog.Logger
}

func NewCommunityService(repo *db.CommunityRepository, pub pkg.Publisher, log zerolog.Logger) *CommunityService {
	return &CommunityService{repo: repo, events: newNotifier(pub, log), log: log}
}

// Create checks the name before inserting, so a duplicate never writes a row.
func (s *CommunityService) Create(ctx context.Context, in dto.CommunityIn) (*model.Community, error) {
	if err := s.ensureNameFree(ctx, in.Name, ""); err != nil {
		return nil, err
	}
	c := &model.Community{Name: in.Name, Description: in.Description, Image: in.Image}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, conflict(err, msgCommunityExists)
	}
	s.log.Info().Str("community_id", c.ID).Str("name", c.Name).Msg("community created")
	s.events.emit(ctx, EventCommunityCreated, c.ID, map[string]any{"name": c.Name})
	return c, nil
}

func (s *CommunityService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return newError(ErrConflict, msgCommunityExists)
	}
	return nil
}

func (s *CommunityService) Get(ctx context.Context, id string) (*model.Community, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgCommunityNotFound)
	}
	return c, nil
}

func (s *CommunityService) List(ctx context.Context) ([]model.Community, error) {
	return s.repo.List(ctx)
}

func (s *CommunityService) Replace(ctx context.Context, id string, in dto.CommunityIn) (*model.Community, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, in.Name, c.ID); err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Description = in.Description
	c.Image = in.Image
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, conflict(err, msgCommunityExists)
	}
	return c, nil
}

func (s *CommunityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, msgCommunityNotFound)
	}
	s.log.Info().Str("community_id", id).Msg("community deleted")
	s.events.emit(ctx, EventCommunityDeleted, id, nil)
	return nil
}
