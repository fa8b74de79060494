package service

import (
	"context"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

const msgPostNotFound = "Post not found"

type PostService struct {
	posts       *db.PostRepository
	communities *db.CommunityRepository
}

func NewPostService(posts *db.PostRepository, communities *db.CommunityRepository) *PostService {
	return &PostService{posts: posts, communities: communities}
}

func (s *PostService) Create(ctx context.Context, caller Caller, in dto.PostIn) (*model.Post, error) {
	if err := s.checkCommunity(ctx, in.CommunityID); err != nil {
		return nil, err
	}
	p := &model.Post{Title: in.Title, Content: in.Content, UserID: caller.ID, CommunityID: in.CommunityID}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, ownerGone(err)
	}
	return p, nil
}

func (s *PostService) checkCommunity(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.communities.FindByID(ctx, *id); err != nil {
		return notFound(err, msgCommunityNotFound)
	}
	return nil
}

func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgPostNotFound)
	}
	return p, nil
}

// List returns posts newest first, optionally limited to one community.
func (s *PostService) List(ctx context.Context, communityID string, skip, limit int) ([]model.Post, int64, error) {
	return s.posts.List(ctx, communityID, skip, limit)
}

func (s *PostService) editable(ctx context.Context, caller Caller, id string) (*model.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != caller.ID && !caller.IsAdmin() {
		return nil, errNoPermission
	}
	return p, nil
}

func (s *PostService) Replace(ctx context.Context, caller Caller, id string, in dto.PostIn) (*model.Post, error) {
	p, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCommunity(ctx, in.CommunityID); err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Content = in.Content
	p.CommunityID = in.CommunityID
	if err := s.posts.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.editable(ctx, caller, id); err != nil {
		return err
	}
	return notFound(s.posts.Delete(ctx, id), msgPostNotFound)
}
