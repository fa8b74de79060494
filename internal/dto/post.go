package dto

import (
	"time"

	"github.com/realsbd/bicxchange/internal/model"
)

type PostIn struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Content     string  `json:"content"`
	CommunityID *string `json:"community_id" binding:"omitempty,uuid"`
}

type PostOut struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	UserID      string    `json:"user_id"`
	CommunityID *string   `json:"community_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PostsOut struct {
	Data  []PostOut `json:"data"`
	Count int64     `json:"count"`
}

type PostListQuery struct {
	ListQuery
	CommunityID string `form:"community_id" binding:"omitempty,uuid"`
}

func NewPostOut(p *model.Post) PostOut {
	return PostOut{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		UserID:      p.UserID,
		CommunityID: p.CommunityID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewPostsOut(posts []model.Post, count int64) PostsOut {
	out := PostsOut{Data: make([]PostOut, 0, len(posts)), Count: count}
	for i := range posts {
		out.Data = append(out.Data, NewPostOut(&posts[i]))
	}
	return out
}
