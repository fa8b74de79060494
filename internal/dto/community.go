package dto

import "github.com/realsbd/bicxchange/internal/model"

type CommunityIn struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=255"`
	Image       string `json:"image" binding:"max=255"`
}

type CommunityOut struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func NewCommunityOut(c *model.Community) CommunityOut {
	return CommunityOut{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
	}
}

func NewCommunitiesOut(list []model.Community) []CommunityOut {
	out := make([]CommunityOut, 0, len(list))
	for i := range list {
		out = append(out, NewCommunityOut(&list[i]))
	}
	return out
}
