package dto

import "github.com/realsbd/bicxchange/internal/model"

type ItemIn struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=255"`
}

type ItemOut struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

type ItemsOut struct {
	Data  []ItemOut `json:"data"`
	Count int64     `json:"count"`
}

func NewItemOut(it *model.Item) ItemOut {
	return ItemOut{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		OwnerID:     it.OwnerID,
	}
}

func NewItemsOut(items []model.Item, count int64) ItemsOut {
	out := ItemsOut{Data: make([]ItemOut, 0, len(items)), Count: count}
	for i := range items {
		out.Data = append(out.Data, NewItemOut(&items[i]))
	}
	return out
}
