package model

type Item struct {
	Base
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:255"`
	OwnerID     string `gorm:"size:36;not null;index"`
}

func (Item) TableName() string { return "items" }
