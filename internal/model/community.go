package model

type Community struct {
	Base
	Name        string `gorm:"uniqueIndex;size:255;not null"`
	Description string `gorm:"size:255"`
	Image       string `gorm:"size:255"`
}

func (Community) TableName() string { return "communities" }
