package model

type Post struct {
	Base
	Title       string  `gorm:"size:200;not null"`
	Content     string  `gorm:"type:text"`
	UserID      string  `gorm:"size:36;not null;index:idx_posts_user"`
	CommunityID *string `gorm:"size:36;index:idx_posts_community"`
}

func (Post) TableName() string { return "posts" }
