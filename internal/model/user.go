package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Password     string `gorm:"column:password;size:255;not null"`
	Username     string `gorm:"size:255"`
	FirstName    string `gorm:"size:255"`
	LastName     string `gorm:"size:255"`
	PhoneNumber  string `gorm:"size:255"`
	Gender       string `gorm:"size:255"`
	DateOfBirth  string `gorm:"size:255"`
	Avatar       string `gorm:"size:255"`
	Level        string `gorm:"size:255"`
	CGPA         string `gorm:"column:cgpa;size:255"`
	MatricNumber string `gorm:"size:255"`
	Institution  string `gorm:"size:255"`
	Faculty      string `gorm:"size:255"`
	Department   string `gorm:"size:255"`
	IsActive     bool   `gorm:"not null"`
	Verified     bool   `gorm:"not null"`
	Scope        Roles  `gorm:"serializer:json;type:text;not null"`
	Items        []Item `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Posts        []Post `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Scope) == 0 {
		u.Scope = Roles{RoleUser}
	}
	return u.Base.BeforeCreate(tx)
}

// SetPassword stores the bcrypt hash of plain, never plain itself.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Scope.Has(RoleAdmin)
}
