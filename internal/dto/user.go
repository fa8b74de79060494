package dto

import (
	"time"

	"github.com/realsbd/bicxchange/internal/model"
)

// UserProfile holds the free-form profile and institution fields.
type UserProfile struct {
	FirstName    string `json:"firstName" binding:"max=255"`
	LastName     string `json:"lastName" binding:"max=255"`
	Username     string `json:"username" binding:"max=255"`
	PhoneNumber  string `json:"phone_number" binding:"max=255"`
	Gender       string `json:"gender" binding:"max=255"`
	DateOfBirth  string `json:"date_of_birth" binding:"max=255"`
	Avatar       string `json:"avatar" binding:"max=255"`
	Level        string `json:"level" binding:"max=255"`
	CGPA         string `json:"cgpa" binding:"max=255"`
	MatricNumber string `json:"matric_number" binding:"max=255"`
	Institution  string `json:"institution" binding:"max=255"`
	Faculty      string `json:"faculty" binding:"max=255"`
	Department   string `json:"department" binding:"max=255"`
}

// Apply overwrites every profile column of u.
func (p UserProfile) Apply(u *model.User) {
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Username = p.Username
	u.PhoneNumber = p.PhoneNumber
	u.Gender = p.Gender
	u.DateOfBirth = p.DateOfBirth
	u.Avatar = p.Avatar
	u.Level = p.Level
	u.CGPA = p.CGPA
	u.MatricNumber = p.MatricNumber
	u.Institution = p.Institution
	u.Faculty = p.Faculty
	u.Department = p.Department
}

func profileOf(u *model.User) UserProfile {
	return UserProfile{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		PhoneNumber:  u.PhoneNumber,
		Gender:       u.Gender,
		DateOfBirth:  u.DateOfBirth,
		Avatar:       u.Avatar,
		Level:        u.Level,
		CGPA:         u.CGPA,
		MatricNumber: u.MatricNumber,
		Institution:  u.Institution,
		Faculty:      u.Faculty,
		Department:   u.Department,
	}
}

// UserIn is the admin create shape. An empty password is replaced by a random one.
type UserIn struct {
	UserProfile
	Email    string       `json:"email" binding:"required,email,max=255"`
	Password string       `json:"password" binding:"omitempty,min=8,max=40"`
	IsActive *bool        `json:"is_active"`
	Verified bool         `json:"verified"`
	Scope    []model.Role `json:"scope" binding:"omitempty,dive,oneof=user admin"`
}

// UserRegister is the public signup shape; scope is always [user].
type UserRegister struct {
	UserProfile
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=40"`
}

// UserUpdate replaces a user row as an admin. Password is only changed when set.
type UserUpdate struct {
	UserProfile
	Email    string       `json:"email" binding:"required,email,max=255"`
	Password string       `json:"password" binding:"omitempty,min=8,max=40"`
	IsActive bool         `json:"is_active"`
	Verified bool         `json:"verified"`
	Scope    []model.Role `json:"scope" binding:"required,min=1,dive,oneof=user admin"`
}

type UserUpdateMe struct {
	UserProfile
	Email string `json:"email" binding:"required,email,max=255"`
}

type UpdatePassword struct {
	CurrentPassword string `json:"current_password" binding:"required,min=8,max=40"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=40"`
}

type PasswordsIn struct {
	Password        string `json:"password" binding:"required,min=8,max=40"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func (p PasswordsIn) Match() bool {
	return p.Password == p.ConfirmPassword
}

// NewPassword completes a password reset started by a recovery mail.
type NewPassword struct {
	PasswordsIn
	Token string `json:"token" binding:"required"`
}

type UserOut struct {
	UserProfile
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Email     string       `json:"email"`
	IsActive  bool         `json:"is_active"`
	Verified  bool         `json:"verified"`
	Scope     []model.Role `json:"scope"`
}

type UsersOut struct {
	Data  []UserOut `json:"data"`
	Count int64     `json:"count"`
}

func NewUserOut(u *model.User) UserOut {
	scope := []model.Role(u.Scope)
	if scope == nil {
		scope = []model.Role{}
	}
	return UserOut{
		UserProfile: profileOf(u),
		ID:          u.ID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Verified:    u.Verified,
		Scope:       scope,
	}
}

func NewUsersOut(users []model.User, count int64) UsersOut {
	out := UsersOut{Data: make([]UserOut, 0, len(users)), Count: count}
	for i := range users {
		out.Data = append(out.Data, NewUserOut(&users[i]))
	}
	return out
}
