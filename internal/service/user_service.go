package service

import (
	"context"
	"crypto/rand"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

const (
	msgUserNotFound = "User not found"
	msgEmailTaken   = "The user with this email already exists in the system"
)

type UserService struct {
	repo     *db.UserRepository
	sessions SessionStore
	events   notifier
	log      zerolog.Logger
}

// NewUserService wires user management. sessions may be nil; when set, a
// password change or deletion ends the user's stored session.
func NewUserService(repo *db.UserRepository, sessions SessionStore, pub pkg.Publisher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, sessions: sessions, events: newNotifier(pub, log), log: log}
}

// Register signs up a regular user. The scope is always [user].
func (s *UserService) Register(ctx context.Context, in dto.UserRegister) (*model.User, error) {
	u := &model.User{Email: in.Email, IsActive: true, Scope: model.Roles{model.RoleUser}}
	in.UserProfile.Apply(u)
	if err := s.create(ctx, u, in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// Create adds a user as an admin. A missing password is replaced by a random one.
func (s *UserService) Create(ctx context.Context, in dto.UserIn) (*model.User, error) {
	u := &model.User{
		Email:    in.Email,
		IsActive: true,
		Verified: in.Verified,
		Scope:    model.Roles(in.Scope),
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if len(u.Scope) == 0 {
		u.Scope = model.Roles{model.RoleUser}
	}
	in.UserProfile.Apply(u)

	password := in.Password
	if password == "" {
		password = rand.Text()
	}
	if err := s.create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, u *model.User, password string) error {
	if err := s.ensureEmailFree(ctx, u.Email, ""); err != nil {
		return err
	}
	if err := u.SetPassword(password); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return conflict(err, msgEmailTaken)
	}
	s.log.Info().Str("user_id", u.ID).Msg("user created")
	s.events.emit(ctx, EventUserCreated, u.ID, map[string]any{"email": u.Email})
	return nil
}

// ensureEmailFree fails when email belongs to a user other than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return newError(ErrConflict, msgEmailTaken)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgUserNotFound)
	}
	return u, nil
}

// GetFor returns the user id as seen by caller: users read themselves, admins read anyone.
func (s *UserService) GetFor(ctx context.Context, caller Caller, id string) (*model.User, error) {
	if caller.ID != id && !caller.IsAdmin() {
		return nil, newError(ErrForbidden, "The user doesn't have enough privileges")
	}
	return s.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]model.User, int64, error) {
	return s.repo.List(ctx, skip, limit)
}

func (s *UserService) ReplaceMe(ctx context.Context, id string, in dto.UserUpdateMe) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, u.ID); err != nil {
		return nil, err
	}
	u.Email = in.Email
	in.UserProfile.Apply(u)
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, conflict(err, msgEmailTaken)
	}
	return u, nil
}

// Replace overwrites a user as an admin. The password only changes when given.
func (s *UserService) Replace(ctx context.Context, id string, in dto.UserUpdate) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, u.ID); err != nil {
		return nil, err
	}
	u.Email = in.Email
	u.IsActive = in.IsActive
	u.Verified = in.Verified
	u.Scope = model.Roles(in.Scope)
	in.UserProfile.Apply(u)
	if in.Password != "" {
		if err := u.SetPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, conflict(err, msgEmailTaken)
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id string, in dto.UpdatePassword) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !u.CheckPassword(in.CurrentPassword) {
		return newError(ErrBadRequest, "Incorrect password")
	}
	if in.CurrentPassword == in.NewPassword {
		return newError(ErrBadRequest, "New password cannot be the same as the current one")
	}
	if err := u.SetPassword(in.NewPassword); err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, u, u.Password); err != nil {
		return err
	}
	return s.endSession(ctx, u.ID)
}

func (s *UserService) endSession(ctx context.Context, id string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// Delete removes another user as an admin. Admins cannot delete themselves here.
func (s *UserService) Delete(ctx context.Context, caller Caller, id string) error {
	if caller.ID == id {
		return newError(ErrForbidden, "Super users are not allowed to delete themselves")
	}
	return s.delete(ctx, id)
}

func (s *UserService) DeleteMe(ctx context.Context, caller Caller) error {
	if caller.IsAdmin() {
		return newError(ErrForbidden, "Super users are not allowed to delete themselves")
	}
	return s.delete(ctx, caller.ID)
}

func (s *UserService) delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, msgUserNotFound)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	s.events.emit(ctx, EventUserDeleted, id, nil)
	if err := s.endSession(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("end session of deleted user")
	}
	return nil
}

// EnsureAdmin makes sure the configured administrator exists and holds the
// admin role. An existing password is left alone.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = &model.User{
			Email:    email,
			IsActive: true,
			Verified: true,
			Scope:    model.Roles{model.RoleUser, model.RoleAdmin},
		}
		if err := s.create(ctx, u, password); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() && u.IsActive {
		return u, nil
	}
	if !u.IsAdmin() {
		u.Scope = append(u.Scope, model.RoleAdmin)
	}
	u.IsActive = true
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
