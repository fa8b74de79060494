package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

const projectName = "bicxchange"

type AuthConfig struct {
	// ServerHost prefixes the reset link in recovery mails.
	ServerHost string
}

type AuthService struct {
	users    *db.UserRepository
	tokens   *pkg.TokenManager
	sessions SessionStore
	mailer   pkg.Mailer
	cfg      AuthConfig
	log      zerolog.Logger
}

// NewAuthService wires the login flow. sessions may be nil, in which case
// tokens are stateless and logout is a no-op.
func NewAuthService(users *db.UserRepository, tokens *pkg.TokenManager, sessions SessionStore, mailer pkg.Mailer, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if mailer == nil {
		mailer = pkg.NewLogMailer(log)
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*pkg.Pair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, newError(ErrInactiveUser, "Inactive user")
	}
	return s.issue(ctx, u)
}

// Refresh trades a refresh token for a new pair carrying the user's current scope.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Could not validate credentials")
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, newError(ErrInactiveUser, "Inactive user")
	}
	return s.issue(ctx, u)
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*pkg.Pair, error) {
	pair, err := s.tokens.GeneratePair(u.ID, u.Scope.Strings())
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Add(ctx, u.ID, pair.AccessToken); err != nil {
			return nil, err
		}
	}
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, userID)
}

// RecoverPassword mails a reset link to email.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return notFound(err, "The user with this email does not exist in the system")
	}

	token, err := s.tokens.GenerateReset(u.Email)
	if err != nil {
		return err
	}
	link := s.cfg.ServerHost + "/reset-password?token=" + url.QueryEscape(token)
	body := pkg.ResetPasswordHTML(projectName, u.Email, link, s.tokens.ResetTTL())
	if err := s.mailer.Send(ctx, u.Email, projectName+" - Password recovery for user "+u.Email, body); err != nil {
		return err
	}
	s.log.Info().Str("user_id", u.ID).Msg("password recovery sent")
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in dto.NewPassword) error {
	email, err := s.tokens.ParseReset(in.Token)
	if err != nil {
		return newError(ErrBadRequest, "Invalid token")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return notFound(err, "The user with this email does not exist in the system")
	}
	if !u.IsActive {
		return newError(ErrBadRequest, "Inactive user")
	}
	if err := u.SetPassword(in.Password); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u, u.Password); err != nil {
		return err
	}
	return s.Logout(ctx, u.ID)
}
