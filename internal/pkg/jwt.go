package pkg

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeReset   = "reset"
)

type Claims struct {
	Scope []string `json:"scope,omitempty"`
	Type  string   `json:"typ"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// TokenManager signs and verifies the HMAC tokens handed to clients.
type TokenManager struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512", "":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		now:        time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

func (m *TokenManager) ResetTTL() time.Duration { return m.resetTTL }

// GeneratePair issues an access and a refresh token for subject.
func (m *TokenManager) GeneratePair(subject string, scope []string) (*Pair, error) {
	access, err := m.sign(subject, scope, TypeAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(subject, scope, TypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: m.accessTTL}, nil
}

func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, TypeAccess)
}

func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, TypeRefresh)
}

// GenerateReset issues a short-lived password reset token bound to email.
func (m *TokenManager) GenerateReset(email string) (string, error) {
	return m.sign(email, nil, TypeReset, m.resetTTL)
}

// ParseReset returns the email a reset token was issued for.
func (m *TokenManager) ParseReset(token string) (string, error) {
	claims, err := m.parse(token, TypeReset)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (m *TokenManager) sign(subject string, scope []string, typ string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Scope: scope,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

func (m *TokenManager) parse(tokenStr, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
