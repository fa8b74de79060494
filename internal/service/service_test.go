package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/db"
	"github.com/realsbd/bicxchange/internal/repository/redis"
	"github.com/realsbd/bicxchange/internal/service"
	"github.com/realsbd/bicxchange/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []pkg.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev pkg.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type sentMail struct{ to, subject, body string }

type captureMailer struct{ sent []sentMail }

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func newTokens(t *testing.T) *pkg.TokenManager {
	t.Helper()
	m, err := pkg.NewTokenManager(pkg.TokenConfig{
		Secret:     "service-test-secret-key",
		Algorithm:  "HS512",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		ResetTTL:   5 * time.Minute,
	})
	require.NoError(t, err)
	return m
}

func TestCommunityCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := service.NewCommunityService(db.NewCommunityRepository(testutil.NewDB(t)), pub, zerolog.Nop())

	_, err := svc.Create(ctx, dto.CommunityIn{Name: "Chess"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CommunityIn{Name: "Chess", Description: "again"})
	require.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, "Community already exists", err.Error())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Description)
	assert.Equal(t, []string{service.EventCommunityCreated}, pub.types())
}

func TestCommunityUnknownID(t *testing.T) {
	ctx := context.Background()
	svc := service.NewCommunityService(db.NewCommunityRepository(testutil.NewDB(t)), nil, zerolog.Nop())

	_, err := svc.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), service.ErrNotFound)
	_, err = svc.Replace(ctx, "missing", dto.CommunityIn{Name: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCommunityListReturnsEachOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := service.NewCommunityService(db.NewCommunityRepository(testutil.NewDB(t)), pub, zerolog.Nop())

	ids := map[string]bool{}
	for _, name := range []string{"Go", "Rust", "Zig", "Chess"} {
		c, err := svc.Create(ctx, dto.CommunityIn{Name: name})
		require.NoError(t, err)
		ids[c.ID] = true
	}
	gone, err := svc.Create(ctx, dto.CommunityIn{Name: "Temp"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, gone.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	seen := map[string]int{}
	for _, c := range list {
		seen[c.ID]++
	}
	assert.Len(t, list, len(ids))
	for id := range ids {
		assert.Equal(t, 1, seen[id], id)
	}
	assert.Contains(t, pub.types(), service.EventCommunityDeleted)
}

func TestCommunityReplace(t *testing.T) {
	ctx := context.Background()
	svc := service.NewCommunityService(db.NewCommunityRepository(testutil.NewDB(t)), nil, zerolog.Nop())

	a, err := svc.Create(ctx, dto.CommunityIn{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, dto.CommunityIn{Name: "B"})
	require.NoError(t, err)

	_, err = svc.Replace(ctx, a.ID, dto.CommunityIn{Name: "B"})
	assert.ErrorIs(t, err, service.ErrConflict)

	got, err := svc.Replace(ctx, a.ID, dto.CommunityIn{Name: "A", Description: "first letter"})
	require.NoError(t, err)
	assert.Equal(t, "first letter", got.Description)
}

func TestUserRegisterHashesPassword(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	pub := &recordingPublisher{}
	svc := service.NewUserService(db.NewUserRepository(gdb), nil, pub, zerolog.Nop())

	u, err := svc.Register(ctx, dto.UserRegister{
		UserProfile: dto.UserProfile{FirstName: "Ada", Institution: "Uni"},
		Email:       "ada@x.io",
		Password:    "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Roles{model.RoleUser}, u.Scope)

	stored, err := db.NewUserRepository(gdb).FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.Password)
	assert.True(t, stored.CheckPassword("correct-horse"))
	assert.True(t, stored.IsActive)
	assert.Equal(t, "Uni", stored.Institution)

	_, err = svc.Register(ctx, dto.UserRegister{Email: "ada@x.io", Password: "another-pass"})
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, []string{service.EventUserCreated}, pub.types())
}

func TestUserCreateAsAdmin(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(db.NewUserRepository(testutil.NewDB(t)), nil, nil, zerolog.Nop())

	inactive := false
	u, err := svc.Create(ctx, dto.UserIn{Email: "bob@x.io", IsActive: &inactive, Scope: []model.Role{model.RoleAdmin}})
	require.NoError(t, err)
	assert.NotEmpty(t, u.Password)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.IsAdmin())

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUserGetFor(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(db.NewUserRepository(testutil.NewDB(t)), nil, nil, zerolog.Nop())
	a, err := svc.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, dto.UserRegister{Email: "b@x.io", Password: "password-b"})
	require.NoError(t, err)

	_, err = svc.GetFor(ctx, service.Caller{ID: a.ID, Scope: a.Scope}, a.ID)
	assert.NoError(t, err)
	_, err = svc.GetFor(ctx, service.Caller{ID: a.ID, Scope: a.Scope}, b.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = svc.GetFor(ctx, service.Caller{ID: "admin", Scope: model.Roles{model.RoleAdmin}}, b.ID)
	assert.NoError(t, err)
}

func TestUserReplace(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(db.NewUserRepository(testutil.NewDB(t)), nil, nil, zerolog.Nop())
	a, err := svc.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, dto.UserRegister{Email: "b@x.io", Password: "password-b"})
	require.NoError(t, err)

	_, err = svc.ReplaceMe(ctx, a.ID, dto.UserUpdateMe{Email: "b@x.io"})
	assert.ErrorIs(t, err, service.ErrConflict)

	me, err := svc.ReplaceMe(ctx, a.ID, dto.UserUpdateMe{Email: "a2@x.io", UserProfile: dto.UserProfile{Faculty: "Science"}})
	require.NoError(t, err)
	assert.Equal(t, "a2@x.io", me.Email)
	assert.Equal(t, "Science", me.Faculty)

	up, err := svc.Replace(ctx, a.ID, dto.UserUpdate{Email: "a2@x.io", IsActive: true, Scope: []model.Role{model.RoleUser, model.RoleAdmin}, Password: "rotated-pass"})
	require.NoError(t, err)
	assert.True(t, up.IsAdmin())
	assert.Empty(t, up.Faculty)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("rotated-pass"))
}

func TestUserChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(db.NewUserRepository(testutil.NewDB(t)), nil, nil, zerolog.Nop())
	u, err := svc.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, dto.UpdatePassword{CurrentPassword: "wrong-pass", NewPassword: "password-b"})
	assert.ErrorIs(t, err, service.ErrBadRequest)

	err = svc.ChangePassword(ctx, u.ID, dto.UpdatePassword{CurrentPassword: "password-a", NewPassword: "password-a"})
	assert.ErrorIs(t, err, service.ErrBadRequest)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, dto.UpdatePassword{CurrentPassword: "password-a", NewPassword: "password-b"}))
	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("password-b"))
	assert.NotEqual(t, "password-b", got.Password)
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := service.NewUserService(db.NewUserRepository(testutil.NewDB(t)), nil, pub, zerolog.Nop())
	admin, err := svc.EnsureAdmin(ctx, "root@x.io", "admin-password")
	require.NoError(t, err)
	u, err := svc.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)

	adminCaller := service.Caller{ID: admin.ID, Scope: admin.Scope}
	assert.ErrorIs(t, svc.Delete(ctx, adminCaller, admin.ID), service.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteMe(ctx, adminCaller), service.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, adminCaller, "missing"), service.ErrNotFound)

	require.NoError(t, svc.DeleteMe(ctx, service.Caller{ID: u.ID, Scope: u.Scope}))
	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Contains(t, pub.types(), service.EventUserDeleted)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	svc := service.NewUserService(db.NewUserRepository(gdb), nil, nil, zerolog.Nop())

	first, err := svc.EnsureAdmin(ctx, "root@x.io", "admin-password")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin())
	assert.True(t, first.Verified)

	second, err := svc.EnsureAdmin(ctx, "root@x.io", "other-password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CheckPassword("admin-password"))

	plain, err := svc.Register(ctx, dto.UserRegister{Email: "promote@x.io", Password: "password-a"})
	require.NoError(t, err)
	promoted, err := svc.EnsureAdmin(ctx, "promote@x.io", "ignored-pass")
	require.NoError(t, err)
	assert.Equal(t, plain.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin())
	assert.True(t, promoted.Scope.Has(model.RoleUser))
}

type authFixture struct {
	auth   *service.AuthService
	users  *service.UserService
	tokens *pkg.TokenManager
	mailer *captureMailer
	store  *redis.TokenRepository
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	client, _ := testutil.NewRedis(t)
	store := redis.NewTokenRepository(client, time.Minute)
	f := authFixture{
		tokens: newTokens(t),
		mailer: &captureMailer{},
		store:  store,
		users:  service.NewUserService(db.NewUserRepository(gdb), store, nil, zerolog.Nop()),
	}
	f.auth = service.NewAuthService(db.NewUserRepository(gdb), f.tokens, f.store, f.mailer,
		service.AuthConfig{ServerHost: "http://localhost:8080"}, zerolog.Nop())
	return f
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@x.io", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@x.io", "password-a")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	pair, err := f.auth.Login(ctx, "a@x.io", "password-a")
	require.NoError(t, err)
	claims, err := f.tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, []string{"user"}, claims.Scope)

	stored, err := f.store.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, stored)

	require.NoError(t, f.auth.Logout(ctx, u.ID))
	_, err = f.store.Get(ctx, u.ID)
	assert.ErrorIs(t, err, redis.ErrTokenNotFound)
}

func TestLoginInactive(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	inactive := false
	_, err := f.users.Create(ctx, dto.UserIn{Email: "off@x.io", Password: "password-a", IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "off@x.io", "password-a")
	assert.ErrorIs(t, err, service.ErrInactiveUser)
}

func TestRefreshUsesCurrentScope(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	pair, err := f.auth.Login(ctx, "a@x.io", "password-a")
	require.NoError(t, err)

	_, err = f.users.EnsureAdmin(ctx, u.Email, "unused-pass")
	require.NoError(t, err)

	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := f.tokens.ParseAccess(next.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "admin"}, claims.Scope)

	_, err = f.auth.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestPasswordRecoveryAndReset(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.auth.RecoverPassword(ctx, "nobody@x.io"), service.ErrNotFound)
	require.NoError(t, f.auth.RecoverPassword(ctx, "a@x.io"))
	require.Len(t, f.mailer.sent, 1)
	mail := f.mailer.sent[0]
	assert.Equal(t, "a@x.io", mail.to)
	assert.Contains(t, mail.body, "http://localhost:8080/reset-password?token=")

	token, err := f.tokens.GenerateReset("a@x.io")
	require.NoError(t, err)

	bad := dto.NewPassword{Token: "garbage", PasswordsIn: dto.PasswordsIn{Password: "password-new", ConfirmPassword: "password-new"}}
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, bad), service.ErrBadRequest)

	good := dto.NewPassword{Token: token, PasswordsIn: dto.PasswordsIn{Password: "password-new", ConfirmPassword: "password-new"}}
	require.NoError(t, f.auth.ResetPassword(ctx, good))

	_, err = f.auth.Login(ctx, u.Email, "password-a")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, u.Email, "password-new")
	assert.NoError(t, err)
}

func TestChangePasswordEndsSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "a@x.io", "password-a")
	require.NoError(t, err)

	require.NoError(t, f.users.ChangePassword(ctx, u.ID, dto.UpdatePassword{
		CurrentPassword: "password-a",
		NewPassword:     "password-b",
	}))
	_, err = f.store.Get(ctx, u.ID)
	assert.ErrorIs(t, err, redis.ErrTokenNotFound)
}

func TestDeleteMeEndsSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "a@x.io", "password-a")
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteMe(ctx, service.Caller{ID: u.ID, Scope: u.Scope}))
	_, err = f.store.Get(ctx, u.ID)
	assert.ErrorIs(t, err, redis.ErrTokenNotFound)
}

func TestCreateForDeletedOwner(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	users := service.NewUserService(db.NewUserRepository(gdb), nil, nil, zerolog.Nop())
	items := service.NewItemService(db.NewItemRepository(gdb))
	posts := service.NewPostService(db.NewPostRepository(gdb), db.NewCommunityRepository(gdb))

	u, err := users.Register(ctx, dto.UserRegister{Email: "gone@x.io", Password: "password-a"})
	require.NoError(t, err)
	caller := service.Caller{ID: u.ID, Scope: u.Scope}
	require.NoError(t, users.DeleteMe(ctx, caller))

	_, err = items.Create(ctx, caller, dto.ItemIn{Title: "ghost"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = posts.Create(ctx, caller, dto.PostIn{Title: "ghost"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestLogoutWithoutSessions(t *testing.T) {
	gdb := testutil.NewDB(t)
	auth := service.NewAuthService(db.NewUserRepository(gdb), newTokens(t), nil, nil, service.AuthConfig{}, zerolog.Nop())
	assert.NoError(t, auth.Logout(context.Background(), "anyone"))
}

func TestItemOwnership(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	users := service.NewUserService(db.NewUserRepository(gdb), nil, nil, zerolog.Nop())
	items := service.NewItemService(db.NewItemRepository(gdb))

	a, err := users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	b, err := users.Register(ctx, dto.UserRegister{Email: "b@x.io", Password: "password-b"})
	require.NoError(t, err)
	alice := service.Caller{ID: a.ID, Scope: a.Scope}
	bob := service.Caller{ID: b.ID, Scope: b.Scope}
	admin := service.Caller{ID: "root", Scope: model.Roles{model.RoleUser, model.RoleAdmin}}

	it, err := items.Create(ctx, alice, dto.ItemIn{Title: "bike"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, it.OwnerID)
	_, err = items.Create(ctx, bob, dto.ItemIn{Title: "book"})
	require.NoError(t, err)

	_, err = items.Get(ctx, bob, it.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = items.Replace(ctx, bob, it.ID, dto.ItemIn{Title: "stolen"})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, items.Delete(ctx, bob, it.ID), service.ErrForbidden)

	_, count, err := items.List(ctx, alice, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	_, count, err = items.List(ctx, admin, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	up, err := items.Replace(ctx, admin, it.ID, dto.ItemIn{Title: "e-bike"})
	require.NoError(t, err)
	assert.Equal(t, "e-bike", up.Title)
	assert.Equal(t, a.ID, up.OwnerID)

	require.NoError(t, items.Delete(ctx, alice, it.ID))
	_, err = items.Get(ctx, alice, it.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPostRules(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	users := service.NewUserService(db.NewUserRepository(gdb), nil, nil, zerolog.Nop())
	communities := service.NewCommunityService(db.NewCommunityRepository(gdb), nil, zerolog.Nop())
	posts := service.NewPostService(db.NewPostRepository(gdb), db.NewCommunityRepository(gdb))

	a, err := users.Register(ctx, dto.UserRegister{Email: "a@x.io", Password: "password-a"})
	require.NoError(t, err)
	alice := service.Caller{ID: a.ID, Scope: a.Scope}
	other := service.Caller{ID: "someone-else", Scope: model.Roles{model.RoleUser}}

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = posts.Create(ctx, alice, dto.PostIn{Title: "lost", CommunityID: &missing})
	assert.ErrorIs(t, err, service.ErrNotFound)

	c, err := communities.Create(ctx, dto.CommunityIn{Name: "Go"})
	require.NoError(t, err)
	p, err := posts.Create(ctx, alice, dto.PostIn{Title: "generics", Content: strings.Repeat("x", 10), CommunityID: &c.ID})
	require.NoError(t, err)
	_, err = posts.Create(ctx, alice, dto.PostIn{Title: "loose"})
	require.NoError(t, err)

	list, count, err := posts.List(ctx, c.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, p.ID, list[0].ID)

	_, err = posts.Replace(ctx, other, p.ID, dto.PostIn{Title: "hijack"})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, posts.Delete(ctx, other, p.ID), service.ErrForbidden)

	require.NoError(t, communities.Delete(ctx, c.ID))
	got, err := posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CommunityID)

	require.NoError(t, posts.Delete(ctx, alice, p.ID))
	_, err = posts.Get(ctx, p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
