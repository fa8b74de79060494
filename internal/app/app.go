// Package app wires the configured backends into a ready HTTP handler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/config"
	"github.com/realsbd/bicxchange/internal/migrate"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/repository/db"
	"github.com/realsbd/bicxchange/internal/repository/redis"
	"github.com/realsbd/bicxchange/internal/router"
	"github.com/realsbd/bicxchange/internal/service"
)

type App struct {
	Cfg    *config.Config
	Log    zerolog.Logger
	DB     *gorm.DB
	Redis  *goredis.Client
	Events pkg.Publisher
	Tokens *pkg.TokenManager
	Users  *service.UserService
	Router http.Handler
}

// Build opens every backend named by cfg. On failure whatever was opened is closed again.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, log := a.Cfg, a.Log

	var err error
	a.DB, err = db.Open(cfg.DBURL, log)
	if err != nil {
		return err
	}
	if err := prepareSchema(ctx, a.DB, cfg, log); err != nil {
		return err
	}

	var (
		sessions service.SessionStore
		limiter  *redis.RateLimitRepository
	)
	if cfg.Redis.Addr != "" {
		a.Redis, err = redis.Init(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		sessions = redis.NewTokenRepository(a.Redis, cfg.TokenExpire)
		limiter = redis.NewRateLimitRepository(a.Redis)
	} else {
		log.Warn().Msg("redis not configured, sessions are stateless and rate limiting is off")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.Events, err = pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return err
		}
	} else {
		a.Events = pkg.NewLogPublisher(log)
	}

	var mailer pkg.Mailer = pkg.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		mailer = pkg.NewSMTPMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.Admin.Email,
			Password: cfg.Admin.EmailToken,
		})
	}

	a.Tokens, err = pkg.NewTokenManager(pkg.TokenConfig{
		Secret:     cfg.SecretKey,
		Algorithm:  cfg.Algorithm,
		AccessTTL:  cfg.TokenExpire,
		RefreshTTL: cfg.RefreshExpire,
		ResetTTL:   cfg.ResetExpire,
	})
	if err != nil {
		return err
	}

	userRepo := db.NewUserRepository(a.DB)
	communityRepo := db.NewCommunityRepository(a.DB)
	a.Users = service.NewUserService(userRepo, sessions, a.Events, log)
	auth := service.NewAuthService(userRepo, a.Tokens, sessions, mailer, service.AuthConfig{ServerHost: cfg.ServerHost}, log)

	if _, err = a.Users.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	deps := router.Deps{
		Log:         log,
		TokenPath:   cfg.TokenPath,
		Tokens:      a.Tokens,
		Sessions:    sessions,
		Requests:    cfg.RateLimit.Requests,
		Window:      cfg.RateLimit.Window,
		Auth:        auth,
		Users:       a.Users,
		Communities: service.NewCommunityService(communityRepo, a.Events, log),
		Items:       service.NewItemService(db.NewItemRepository(a.DB)),
		Posts:       service.NewPostService(db.NewPostRepository(a.DB), communityRepo),
		Ping:        a.ping,
	}
	// a nil *RateLimitRepository must not become a non-nil interface
	if limiter != nil {
		deps.Limiter = limiter
	}
	a.Router = router.New(deps)
	return nil
}

// prepareSchema drops the tables in throwaway environments, then brings the
// schema up to date with either gorm's AutoMigrate or the versioned scripts.
func prepareSchema(ctx context.Context, gdb *gorm.DB, cfg *config.Config, log zerolog.Logger) error {
	if cfg.ShouldDropTables() {
		log.Warn().Str("env", cfg.Env).Msg("dropping all tables")
		if err := db.DropAll(gdb.WithContext(ctx)); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(gdb.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	m, err := migrate.New(gdb)
	if err != nil {
		return err
	}
	ran, err := m.Up(ctx)
	for _, v := range ran {
		log.Info().Str("version", v).Msg("migration applied")
	}
	return err
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	errs = append(errs, redis.Close(a.Redis), db.Close(a.DB))
	return errors.Join(errs...)
}
