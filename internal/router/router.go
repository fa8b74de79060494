package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/realsbd/bicxchange/internal/handler"
	"github.com/realsbd/bicxchange/internal/middleware"
	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/service"
)

type Deps struct {
	Log       zerolog.Logger
	TokenPath string

	Tokens *pkg.TokenManager
	// Sessions and Limiter are nil when redis is not configured.
	Sessions service.SessionStore
	Limiter  middleware.Limiter
	Requests int
	Window   time.Duration

	Auth        *service.AuthService
	Users       *service.UserService
	Communities *service.CommunityService
	Items       *service.ItemService
	Posts       *service.PostService
	Ping        func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Log), middleware.Recovery(d.Log))

	auth := handler.NewAuthHandler(d.Auth)
	user := handler.NewUserHandler(d.Users)
	community := handler.NewCommunityHandler(d.Communities)
	item := handler.NewItemHandler(d.Items)
	post := handler.NewPostHandler(d.Posts)
	health := handler.NewHealthHandler(d.Ping)

	authed := middleware.Authorize(d.Tokens, d.Sessions)
	admin := middleware.Authorize(d.Tokens, d.Sessions, model.RoleAdmin)
	limit := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, d.Requests, d.Window, middleware.ByClientIP(scope), d.Log)
	}

	r.GET("/health", health.Health)

	api := r.Group("/api/v1")
	api.GET("/health", health.Health)

	// the login path is configurable and lives at the api root
	tokenPath := d.TokenPath
	if tokenPath == "" {
		tokenPath = "api/v1/auth/token"
	}
	r.POST("/"+tokenPath, limit("login"), auth.Login)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", authed, auth.Logout)
		authGroup.POST("/password-recovery/:email", limit("recovery"), auth.RecoverPassword)
		authGroup.POST("/reset-password", auth.ResetPassword)
	}

	userGroup := api.Group("/users")
	{
		userGroup.POST("/signup", limit("signup"), user.Signup)
		userGroup.POST("", admin, user.Create)
		userGroup.GET("", admin, user.List)
		userGroup.GET("/me", authed, user.Me)
		userGroup.PUT("/me", authed, user.UpdateMe)
		userGroup.PATCH("/me/password", authed, user.UpdatePassword)
		userGroup.DELETE("/me", authed, user.DeleteMe)
		userGroup.GET("/:id", authed, user.Get)
		userGroup.PUT("/:id", admin, user.Replace)
		userGroup.DELETE("/:id", admin, user.Delete)
	}

	communityGroup := api.Group("/community")
	{
		communityGroup.POST("", admin, community.Create)
		communityGroup.GET("", community.List)
		communityGroup.GET("/:id", authed, community.Get)
		communityGroup.PUT("/:id", admin, community.Replace)
		communityGroup.DELETE("/:id", admin, community.Delete)
	}

	itemGroup := api.Group("/items", authed)
	{
		itemGroup.POST("", item.Create)
		itemGroup.GET("", item.List)
		itemGroup.GET("/:id", item.Get)
		itemGroup.PUT("/:id", item.Replace)
		itemGroup.DELETE("/:id", item.Delete)
	}

	postGroup := api.Group("/posts", authed)
	{
		postGroup.POST("", post.Create)
		postGroup.GET("", post.List)
		postGroup.GET("/:id", post.Get)
		postGroup.PUT("/:id", post.Replace)
		postGroup.DELETE("/:id", post.Delete)
	}

	return r
}
