package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/middleware"
	"github.com/realsbd/bicxchange/internal/pkg"
	"github.com/realsbd/bicxchange/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func tokenOut(p *pkg.Pair) dto.Token {
	return dto.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
	}
}

// Login accepts the OAuth2 password form as well as a JSON body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginIn
	if err := c.ShouldBind(&req); err != nil {
		invalid(c, err)
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenOut(pair))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenOut(pair))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CallerFrom(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message{Msg: "ok"})
}

func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	var uri struct {
		Email string `uri:"email" binding:"required,email"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		invalid(c, err)
		return
	}
	if err := h.svc.RecoverPassword(c.Request.Context(), uri.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message{Msg: "Password recovery email sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.NewPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	if !req.Match() {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"msg": "Passwords do not match"})
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message{Msg: "Password updated successfully"})
}
