package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/middleware"
	"github.com/realsbd/bicxchange/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Signup is the public registration endpoint.
func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.UserRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserOut(u))
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.UserIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserOut(u))
}

func (h *UserHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, err)
		return
	}
	skip, limit := q.Window()
	users, count, err := h.svc.List(c.Request.Context(), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUsersOut(users, count))
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserOut(u))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UserUpdateMe
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.svc.ReplaceMe(c.Request.Context(), middleware.CallerFrom(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserOut(u))
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req dto.UpdatePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.CallerFrom(c).ID, req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message{Msg: "Password updated successfully"})
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.svc.DeleteMe(c.Request.Context(), middleware.CallerFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message{Msg: "User deleted successfully"})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	u, err := h.svc.GetFor(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserOut(u))
}

func (h *UserHandler) Replace(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.svc.Replace(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserOut(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
