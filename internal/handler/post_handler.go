package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/middleware"
	"github.com/realsbd/bicxchange/internal/service"
)

type PostHandler struct {
	svc *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dto.PostIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewPostOut(p))
}

// List reads ?community_id= to narrow the feed to one community.
func (h *PostHandler) List(c *gin.Context) {
	var q dto.PostListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, err)
		return
	}
	skip, limit := q.Window()
	posts, count, err := h.svc.List(c.Request.Context(), q.CommunityID, skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostsOut(posts, count))
}

func (h *PostHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostOut(p))
}

func (h *PostHandler) Replace(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.PostIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	p, err := h.svc.Replace(c.Request.Context(), middleware.CallerFrom(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostOut(p))
}

func (h *PostHandler) Delete(c *gin.Context) {
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
