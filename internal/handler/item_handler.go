package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/middleware"
	"github.com/realsbd/bicxchange/internal/service"
)

type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.ItemIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	it, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewItemOut(it))
}

func (h *ItemHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, err)
		return
	}
	skip, limit := q.Window()
	items, count, err := h.svc.List(c.Request.Context(), middleware.CallerFrom(c), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewItemsOut(items, count))
}

func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	it, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewItemOut(it))
}

func (h *ItemHandler) Replace(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.ItemIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	it, err := h.svc.Replace(c.Request.Context(), middleware.CallerFrom(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewItemOut(it))
}

func (h *ItemHandler) Delete(c *gin.Context) {
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
