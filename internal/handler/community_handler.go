package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realsbd/bicxchange/internal/dto"
	"github.com/realsbd/bicxchange/internal/service"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req dto.CommunityIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	community, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCommunityOut(community))
}

func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCommunitiesOut(list))
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	community, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCommunityOut(community))
}

func (h *CommunityHandler) Replace(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.CommunityIn
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	community, err := h.svc.Replace(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCommunityOut(community))
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
