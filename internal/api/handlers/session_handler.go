package handlers

import (
	"net/http"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	state, err := h.service.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) SaveSession(c *gin.Context) {
	var state session.State
	if err := c.ShouldBindJSON(&state); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	state.ID = c.Param("id")

	saved, err := h.service.Save(c.Request.Context(), state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
