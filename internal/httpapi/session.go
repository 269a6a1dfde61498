package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SessionState(c *gin.Context) {
	state, err := h.tracker.ActiveState(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, state)
}

func (h *Handler) StartSession(c *gin.Context) {
	entry, err := h.tracker.Start(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *Handler) StartBreak(c *gin.Context) {
	b, err := h.tracker.StartBreak(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, b)
}

func (h *Handler) EndBreak(c *gin.Context) {
	b, err := h.tracker.EndBreak(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

func (h *Handler) EndSession(c *gin.Context) {
	entry, err := h.tracker.End(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}
