package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/tracker"
)

type breakRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

func (h *Handler) ListEntries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 500 {
			badRequest(c, "limit must be between 0 and 500")
			return
		}
		limit = n
	}
	entries, err := h.tracker.RecentEntries(c.Request.Context(), userID(c), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entries)
}

func (h *Handler) GetEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.tracker.Entry(c.Request.Context(), userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *Handler) CreateEntry(c *gin.Context) {
	var req tracker.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	entry, err := h.tracker.CreateManualEntry(c.Request.Context(), userID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *Handler) UpdateEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req tracker.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	entry, err := h.tracker.UpdateManualEntry(c.Request.Context(), userID(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.tracker.DeleteEntry(c.Request.Context(), userID(c), id); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) AddBreak(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, ok := bindBreak(c)
	if !ok {
		return
	}
	entry, err := h.tracker.AddBreak(c.Request.Context(), userID(c), id, *req.StartTime, req.EndTime)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *Handler) UpdateBreak(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, ok := bindBreak(c)
	if !ok {
		return
	}
	entry, err := h.tracker.UpdateBreak(c.Request.Context(), userID(c), id, *req.StartTime, req.EndTime)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *Handler) DeleteBreak(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.tracker.DeleteBreak(c.Request.Context(), userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

func bindBreak(c *gin.Context) (breakRequest, bool) {
	var req breakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return req, false
	}
	if req.StartTime == nil {
		badRequest(c, "break start time is required")
		return req, false
	}
	return req, true
}

func (h *Handler) GetSettings(c *gin.Context) {
	us, err := h.tracker.GetSettings(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, us)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch store.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	us, err := h.tracker.UpdateSettings(c.Request.Context(), userID(c), patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, us)
}
