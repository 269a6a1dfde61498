package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/punchclock/internal/export"
	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/store"
)

const dateLayout = "2006-01-02"

type shareRequest struct {
	ReportType    store.ReportType `json:"reportType"`
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	ExpiresInDays *int             `json:"expiresInDays"`
}

// reportQuery reads type, and either start+end or an anchor date, from the
// query string. Without dates the range around today (user timezone) is used.
func (h *Handler) reportQuery(c *gin.Context) (store.ReportType, time.Time, time.Time, bool) {
	typ := store.ReportType(c.DefaultQuery("type", string(store.ReportDaily)))
	if !typ.Valid() {
		badRequest(c, "report type must be daily, weekly or monthly")
		return "", time.Time{}, time.Time{}, false
	}

	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" || endRaw != "" {
		start, err1 := time.Parse(dateLayout, startRaw)
		end, err2 := time.Parse(dateLayout, endRaw)
		if err1 != nil || err2 != nil {
			badRequest(c, "start and end must be dates in YYYY-MM-DD format")
			return "", time.Time{}, time.Time{}, false
		}
		return typ, start, end, true
	}

	var anchor time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(c, "date must be in YYYY-MM-DD format")
			return "", time.Time{}, time.Time{}, false
		}
		anchor = d
	} else {
		loc, err := h.tracker.Location(c.Request.Context(), userID(c))
		if err != nil {
			respondErr(c, err)
			return "", time.Time{}, time.Time{}, false
		}
		anchor = h.clock.Now().In(loc)
	}
	start, end := report.RangeFor(typ, anchor)
	return typ, start, end, true
}

func (h *Handler) Report(c *gin.Context) {
	typ, start, end, ok := h.reportQuery(c)
	if !ok {
		return
	}
	rep, err := h.reports.Generate(c.Request.Context(), userID(c), typ, start, end)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, rep)
}

func (h *Handler) ExportReport(c *gin.Context) {
	typ, start, end, ok := h.reportQuery(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		badRequest(c, "format must be csv or json")
		return
	}
	rep, err := h.reports.Generate(c.Request.Context(), userID(c), typ, start, end)
	if err != nil {
		respondErr(c, err)
		return
	}

	filename := fmt.Sprintf("punchclock-%s-%s.%s", rep.StartDate, rep.EndDate, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if format == "json" {
		c.Header("Content-Type", "application/json")
		c.Status(http.StatusOK)
		err = export.WriteJSON(c.Writer, rep)
	} else {
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		err = export.WriteCSV(c.Writer, rep)
	}
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "write export", "err", err)
	}
}

func (h *Handler) ListShares(c *gin.Context) {
	shares, err := h.reports.List(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, shares)
}

func (h *Handler) IssueShare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	start, err1 := time.Parse(dateLayout, req.StartDate)
	end, err2 := time.Parse(dateLayout, req.EndDate)
	if err1 != nil || err2 != nil {
		badRequest(c, "startDate and endDate must be dates in YYYY-MM-DD format")
		return
	}

	ctx := c.Request.Context()
	days := 0
	if req.ExpiresInDays != nil {
		days = *req.ExpiresInDays
	} else {
		us, err := h.tracker.GetSettings(ctx, userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		days = us.ShareDurationDays
	}

	share, err := h.reports.Issue(ctx, userID(c), req.ReportType, start, end, days)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, share)
}

func (h *Handler) RevokeShare(c *gin.Context) {
	token := c.Param("token")
	if err := h.reports.Revoke(c.Request.Context(), token, userID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"revoked": token})
}

func (h *Handler) ResolveShare(c *gin.Context) {
	shared, err := h.reports.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, shared)
}
