package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/service"
)

const defaultHistoryDays = 30

// intQuery reads an optional integer query parameter.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &caseid.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// ListCauseList returns stored cause-list rows in hearing order.
func (h *Handlers) ListCauseList(c *gin.Context) {
	limit, err := intQuery(c, "limit", service.DefaultCauseListLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	skip, err := intQuery(c, "skip", 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.causeList.Query(c.Request.Context(), service.CauseListQuery{
		CourtName:  c.Query("court_name"),
		Date:       c.Query("date"),
		CaseNumber: c.Query("case_number"),
		Limit:      limit,
		Skip:       skip,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

// FilterCauseList returns stored rows narrowed by court, judge, status,
// date range and case number. Paging takes offset, or skip as on
// /cause-list.
func (h *Handlers) FilterCauseList(c *gin.Context) {
	limit, err := intQuery(c, "limit", service.DefaultCauseListLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	offsetParam := "offset"
	if c.Query(offsetParam) == "" {
		offsetParam = "skip"
	}
	offset, err := intQuery(c, offsetParam, 0)
	if err == nil && offset < 0 {
		err = &caseid.ValidationError{Field: offsetParam, Message: "must not be negative"}
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.causeList.Filter(c.Request.Context(), service.CauseListFilter{
		CourtName:  c.Query("court_name"),
		Judge:      c.Query("judge"),
		Status:     c.Query("status"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		CaseNumber: c.Query("case_number"),
		Limit:      limit,
		Skip:       offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

type causeListEntryRequest struct {
	CourtName   string  `json:"court_name"`
	Date        string  `json:"date"`
	CaseNumber  string  `json:"case_number"`
	CaseTitle   string  `json:"case_title"`
	Petitioner  string  `json:"petitioner"`
	Respondent  string  `json:"respondent"`
	HearingTime *string `json:"hearing_time"`
	Courtroom   *string `json:"courtroom"`
	JudgeName   *string `json:"judge_name"`
	CaseStatus  string  `json:"case_status"`
	Remarks     *string `json:"remarks"`
}

// CreateCauseListEntry stores one manually entered cause-list row.
func (h *Handlers) CreateCauseListEntry(c *gin.Context) {
	var req causeListEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	entry, err := h.causeList.Create(c.Request.Context(), database.CauseListEntry{
		CourtName:   req.CourtName,
		Date:        req.Date,
		CaseNumber:  req.CaseNumber,
		CaseTitle:   req.CaseTitle,
		Petitioner:  req.Petitioner,
		Respondent:  req.Respondent,
		HearingTime: req.HearingTime,
		Courtroom:   req.Courtroom,
		JudgeName:   req.JudgeName,
		CaseStatus:  req.CaseStatus,
		Remarks:     req.Remarks,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    entry,
	})
}

// RefreshCauseList pulls a court's listing for a day from the court and
// appends the rows not stored yet.
func (h *Handlers) RefreshCauseList(c *gin.Context) {
	var req struct {
		CourtName string `json:"court_name"`
		Date      string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	written, err := h.causeList.Refresh(c.Request.Context(), req.CourtName, req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"written": written,
	})
}

// CaseHistory lists a case's cause-list appearances over the last
// days_back days.
func (h *Handlers) CaseHistory(c *gin.Context) {
	days, err := intQuery(c, "days_back", defaultHistoryDays)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if days <= 0 {
		h.respondError(c, &caseid.ValidationError{Field: "days_back", Message: "must be positive"})
		return
	}

	history, err := h.causeList.History(c.Request.Context(), c.Query("case_number"), h.causeList.DaysBack(days))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    history,
	})
}

// CauseListStatistics summarises stored rows over a date range.
func (h *Handlers) CauseListStatistics(c *gin.Context) {
	stats, err := h.causeList.Statistics(c.Request.Context(),
		c.Query("court_name"),
		c.Query("date_from"),
		c.Query("date_to"),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
