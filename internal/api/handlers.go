package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/JustJay7/court-case-tracker/internal/cache"
	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/internal/recent"
	"github.com/JustJay7/court-case-tracker/internal/service"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

const (
	maxBulkQueries  = 10
	bulkConcurrency = 4

	recentCookieMaxAge = 30 * 24 * 60 * 60
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers
type Handlers struct {
	cases     *service.CaseService
	causeList *service.CauseListService
	db        Pinger
	cache     cache.Cache
	logger    *logger.Logger
	cfg       *config.Config
	now       func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(cases *service.CaseService, causeList *service.CauseListService, db Pinger, c cache.Cache, log *logger.Logger, cfg *config.Config) *Handlers {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &Handlers{
		cases:     cases,
		causeList: causeList,
		db:        db,
		cache:     c,
		logger:    log,
		cfg:       cfg,
		now:       time.Now,
	}
}

type caseRequest struct {
	CaseNumber string `json:"case_number"`
	CourtName  string `json:"court_name"`
	CaseType   string `json:"case_type,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// identifier reads case_number as a canonical string unless the type and
// year are sent separately.
func (r caseRequest) identifier() (caseid.Identifier, error) {
	if strings.TrimSpace(r.CaseType) != "" && r.Year != 0 {
		return caseid.Identifier{
			CaseType:   r.CaseType,
			CaseNumber: r.CaseNumber,
			Year:       r.Year,
			CourtName:  r.CourtName,
		}, nil
	}
	id, err := caseid.Parse(r.CaseNumber)
	if err != nil {
		return caseid.Identifier{}, err
	}
	id.CourtName = r.CourtName
	return id, nil
}

// SearchCase handles a case query, fetching from the court when nothing
// successful is stored yet.
func (h *Handlers) SearchCase(c *gin.Context) {
	var req caseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	id, err := req.identifier()
	if err != nil {
		h.respondError(c, err)
		return
	}

	rec, err := h.cases.GetOrFetch(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.rememberSearch(c, id.Normalize(), rec.CourtName)
	c.JSON(http.StatusOK, rec)
}

// BulkSearchAPI runs up to ten case queries with bounded concurrency.
// Every query gets its own result; one failure does not fail the batch.
func (h *Handlers) BulkSearchAPI(c *gin.Context) {
	var req struct {
		Queries []caseRequest `json:"queries"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}
	if len(req.Queries) == 0 || len(req.Queries) > maxBulkQueries {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "queries must hold between 1 and 10 entries",
			"field":   "queries",
		})
		return
	}

	ctx := c.Request.Context()
	results := make([]gin.H, len(req.Queries))

	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, q := range req.Queries {
		i, q := i, q
		g.Go(func() error {
			data := gin.H{"query": q}
			id, err := q.identifier()
			if err == nil {
				var rec *database.CaseRecord
				rec, err = h.cases.GetOrFetch(ctx, id)
				if err == nil {
					data["success"] = rec.Success
					data["data"] = rec
				}
			}
			if err != nil {
				_, msg, _ := h.describeError(err)
				data["success"] = false
				data["error"] = msg
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

// GetCase returns the stored record for a canonical case number without
// contacting the court.
func (h *Handlers) GetCase(c *gin.Context) {
	caseNumber := strings.TrimPrefix(c.Param("case_number"), "/")

	rec, err := h.cases.Lookup(c.Request.Context(), caseNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rec,
	})
}

// ListCasesAPI returns stored records, most recently updated first
func (h *Handlers) ListCasesAPI(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.cases.Recent(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Cases,
		"pagination": gin.H{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
		},
	})
}

// RecentSearches returns the searches recorded in the client's cookie.
func (h *Handlers) RecentSearches(c *gin.Context) {
	list := h.recentList(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
	})
}

// CaseTypes lists the supported case types
func (h *Handlers) CaseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    caseid.Types(),
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.db.Ping(ctx) == nil
	status, code := "healthy", http.StatusOK
	if !dbHealthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbHealthy,
		"cache":    h.cache.Stats(ctx),
		"adapter":  h.cfg.Adapter,
		"time":     h.now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.cache.Stats(c.Request.Context()),
	})
}

func (h *Handlers) recentList(c *gin.Context) recent.List {
	value, err := c.Cookie(recent.CookieName)
	if err != nil {
		return recent.List{}
	}
	list, err := recent.Decode(value)
	if err != nil {
		h.logger.Debug("Discarding unreadable recent searches cookie", "error", err)
		c.SetCookie(recent.CookieName, "", -1, "/", "", false, true)
		return recent.List{}
	}
	return list
}

func (h *Handlers) rememberSearch(c *gin.Context, id caseid.Identifier, courtName string) {
	list := h.recentList(c).Add(recent.Entry{
		CaseType:   id.CaseType,
		CaseNumber: id.CaseNumber,
		Year:       id.Year,
		CourtName:  courtName,
		SearchDate: h.now().UTC(),
	})
	value, err := list.Encode()
	if err != nil {
		h.logger.Warn("Failed to encode recent searches", "error", err)
		return
	}
	c.SetCookie(recent.CookieName, value, recentCookieMaxAge, "/", "", false, true)
}

// describeError maps an error to a status code and a message safe to show
// a client. field is set for validation errors.
func (h *Handlers) describeError(err error) (code int, msg, field string) {
	var verr *caseid.ValidationError
	var ferr *fetcher.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error(), verr.Field
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Case not found", ""
	case errors.As(err, &ferr):
		return http.StatusBadGateway, ferr.SafeMessage(), ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request was cancelled before it completed", ""
	default:
		h.logger.Error("Request failed", "error", err)
		return http.StatusInternalServerError, "Internal server error", ""
	}
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	code, msg, field := h.describeError(err)
	body := gin.H{
		"success": false,
		"error":   msg,
	}
	if field != "" {
		body["field"] = field
	}
	c.JSON(code, body)
}
