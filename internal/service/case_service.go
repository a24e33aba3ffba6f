// Package service reconciles case queries against the store, the read
// cache and the court fetch adapter.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JustJay7/court-case-tracker/internal/cache"
	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/internal/metrics"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

const (
	// DefaultFetchTimeout bounds a single adapter call.
	DefaultFetchTimeout = 30 * time.Second

	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// CaseStore is the part of database.Store the case service needs.
type CaseStore interface {
	FindByCanonicalKey(ctx context.Context, key string) (*database.CaseRecord, error)
	UpsertByCanonicalKey(ctx context.Context, key string, rec *database.CaseRecord) (*database.CaseRecord, error)
	RecentCases(ctx context.Context, offset, limit int) ([]database.CaseRecord, int64, error)
}

// Options tunes the services. Zero values pick the defaults.
type Options struct {
	FetchTimeout time.Duration
	DefaultCourt string
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// CaseService answers case queries, fetching from the court at most once
// per case at a time.
type CaseService struct {
	store   CaseStore
	cache   cache.Cache
	adapter fetcher.Adapter
	logger  *logger.Logger
	opts    Options

	flights singleflight.Group
}

// NewCaseService wires the case query service. A nil cache disables
// caching.
func NewCaseService(store CaseStore, c cache.Cache, adapter fetcher.Adapter, log *logger.Logger, opts Options) *CaseService {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &CaseService{
		store:   store,
		cache:   c,
		adapter: adapter,
		logger:  log,
		opts:    opts.withDefaults(),
	}
}

// GetOrFetch returns the stored record for id, fetching it from the court
// when there is no successful record yet. Fetch failures come back as a
// stored record with Success false, not as an error.
func (s *CaseService) GetOrFetch(ctx context.Context, id caseid.Identifier) (*database.CaseRecord, error) {
	id = id.Normalize()
	if id.CourtName == "" {
		id.CourtName = s.opts.DefaultCourt
	}
	if err := id.Validate(s.opts.Now()); err != nil {
		metrics.CaseLookups.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	key := id.CanonicalKey()

	if rec, ok := s.cache.Get(ctx, key); ok && rec.Success {
		metrics.CaseLookups.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		return rec, nil
	}

	// The flight is not cancelled when this caller goes away.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.resolve(flightCtx, key, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*database.CaseRecord).Clone(), nil
	}
}

func (s *CaseService) resolve(ctx context.Context, key string, id caseid.Identifier) (*database.CaseRecord, error) {
	existing, err := s.store.FindByCanonicalKey(ctx, key)
	switch {
	case err == nil && existing.Success:
		metrics.CaseLookups.WithLabelValues(metrics.OutcomeStoreHit).Inc()
		s.warm(ctx, key, existing)
		return existing, nil
	case err != nil && !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	rec := s.fetch(ctx, key, id)

	saved, err := s.store.UpsertByCanonicalKey(ctx, key, rec)
	if err != nil {
		return nil, err
	}

	if saved.Success {
		metrics.CaseLookups.WithLabelValues(metrics.OutcomeFetched).Inc()
		s.warm(ctx, key, saved)
	} else {
		metrics.CaseLookups.WithLabelValues(metrics.OutcomeFetchError).Inc()
	}
	return saved, nil
}

// fetch calls the adapter and turns its answer into a record ready to
// upsert.
func (s *CaseService) fetch(ctx context.Context, key string, id caseid.Identifier) *database.CaseRecord {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	rec := &database.CaseRecord{
		CaseNumber: key,
		CourtName:  id.CourtName,
		CaseType:   id.CaseType,
		Year:       id.Year,
	}

	started := time.Now()
	data, err := s.adapter.FetchCase(fetchCtx, id)
	if err == nil && data == nil {
		err = fetcher.Malformed(errors.New("adapter returned no data"))
	}
	if err != nil {
		ferr := fetcher.Classify(err)
		metrics.ObserveAdapter("fetch_case", ferr.Kind.String(), started)
		s.logger.Warn("Case fetch failed",
			"case", key,
			"kind", ferr.Kind.String(),
			"error", err,
		)
		msg := ferr.SafeMessage()
		rec.Success = false
		rec.ErrorMessage = &msg
		return rec
	}

	metrics.ObserveAdapter("fetch_case", "ok", started)
	s.logger.Info("Case fetched", "case", key, "duration", time.Since(started).String())

	rec.Success = true
	rec.CaseTitle = data.CaseTitle
	rec.Petitioner = data.Petitioner
	rec.Respondent = data.Respondent
	rec.CaseStatus = data.CaseStatus
	rec.FilingDate = data.FilingDate
	rec.NextHearingDate = data.NextHearingDate
	rec.JudgeName = optional(data.JudgeName)
	rec.JudgmentURL = optional(data.JudgmentURL)
	rec.RawResponse = string(data.Raw)
	return rec
}

func (s *CaseService) warm(ctx context.Context, key string, rec *database.CaseRecord) {
	if err := s.cache.Set(ctx, key, rec); err != nil {
		s.logger.Warn("Failed to cache case", "case", key, "error", err)
	}
}

// Lookup reads a stored record by canonical case number without contacting
// the court. It returns database.ErrNotFound when nothing is stored.
func (s *CaseService) Lookup(ctx context.Context, caseNumber string) (*database.CaseRecord, error) {
	key := strings.TrimSpace(caseNumber)
	if id, err := caseid.Parse(key); err == nil {
		key = id.CanonicalKey()
	}
	if key == "" {
		return nil, &caseid.ValidationError{Field: "case_number", Message: "must not be empty"}
	}
	return s.store.FindByCanonicalKey(ctx, key)
}

// RecentPage is one page of recently updated records.
type RecentPage struct {
	Cases []database.CaseRecord `json:"cases"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// Recent lists stored records, most recently updated first. page starts
// at 1.
func (s *CaseService) Recent(ctx context.Context, page, limit int) (*RecentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	cases, total, err := s.store.RecentCases(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []database.CaseRecord{}
	}
	return &RecentPage{Cases: cases, Total: total, Page: page, Limit: limit}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
