package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/internal/metrics"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

const (
	DefaultCauseListLimit = 50
	MaxCauseListLimit     = 500

	dateLayout           = "2006-01-02"
	defaultStatisticDays = 30
)

// CauseListStore is the part of database.Store the cause-list service
// needs.
type CauseListStore interface {
	ListCauseList(ctx context.Context, courtName, date string, skip, limit int) ([]database.CauseListEntry, error)
	CreateCauseListEntry(ctx context.Context, entry *database.CauseListEntry) error
	InsertCauseListEntries(ctx context.Context, entries []database.CauseListEntry) (int, error)
	FindCauseListDuplicates(ctx context.Context, entries []database.CauseListEntry) (map[database.DuplicateKey]struct{}, error)
	CauseListForCase(ctx context.Context, caseNumber, since string) ([]database.CauseListEntry, error)
	CauseListMatching(ctx context.Context, fragment, since string) ([]database.CauseListEntry, error)
	CauseListFiltered(ctx context.Context, f database.CauseListFilter) ([]database.CauseListEntry, error)
	CauseListRange(ctx context.Context, courtName, from, to string) ([]database.CauseListEntry, error)
}

type CauseListQuery struct {
	CourtName  string
	Date       string
	CaseNumber string
	Limit      int
	Skip       int
}

// HighlightedEntry is a cause-list row with a flag telling whether it
// matched the queried case number.
type HighlightedEntry struct {
	database.CauseListEntry
	Highlighted bool `json:"highlighted"`
}

type CauseListService struct {
	store   CauseListStore
	adapter fetcher.Adapter
	logger  *logger.Logger
	opts    Options

	flights singleflight.Group
}

func NewCauseListService(store CauseListStore, adapter fetcher.Adapter, log *logger.Logger, opts Options) *CauseListService {
	return &CauseListService{
		store:   store,
		adapter: adapter,
		logger:  log,
		opts:    opts.withDefaults(),
	}
}

// Query lists stored entries in hearing order. The case number only marks
// matching rows; it never filters.
func (s *CauseListService) Query(ctx context.Context, q CauseListQuery) ([]HighlightedEntry, error) {
	limit, err := pageLimit(q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	q.Limit = limit
	q.CourtName = strings.TrimSpace(q.CourtName)
	q.Date = strings.TrimSpace(q.Date)
	if q.Date != "" {
		if err := validateDate("date", q.Date); err != nil {
			return nil, err
		}
	}

	entries, err := s.store.ListCauseList(ctx, q.CourtName, q.Date, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.CaseNumber))
	out := make([]HighlightedEntry, len(entries))
	for i, e := range entries {
		out[i] = HighlightedEntry{
			CauseListEntry: e,
			Highlighted:    needle != "" && strings.Contains(strings.ToLower(e.CaseNumber), needle),
		}
	}
	return out, nil
}

// CauseListFilter narrows a cause-list listing. Empty fields match every
// row; Judge and CaseNumber match substrings case-insensitively, Status
// matches exactly.
type CauseListFilter struct {
	CourtName  string
	Judge      string
	Status     string
	DateFrom   string
	DateTo     string
	CaseNumber string
	Limit      int
	Skip       int
}

// Filter lists cause-list rows matching f, ordered like Query.
func (s *CauseListService) Filter(ctx context.Context, f CauseListFilter) ([]database.CauseListEntry, error) {
	limit, err := pageLimit(f.Skip, f.Limit)
	if err != nil {
		return nil, err
	}

	dateFrom := strings.TrimSpace(f.DateFrom)
	dateTo := strings.TrimSpace(f.DateTo)
	if dateFrom != "" {
		if err := validateDate("date_from", dateFrom); err != nil {
			return nil, err
		}
	}
	if dateTo != "" {
		if err := validateDate("date_to", dateTo); err != nil {
			return nil, err
		}
	}
	if dateFrom != "" && dateTo != "" && dateFrom > dateTo {
		return nil, &caseid.ValidationError{Field: "date_from", Message: "must not be after date_to"}
	}

	entries, err := s.store.CauseListFiltered(ctx, database.CauseListFilter{
		CourtName:  strings.TrimSpace(f.CourtName),
		Judge:      strings.TrimSpace(f.Judge),
		Status:     strings.TrimSpace(f.Status),
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		CaseNumber: strings.TrimSpace(f.CaseNumber),
		Skip:       f.Skip,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []database.CauseListEntry{}
	}
	return entries, nil
}

// pageLimit checks paging parameters and returns the effective limit.
func pageLimit(skip, limit int) (int, error) {
	if skip < 0 {
		return 0, &caseid.ValidationError{Field: "skip", Message: "must not be negative"}
	}
	switch {
	case limit < 0:
		return 0, &caseid.ValidationError{Field: "limit", Message: "must not be negative"}
	case limit == 0:
		return DefaultCauseListLimit, nil
	case limit > MaxCauseListLimit:
		return MaxCauseListLimit, nil
	}
	return limit, nil
}

// Refresh fetches the cause list for a court and date and stores the rows
// not already known. It returns how many rows were written. Adapter
// failures are returned as *fetcher.Error.
func (s *CauseListService) Refresh(ctx context.Context, courtName, date string) (int, error) {
	courtName = strings.TrimSpace(courtName)
	if courtName == "" {
		courtName = s.opts.DefaultCourt
	}
	if courtName == "" {
		return 0, &caseid.ValidationError{Field: "court_name", Message: "must not be empty"}
	}
	date = strings.TrimSpace(date)
	if err := validateDate("date", date); err != nil {
		return 0, err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(courtName+"|"+date, func() (interface{}, error) {
		return s.refresh(flightCtx, courtName, date)
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

func (s *CauseListService) refresh(ctx context.Context, courtName, date string) (int, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	started := time.Now()
	items, err := s.adapter.FetchCauseList(fetchCtx, courtName, date)
	if err != nil {
		ferr := fetcher.Classify(err)
		metrics.ObserveAdapter("fetch_cause_list", ferr.Kind.String(), started)
		s.logger.Warn("Cause list fetch failed",
			"court", courtName,
			"date", date,
			"kind", ferr.Kind.String(),
			"error", err,
		)
		return 0, ferr
	}
	metrics.ObserveAdapter("fetch_cause_list", "ok", started)

	seen := make(map[database.DuplicateKey]struct{}, len(items))
	entries := make([]database.CauseListEntry, 0, len(items))
	for _, item := range items {
		e := s.toEntry(courtName, date, item)
		if e.CaseNumber == "" {
			continue
		}
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		entries = append(entries, e)
	}

	existing, err := s.store.FindCauseListDuplicates(ctx, entries)
	if err != nil {
		return 0, err
	}

	fresh := entries[:0]
	for _, e := range entries {
		if _, dup := existing[e.Key()]; !dup {
			fresh = append(fresh, e)
		}
	}

	written, err := s.store.InsertCauseListEntries(ctx, fresh)
	if err != nil {
		return 0, err
	}
	metrics.CauseListRowsWritten.Add(float64(written))

	s.logger.Info("Cause list refreshed",
		"court", courtName,
		"date", date,
		"fetched", len(items),
		"written", written,
	)
	return written, nil
}

func (s *CauseListService) toEntry(courtName, date string, item fetcher.CauseListItem) database.CauseListEntry {
	e := database.CauseListEntry{
		CourtName:  courtName,
		Date:       date,
		CaseNumber: canonicalCaseNumber(item.CaseNumber),
		CaseTitle:  strings.TrimSpace(item.CaseTitle),
		Petitioner: strings.TrimSpace(item.Petitioner),
		Respondent: strings.TrimSpace(item.Respondent),
		Courtroom:  optional(item.Courtroom),
		JudgeName:  optional(item.JudgeName),
		CaseStatus: strings.TrimSpace(item.CaseStatus),
		Remarks:    optional(item.Remarks),
	}
	if raw := strings.TrimSpace(item.HearingTime); raw != "" {
		if t, ok := NormalizeHearingTime(raw); ok {
			e.HearingTime = &t
		} else {
			s.logger.Debug("Dropping unreadable hearing time", "case", e.CaseNumber, "hearing_time", raw)
		}
	}
	return e
}

// Create validates and stores a single entry.
func (s *CauseListService) Create(ctx context.Context, entry database.CauseListEntry) (*database.CauseListEntry, error) {
	entry.ID = 0
	entry.CourtName = strings.TrimSpace(entry.CourtName)
	entry.Date = strings.TrimSpace(entry.Date)
	entry.CaseNumber = canonicalCaseNumber(entry.CaseNumber)

	if entry.CourtName == "" {
		return nil, &caseid.ValidationError{Field: "court_name", Message: "must not be empty"}
	}
	if err := validateDate("date", entry.Date); err != nil {
		return nil, err
	}
	if entry.CaseNumber == "" {
		return nil, &caseid.ValidationError{Field: "case_number", Message: "must not be empty"}
	}
	if entry.HearingTime != nil {
		if strings.TrimSpace(*entry.HearingTime) == "" {
			entry.HearingTime = nil
		} else {
			t, ok := NormalizeHearingTime(*entry.HearingTime)
			if !ok {
				return nil, &caseid.ValidationError{Field: "hearing_time", Message: "must look like 14:30 or 2:30 PM"}
			}
			entry.HearingTime = &t
		}
	}

	if err := s.store.CreateCauseListEntry(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// StatusChange is a point where a case's listed status differed from its
// previous listing. From is empty for the first listing.
type StatusChange struct {
	Date  string `json:"date"`
	From  string `json:"from"`
	To    string `json:"to"`
	Court string `json:"court_name"`
}

type CaseHistory struct {
	CaseNumber  string                    `json:"case_number"`
	Since       string                    `json:"since"`
	Listings    []database.CauseListEntry `json:"listings"`
	Transitions []StatusChange            `json:"transitions"`
}

// History lists a case's appearances on cause lists since the given day,
// oldest first, with the status transitions between them.
func (s *CauseListService) History(ctx context.Context, caseNumber string, since time.Time) (*CaseHistory, error) {
	caseNumber = strings.TrimSpace(caseNumber)
	if caseNumber == "" {
		return nil, &caseid.ValidationError{Field: "case_number", Message: "must not be empty"}
	}

	sinceDay := since.Format(dateLayout)
	var listings []database.CauseListEntry
	var err error
	if id, perr := caseid.Parse(caseNumber); perr == nil {
		caseNumber = id.CanonicalKey()
		listings, err = s.store.CauseListForCase(ctx, caseNumber, sinceDay)
	} else {
		listings, err = s.store.CauseListMatching(ctx, caseNumber, sinceDay)
	}
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []database.CauseListEntry{}
	}

	h := &CaseHistory{
		CaseNumber:  caseNumber,
		Since:       sinceDay,
		Listings:    listings,
		Transitions: []StatusChange{},
	}

	last := make(map[string]string)
	for _, l := range listings {
		prev, seen := last[l.CaseNumber]
		if !seen || prev != l.CaseStatus {
			h.Transitions = append(h.Transitions, StatusChange{
				Date:  l.Date,
				From:  prev,
				To:    l.CaseStatus,
				Court: l.CourtName,
			})
		}
		last[l.CaseNumber] = l.CaseStatus
	}
	return h, nil
}

// DaysBack returns the moment n days before now.
func (s *CauseListService) DaysBack(n int) time.Time {
	return s.opts.Now().AddDate(0, 0, -n)
}

type Statistics struct {
	CourtName    string         `json:"court_name,omitempty"`
	DateFrom     string         `json:"date_from"`
	DateTo       string         `json:"date_to"`
	TotalEntries int            `json:"total_entries"`
	UniqueCases  int            `json:"unique_cases"`
	ByStatus     map[string]int `json:"by_status"`
	ByJudge      map[string]int `json:"by_judge"`
	ByDate       []DateCount    `json:"by_date"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics summarises stored entries between from and to inclusive. Empty
// bounds default to the last 30 days.
func (s *CauseListService) Statistics(ctx context.Context, courtName, from, to string) (*Statistics, error) {
	now := s.opts.Now()
	to = strings.TrimSpace(to)
	from = strings.TrimSpace(from)
	if to == "" {
		to = now.Format(dateLayout)
	}
	if from == "" {
		from = now.AddDate(0, 0, -defaultStatisticDays).Format(dateLayout)
	}
	if err := validateDate("date_from", from); err != nil {
		return nil, err
	}
	if err := validateDate("date_to", to); err != nil {
		return nil, err
	}
	if from > to {
		return nil, &caseid.ValidationError{Field: "date_from", Message: "must not be after date_to"}
	}

	courtName = strings.TrimSpace(courtName)
	entries, err := s.store.CauseListRange(ctx, courtName, from, to)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		CourtName:    courtName,
		DateFrom:     from,
		DateTo:       to,
		TotalEntries: len(entries),
		ByStatus:     make(map[string]int),
		ByJudge:      make(map[string]int),
		ByDate:       []DateCount{},
	}

	cases := make(map[string]struct{})
	byDate := make(map[string]int)
	for _, e := range entries {
		cases[e.CaseNumber] = struct{}{}
		byDate[e.Date]++

		status := e.CaseStatus
		if status == "" {
			status = "Unknown"
		}
		stats.ByStatus[status]++

		judge := "Unassigned"
		if e.JudgeName != nil && *e.JudgeName != "" {
			judge = *e.JudgeName
		}
		stats.ByJudge[judge]++
	}
	stats.UniqueCases = len(cases)

	for d, n := range byDate {
		stats.ByDate = append(stats.ByDate, DateCount{Date: d, Count: n})
	}
	sort.Slice(stats.ByDate, func(i, j int) bool { return stats.ByDate[i].Date < stats.ByDate[j].Date })

	return stats, nil
}

// canonicalCaseNumber upper-cases and trims a listed case number, and
// rewrites it to the canonical "{type} {number}/{year}" form when it
// parses as one.
func canonicalCaseNumber(s string) string {
	s = strings.TrimSpace(s)
	if id, err := caseid.Parse(s); err == nil {
		return id.CanonicalKey()
	}
	return strings.ToUpper(s)
}

func validateDate(field, s string) error {
	if s == "" {
		return &caseid.ValidationError{Field: field, Message: "must not be empty"}
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return &caseid.ValidationError{Field: field, Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return nil
}

var hearingTimeLayouts = []string{"15:04", "3:04 PM", "03:04 PM", "3:04PM", "03:04PM", "15.04"}

// NormalizeHearingTime converts a listed hearing time to 24-hour "HH:MM".
func NormalizeHearingTime(s string) (string, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	for _, layout := range hearingTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// AsFetchError reports whether err came from the court adapter.
func AsFetchError(err error) (*fetcher.Error, bool) {
	var ferr *fetcher.Error
	if errors.As(err, &ferr) {
		return ferr, true
	}
	return nil, false
}
