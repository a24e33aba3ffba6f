// Package scraper is the browser-driven fetch adapter. It fills the court
// portal's case status form in a headless Chrome and reads the result
// tables back out of the page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

const (
	caseStatusPath = "/app/get-case-type-status"
	causeListPath  = "/app/cause-list"
)

// Scraper implements fetcher.Adapter on top of a shared browser. Each
// fetch opens its own page and closes it afterwards.
type Scraper struct {
	baseURL string
	browser *rod.Browser
	logger  *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewScraper launches the browser described by cfg.
func NewScraper(cfg *config.Config, log *logger.Logger) (*Scraper, error) {
	l := launcher.New().
		Headless(cfg.HeadlessMode).
		Set("user-agent", cfg.UserAgent)

	if cfg.BrowserPath != "" {
		l = l.Bin(cfg.BrowserPath)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Scraper{
		baseURL: strings.TrimRight(cfg.CourtBaseURL, "/"),
		browser: browser,
		logger:  log,
	}, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.browser.Close()
}

func (s *Scraper) FetchCase(ctx context.Context, id caseid.Identifier) (*fetcher.CaseData, error) {
	n := id.Normalize()
	log := s.logger.With("case", n.CanonicalKey())

	page, err := s.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	formURL := s.baseURL + caseStatusPath
	log.Info("Navigating to court website", "url", formURL)

	var (
		rows [][]string
		body string
	)
	err = rod.Try(func() {
		page.MustNavigate(formURL).MustWaitLoad()

		if has, _, _ := page.Has("img[id*='captcha'], #captcha-code"); has {
			panic(errCaptcha)
		}

		page.MustElement("#case_type").MustSelect(n.CaseType)
		page.MustElement("#case_number").MustInput(n.CaseNumber)
		page.MustElement("#case_year").MustSelect(strconv.Itoa(n.Year))
		log.Debug("Form filled, submitting")

		wait := page.MustWaitNavigation()
		page.MustElement("#search").MustClick()
		wait()
		page.MustWaitLoad()

		body = page.MustElement("body").MustText()
		if msg := DetectError(body); msg != "" {
			return
		}

		if has, table, _ := page.Has("div#case_details table, table.case-details, table.table"); has {
			rows = tableRows(table)
		}
	})
	if err != nil {
		log.Warn("Case page interaction failed", "error", err)
		return nil, classify(ctx, err)
	}

	if msg := DetectError(body); msg != "" {
		return nil, fetcher.NotFound(errors.New(msg))
	}

	data, err := ParseCaseDetails(rows, body)
	if err != nil {
		return nil, fetcher.Malformed(err)
	}

	if html, err := page.HTML(); err == nil {
		data.Raw = []byte(html)
	}
	return data, nil
}

func (s *Scraper) FetchCauseList(ctx context.Context, courtName, date string) ([]fetcher.CauseListItem, error) {
	page, err := s.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	q := url.Values{}
	q.Set("court", courtName)
	q.Set("date", date)
	listURL := s.baseURL + causeListPath + "?" + q.Encode()
	s.logger.Info("Fetching cause list", "url", listURL)

	var rows [][]string
	err = rod.Try(func() {
		page.MustNavigate(listURL).MustWaitLoad()
		if has, table, _ := page.Has("table#cause_list, table.cause-list, table.table"); has {
			rows = tableRows(table)
		}
	})
	if err != nil {
		s.logger.Warn("Cause list page interaction failed", "court", courtName, "date", date, "error", err)
		return nil, classify(ctx, err)
	}

	items, err := ParseCauseList(rows)
	if err != nil {
		return nil, fetcher.Malformed(err)
	}
	return items, nil
}

func (s *Scraper) openPage(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fetcher.Unavailable(errors.New("browser is closed"))
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fetcher.Unavailable(fmt.Errorf("failed to create page: %w", err))
	}
	if _, err := page.SetExtraHeaders([]string{"Accept-Language", "en-US,en;q=0.9"}); err != nil {
		s.logger.Debug("Could not set page headers", "error", err)
	}
	return page.Context(ctx).Timeout(pageTimeout(ctx)), nil
}

// pageTimeout bounds page operations when the caller set no deadline.
func pageTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return time.Minute
}

var errCaptcha = errors.New("court portal asked for a captcha")

func classify(ctx context.Context, err error) *fetcher.Error {
	if ctx.Err() != nil {
		return fetcher.Classify(ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fetcher.Timeout(err)
	}
	var notFound *rod.ErrElementNotFound
	if errors.As(err, &notFound) {
		return fetcher.Malformed(err)
	}
	return fetcher.Unavailable(err)
}

// tableRows returns the trimmed text of every cell, row by row.
func tableRows(table *rod.Element) [][]string {
	var rows [][]string
	for _, tr := range table.MustElements("tr") {
		var cells []string
		for _, td := range tr.MustElements("th, td") {
			cells = append(cells, strings.TrimSpace(td.MustText()))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}
