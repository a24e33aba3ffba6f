package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

// HTTPOptions configures an HTTPAdapter.
type HTTPOptions struct {
	BaseURL       string
	UserAgent     string
	Retries       int
	RetryInterval time.Duration
}

// HTTPAdapter fetches from a JSON court-data gateway:
//
//	GET {base}/cases?case_type=&case_number=&year=&court_name=
//	GET {base}/cause-list?court_name=&date=
//
// 404 means not found. 429 and 5xx responses are retried with exponential
// backoff.
type HTTPAdapter struct {
	client        *resty.Client
	retries       uint64
	retryInterval time.Duration
	logger        *logger.Logger
}

func NewHTTPAdapter(opts HTTPOptions, log *logger.Logger) *HTTPAdapter {
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	return &HTTPAdapter{
		client:        c,
		retries:       uint64(retries),
		retryInterval: interval,
		logger:        log,
	}
}

type gatewayCase struct {
	CaseTitle       string `json:"case_title"`
	Petitioner      string `json:"petitioner"`
	Respondent      string `json:"respondent"`
	CaseStatus      string `json:"case_status"`
	FilingDate      string `json:"filing_date"`
	NextHearingDate string `json:"next_hearing_date"`
	JudgeName       string `json:"judge_name"`
	JudgmentURL     string `json:"judgment_url"`
}

type gatewayCauseList struct {
	Entries []CauseListItem `json:"entries"`
}

func (a *HTTPAdapter) FetchCase(ctx context.Context, id caseid.Identifier) (*CaseData, error) {
	n := id.Normalize()
	resp, err := a.get(ctx, "/cases", map[string]string{
		"case_type":   n.CaseType,
		"case_number": n.CaseNumber,
		"year":        strconv.Itoa(n.Year),
		"court_name":  n.CourtName,
	})
	if err != nil {
		return nil, err
	}

	var gc gatewayCase
	if err := json.Unmarshal(resp.Body(), &gc); err != nil {
		return nil, Malformed(fmt.Errorf("decode case: %w", err))
	}
	if strings.TrimSpace(gc.CaseTitle) == "" {
		return nil, Malformed(errors.New("case response has no title"))
	}

	data := &CaseData{
		CaseTitle:   strings.TrimSpace(gc.CaseTitle),
		Petitioner:  strings.TrimSpace(gc.Petitioner),
		Respondent:  strings.TrimSpace(gc.Respondent),
		CaseStatus:  strings.TrimSpace(gc.CaseStatus),
		JudgeName:   strings.TrimSpace(gc.JudgeName),
		JudgmentURL: strings.TrimSpace(gc.JudgmentURL),
		Raw:         resp.Body(),
	}
	if data.FilingDate, err = ParseDate(gc.FilingDate); err != nil {
		return nil, Malformed(fmt.Errorf("filing_date: %w", err))
	}
	if data.NextHearingDate, err = ParseDate(gc.NextHearingDate); err != nil {
		return nil, Malformed(fmt.Errorf("next_hearing_date: %w", err))
	}
	return data, nil
}

func (a *HTTPAdapter) FetchCauseList(ctx context.Context, courtName, date string) ([]CauseListItem, error) {
	resp, err := a.get(ctx, "/cause-list", map[string]string{
		"court_name": courtName,
		"date":       date,
	})
	if err != nil {
		return nil, err
	}

	var cl gatewayCauseList
	if err := json.Unmarshal(resp.Body(), &cl); err != nil {
		return nil, Malformed(fmt.Errorf("decode cause list: %w", err))
	}
	for i, item := range cl.Entries {
		if strings.TrimSpace(item.CaseNumber) == "" {
			return nil, Malformed(fmt.Errorf("cause list entry %d has no case number", i))
		}
	}
	return cl.Entries, nil
}

// get performs a GET with retries and maps every failure to *Error.
func (a *HTTPAdapter) get(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	var resp *resty.Response
	attempt := 0

	operation := func() error {
		attempt++
		r, err := a.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(Classify(ctx.Err()))
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return Timeout(err)
			}
			return Unavailable(err)
		}

		switch code := r.StatusCode(); {
		case code == http.StatusOK:
			resp = r
			return nil
		case code == http.StatusNotFound:
			return backoff.Permanent(NotFound(fmt.Errorf("%s returned 404", path)))
		case code == http.StatusTooManyRequests || code >= 500:
			return Unavailable(fmt.Errorf("%s returned %d", path, code))
		default:
			return backoff.Permanent(Unavailable(fmt.Errorf("%s returned %d", path, code)))
		}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.retryInterval
	exp.Multiplier = 2
	exp.MaxInterval = 8 * a.retryInterval
	exp.Reset()

	notify := func(err error, wait time.Duration) {
		a.logger.Warn("Gateway request failed, retrying",
			"path", path,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(exp, a.retries), ctx), notify)
	if err != nil {
		return nil, Classify(err)
	}
	return resp, nil
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "2-1-2006", "2/1/2006", "02 Jan 2006", "2 January 2006"}

// ParseDate reads the date formats court portals use. An empty string
// yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") || s == "-" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}
