// Package fetcher defines the Court Fetch Adapter: the collaborator that
// retrieves case details and cause lists from a remote court source.
package fetcher

import (
	"context"
	"time"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
)

// Adapter retrieves case and cause-list data from a court source.
// Implementations return *Error for every failure.
type Adapter interface {
	FetchCase(ctx context.Context, id caseid.Identifier) (*CaseData, error)
	FetchCauseList(ctx context.Context, courtName, date string) ([]CauseListItem, error)
}

// CaseData is the normalised result of a successful case fetch.
type CaseData struct {
	CaseTitle       string     `json:"case_title"`
	Petitioner      string     `json:"petitioner"`
	Respondent      string     `json:"respondent"`
	CaseStatus      string     `json:"case_status"`
	FilingDate      *time.Time `json:"filing_date,omitempty"`
	NextHearingDate *time.Time `json:"next_hearing_date,omitempty"`
	JudgeName       string     `json:"judge_name,omitempty"`
	JudgmentURL     string     `json:"judgment_url,omitempty"`

	// Raw is the payload as received, kept for audit.
	Raw []byte `json:"-"`
}

// CauseListItem is one row of a fetched cause list.
type CauseListItem struct {
	CaseNumber  string `json:"case_number"`
	CaseTitle   string `json:"case_title"`
	Petitioner  string `json:"petitioner"`
	Respondent  string `json:"respondent"`
	HearingTime string `json:"hearing_time,omitempty"`
	Courtroom   string `json:"courtroom,omitempty"`
	JudgeName   string `json:"judge_name,omitempty"`
	CaseStatus  string `json:"case_status"`
	Remarks     string `json:"remarks,omitempty"`
}
