package database

import (
	"time"
)

// CaseRecord is the stored outcome of the latest fetch for one canonical
// case number. There is at most one row per CaseNumber.
type CaseRecord struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	CaseNumber      string     `json:"case_number" gorm:"size:64;uniqueIndex;not null"`
	CourtName       string     `json:"court_name" gorm:"size:200"`
	CaseTitle       string     `json:"case_title" gorm:"size:500"`
	CaseType        string     `json:"case_type" gorm:"size:32"`
	Year            int        `json:"year"`
	FilingDate      *time.Time `json:"filing_date"`
	NextHearingDate *time.Time `json:"next_hearing_date"`
	CaseStatus      string     `json:"case_status" gorm:"size:100"`
	Petitioner      string     `json:"petitioner" gorm:"type:text"`
	Respondent      string     `json:"respondent" gorm:"type:text"`
	JudgeName       *string    `json:"judge_name" gorm:"size:200"`
	JudgmentURL     *string    `json:"judgment_url,omitempty" gorm:"size:500"`
	RawResponse     string     `json:"-" gorm:"type:text"`
	Success         bool       `json:"success"`
	ErrorMessage    *string    `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CauseListEntry is one case listed for hearing at a court on a date.
// Rows are appended; nothing is unique except the ID.
type CauseListEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourtName   string    `json:"court_name" gorm:"size:200;index:idx_cause_list_court_date;not null"`
	Date        string    `json:"date" gorm:"size:10;index:idx_cause_list_court_date;not null"`
	CaseNumber  string    `json:"case_number" gorm:"size:64;index;not null"`
	CaseTitle   string    `json:"case_title" gorm:"size:500"`
	Petitioner  string    `json:"petitioner" gorm:"type:text"`
	Respondent  string    `json:"respondent" gorm:"type:text"`
	HearingTime *string   `json:"hearing_time" gorm:"size:5"`
	Courtroom   *string   `json:"courtroom" gorm:"size:50"`
	JudgeName   *string   `json:"judge_name" gorm:"size:200"`
	CaseStatus  string    `json:"case_status" gorm:"size:100"`
	Remarks     *string   `json:"remarks" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DuplicateKey identifies a cause-list row for de-duplication.
type DuplicateKey struct {
	CourtName  string
	Date       string
	CaseNumber string
}

// Key returns the de-duplication key of the entry.
func (e *CauseListEntry) Key() DuplicateKey {
	return DuplicateKey{CourtName: e.CourtName, Date: e.Date, CaseNumber: e.CaseNumber}
}

// Clone returns a copy of r that shares no pointers with it.
func (r *CaseRecord) Clone() *CaseRecord {
	cp := *r
	cp.FilingDate = cloneTime(r.FilingDate)
	cp.NextHearingDate = cloneTime(r.NextHearingDate)
	cp.JudgeName = cloneString(r.JudgeName)
	cp.JudgmentURL = cloneString(r.JudgmentURL)
	cp.ErrorMessage = cloneString(r.ErrorMessage)
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (CaseRecord) TableName() string {
	return "case_records"
}

func (CauseListEntry) TableName() string {
	return "cause_list_entries"
}
