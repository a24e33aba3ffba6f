package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JustJay7/court-case-tracker/internal/fetcher"
)

var (
	spaceRe       = regexp.MustCompile(`\s+`)
	dayNameRe     = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*`)
	titleSplitRe  = regexp.MustCompile(`(?i)\s+(?:vs\.?|v/s|versus|v\.)\s+`)
	partySplitRe  = regexp.MustCompile(`\s+(?:and|AND|And|&)\s+`)
	partyTailRe   = regexp.MustCompile(`\s*(?:etc\.?|\d+\.?)$`)
	petitionerRe  = regexp.MustCompile(`(?i)Petitioner\(?s?\)?\s*:\s*([^\n\r]+)`)
	respondentRe  = regexp.MustCompile(`(?i)Respondent\(?s?\)?\s*:\s*([^\n\r]+)`)
	errorPhrases  = []string{"No records found", "No Record Found", "Invalid case number", "Case not found", "No data available"}
	dateFormats   = []string{"02-01-2006", "02/01/2006", "02.01.2006", "02-Jan-2006", "02-January-2006", "02 Jan 2006", "02 January 2006", "2006-01-02", "Jan 02, 2006", "January 02, 2006"}
	errNoCaseCols = errors.New("cause list table has no case number column")
)

// ParseCaseDetails reads a case from the label/value rows of the portal's
// details table, falling back to the page text for the parties.
func ParseCaseDetails(rows [][]string, body string) (*fetcher.CaseData, error) {
	data := &fetcher.CaseData{}

	for _, cells := range rows {
		if len(cells) < 2 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(cells[0]))
		value := clean(cells[1])
		if value == "" {
			continue
		}

		switch {
		case strings.Contains(label, "title") || strings.Contains(label, "parties"):
			data.CaseTitle = value
		case strings.Contains(label, "petitioner"):
			data.Petitioner = value
		case strings.Contains(label, "respondent"):
			data.Respondent = value
		case strings.Contains(label, "filing date") || strings.Contains(label, "date of filing"):
			data.FilingDate = parseDate(value)
		case strings.Contains(label, "registration date"):
			if data.FilingDate == nil {
				data.FilingDate = parseDate(value)
			}
		case strings.Contains(label, "next date") || strings.Contains(label, "next hearing"):
			data.NextHearingDate = parseDate(value)
		case strings.Contains(label, "stage") || strings.Contains(label, "status"):
			data.CaseStatus = value
		case strings.Contains(label, "judge") || strings.Contains(label, "coram"):
			data.JudgeName = value
		case strings.Contains(label, "judgment") || strings.Contains(label, "judgement"):
			if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
				data.JudgmentURL = value
			}
		}
	}

	if data.Petitioner == "" {
		if m := petitionerRe.FindStringSubmatch(body); len(m) > 1 {
			data.Petitioner = strings.Join(extractPartyNames(m[1]), " & ")
		}
	}
	if data.Respondent == "" {
		if m := respondentRe.FindStringSubmatch(body); len(m) > 1 {
			data.Respondent = strings.Join(extractPartyNames(m[1]), " & ")
		}
	}

	if data.CaseTitle != "" && (data.Petitioner == "" || data.Respondent == "") {
		pet, resp := splitTitle(data.CaseTitle)
		if data.Petitioner == "" {
			data.Petitioner = pet
		}
		if data.Respondent == "" {
			data.Respondent = resp
		}
	}
	if data.CaseTitle == "" && data.Petitioner != "" && data.Respondent != "" {
		data.CaseTitle = data.Petitioner + " vs " + data.Respondent
	}

	if data.CaseStatus == "" {
		data.CaseStatus = statusFromText(body)
	}

	if data.CaseTitle == "" {
		return nil, errors.New("case title not found on the details page")
	}
	return data, nil
}

type causeListColumns struct {
	number, title, petitioner, respondent, time, courtroom, judge, status, remarks int
}

// ParseCauseList reads cause-list rows. The first row is the header and
// decides which column holds which field.
func ParseCauseList(rows [][]string) ([]fetcher.CauseListItem, error) {
	items := []fetcher.CauseListItem{}
	if len(rows) == 0 {
		return items, nil
	}

	cols := causeListColumns{-1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, h := range rows[0] {
		h = strings.ToLower(h)
		switch {
		case strings.Contains(h, "title") || strings.Contains(h, "parties"):
			cols.title = i
		case strings.Contains(h, "case no") || strings.Contains(h, "case number"):
			cols.number = i
		case strings.Contains(h, "petitioner"):
			cols.petitioner = i
		case strings.Contains(h, "respondent"):
			cols.respondent = i
		case strings.Contains(h, "time"):
			cols.time = i
		case strings.Contains(h, "judge") || strings.Contains(h, "bench") || strings.Contains(h, "coram"):
			cols.judge = i
		case strings.Contains(h, "court") || strings.Contains(h, "room"):
			cols.courtroom = i
		case strings.Contains(h, "status") || strings.Contains(h, "stage"):
			cols.status = i
		case strings.Contains(h, "remark"):
			cols.remarks = i
		}
	}
	if cols.number < 0 {
		return nil, errNoCaseCols
	}

	for _, cells := range rows[1:] {
		cell := func(i int) string {
			if i < 0 || i >= len(cells) {
				return ""
			}
			return clean(cells[i])
		}

		item := fetcher.CauseListItem{
			CaseNumber:  cell(cols.number),
			CaseTitle:   cell(cols.title),
			Petitioner:  cell(cols.petitioner),
			Respondent:  cell(cols.respondent),
			HearingTime: cell(cols.time),
			Courtroom:   cell(cols.courtroom),
			JudgeName:   cell(cols.judge),
			CaseStatus:  cell(cols.status),
			Remarks:     cell(cols.remarks),
		}
		if item.CaseNumber == "" {
			continue
		}
		if item.CaseTitle != "" && (item.Petitioner == "" || item.Respondent == "") {
			pet, resp := splitTitle(item.CaseTitle)
			if item.Petitioner == "" {
				item.Petitioner = pet
			}
			if item.Respondent == "" {
				item.Respondent = resp
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// DetectError returns the portal's "nothing found" message from the page
// text, or "" when there is none.
func DetectError(body string) string {
	lower := strings.ToLower(body)
	for _, phrase := range errorPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return phrase
		}
	}
	return ""
}

// extractPartyNames splits multiple party names
func extractPartyNames(text string) []string {
	var names []string

	text = clean(text)
	for _, part := range partySplitRe.Split(text, -1) {
		name := partyTailRe.ReplaceAllString(strings.TrimSpace(part), "")
		if len(name) > 2 {
			names = append(names, name)
		}
	}
	return names
}

func splitTitle(title string) (petitioner, respondent string) {
	parts := titleSplitRe.Split(title, 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func statusFromText(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "disposed") || strings.Contains(lower, "decided"):
		return "Disposed"
	case strings.Contains(lower, "pending"):
		return "Pending"
	}
	return ""
}

// parseDate parses the date formats used by Indian court portals. Anything
// unrecognised yields nil.
func parseDate(s string) *time.Time {
	s = clean(s)
	if t, err := tryFormats(s); err == nil {
		return &t
	}
	if t, err := tryFormats(dayNameRe.ReplaceAllString(s, "")); err == nil {
		return &t
	}
	return nil
}

func tryFormats(s string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

func clean(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
