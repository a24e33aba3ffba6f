package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaseDetailsFromTable(t *testing.T) {
	rows := [][]string{
		{"Case Type", "WP(C)"},
		{"Case Title", "Rajesh  Kumar vs State of Delhi & Others"},
		{"Date of Filing", "10-05-2023"},
		{"Next Hearing Date", "Friday, 15-03-2024"},
		{"Case Stage", "Pending"},
		{"Coram", "Hon'ble Justice A. Sharma"},
		{"Judgment", "https://example.org/j.pdf"},
		{"orphan"},
	}

	data, err := ParseCaseDetails(rows, "")
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Kumar vs State of Delhi & Others", data.CaseTitle)
	assert.Equal(t, "Rajesh Kumar", data.Petitioner)
	assert.Equal(t, "State of Delhi & Others", data.Respondent)
	assert.Equal(t, "Pending", data.CaseStatus)
	assert.Equal(t, "Hon'ble Justice A. Sharma", data.JudgeName)
	assert.Equal(t, "https://example.org/j.pdf", data.JudgmentURL)
	require.NotNil(t, data.FilingDate)
	assert.Equal(t, time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC), *data.FilingDate)
	require.NotNil(t, data.NextHearingDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *data.NextHearingDate)
}

func TestParseCaseDetailsFromText(t *testing.T) {
	body := "Case Details\nPetitioner(s): Sunita Devi and Ramesh Devi\nRespondent: Mohan Lal etc.\nThe matter is disposed of."

	data, err := ParseCaseDetails(nil, body)
	require.NoError(t, err)
	assert.Equal(t, "Sunita Devi & Ramesh Devi", data.Petitioner)
	assert.Equal(t, "Mohan Lal", data.Respondent)
	assert.Equal(t, "Sunita Devi & Ramesh Devi vs Mohan Lal", data.CaseTitle)
	assert.Equal(t, "Disposed", data.CaseStatus)
}

func TestParseCaseDetailsWithoutTitle(t *testing.T) {
	_, err := ParseCaseDetails([][]string{{"Case Stage", "Pending"}}, "nothing useful")
	assert.Error(t, err)
}

func TestParseCauseList(t *testing.T) {
	rows := [][]string{
		{"S.No.", "Case No.", "Case Title", "Time", "Court Room", "Bench", "Stage", "Remarks"},
		{"1", "WP 5678/2023", "Rajesh Kumar vs State of Delhi", "10:30", "Court No. 3", "Justice A. Sharma", "Listed", ""},
		{"2", "", "Blank row", "", "", "", "", ""},
		{"3", "CS 1234/2023", "Sunita Devi v. Mohan Lal", "", "Court No. 5", "", "Part Heard", "Time to be notified"},
	}

	items, err := ParseCauseList(rows)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "WP 5678/2023", items[0].CaseNumber)
	assert.Equal(t, "Rajesh Kumar", items[0].Petitioner)
	assert.Equal(t, "State of Delhi", items[0].Respondent)
	assert.Equal(t, "10:30", items[0].HearingTime)
	assert.Equal(t, "Court No. 3", items[0].Courtroom)
	assert.Equal(t, "Justice A. Sharma", items[0].JudgeName)

	assert.Equal(t, "CS 1234/2023", items[1].CaseNumber)
	assert.Equal(t, "Mohan Lal", items[1].Respondent)
	assert.Empty(t, items[1].HearingTime)
	assert.Equal(t, "Time to be notified", items[1].Remarks)
}

func TestParseCauseListEdgeCases(t *testing.T) {
	items, err := ParseCauseList(nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = ParseCauseList([][]string{{"Item", "Parties"}, {"1", "A vs B"}})
	assert.ErrorIs(t, err, errNoCaseCols)
}

func TestDetectError(t *testing.T) {
	assert.Equal(t, "No records found", DetectError("Sorry, NO RECORDS FOUND for your query"))
	assert.Equal(t, "Case not found", DetectError("case not found"))
	assert.Empty(t, DetectError("Rajesh Kumar vs State"))
}

func TestExtractPartyNames(t *testing.T) {
	assert.Equal(t, []string{"Rajesh Kumar", "Anita Kumar"}, extractPartyNames("Rajesh Kumar  and Anita Kumar 2."))
	assert.Equal(t, []string{"Union of India"}, extractPartyNames("Union of India etc."))
	assert.Empty(t, extractPartyNames("  "))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"15-03-2024", "15/03/2024", "15.03.2024", "15-Mar-2024", "15 March 2024", "2024-03-15", "Mar 15, 2024", "Friday, 15 Mar 2024"} {
		d := parseDate(s)
		require.NotNil(t, d, s)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *d, s)
	}
	assert.Nil(t, parseDate("sometime"))
}
