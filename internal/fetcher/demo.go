package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JustJay7/court-case-tracker/internal/caseid"
)

// DemoAdapter serves a fixed set of cases and a fixed cause list. It lets
// the service run end to end without reaching a court portal.
type DemoAdapter struct {
	// Delay simulates portal latency.
	Delay time.Duration

	cases     map[string]CaseData
	causeList []CauseListItem
}

func NewDemoAdapter() *DemoAdapter {
	return &DemoAdapter{
		cases:     demoCases(),
		causeList: demoCauseList(),
	}
}

func (d *DemoAdapter) FetchCase(ctx context.Context, id caseid.Identifier) (*CaseData, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	data, ok := d.cases[id.CanonicalKey()]
	if !ok {
		return nil, NotFound(fmt.Errorf("no demo fixture for %s", id.CanonicalKey()))
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, Malformed(err)
	}
	data.Raw = raw
	return &data, nil
}

func (d *DemoAdapter) FetchCauseList(ctx context.Context, courtName, date string) ([]CauseListItem, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	items := make([]CauseListItem, len(d.causeList))
	copy(items, d.causeList)
	return items, nil
}

func (d *DemoAdapter) wait(ctx context.Context) error {
	if d.Delay <= 0 {
		if err := ctx.Err(); err != nil {
			return Classify(err)
		}
		return nil
	}
	t := time.NewTimer(d.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Classify(ctx.Err())
	case <-t.C:
		return nil
	}
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func demoCases() map[string]CaseData {
	return map[string]CaseData{
		"WP 5678/2023": {
			CaseTitle:       "Rajesh Kumar vs State of Delhi & Others",
			Petitioner:      "Rajesh Kumar",
			Respondent:      "State of Delhi & Others",
			CaseStatus:      "Pending",
			FilingDate:      date("2023-05-10"),
			NextHearingDate: date("2024-11-20"),
			JudgeName:       "Hon'ble Justice A. Sharma",
		},
		"CS 1234/2023": {
			CaseTitle:  "Sunita Devi vs Mohan Lal",
			Petitioner: "Sunita Devi",
			Respondent: "Mohan Lal",
			CaseStatus: "Under Trial",
			FilingDate: date("2023-02-01"),
		},
		"CRL.A 456/2022": {
			CaseTitle:   "State vs Arjun Singh",
			Petitioner:  "State",
			Respondent:  "Arjun Singh",
			CaseStatus:  "Disposed",
			FilingDate:  date("2022-08-17"),
			JudgeName:   "Hon'ble Justice R. Mehta",
			JudgmentURL: "https://delhihighcourt.nic.in/judgments/crla-456-2022.pdf",
		},
		"PIL 12/2024": {
			CaseTitle:       "Citizens for Clean Air vs Union of India",
			Petitioner:      "Citizens for Clean Air",
			Respondent:      "Union of India",
			CaseStatus:      "Admitted",
			FilingDate:      date("2024-01-09"),
			NextHearingDate: date("2024-12-02"),
		},
	}
}

func demoCauseList() []CauseListItem {
	return []CauseListItem{
		{CaseNumber: "WP 5678/2023", CaseTitle: "Rajesh Kumar vs State of Delhi & Others", Petitioner: "Rajesh Kumar", Respondent: "State of Delhi & Others", HearingTime: "10:30", Courtroom: "Court No. 3", JudgeName: "Hon'ble Justice A. Sharma", CaseStatus: "Listed"},
		{CaseNumber: "CS 1234/2023", CaseTitle: "Sunita Devi vs Mohan Lal", Petitioner: "Sunita Devi", Respondent: "Mohan Lal", HearingTime: "11:00", Courtroom: "Court No. 5", CaseStatus: "Part Heard"},
		{CaseNumber: "PIL 12/2024", CaseTitle: "Citizens for Clean Air vs Union of India", Petitioner: "Citizens for Clean Air", Respondent: "Union of India", HearingTime: "10:30", Courtroom: "Court No. 1", JudgeName: "Hon'ble Chief Justice", CaseStatus: "Listed"},
		{CaseNumber: "CRL.M.C 789/2024", CaseTitle: "Vikram Rao vs State", Petitioner: "Vikram Rao", Respondent: "State", Courtroom: "Court No. 7", CaseStatus: "Adjourned", Remarks: "Time to be notified"},
		{CaseNumber: "FAO 33/2021", CaseTitle: "Oriental Insurance Co. vs Meena Gupta", Petitioner: "Oriental Insurance Co.", Respondent: "Meena Gupta", HearingTime: "02:15 PM", Courtroom: "Court No. 2", CaseStatus: "Listed"},
	}
}
