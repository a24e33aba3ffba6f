package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Initialize("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func strPtr(s string) *string { return &s }

func TestFindByCanonicalKeyMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByCanonicalKey(context.Background(), "WP 1/2023")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertKeepsOneRowPerKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "WP 5678/2023"

	failed, err := store.UpsertByCanonicalKey(ctx, key, &CaseRecord{
		CourtName:    "High Court of Delhi",
		CaseType:     "WP",
		Year:         2023,
		Success:      false,
		ErrorMessage: strPtr("court portal did not respond in time"),
	})
	require.NoError(t, err)
	require.NotZero(t, failed.ID)
	assert.False(t, failed.Success)

	hearing := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	ok, err := store.UpsertByCanonicalKey(ctx, key, &CaseRecord{
		CourtName:       "High Court of Delhi",
		CaseTitle:       "Rajesh Kumar vs State of Delhi & Others",
		CaseType:        "WP",
		Year:            2023,
		Petitioner:      "Rajesh Kumar",
		Respondent:      "State of Delhi & Others",
		CaseStatus:      "Pending",
		NextHearingDate: &hearing,
		RawResponse:     `{"case_title":"Rajesh Kumar vs State of Delhi & Others"}`,
		Success:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, failed.ID, ok.ID)
	assert.Equal(t, key, ok.CaseNumber)
	assert.True(t, ok.Success)
	assert.Nil(t, ok.ErrorMessage)
	assert.Equal(t, "Pending", ok.CaseStatus)
	require.NotNil(t, ok.NextHearingDate)
	assert.True(t, hearing.Equal(*ok.NextHearingDate))
	assert.True(t, failed.CreatedAt.Equal(ok.CreatedAt), "created_at must survive the upsert")

	var count int64
	require.NoError(t, store.DB().Model(&CaseRecord{}).Where("case_number = ?", key).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := store.FindByCanonicalKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, ok.ID, found.ID)
	assert.Equal(t, "Rajesh Kumar", found.Petitioner)
}

func TestRecentCases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"CS 1/2020", "CS 2/2020", "CS 3/2020"} {
		_, err := store.UpsertByCanonicalKey(ctx, key, &CaseRecord{CaseType: "CS", Year: 2020, Success: true})
		require.NoError(t, err)
	}

	cases, total, err := store.RecentCases(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, cases, 2)
	assert.Equal(t, "CS 3/2020", cases[0].CaseNumber)
}

func TestListCauseListOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court, date := "High Court of Delhi", "2024-10-03"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: date, CaseNumber: "WP 9/2024"},
		{CourtName: court, Date: date, CaseNumber: "WP 5/2024", HearingTime: strPtr("14:00")},
		{CourtName: court, Date: date, CaseNumber: "CS 7/2024", HearingTime: strPtr("10:30")},
		{CourtName: court, Date: date, CaseNumber: "CS 1/2024", HearingTime: strPtr("14:00")},
		{CourtName: court, Date: date, CaseNumber: "CRL.A 2/2024"},
		{CourtName: court, Date: "2024-10-04", CaseNumber: "CS 8/2024", HearingTime: strPtr("09:00")},
		{CourtName: "Saket Court", Date: date, CaseNumber: "CS 3/2024", HearingTime: strPtr("09:00")},
	})
	require.NoError(t, err)

	entries, err := store.ListCauseList(ctx, court, date, 0, 50)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.CaseNumber)
	}
	assert.Equal(t, []string{"CS 7/2024", "CS 1/2024", "WP 5/2024", "CRL.A 2/2024", "WP 9/2024"}, got)

	page, err := store.ListCauseList(ctx, court, date, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "CS 1/2024", page[0].CaseNumber)
	assert.Equal(t, "WP 5/2024", page[1].CaseNumber)
}

func TestFindCauseListDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court, date := "High Court of Delhi", "2024-10-03"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: date, CaseNumber: "WP 1/2024"},
		{CourtName: court, Date: "2024-10-04", CaseNumber: "WP 2/2024"},
	})
	require.NoError(t, err)

	dups, err := store.FindCauseListDuplicates(ctx, []CauseListEntry{
		{CourtName: court, Date: date, CaseNumber: "WP 1/2024"},
		{CourtName: court, Date: date, CaseNumber: "WP 2/2024"},
		{CourtName: "Saket Court", Date: date, CaseNumber: "WP 1/2024"},
	})
	require.NoError(t, err)

	assert.Len(t, dups, 1)
	_, ok := dups[DuplicateKey{CourtName: court, Date: date, CaseNumber: "WP 1/2024"}]
	assert.True(t, ok)
}

func TestCauseListForCaseAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court := "High Court of Delhi"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: "2024-10-01", CaseNumber: "WP 5678/2023", CaseStatus: "Listed"},
		{CourtName: court, Date: "2024-10-08", CaseNumber: "WP 5678/2023", CaseStatus: "Part Heard"},
		{CourtName: court, Date: "2024-09-01", CaseNumber: "WP 5678/2023", CaseStatus: "Listed"},
		{CourtName: "Saket Court", Date: "2024-10-02", CaseNumber: "CS 1/2024", CaseStatus: "Listed"},
	})
	require.NoError(t, err)

	history, err := store.CauseListForCase(ctx, "WP 5678/2023", "2024-09-15")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-10-01", history[0].Date)
	assert.Equal(t, "2024-10-08", history[1].Date)

	history, err = store.CauseListMatching(ctx, "wp 5678", "2024-09-15")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-10-01", history[0].Date)
	assert.Equal(t, "2024-10-08", history[1].Date)

	all, err := store.CauseListRange(ctx, "", "2024-10-01", "2024-10-31")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := store.CauseListRange(ctx, "Saket Court", "2024-10-01", "2024-10-31")
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestCauseListForCaseIsExact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court := "High Court of Delhi"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: "2024-10-01", CaseNumber: "WP 1/2023"},
		{CourtName: court, Date: "2024-10-01", CaseNumber: "CWP 1/2023"},
		{CourtName: court, Date: "2024-10-02", CaseNumber: "WP 11/2023"},
	})
	require.NoError(t, err)

	got, err := store.CauseListForCase(ctx, "WP 1/2023", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "WP 1/2023", got[0].CaseNumber)
}

func TestCauseListMatchingEscapesWildcards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court := "High Court of Delhi"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: "2024-10-01", CaseNumber: "WP 1/2023"},
		{CourtName: court, Date: "2024-10-01", CaseNumber: "CS 12/2023"},
		{CourtName: court, Date: "2024-10-01", CaseNumber: "CS 1_2/2023"},
	})
	require.NoError(t, err)

	got, err := store.CauseListMatching(ctx, "%", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.CauseListMatching(ctx, "1_2", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CS 1_2/2023", got[0].CaseNumber)

	got, err = store.CauseListMatching(ctx, "1/2023", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "WP 1/2023", got[0].CaseNumber)
}

func TestCauseListFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	court := "High Court of Delhi"

	_, err := store.InsertCauseListEntries(ctx, []CauseListEntry{
		{CourtName: court, Date: "2024-10-01", CaseNumber: "WP 5678/2023", HearingTime: strPtr("10:30"), JudgeName: strPtr("Hon'ble Justice A. Sharma"), CaseStatus: "Listed"},
		{CourtName: court, Date: "2024-10-01", CaseNumber: "CS 1234/2023", HearingTime: strPtr("09:00"), JudgeName: strPtr("Hon'ble Justice A. Sharma"), CaseStatus: "Part Heard"},
		{CourtName: court, Date: "2024-10-02", CaseNumber: "PIL 12/2024", JudgeName: strPtr("Hon'ble Chief Justice"), CaseStatus: "Listed"},
		{CourtName: court, Date: "2024-10-03", CaseNumber: "FAO 33/2021", HearingTime: strPtr("11:00"), CaseStatus: "Listed"},
		{CourtName: "Saket Court", Date: "2024-10-01", CaseNumber: "CS 1/2024", JudgeName: strPtr("Ms. R. Sharma"), CaseStatus: "Listed"},
	})
	require.NoError(t, err)

	numbers := func(f CauseListFilter) []string {
		t.Helper()
		if f.Limit == 0 {
			f.Limit = 50
		}
		entries, err := store.CauseListFiltered(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.CaseNumber)
		}
		return out
	}

	tests := []struct {
		name   string
		filter CauseListFilter
		want   []string
	}{
		{name: "all", filter: CauseListFilter{}, want: []string{"CS 1234/2023", "WP 5678/2023", "FAO 33/2021", "CS 1/2024", "PIL 12/2024"}},
		{name: "judge substring any case", filter: CauseListFilter{Judge: "SHARMA"}, want: []string{"CS 1234/2023", "WP 5678/2023", "CS 1/2024"}},
		{name: "judge and court", filter: CauseListFilter{CourtName: court, Judge: "sharma"}, want: []string{"CS 1234/2023", "WP 5678/2023"}},
		{name: "status exact", filter: CauseListFilter{Status: "Part Heard"}, want: []string{"CS 1234/2023"}},
		{name: "status is not a substring", filter: CauseListFilter{Status: "Part"}, want: []string{}},
		{name: "date range", filter: CauseListFilter{DateFrom: "2024-10-02", DateTo: "2024-10-03"}, want: []string{"FAO 33/2021", "PIL 12/2024"}},
		{name: "case number", filter: CauseListFilter{CaseNumber: "cs 1"}, want: []string{"CS 1234/2023", "CS 1/2024"}},
		{name: "judge wildcard is literal", filter: CauseListFilter{Judge: "%"}, want: []string{}},
		{name: "paging", filter: CauseListFilter{Skip: 1, Limit: 2}, want: []string{"WP 5678/2023", "FAO 33/2021"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numbers(tt.filter))
		})
	}
}

func TestStorageErrorWrapsCause(t *testing.T) {
	store := newTestStore(t)
	sqlDB, err := store.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.FindByCanonicalKey(context.Background(), "WP 1/2023")
	var serr *StorageError
	require.True(t, errors.As(err, &serr), "expected StorageError, got %v", err)
	assert.Equal(t, "find case", serr.Op)

	assert.Error(t, store.Ping(context.Background()))
}
