package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no case record exists for a key.
var ErrNotFound = errors.New("record not found")

// StorageError wraps any failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// caseRecordUpdateColumns are overwritten when an upsert hits an existing
// row. created_at is deliberately absent.
var caseRecordUpdateColumns = []string{
	"court_name", "case_title", "case_type", "year",
	"filing_date", "next_hearing_date", "case_status",
	"petitioner", "respondent", "judge_name", "judgment_url",
	"raw_response", "success", "error_message", "updated_at",
}

// Store is the case record and cause-list store. It is safe for
// concurrent use.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// FindByCanonicalKey returns the record for a canonical case number or
// ErrNotFound.
func (s *Store) FindByCanonicalKey(ctx context.Context, key string) (*CaseRecord, error) {
	var rec CaseRecord
	err := s.db.WithContext(ctx).Where("case_number = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find case", err)
	}
	return &rec, nil
}

// UpsertByCanonicalKey inserts rec under key or overwrites the existing row
// for key, and returns the stored row.
func (s *Store) UpsertByCanonicalKey(ctx context.Context, key string, rec *CaseRecord) (*CaseRecord, error) {
	row := *rec
	row.ID = 0
	row.CaseNumber = key
	row.CreatedAt = time.Time{}
	row.UpdatedAt = time.Time{}

	var stored CaseRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "case_number"}},
			DoUpdates: clause.AssignmentColumns(caseRecordUpdateColumns),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("case_number = ?", key).First(&stored).Error
	})
	if err != nil {
		return nil, storageErr("upsert case", err)
	}
	return &stored, nil
}

// RecentCases returns case records, most recently updated first, with the
// total row count.
func (s *Store) RecentCases(ctx context.Context, offset, limit int) ([]CaseRecord, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&CaseRecord{}).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count cases", err)
	}

	var cases []CaseRecord
	if err := s.db.WithContext(ctx).
		Order("updated_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&cases).Error; err != nil {
		return nil, 0, storageErr("list cases", err)
	}
	return cases, total, nil
}

// ListCauseList returns entries for a court and date ordered by hearing
// time (unscheduled last), then case number. Empty filters match all rows.
func (s *Store) ListCauseList(ctx context.Context, courtName, date string, skip, limit int) ([]CauseListEntry, error) {
	q := s.db.WithContext(ctx).Model(&CauseListEntry{})
	if courtName != "" {
		q = q.Where("court_name = ?", courtName)
	}
	if date != "" {
		q = q.Where("date = ?", date)
	}

	var entries []CauseListEntry
	err := q.
		Order("hearing_time IS NULL").
		Order("hearing_time ASC").
		Order("case_number ASC").
		Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("list cause list", err)
	}
	return entries, nil
}

// CreateCauseListEntry inserts a single entry.
func (s *Store) CreateCauseListEntry(ctx context.Context, entry *CauseListEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return storageErr("create cause list entry", err)
	}
	return nil
}

// InsertCauseListEntries appends entries in one transaction and returns how
// many were written.
func (s *Store) InsertCauseListEntries(ctx context.Context, entries []CauseListEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&entries, 100).Error
	})
	if err != nil {
		return 0, storageErr("insert cause list entries", err)
	}
	return len(entries), nil
}

// FindCauseListDuplicates returns the keys of entries that already have a
// stored row with the same court, date and case number.
func (s *Store) FindCauseListDuplicates(ctx context.Context, entries []CauseListEntry) (map[DuplicateKey]struct{}, error) {
	type courtDate struct{ court, date string }
	grouped := make(map[courtDate][]string)
	for i := range entries {
		cd := courtDate{entries[i].CourtName, entries[i].Date}
		grouped[cd] = append(grouped[cd], entries[i].CaseNumber)
	}

	dups := make(map[DuplicateKey]struct{})
	for cd, numbers := range grouped {
		var existing []string
		err := s.db.WithContext(ctx).Model(&CauseListEntry{}).
			Where("court_name = ? AND date = ? AND case_number IN ?", cd.court, cd.date, numbers).
			Distinct().
			Pluck("case_number", &existing).Error
		if err != nil {
			return nil, storageErr("find cause list duplicates", err)
		}
		for _, n := range existing {
			dups[DuplicateKey{CourtName: cd.court, Date: cd.date, CaseNumber: n}] = struct{}{}
		}
	}
	return dups, nil
}

// CauseListForCase returns the listings of one canonical case number on or
// after since, oldest first.
func (s *Store) CauseListForCase(ctx context.Context, caseNumber, since string) ([]CauseListEntry, error) {
	var entries []CauseListEntry
	err := s.db.WithContext(ctx).
		Where("case_number = ? AND date >= ?", caseNumber, since).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("list case listings", err)
	}
	return entries, nil
}

// CauseListMatching returns listings whose case number contains fragment
// (case-insensitive) on or after since, oldest first. LIKE wildcards in
// fragment match literally.
func (s *Store) CauseListMatching(ctx context.Context, fragment, since string) ([]CauseListEntry, error) {
	var entries []CauseListEntry
	err := s.db.WithContext(ctx).
		Where(`LOWER(case_number) LIKE ? ESCAPE '\' AND date >= ?`, containsPattern(fragment), since).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("list case listings", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a lower-case LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// CauseListFilter selects cause-list rows. Zero fields match everything.
type CauseListFilter struct {
	CourtName  string
	Judge      string // case-insensitive substring of judge_name
	Status     string // exact case_status
	DateFrom   string // inclusive
	DateTo     string // inclusive
	CaseNumber string // case-insensitive substring of case_number
	Skip       int
	Limit      int
}

// CauseListFiltered returns rows matching f in the same order as
// ListCauseList.
func (s *Store) CauseListFiltered(ctx context.Context, f CauseListFilter) ([]CauseListEntry, error) {
	q := s.db.WithContext(ctx).Model(&CauseListEntry{})
	if f.CourtName != "" {
		q = q.Where("court_name = ?", f.CourtName)
	}
	if f.Judge != "" {
		q = q.Where(`LOWER(judge_name) LIKE ? ESCAPE '\'`, containsPattern(f.Judge))
	}
	if f.Status != "" {
		q = q.Where("case_status = ?", f.Status)
	}
	if f.DateFrom != "" {
		q = q.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("date <= ?", f.DateTo)
	}
	if f.CaseNumber != "" {
		q = q.Where(`LOWER(case_number) LIKE ? ESCAPE '\'`, containsPattern(f.CaseNumber))
	}

	var entries []CauseListEntry
	err := q.
		Order("hearing_time IS NULL").
		Order("hearing_time ASC").
		Order("case_number ASC").
		Order("id ASC").
		Offset(f.Skip).Limit(f.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("filter cause list", err)
	}
	return entries, nil
}

// CauseListRange returns entries dated between from and to inclusive,
// optionally restricted to one court.
func (s *Store) CauseListRange(ctx context.Context, courtName, from, to string) ([]CauseListEntry, error) {
	q := s.db.WithContext(ctx).Where("date >= ? AND date <= ?", from, to)
	if courtName != "" {
		q = q.Where("court_name = ?", courtName)
	}

	var entries []CauseListEntry
	if err := q.Order("date ASC").Order("id ASC").Find(&entries).Error; err != nil {
		return nil, storageErr("list cause list range", err)
	}
	return entries, nil
}
