// Package caseid holds the court case identifier, its validation rules and
// the canonical case number used as the natural key for stored records.
package caseid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxCaseNumberLen = 20

var caseNumberPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Identifier names a single case at a court.
type Identifier struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	Year       int    `json:"year"`
	CourtName  string `json:"court_name"`
}

// ValidationError reports a malformed identifier field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Normalize returns the identifier with type and number trimmed and
// upper-cased. The court name is trimmed only.
func (id Identifier) Normalize() Identifier {
	return Identifier{
		CaseType:   normalizeType(id.CaseType),
		CaseNumber: strings.ToUpper(strings.TrimSpace(id.CaseNumber)),
		Year:       id.Year,
		CourtName:  strings.TrimSpace(id.CourtName),
	}
}

// CanonicalKey returns "{type} {number}/{year}". It depends only on the
// type, number and year, never on the court.
func (id Identifier) CanonicalKey() string {
	n := id.Normalize()
	return fmt.Sprintf("%s %s/%d", n.CaseType, n.CaseNumber, n.Year)
}

func (id Identifier) String() string {
	return id.CanonicalKey()
}

// Validate checks the identifier against the catalogue and the current
// date. The court name is not validated; callers substitute a default.
func (id Identifier) Validate(now time.Time) error {
	n := id.Normalize()

	if n.CaseType == "" {
		return &ValidationError{Field: "case_type", Message: "is required"}
	}
	if _, ok := Lookup(n.CaseType); !ok {
		return &ValidationError{Field: "case_type", Message: fmt.Sprintf("unknown case type %q", n.CaseType)}
	}

	if n.CaseNumber == "" {
		return &ValidationError{Field: "case_number", Message: "is required"}
	}
	if len(n.CaseNumber) > maxCaseNumberLen {
		return &ValidationError{Field: "case_number", Message: fmt.Sprintf("must be at most %d characters", maxCaseNumberLen)}
	}
	if !caseNumberPattern.MatchString(n.CaseNumber) {
		return &ValidationError{Field: "case_number", Message: "must contain only letters and digits"}
	}

	if n.Year < 1000 || n.Year > 9999 {
		return &ValidationError{Field: "year", Message: "must be a 4-digit year"}
	}
	if n.Year > now.Year() {
		return &ValidationError{Field: "year", Message: "must not be in the future"}
	}

	return nil
}

var canonicalPatterns = []*regexp.Regexp{
	// WP 5678/2023, WP(C) 456/2024, CRL.A. 12/2024
	regexp.MustCompile(`^([A-Z][A-Z.()]*?)\.?\s+([A-Z0-9]+)\s*/\s*(\d{4})$`),
	// WP/5678/2023
	regexp.MustCompile(`^([A-Z][A-Z.()]*?)\.?\s*/\s*([A-Z0-9]+)\s*/\s*(\d{4})$`),
	// WP5678/2023
	regexp.MustCompile(`^([A-Z][A-Z.()]*?[A-Z)])(\d[A-Z0-9]*)\s*/\s*(\d{4})$`),
}

// typeQualifier matches a bracketed type suffix written with spaces, as in
// "WP (C)" or "CRL.M.C ( MAIN )".
var typeQualifier = regexp.MustCompile(`\s*\(\s*([A-Z0-9.]+)\s*\)`)

// Parse reads a canonical case number such as "WP 5678/2023". The court
// name of the result is empty. The parsed identifier is not validated.
func Parse(s string) (Identifier, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Identifier{}, &ValidationError{Field: "case_number", Message: "is required"}
	}
	s = typeQualifier.ReplaceAllString(s, "($1)")

	for _, p := range canonicalPatterns {
		m := p.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		return Identifier{CaseType: m[1], CaseNumber: m[2], Year: year}, nil
	}

	return Identifier{}, &ValidationError{
		Field:   "case_number",
		Message: fmt.Sprintf("%q is not of the form \"TYPE NUMBER/YEAR\"", s),
	}
}

func normalizeType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	t = strings.TrimSuffix(t, ".")
	return strings.Join(strings.Fields(t), "")
}
