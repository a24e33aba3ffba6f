// Package recent keeps a client's recent case searches. The list lives in
// a cookie on the client, so it is never shared and may disagree with the
// store.
package recent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the cookie that carries the list.
	CookieName = "recent_searches"
	// MaxEntries bounds the list.
	MaxEntries = 10
)

type Entry struct {
	ID         string    `json:"id"`
	CaseType   string    `json:"case_type"`
	CaseNumber string    `json:"case_number"`
	Year       int       `json:"year"`
	CourtName  string    `json:"court_name,omitempty"`
	SearchDate time.Time `json:"search_date"`
}

func (e Entry) sameCase(o Entry) bool {
	return strings.EqualFold(e.CaseType, o.CaseType) &&
		strings.EqualFold(e.CaseNumber, o.CaseNumber) &&
		e.Year == o.Year
}

// List is ordered newest first.
type List []Entry

// Add puts e at the front, dropping any older search for the same case and
// trimming the list to MaxEntries.
func (l List) Add(e Entry) List {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	out := make(List, 0, MaxEntries)
	out = append(out, e)
	for _, old := range l {
		if len(out) == MaxEntries {
			break
		}
		if old.sameCase(e) {
			continue
		}
		out = append(out, old)
	}
	return out
}

// Encode serialises the list for a cookie value.
func (l List) Encode() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to encode recent searches: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a cookie value. An empty value is an empty list; anything
// unreadable is an error so the caller can reset the cookie.
func Decode(value string) (List, error) {
	if value == "" {
		return List{}, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return List{}, fmt.Errorf("failed to decode recent searches: %w", err)
	}
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return List{}, fmt.Errorf("failed to decode recent searches: %w", err)
	}
	if len(l) > MaxEntries {
		l = l[:MaxEntries]
	}
	if l == nil {
		l = List{}
	}
	return l, nil
}
