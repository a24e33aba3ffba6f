package recent

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(number string) Entry {
	return Entry{CaseType: "WP", CaseNumber: number, Year: 2023, SearchDate: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func TestAddNewestFirst(t *testing.T) {
	var l List
	l = l.Add(entry("1"))
	l = l.Add(entry("2"))

	require.Len(t, l, 2)
	assert.Equal(t, "2", l[0].CaseNumber)
	assert.Equal(t, "1", l[1].CaseNumber)
	_, err := uuid.Parse(l[0].ID)
	assert.NoError(t, err)
}

func TestAddMovesRepeatToFront(t *testing.T) {
	var l List
	for _, n := range []string{"1", "2", "3"} {
		l = l.Add(entry(n))
	}
	l = l.Add(Entry{CaseType: "wp", CaseNumber: "1", Year: 2023})

	require.Len(t, l, 3)
	assert.Equal(t, []string{"1", "3", "2"}, []string{l[0].CaseNumber, l[1].CaseNumber, l[2].CaseNumber})
}

func TestAddIsBounded(t *testing.T) {
	var l List
	for i := 0; i < 15; i++ {
		l = l.Add(entry(fmt.Sprint(i)))
	}

	require.Len(t, l, MaxEntries)
	assert.Equal(t, "14", l[0].CaseNumber)
	assert.Equal(t, "5", l[MaxEntries-1].CaseNumber)
}

func TestAddDoesNotMutateReceiver(t *testing.T) {
	l := List{entry("1"), entry("2")}
	_ = l.Add(entry("3"))
	assert.Equal(t, "1", l[0].CaseNumber)
}

func TestEncodeDecode(t *testing.T) {
	l := List{}.Add(entry("5678"))

	value, err := l.Encode()
	require.NoError(t, err)
	assert.NotContains(t, value, ";")

	got, err := Decode(value)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, l[0].ID, got[0].ID)
	assert.Equal(t, "5678", got[0].CaseNumber)
}

func TestDecodeBadInput(t *testing.T) {
	l, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, l)

	l, err = Decode("%%%")
	assert.Error(t, err)
	assert.Empty(t, l)

	l, err = Decode("bm90IGpzb24")
	assert.Error(t, err)
	assert.NotNil(t, l)
}
