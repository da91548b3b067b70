package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesCollectionZone(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"morning UTC is same day", time.Date(2026, 10, 16, 2, 0, 0, 0, time.UTC), "2026-10-16"},
		{"late UTC rolls to next day", time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC), "2026-10-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			today := Today(NewMockClock(tt.now))
			assert.Equal(t, tt.want, FormatDate(today))
			assert.Equal(t, time.UTC, today.Location())
			assert.Zero(t, today.Hour())
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-16")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("2026-13-01")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, DaysBetween(a, b))
	assert.Equal(t, -4, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))

	leap := time.Date(2028, 2, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(leap, time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAddDays(t *testing.T) {
	d := time.Date(2026, 12, 30, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "2027-01-02", FormatDate(AddDays(d, 3)))
	assert.Zero(t, AddDays(d, 0).Hour())
}

func TestLocation(t *testing.T) {
	l := Location()
	_, offset := time.Date(2026, 7, 1, 0, 0, 0, 0, l).Zone()
	assert.Equal(t, 8*60*60, offset)
}
