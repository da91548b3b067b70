package preprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := timeutil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestHolidayTable_Flags(t *testing.T) {
	table := DefaultHolidayTable()

	tests := []struct {
		name string
		date string
		want domain.HolidayFlags
	}{
		{
			name: "spring festival anchor plus two",
			date: "2026-02-18",
			want: domain.HolidayFlags{SpringFestival: true, InHoliday: true},
		},
		{
			name: "week before spring festival",
			date: "2026-02-10",
			want: domain.HolidayFlags{SpringFestival: true, BeforeHoliday: true},
		},
		{
			name: "first day after spring festival break",
			date: "2026-02-24",
			want: domain.HolidayFlags{SpringFestival: true, AfterHoliday: true},
		},
		{
			name: "day before labor day",
			date: "2026-04-30",
			want: domain.HolidayFlags{BeforeHoliday: true},
		},
		{
			name: "labor day itself",
			date: "2026-05-01",
			want: domain.HolidayFlags{InHoliday: true},
		},
		{
			name: "after labor day window",
			date: "2026-05-06",
			want: domain.HolidayFlags{AfterHoliday: true},
		},
		{
			name: "late december sees next new year",
			date: "2026-12-28",
			want: domain.HolidayFlags{BeforeHoliday: true},
		},
		{
			name: "ordinary day",
			date: "2026-03-10",
			want: domain.HolidayFlags{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Flags(date(t, tt.date))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHolidayTable_DeltaBoundaries(t *testing.T) {
	table := NewHolidayTable()
	table.Add(Anchor{Name: "春节", Date: date(t, "2030-02-02")})
	table.Add(Anchor{Name: "国庆", Date: date(t, "2030-10-01"), Duration: 7})

	anchor := date(t, "2030-10-01")
	for delta := -9; delta <= 16; delta++ {
		flags, err := table.Flags(timeutil.AddDays(anchor, delta))
		require.NoError(t, err)
		assert.Equal(t, delta >= -7 && delta < 0, flags.BeforeHoliday, "before at %d", delta)
		assert.Equal(t, delta >= 0 && delta < 7, flags.InHoliday, "in at %d", delta)
		assert.Equal(t, delta-7 >= 0 && delta-7 <= 7, flags.AfterHoliday, "after at %d", delta)
		assert.False(t, flags.SpringFestival)
	}
}

func TestHolidayTable_MissingSpringFestival(t *testing.T) {
	table := DefaultHolidayTable()
	_, err := table.Flags(date(t, "2031-03-01"))
	assert.ErrorIs(t, err, domain.ErrHolidayTableIncomplete)

	empty := NewHolidayTable()
	empty.Add(Anchor{Name: "国庆", Date: date(t, "2026-10-01"), Duration: 7})
	_, err = empty.Flags(date(t, "2026-10-02"))
	assert.ErrorIs(t, err, domain.ErrHolidayTableIncomplete)
}

func TestDefaultHolidayTable_Years(t *testing.T) {
	years := DefaultHolidayTable().Years()
	assert.Equal(t, 2019, years[0])
	assert.Equal(t, 2030, years[len(years)-1])
	assert.Len(t, years, 12)
}
