package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() FlightRecord {
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	return FlightRecord{
		FlightDate: date,
		Weekday:    WeekdayName(date),
		Airline:    "东方航空",
		Craft:      CraftLarge,
		DepName:    "上海虹桥",
		ArrName:    "北京首都",
		DepTime:    "07:00",
		ArrTime:    "09:15",
		Price:      980,
		Rate:       0.79,
	}
}

func TestParseCraftSize(t *testing.T) {
	tests := []struct {
		desc string
		want CraftSize
	}{
		{"小型", CraftSmall},
		{"中型", CraftMedium},
		{"大型", CraftLarge},
		{"大", CraftLarge},
		{"s", CraftSmall},
		{"L", CraftLarge},
		{"", CraftMedium},
		{"超大型", CraftMedium},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCraftSize(tt.desc))
		})
	}
}

func TestCraftSize_IsLarge(t *testing.T) {
	assert.True(t, CraftLarge.IsLarge())
	assert.True(t, CraftMedium.IsLarge())
	assert.False(t, CraftSmall.IsLarge())
}

func TestWeekdayClass(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"星期一", 0.5},
		{"星期二", 0},
		{"星期三", 0},
		{"星期四", 0},
		{"星期五", 0.5},
		{"星期六", 1},
		{"星期日", 1},
		{"周六", 1},
		{"Friday", 0.5},
		{"sun", 1},
		{"1", 0.5},
		{"7", 1},
		{"3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeekdayClass(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekdayClass_AlwaysOneOfThreeValues(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		got, err := WeekdayClass(WeekdayName(start.AddDate(0, 0, i)))
		require.NoError(t, err)
		assert.Contains(t, []float64{0, 0.5, 1}, got)
	}
}

func TestWeekdayClass_Unknown(t *testing.T) {
	_, err := WeekdayClass("someday")
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestFlightRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *FlightRecord)
		wantErr bool
	}{
		{"valid record", func(r *FlightRecord) {}, false},
		{"zero price", func(r *FlightRecord) { r.Price = 0 }, true},
		{"zero rate", func(r *FlightRecord) { r.Rate = 0 }, true},
		{"bad departure time", func(r *FlightRecord) { r.DepTime = "7:00" }, true},
		{"bad arrival time", func(r *FlightRecord) { r.ArrTime = "24:10" }, true},
		{"missing airport", func(r *FlightRecord) { r.ArrName = "" }, true},
		{"missing date", func(r *FlightRecord) { r.FlightDate = time.Time{} }, true},
		{"rate above full fare", func(r *FlightRecord) { r.Rate = 1.2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlightRecord_DepHour(t *testing.T) {
	r := validRecord()
	r.DepTime = "21:45"
	assert.Equal(t, 21, r.DepHour())
}

func TestFlightRecord_Row(t *testing.T) {
	row := validRecord().Row()
	require.Len(t, row, len(RecordColumns))
	assert.Equal(t, "2026-10-20", row[0])
	assert.Equal(t, "星期二", row[1])
	assert.Equal(t, "L", row[3])
	assert.Equal(t, 980, row[8])
}

func TestPreprocessedRecord_Row(t *testing.T) {
	p := PreprocessedRecord{
		Index:   3,
		LeadDay: 5,
		Holiday: HolidayFlags{InHoliday: true},
		From:    PlaceFactors{AirportFactor: 0.9, Tourism: true},
		Rate:    0.6,
	}
	row := p.Row()
	require.Len(t, row, len(PreprocessedColumns))
	assert.Len(t, PreprocessedColumns, 23)
	assert.Equal(t, 3, row[0])
	assert.Equal(t, 1, row[5])
	assert.Equal(t, 0, row[6])
	assert.Equal(t, 0.9, row[11])
	assert.Equal(t, 1, row[14])
	assert.Equal(t, 0.6, row[19])
}
