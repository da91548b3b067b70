package refdb

import (
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Default()
	require.NoError(t, err)
	return db
}

func TestDefault_Loads(t *testing.T) {
	db := newTestDB(t)
	assert.GreaterOrEqual(t, len(db.Cities()), 30)
}

func TestCityOf(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		code string
		want string
	}{
		{"BJS", "北京"},
		{"PEK", "北京"},
		{"PKX", "北京"},
		{"SHA", "上海"},
		{"PVG", "上海"},
		{"XIY", "西安"},
		{"SIA", "西安"},
		{"can", "广州"},
		{"ZZZ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, db.CityOf(tt.code))
		})
	}
}

func TestCodeOf(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "BJS", db.CodeOf("北京", false))
	assert.Equal(t, "PEK", db.CodeOf("北京", true))
	assert.Equal(t, "SIA", db.CodeOf("西安", false))
	assert.Equal(t, "XIY", db.CodeOf("西安", true))
	assert.Equal(t, "", db.CodeOf("宜宾", false))
}

func TestDefaults(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, DefaultAirportFactor, db.AirportFactor("宜宾"))
	assert.Equal(t, DefaultCityClass, db.CityClass("宜宾"))
	assert.Equal(t, DefaultCityLocation, db.CityLocation("宜宾"))
	assert.False(t, db.IsTourism("宜宾"))
}

func TestAirportFactor(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, 0.95, db.AirportFactor("PEK"))
	assert.Equal(t, 0.75, db.AirportFactor("PKX"))
	assert.Equal(t, 0.75, db.AirportFactor("北京大兴"))
	assert.Equal(t, 0.95, db.AirportFactor("上海"))
	assert.Equal(t, 0.95, db.AirportFactor("SHA"))
	assert.Equal(t, 0.85, db.AirportFactor("上海虹桥"))
	assert.Equal(t, 0.9, db.AirportFactor("广州"))
}

func TestFullFare_Symmetric(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"airport codes", "PEK", "SHA", 1240},
		{"city code aliases to airport", "BJS", "SHA", 1240},
		{"city names", "北京", "上海", 1240},
		{"display names", "北京首都", "上海虹桥", 1240},
		{"single airport cities", "CAN", "CTU", 1390},
		{"unknown route", "LXA", "KWL", 0},
		{"unknown city", "宜宾", "北京", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.FullFare(tt.a, tt.b))
			assert.Equal(t, db.FullFare(tt.a, tt.b), db.FullFare(tt.b, tt.a))
		})
	}
}

func TestIsMultiAirport(t *testing.T) {
	db := newTestDB(t)
	assert.True(t, db.IsMultiAirport("BJS"))
	assert.True(t, db.IsMultiAirport("PVG"))
	assert.True(t, db.IsMultiAirport("成都"))
	assert.False(t, db.IsMultiAirport("CAN"))
	assert.False(t, db.IsMultiAirport("ZZZ"))
}

func TestSkippedRoutes(t *testing.T) {
	db := newTestDB(t)

	base := db.SkippedRoutes(2)
	assert.True(t, base.Has("TSN", "BJS"))
	assert.True(t, base.Has("BJS", "TSN"))
	assert.False(t, base.Has("CTU", "CKG"))

	ext := db.SkippedRoutes(3)
	assert.True(t, ext.Has("BJS", "TSN"))
	assert.True(t, ext.Has("CKG", "CTU"))
	assert.Greater(t, len(ext), len(base))

	for p := range ext {
		assert.Equal(t, ext.Has(p.A, p.B), ext.Has(p.B, p.A))
	}
}

func TestDisplayName(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name        string
		code        string
		payloadCity string
		airportName string
		want        string
	}{
		{"multi airport with payload name", "PEK", "北京", "北京首都国际机场", "北京首都"},
		{"multi airport without payload name", "PVG", "上海", "", "上海浦东"},
		{"multi airport without city prefix", "TFU", "成都", "天府国际机场", "成都天府"},
		{"single airport city", "CAN", "广州", "广州白云国际机场", "广州"},
		{"unknown code", "YBP", "宜宾", "宜宾五粮液机场", "宜宾"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.DisplayName(tt.code, tt.payloadCity, tt.airportName))
		})
	}

	assert.Equal(t, "宜宾", db.CityOf("YBP"))
	assert.Equal(t, []string{"YBP=宜宾"}, db.Remembered())
}

func TestRemember_Concurrent(t *testing.T) {
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db.Remember("YBP", "宜宾")
			_ = db.CityOf("YBP")
		}()
	}
	wg.Wait()

	assert.Equal(t, "宜宾", db.CityOf("YBP"))
}

func TestRemember_IgnoresKnownCodes(t *testing.T) {
	db := newTestDB(t)
	db.Remember("PEK", "别名")
	assert.Equal(t, "北京", db.CityOf("PEK"))
	assert.Empty(t, db.Remembered())
}

func TestCityOfName(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "北京", db.CityOfName("北京大兴"))
	assert.Equal(t, "上海", db.CityOfName("上海"))
	assert.Equal(t, "广州", db.CityOfName("广州白云"))
	assert.Equal(t, "宜宾", db.CityOfName("宜宾"))
}

func TestRouteClass(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "干线", db.RouteClass("北京", "上海"))
	assert.Equal(t, "次干线", db.RouteClass("南京", "武汉"))
	assert.Equal(t, "支线", db.RouteClass("拉萨", "桂林"))
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte(`{
		"cities": [
			{"code": "AAA", "name": "甲", "factor": 1, "class": 1, "location": 1, "airports": [{"code": "AAA", "name": "甲机场", "factor": 1}]},
			{"code": "BBB", "name": "乙", "factor": 1, "class": 1, "location": 1, "airports": [{"code": "BBB", "name": "乙机场", "factor": 1}]}
		],
		"fares": [{"route": "AAA-BBB", "fare": 700}],
		"skip": {"base": ["AAA-BBB"]}
	}`)
	require.NoError(t, afero.WriteFile(fs, "/ref.json", data, 0o644))

	db, err := Open(fs, "/ref.json")
	require.NoError(t, err)
	assert.Equal(t, 700, db.FullFare("BBB", "AAA"))
	assert.True(t, db.SkippedRoutes(0).Has("BBB", "AAA"))

	_, err = Open(fs, "/missing.json")
	assert.Error(t, err)

	def, err := Open(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "北京", def.CityOf("PEK"))
}

func TestParse_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{`},
		{"bad city code", `{"cities": [{"code": "aa", "name": "甲"}]}`},
		{"bad fare route", `{"fares": [{"route": "AAA", "fare": 1}]}`},
		{"bad skip entry", `{"skip": {"base": ["AAA-AAA"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
