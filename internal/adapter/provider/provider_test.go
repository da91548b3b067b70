package provider

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/refdb"
)

func TestKeep(t *testing.T) {
	tests := []struct {
		name   string
		legs   int
		shared string
		stops  int
		want   bool
	}{
		{"direct", 1, "", 0, true},
		{"blank shared number", 1, "  ", 0, true},
		{"connecting", 2, "", 0, false},
		{"codeshare", 1, "MU5101", 0, false},
		{"with stop", 1, "", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keep(tt.legs, tt.shared, tt.stops))
		})
	}
}

func TestAirlineName(t *testing.T) {
	assert.Equal(t, "上海航空", AirlineName("东方航空旗下上海航空"))
	assert.Equal(t, "春秋航空", AirlineName(" 春秋航空 "))
}

func testRaw() RawFlight {
	return RawFlight{
		Airline:   "南方航空",
		Craft:     "中型",
		Dep:       Endpoint{CityCode: "BJS", CityName: "北京", AirportCode: "PKX", AirportName: "北京大兴国际机场"},
		Arr:       Endpoint{CityCode: "CAN", CityName: "广州", AirportCode: "CAN", AirportName: "广州白云国际机场"},
		DepartsAt: "2026-11-01 08:05:00",
		ArrivesAt: "2026-11-01 11:20:00",
		Price:     890.4,
		Rate:      0.52,
	}
}

func TestNormalize(t *testing.T) {
	db, err := refdb.Default()
	require.NoError(t, err)
	date, err := timeutil.ParseDate("2026-11-01")
	require.NoError(t, err)

	rec, err := Normalize(db, date, testRaw())
	require.NoError(t, err)

	assert.Equal(t, domain.FlightRecord{
		FlightDate: date,
		Weekday:    domain.WeekdayName(date),
		Airline:    "南方航空",
		Craft:      domain.CraftMedium,
		DepName:    "北京大兴",
		ArrName:    "广州",
		DepTime:    "08:05",
		ArrTime:    "11:20",
		Price:      890,
		Rate:       0.52,
	}, rec)
}

func TestNormalize_UnknownCityUsesPayloadName(t *testing.T) {
	db, err := refdb.Default()
	require.NoError(t, err)
	date, err := timeutil.ParseDate("2026-11-01")
	require.NoError(t, err)

	raw := testRaw()
	raw.Arr = Endpoint{CityCode: "YBP", CityName: "宜宾", AirportCode: "YBP", AirportName: "宜宾五粮液机场"}

	rec, err := Normalize(db, date, raw)
	require.NoError(t, err)
	assert.Equal(t, "宜宾", rec.ArrName)
	assert.Equal(t, "宜宾", db.CityOf("YBP"))
}

func TestNormalize_Errors(t *testing.T) {
	db, err := refdb.Default()
	require.NoError(t, err)
	date, err := timeutil.ParseDate("2026-11-01")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(r *RawFlight)
		wantErr error
		wantMsg string
	}{
		{
			name:    "bad departure",
			mutate:  func(r *RawFlight) { r.DepartsAt = "soon" },
			wantMsg: "departure",
		},
		{
			name:    "bad arrival",
			mutate:  func(r *RawFlight) { r.ArrivesAt = "2026-11-01 25:00" },
			wantMsg: "arrival",
		},
		{
			name:    "zero price",
			mutate:  func(r *RawFlight) { r.Price = 0 },
			wantErr: domain.ErrInvalidRecord,
		},
		{
			name:    "missing rate",
			mutate:  func(r *RawFlight) { r.Rate = 0 },
			wantErr: domain.ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testRaw()
			tt.mutate(&raw)

			_, err := Normalize(db, date, raw)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestClockOf(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2026-11-01 08:05:00", "08:05", false},
		{"2026-11-01T21:40:00", "21:40", false},
		{"07:30", "07:30", false},
		{"7:30", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := clockOf(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClients_For(t *testing.T) {
	clients := NewClients(0)

	direct, err := clients.For("")
	require.NoError(t, err)
	again, err := clients.For("")
	require.NoError(t, err)
	assert.Same(t, direct, again, "clients are cached per proxy")

	proxied, err := clients.For("http://10.0.0.1:8080")
	require.NoError(t, err)
	assert.NotSame(t, direct, proxied)

	_, err = clients.For("http://")
	assert.Error(t, err)
}

func TestClients_ProxiedCacheIsBounded(t *testing.T) {
	clients := NewClients(0)

	first, err := clients.For("http://10.0.0.0:8080")
	require.NoError(t, err)

	transports := map[http.RoundTripper]bool{}
	for i := 0; i < 500; i++ {
		cl, err := clients.For(fmt.Sprintf("http://10.0.%d.%d:8080", i/250, i%250))
		require.NoError(t, err)
		transports[cl.Transport] = true
	}
	assert.Equal(t, MaxProxyClients, clients.Len())

	again, err := clients.For("http://10.0.0.0:8080")
	require.NoError(t, err)
	assert.NotSame(t, first, again, "evicted proxies get a fresh client")

	direct, err := clients.For("")
	require.NoError(t, err)
	assert.False(t, transports[direct.Transport])
}

func TestReadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ok")
	require.NoError(t, err)
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{}}`, string(body))

	resp, err = http.Get(srv.URL + "/fail")
	require.NoError(t, err)
	_, err = ReadBody(resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRandomUserAgent(t *testing.T) {
	pool := strings.Join(UserAgents(), "\n")
	for i := 0; i < 20; i++ {
		assert.Contains(t, pool, RandomUserAgent())
	}
}
