package batchsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/refdb"
)

const directItinerary = `{
	"itineraryId": "MU5101",
	"flightSegments": [{"segmentNo": 1, "flightList": [{
		"flightNo": "MU5101",
		"marketAirlineName": "东方航空",
		"aircraftSize": "L",
		"departureCityCode": "SHA", "departureCityName": "上海", "departureAirportCode": "SHA", "departureAirportName": "上海虹桥国际机场",
		"arrivalCityCode": "BJS", "arrivalCityName": "北京", "arrivalAirportCode": "PEK", "arrivalAirportName": "北京首都国际机场",
		"departureDateTime": "2026-10-20 07:00:00",
		"arrivalDateTime": "2026-10-20 09:15:00",
		"stopList": []
	}]}],
	"priceList": [{"sortPrice": 980, "priceUnitList": [{"flightSeatList": [{"discountRate": 0.79}]}]}]
}`

type fakeUpstream struct {
	listBody   string
	listStatus int
	searchBody string

	gotQuery   map[string]string
	gotHeaders http.Header
	gotPayload searchPayload
}

func (f *fakeUpstream) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		f.gotQuery = map[string]string{
			"dcity":   r.URL.Query().Get("dcity"),
			"acity":   r.URL.Query().Get("acity"),
			"depdate": r.URL.Query().Get("depdate"),
		}
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
		}
		_, _ = io.WriteString(w, f.listBody)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&f.gotPayload)
		_, _ = io.WriteString(w, f.searchBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestAdapter(t *testing.T, up *fakeUpstream, clock timeutil.Clock) *Adapter {
	t.Helper()
	server := up.server(t)
	db, err := refdb.Default()
	require.NoError(t, err)
	return NewAdapter(Config{
		ListURL:   server.URL + "/list",
		SearchURL: server.URL + "/search",
		Timeout:   time.Second,
		Clock:     clock,
		RandomID:  func() string { return "abc123" },
	}, db)
}

func testRequest() domain.FetchRequest {
	return domain.FetchRequest{
		FlightDate:  time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Origin:      "SHA",
		Destination: "BJS",
		UserAgent:   "test-agent",
	}
}

func TestSign(t *testing.T) {
	// md5("tx1SHABJS2026-10-20")
	got := Sign("tx1", "SHA", "BJS", "2026-10-20")
	assert.Len(t, got, 32)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), got)
	assert.Equal(t, got, Sign("tx1", "SHA", "BJS", "2026-10-20"))
	assert.NotEqual(t, got, Sign("tx1", "BJS", "SHA", "2026-10-20"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Sign("", "", "", ""))
}

func TestCookie(t *testing.T) {
	now := time.UnixMilli(1760572800123)
	assert.Equal(t, "_bfa=1.1760572800123.abc123.1.1760572800123.1760572800123.1.1", Cookie(now, "abc123"))
}

func TestRandomID(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Regexp(t, `^[a-z0-9]{6}$`, randomID())
	}
}

func TestAdapter_Fetch_SignedSearch(t *testing.T) {
	up := &fakeUpstream{
		listBody:   `{"data": {"transactionID": "tx-42", "scope": "d"}}`,
		searchBody: `{"data": {"flightItineraryList": [` + directItinerary + `]}}`,
	}
	clock := timeutil.NewMockClock(time.UnixMilli(1760572800123))
	adapter := newTestAdapter(t, up, clock)

	out := adapter.Fetch(context.Background(), testRequest())
	require.Equal(t, domain.OutcomeOK, out.Kind, "outcome %v", out.Err)
	require.Len(t, out.Records, 1)

	r := out.Records[0]
	assert.Equal(t, "东方航空", r.Airline)
	assert.Equal(t, domain.CraftLarge, r.Craft)
	assert.Equal(t, "上海虹桥", r.DepName)
	assert.Equal(t, "北京首都", r.ArrName)
	assert.Equal(t, 980, r.Price)
	assert.Equal(t, 0.79, r.Rate)

	assert.Equal(t, map[string]string{"dcity": "SHA", "acity": "BJS", "depdate": "2026-10-20"}, up.gotQuery)
	assert.Equal(t, "tx-42", up.gotHeaders.Get("transactionID"))
	assert.Equal(t, "d", up.gotHeaders.Get("scope"))
	assert.Equal(t, Sign("tx-42", "SHA", "BJS", "2026-10-20"), up.gotHeaders.Get("sign"))
	assert.Equal(t, Cookie(clock.Now(), "abc123"), up.gotHeaders.Get("Cookie"))
	assert.Equal(t, "test-agent", up.gotHeaders.Get("User-Agent"))

	assert.Equal(t, "tx-42", up.gotPayload.TransactionID)
	require.Len(t, up.gotPayload.FlightSegments, 1)
	assert.Equal(t, "上海", up.gotPayload.FlightSegments[0].DepartureCityName)
}

func TestAdapter_Fetch_Outcomes(t *testing.T) {
	tests := []struct {
		name         string
		up           fakeUpstream
		wantKind     domain.OutcomeKind
		wantRecords  int
		wantWarnings int
	}{
		{
			name: "filters transfers, shared and stopping flights",
			up: fakeUpstream{
				listBody: `{"data": {"transactionID": "tx", "scope": "d"}}`,
				searchBody: `{"data": {"flightItineraryList": [
					{"flightSegments": [{"flightList": [{"marketAirlineName": "A"}, {"marketAirlineName": "B"}]}], "priceList": [{"sortPrice": 1}]},
					{"flightSegments": [{"flightList": [{"marketAirlineName": "上海航空", "sharedFlightNo": "MU5101"}]}], "priceList": [{"sortPrice": 1}]},
					{"flightSegments": [{"flightList": [{"marketAirlineName": "东方航空", "stopList": [{"cityName": "济南"}]}]}], "priceList": [{"sortPrice": 1}]},
					` + directItinerary + `
				]}}`,
			},
			wantKind:    domain.OutcomeOK,
			wantRecords: 1,
		},
		{
			name: "itineraries without prices are warnings",
			up: fakeUpstream{
				listBody: `{"data": {"transactionID": "tx", "scope": "d"}}`,
				searchBody: `{"data": {"flightItineraryList": [
					{"flightSegments": [{"flightList": [{"marketAirlineName": "东方航空"}]}], "priceList": []},
					{"flightSegments": [{"flightList": [{"marketAirlineName": "东方航空"}]}], "priceList": [{"sortPrice": 500, "priceUnitList": []}]}
				]}}`,
			},
			wantKind:     domain.OutcomeEmpty,
			wantWarnings: 2,
		},
		{
			name: "missing itinerary list is empty",
			up: fakeUpstream{
				listBody:   `{"data": {"transactionID": "tx", "scope": "d"}}`,
				searchBody: `{"data": {}}`,
			},
			wantKind: domain.OutcomeEmpty,
		},
		{
			name: "list without transaction is a parse error",
			up: fakeUpstream{
				listBody: `{"data": {}}`,
			},
			wantKind: domain.OutcomeParseError,
		},
		{
			name: "list failure is a transport error",
			up: fakeUpstream{
				listStatus: http.StatusTooManyRequests,
			},
			wantKind: domain.OutcomeTransportError,
		},
		{
			name: "malformed search body is a parse error",
			up: fakeUpstream{
				listBody:   `{"data": {"transactionID": "tx", "scope": "d"}}`,
				searchBody: `<html>blocked</html>`,
			},
			wantKind: domain.OutcomeParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := tt.up
			adapter := newTestAdapter(t, &up, nil)

			out := adapter.Fetch(context.Background(), testRequest())
			assert.Equal(t, tt.wantKind, out.Kind, "outcome %v", out.Err)
			assert.Len(t, out.Records, tt.wantRecords)
			assert.Equal(t, tt.wantWarnings, out.Warnings)
		})
	}
}

func TestAdapter_Name(t *testing.T) {
	var _ domain.Fetcher = (*Adapter)(nil)
	assert.Equal(t, "batch", NewAdapter(Config{}, nil).Name())
}
