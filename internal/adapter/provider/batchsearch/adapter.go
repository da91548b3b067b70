// Package batchsearch implements the two-step batch-search itinerary protocol:
// a list request hands out a transaction, then a signed batch search returns
// the itineraries.
package batchsearch

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// ProtocolName is the fetcher name used in logs and errors.
const ProtocolName = "batch"

// Default endpoints.
const (
	DefaultListURL   = "https://flights.ctrip.com/international/search/api/flightlist/oneway"
	DefaultSearchURL = "https://flights.ctrip.com/international/search/api/search/batchSearch"
)

const alnum = "abcdefghijklmnopqrstuvwxyz0123456789"

// Config contains the adapter settings.
type Config struct {
	ListURL   string
	SearchURL string
	Timeout   time.Duration

	// Clock stamps the tracking cookie; nil uses the system clock
	Clock timeutil.Clock

	// RandomID returns the 6-character cookie token; nil uses math/rand
	RandomID func() string
}

// Adapter fetches itineraries through the batch-search protocol.
type Adapter struct {
	listURL   string
	searchURL string
	clients   *provider.Clients
	places    provider.Places
	clock     timeutil.Clock
	randomID  func() string
}

// NewAdapter creates a batch-search adapter. Zero config values fall back to defaults.
func NewAdapter(cfg Config, places provider.Places) *Adapter {
	if cfg.ListURL == "" {
		cfg.ListURL = DefaultListURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.NewRealClock()
	}
	if cfg.RandomID == nil {
		cfg.RandomID = randomID
	}
	return &Adapter{
		listURL:   cfg.ListURL,
		searchURL: cfg.SearchURL,
		clients:   provider.NewClients(cfg.Timeout),
		places:    places,
		clock:     cfg.Clock,
		randomID:  cfg.RandomID,
	}
}

// Name returns the protocol name.
func (a *Adapter) Name() string {
	return ProtocolName
}

// Sign computes the request signature: md5 hex of the transaction ID, origin,
// destination and ISO flight date concatenated.
func Sign(transactionID, origin, destination, date string) string {
	sum := md5.Sum([]byte(transactionID + origin + destination + date))
	return hex.EncodeToString(sum[:])
}

// Cookie builds the tracking cookie "_bfa=1.T.R.1.T.T.1.1" for epoch millis T
// and token R.
func Cookie(now time.Time, token string) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return fmt.Sprintf("_bfa=1.%s.%s.1.%s.%s.1.1", ms, token, ms, ms)
}

func randomID() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = alnum[rand.IntN(len(alnum))]
	}
	return string(b)
}

// Fetch opens a transaction and runs the signed batch search.
func (a *Adapter) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchOutcome {
	client, err := a.clients.For(req.Proxy)
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}
	date := req.FlightDate.Format(domain.DateLayout)

	tx, fe := a.transaction(ctx, client, req, date)
	if fe != nil {
		return domain.Failed(fe)
	}

	payload := searchPayload{
		FlightWayEnum: "OW",
		CabinEnum:     "YSCF",
		AdultCount:    1,
		DirectFlight:  true,
		NoRecommend:   true,
		SegmentNo:     1,
		Scope:         tx.Scope,
		TransactionID: tx.TransactionID,
		FlightSegments: []segment{{
			DepartureCityCode: req.Origin,
			ArrivalCityCode:   req.Destination,
			DepartureCityName: a.places.CityOf(req.Origin),
			ArrivalCityName:   a.places.CityOf(req.Destination),
			DepartureDate:     date,
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Failed(domain.NewParseError(ProtocolName, err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.searchURL, bytes.NewReader(body))
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}
	httpReq.Header.Set("Content-Type", "application/json;charset=UTF-8")
	httpReq.Header.Set("transactionID", tx.TransactionID)
	httpReq.Header.Set("sign", Sign(tx.TransactionID, req.Origin, req.Destination, date))
	httpReq.Header.Set("scope", tx.Scope)
	httpReq.Header.Set("Cookie", Cookie(a.clock.Now(), a.randomID()))
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}
	raw, err := provider.ReadBody(resp)
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Failed(domain.NewParseError(ProtocolName, err))
	}
	if parsed.Data == nil || parsed.Data.FlightItineraryList == nil {
		return domain.Fetched(nil, 0)
	}

	records, warnings := a.normalize(req.FlightDate, parsed.Data.FlightItineraryList)
	return domain.Fetched(records, warnings)
}

type transaction struct {
	TransactionID string
	Scope         string
}

func (a *Adapter) transaction(ctx context.Context, client *http.Client, req domain.FetchRequest, date string) (transaction, *domain.FetchError) {
	q := url.Values{}
	q.Set("dcity", req.Origin)
	q.Set("acity", req.Destination)
	q.Set("depdate", date)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.listURL+"?"+q.Encode(), nil)
	if err != nil {
		return transaction{}, domain.NewTransportError(ProtocolName, err)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return transaction{}, domain.NewTransportError(ProtocolName, err)
	}
	raw, err := provider.ReadBody(resp)
	if err != nil {
		return transaction{}, domain.NewTransportError(ProtocolName, err)
	}

	var parsed listResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return transaction{}, domain.NewParseError(ProtocolName, err)
	}
	if parsed.Data == nil || parsed.Data.TransactionID == "" {
		return transaction{}, domain.NewParseError(ProtocolName, errors.New("list response has no transactionID"))
	}
	return transaction{TransactionID: parsed.Data.TransactionID, Scope: parsed.Data.Scope}, nil
}

// normalize filters the itinerary list and converts kept flights. Flights
// that fail to convert are counted as warnings.
func (a *Adapter) normalize(date time.Time, list []itinerary) ([]domain.FlightRecord, int) {
	records := make([]domain.FlightRecord, 0, len(list))
	warnings := 0

	for _, it := range list {
		legs := 0
		for _, s := range it.FlightSegments {
			legs += len(s.FlightList)
		}
		if legs != 1 {
			continue
		}
		var f flight
		for _, s := range it.FlightSegments {
			if len(s.FlightList) == 1 {
				f = s.FlightList[0]
			}
		}
		if !provider.Keep(legs, f.SharedFlightNo, len(f.StopList)) {
			continue
		}
		if len(it.PriceList) == 0 {
			warnings++
			continue
		}
		rate, ok := it.PriceList[0].rate()
		if !ok {
			warnings++
			continue
		}

		rec, err := provider.Normalize(a.places, date, provider.RawFlight{
			Airline:   f.MarketAirlineName,
			Craft:     f.AircraftSize,
			Dep:       f.departure(),
			Arr:       f.arrival(),
			DepartsAt: f.DepartureDateTime,
			ArrivesAt: f.ArrivalDateTime,
			Price:     it.PriceList[0].SortPrice,
			Rate:      rate,
		})
		if err != nil {
			warnings++
			continue
		}
		records = append(records, rec)
	}

	return records, warnings
}

var _ domain.Fetcher = (*Adapter)(nil)
