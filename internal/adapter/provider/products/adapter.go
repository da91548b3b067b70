// Package products implements the product-listing itinerary protocol: a single
// JSON POST per directed route and flight date.
package products

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
	"github.com/flight-fares/fare-harvester/internal/domain"
)

// ProtocolName is the fetcher name used in logs and errors.
const ProtocolName = "products"

// DefaultURL is the product-listing endpoint.
const DefaultURL = "https://flights.ctrip.com/itinerary/api/12808/products"

// Config contains the adapter settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Adapter fetches itineraries from the product-listing endpoint.
type Adapter struct {
	url     string
	clients *provider.Clients
	places  provider.Places
}

// NewAdapter creates a product-listing adapter. Zero config values fall back to defaults.
func NewAdapter(cfg Config, places provider.Places) *Adapter {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Adapter{
		url:     cfg.URL,
		clients: provider.NewClients(cfg.Timeout),
		places:  places,
	}
}

// Name returns the protocol name.
func (a *Adapter) Name() string {
	return ProtocolName
}

// Fetch posts one search and converts the route list into flight records.
func (a *Adapter) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchOutcome {
	body, err := json.Marshal(a.payload(req))
	if err != nil {
		return domain.Failed(domain.NewParseError(ProtocolName, err))
	}

	client, err := a.clients.For(req.Proxy)
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return domain.Failed(domain.NewTransportError(ProtocolName, err))
	}
	httpReq.Header.Set("Content-Type", "application/json;charset=UTF-8")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Origin", "https://flights.ctrip.com")
	httpReq.Header.Set("Referer", fmt.Sprintf("https://flights.ctrip.com/itinerary/oneway/%s-%s?date=%s",
		req.Origin, req.Destination, req.FlightDate.Format(domain.DateLayout)))
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

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Failed(domain.NewParseError(ProtocolName, err))
	}
	if parsed.Data == nil || parsed.Data.RouteList == nil {
		return domain.Fetched(nil, 0)
	}

	records, warnings := a.normalize(req.FlightDate, parsed.Data.RouteList)
	return domain.Fetched(records, warnings)
}

func (a *Adapter) payload(req domain.FetchRequest) searchPayload {
	return searchPayload{
		FlightWay:   "Oneway",
		ClassType:   "ALL",
		HasChild:    false,
		HasBaby:     false,
		SearchIndex: 1,
		AirportParams: []airportParam{{
			DCity:     req.Origin,
			ACity:     req.Destination,
			DCityName: a.places.CityOf(req.Origin),
			ACityName: a.places.CityOf(req.Destination),
			Date:      req.FlightDate.Format(domain.DateLayout),
		}},
	}
}

// normalize filters the route list and converts kept legs. Legs that fail to
// convert are counted as warnings.
func (a *Adapter) normalize(date time.Time, routes []route) ([]domain.FlightRecord, int) {
	records := make([]domain.FlightRecord, 0, len(routes))
	warnings := 0

	for _, r := range routes {
		if len(r.Legs) != 1 {
			continue
		}
		leg := r.Legs[0]
		if leg.Flight == nil {
			warnings++
			continue
		}
		f := leg.Flight
		if !provider.Keep(len(r.Legs), f.SharedFlightNumber, len(f.StopInfo)+len(leg.StopInfo)) {
			continue
		}
		if len(leg.Cabins) == 0 || leg.Cabins[0].Price == nil {
			warnings++
			continue
		}

		rec, err := provider.Normalize(a.places, date, provider.RawFlight{
			Airline:   f.AirlineName,
			Craft:     f.CraftTypeKindDisplayName,
			Dep:       f.DepartureAirportInfo.endpoint(),
			Arr:       f.ArrivalAirportInfo.endpoint(),
			DepartsAt: f.DepartureDate,
			ArrivesAt: f.ArrivalDate,
			Price:     leg.Cabins[0].Price.Price,
			Rate:      leg.Cabins[0].Price.Rate,
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
