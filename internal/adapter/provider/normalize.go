package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/flight-fares/fare-harvester/internal/domain"
)

// Places resolves airport display names. refdb.DB implements it.
type Places interface {
	CityOf(code string) string
	DisplayName(code, payloadCity, airportName string) string
}

// Endpoint is one end of a raw leg as the upstream describes it.
type Endpoint struct {
	CityCode    string
	CityName    string
	AirportCode string
	AirportName string
}

// RawFlight is a single-leg itinerary extracted from either protocol.
type RawFlight struct {
	Airline   string
	Craft     string
	Dep       Endpoint
	Arr       Endpoint
	DepartsAt string
	ArrivesAt string
	Price     float64
	Rate      float64
}

// Keep applies the itinerary filters: exactly one leg, no shared flight
// number and no intermediate stop.
func Keep(legs int, sharedFlightNumber string, stops int) bool {
	return legs == 1 && strings.TrimSpace(sharedFlightNumber) == "" && stops == 0
}

// AirlineName strips the parent group prefix, keeping the tail after "旗下".
func AirlineName(name string) string {
	if _, tail, ok := strings.Cut(name, "旗下"); ok {
		return strings.TrimSpace(tail)
	}
	return strings.TrimSpace(name)
}

// clockOf extracts HH:MM from "YYYY-MM-DD HH:MM[:SS]" or a bare "HH:MM".
func clockOf(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) >= 5 && domain.IsClock(s[:5]) {
		return s[:5], nil
	}
	return "", fmt.Errorf("invalid clock time %q", s)
}

// Normalize converts a raw flight into a FlightRecord for flightDate.
func Normalize(places Places, flightDate time.Time, raw RawFlight) (domain.FlightRecord, error) {
	dep, err := clockOf(raw.DepartsAt)
	if err != nil {
		return domain.FlightRecord{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := clockOf(raw.ArrivesAt)
	if err != nil {
		return domain.FlightRecord{}, fmt.Errorf("arrival: %w", err)
	}

	rec := domain.FlightRecord{
		FlightDate: flightDate,
		Weekday:    domain.WeekdayName(flightDate),
		Airline:    AirlineName(raw.Airline),
		Craft:      domain.ParseCraftSize(raw.Craft),
		DepName:    displayName(places, raw.Dep),
		ArrName:    displayName(places, raw.Arr),
		DepTime:    dep,
		ArrTime:    arr,
		Price:      int(raw.Price + 0.5),
		Rate:       raw.Rate,
	}
	if err := rec.Validate(); err != nil {
		return domain.FlightRecord{}, err
	}
	return rec, nil
}

func displayName(places Places, e Endpoint) string {
	code := e.AirportCode
	if code == "" {
		code = e.CityCode
	}
	if places.CityOf(code) == "" && e.CityCode != "" && places.CityOf(e.CityCode) != "" {
		code = e.CityCode
	}
	city := e.CityName
	if city == "" {
		city = code
	}
	return places.DisplayName(code, city, e.AirportName)
}
