package batchsearch

import (
	"encoding/json"

	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
)

type listResponse struct {
	Data *struct {
		TransactionID string `json:"transactionID"`
		Scope         string `json:"scope"`
	} `json:"data"`
}

type searchPayload struct {
	FlightWayEnum  string    `json:"flightWayEnum"`
	CabinEnum      string    `json:"cabinEnum"`
	AdultCount     int       `json:"adultCount"`
	ChildCount     int       `json:"childCount"`
	InfantCount    int       `json:"infantCount"`
	DirectFlight   bool      `json:"directFlight"`
	NoRecommend    bool      `json:"noRecommend"`
	SegmentNo      int       `json:"segmentNo"`
	Scope          string    `json:"scope"`
	TransactionID  string    `json:"transactionID"`
	FlightSegments []segment `json:"flightSegments"`
}

type segment struct {
	DepartureCityCode string `json:"departureCityCode"`
	ArrivalCityCode   string `json:"arrivalCityCode"`
	DepartureCityName string `json:"departureCityName"`
	ArrivalCityName   string `json:"arrivalCityName"`
	DepartureDate     string `json:"departureDate"`
}

type searchResponse struct {
	Data *struct {
		Context *struct {
			SearchCriteriaToken string `json:"searchCriteriaToken"`
		} `json:"context"`
		FlightItineraryList []itinerary `json:"flightItineraryList"`
	} `json:"data"`
}

type itinerary struct {
	ItineraryID    string          `json:"itineraryId"`
	FlightSegments []flightSegment `json:"flightSegments"`
	PriceList      []price         `json:"priceList"`
}

type flightSegment struct {
	SegmentNo  int      `json:"segmentNo"`
	FlightList []flight `json:"flightList"`
}

type flight struct {
	FlightNo             string            `json:"flightNo"`
	MarketAirlineName    string            `json:"marketAirlineName"`
	SharedFlightNo       string            `json:"sharedFlightNo"`
	AircraftSize         string            `json:"aircraftSize"`
	DepartureCityCode    string            `json:"departureCityCode"`
	DepartureCityName    string            `json:"departureCityName"`
	DepartureAirportCode string            `json:"departureAirportCode"`
	DepartureAirportName string            `json:"departureAirportName"`
	ArrivalCityCode      string            `json:"arrivalCityCode"`
	ArrivalCityName      string            `json:"arrivalCityName"`
	ArrivalAirportCode   string            `json:"arrivalAirportCode"`
	ArrivalAirportName   string            `json:"arrivalAirportName"`
	DepartureDateTime    string            `json:"departureDateTime"`
	ArrivalDateTime      string            `json:"arrivalDateTime"`
	StopList             []json.RawMessage `json:"stopList"`
}

func (f flight) departure() provider.Endpoint {
	return provider.Endpoint{
		CityCode:    f.DepartureCityCode,
		CityName:    f.DepartureCityName,
		AirportCode: f.DepartureAirportCode,
		AirportName: f.DepartureAirportName,
	}
}

func (f flight) arrival() provider.Endpoint {
	return provider.Endpoint{
		CityCode:    f.ArrivalCityCode,
		CityName:    f.ArrivalCityName,
		AirportCode: f.ArrivalAirportCode,
		AirportName: f.ArrivalAirportName,
	}
}

type price struct {
	SortPrice     float64 `json:"sortPrice"`
	PriceUnitList []struct {
		FlightSeatList []struct {
			DiscountRate float64 `json:"discountRate"`
		} `json:"flightSeatList"`
	} `json:"priceUnitList"`
}

// rate returns the discount rate of the first seat of the first price unit.
func (p price) rate() (float64, bool) {
	if len(p.PriceUnitList) == 0 || len(p.PriceUnitList[0].FlightSeatList) == 0 {
		return 0, false
	}
	return p.PriceUnitList[0].FlightSeatList[0].DiscountRate, true
}
