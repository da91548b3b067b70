package products

import (
	"encoding/json"

	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
)

type searchPayload struct {
	FlightWay     string         `json:"flightWay"`
	ClassType     string         `json:"classType"`
	HasChild      bool           `json:"hasChild"`
	HasBaby       bool           `json:"hasBaby"`
	SearchIndex   int            `json:"searchIndex"`
	AirportParams []airportParam `json:"airportParams"`
}

type airportParam struct {
	DCity     string `json:"dcity"`
	ACity     string `json:"acity"`
	DCityName string `json:"dcityname"`
	ACityName string `json:"acityname"`
	Date      string `json:"date"`
}

type response struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   *struct {
		RouteList []route `json:"routeList"`
	} `json:"data"`
}

type route struct {
	RouteType string `json:"routeType"`
	Legs      []leg  `json:"legs"`
}

type leg struct {
	LegType  string            `json:"legType"`
	Flight   *flight           `json:"flight"`
	Cabins   []cabin           `json:"cabins"`
	StopInfo []json.RawMessage `json:"stopInfo"`
}

type flight struct {
	FlightNumber             string            `json:"flightNumber"`
	AirlineName              string            `json:"airlineName"`
	SharedFlightNumber       string            `json:"sharedFlightNumber"`
	CraftTypeName            string            `json:"craftTypeName"`
	CraftTypeKindDisplayName string            `json:"craftTypeKindDisplayName"`
	DepartureAirportInfo     airportInfo       `json:"departureAirportInfo"`
	ArrivalAirportInfo       airportInfo       `json:"arrivalAirportInfo"`
	DepartureDate            string            `json:"departureDate"`
	ArrivalDate              string            `json:"arrivalDate"`
	StopInfo                 []json.RawMessage `json:"stopInfo"`
}

type airportInfo struct {
	CityTlc     string `json:"cityTlc"`
	CityName    string `json:"cityName"`
	AirportTlc  string `json:"airportTlc"`
	AirportName string `json:"airportName"`
}

func (a airportInfo) endpoint() provider.Endpoint {
	return provider.Endpoint{
		CityCode:    a.CityTlc,
		CityName:    a.CityName,
		AirportCode: a.AirportTlc,
		AirportName: a.AirportName,
	}
}

type cabin struct {
	Price *struct {
		Price float64 `json:"price"`
		Rate  float64 `json:"rate"`
	} `json:"price"`
}
