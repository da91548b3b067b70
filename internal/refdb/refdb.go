// Package refdb provides the city and airport reference database.
// Lookups are pure over an embedded dataset, plus a run-local extension for
// codes that first appear in upstream payloads.
package refdb

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/flight-fares/fare-harvester/internal/domain"
)

// Defaults for places missing from the dataset.
const (
	DefaultAirportFactor = 0.05
	DefaultCityClass     = 0.2
	DefaultCityLocation  = 0.5
)

// SkipThreshold is the ignore threshold from which the extended skip list applies.
const SkipThreshold = 3

// Route factor class boundaries.
const (
	trunkFactor     = 1.4
	semiTrunkFactor = 1.0
)

//go:embed data/reference.json
var embedded []byte

// Airport is one airport of a city.
type Airport struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

// City is one city entry of the dataset.
type City struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Factor   float64   `json:"factor"`
	Class    float64   `json:"class"`
	Location float64   `json:"location"`
	Tourism  bool      `json:"tourism"`
	Airports []Airport `json:"airports"`
}

type fare struct {
	Route string `json:"route"`
	Fare  int    `json:"fare"`
}

type dataset struct {
	Cities []City `json:"cities"`
	Fares  []fare `json:"fares"`
	Skip   struct {
		Base     []string `json:"base"`
		Extended []string `json:"extended"`
	} `json:"skip"`
}

// DB is the reference database. It is safe for concurrent use.
type DB struct {
	cities    []*City
	byCode    map[string]*City
	byName    map[string]*City
	airports  map[string]*Airport
	displays  map[string]*Airport
	fares     map[domain.Pair]int
	skipBase  domain.PairSet
	skipExtra domain.PairSet

	mu       sync.RWMutex
	extended map[string]string
}

// Default loads the embedded dataset.
func Default() (*DB, error) {
	return Parse(embedded)
}

// Open loads the dataset at path from fs, or the embedded dataset if path is empty.
func Open(fs afero.Fs, path string) (*DB, error) {
	if path == "" {
		return Default()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return Parse(data)
}

// Parse builds a DB from a JSON dataset.
func Parse(data []byte) (*DB, error) {
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}

	db := &DB{
		byCode:    make(map[string]*City),
		byName:    make(map[string]*City),
		airports:  make(map[string]*Airport),
		displays:  make(map[string]*Airport),
		fares:     make(map[domain.Pair]int),
		skipBase:  domain.PairSet{},
		skipExtra: domain.PairSet{},
		extended:  make(map[string]string),
	}

	for i := range ds.Cities {
		c := &ds.Cities[i]
		if !domain.IsAirportCode(c.Code) || c.Name == "" {
			return nil, fmt.Errorf("invalid city entry %q/%q", c.Code, c.Name)
		}
		db.cities = append(db.cities, c)
		db.byName[c.Name] = c
		for j := range c.Airports {
			a := &c.Airports[j]
			db.byCode[a.Code] = c
			db.airports[a.Code] = a
			if len(c.Airports) > 1 {
				db.displays[displayName(c.Name, a.Name)] = a
			}
		}
		// City codes win over airport codes that share the same letters.
		db.byCode[c.Code] = c
	}

	for _, f := range ds.Fares {
		p, err := domain.ParsePair(f.Route)
		if err != nil {
			return nil, fmt.Errorf("fare entry: %w", err)
		}
		db.fares[p] = f.Fare
	}

	for _, list := range []struct {
		entries []string
		into    domain.PairSet
	}{
		{ds.Skip.Base, db.skipBase},
		{ds.Skip.Extended, db.skipExtra},
	} {
		for _, s := range list.entries {
			p, err := domain.ParsePair(s)
			if err != nil {
				return nil, fmt.Errorf("skip entry: %w", err)
			}
			list.into[p] = struct{}{}
		}
	}

	return db, nil
}

// displayName joins the city name with the first two runes of the airport
// name, after stripping the city prefix from it.
func displayName(city, airportName string) string {
	suffix := []rune(strings.TrimPrefix(airportName, city))
	if len(suffix) > 2 {
		suffix = suffix[:2]
	}
	return city + string(suffix)
}

// resolve finds the city of a city code, airport code, city name or airport display name.
func (db *DB) resolve(key string) *City {
	key = strings.TrimSpace(key)
	if c, ok := db.byCode[strings.ToUpper(key)]; ok {
		return c
	}
	if c, ok := db.byName[key]; ok {
		return c
	}
	if a, ok := db.displays[key]; ok {
		return db.byCode[a.Code]
	}
	return nil
}

// Cities returns every city of the dataset in dataset order.
func (db *DB) Cities() []City {
	out := make([]City, len(db.cities))
	for i, c := range db.cities {
		out[i] = *c
	}
	return out
}

// CityOf returns the city name of a city or airport code.
// Codes registered through Remember are also resolved. Unknown codes return "".
func (db *DB) CityOf(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := db.byCode[code]; ok {
		return c.Name
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.extended[code]
}

// CodeOf returns the city code of a city name, or its first airport code when
// preferAirport is set. Unknown names return "".
func (db *DB) CodeOf(city string, preferAirport bool) string {
	c := db.resolve(city)
	if c == nil {
		return ""
	}
	if preferAirport && len(c.Airports) > 0 {
		return c.Airports[0].Code
	}
	return c.Code
}

// Known reports whether code is a city or airport code of the dataset.
func (db *DB) Known(code string) bool {
	_, ok := db.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// AirportFactor returns the traffic factor of an airport code, airport display
// name, city code or city name.
func (db *DB) AirportFactor(place string) float64 {
	place = strings.TrimSpace(place)
	if a, ok := db.airports[strings.ToUpper(place)]; ok {
		if c := db.byCode[a.Code]; c != nil && c.Code == strings.ToUpper(place) && len(c.Airports) > 1 {
			return c.Factor
		}
		return a.Factor
	}
	if a, ok := db.displays[place]; ok {
		return a.Factor
	}
	if c := db.resolve(place); c != nil {
		return c.Factor
	}
	return DefaultAirportFactor
}

// CityClass returns the tier class of a city.
func (db *DB) CityClass(city string) float64 {
	if c := db.resolve(city); c != nil {
		return c.Class
	}
	return DefaultCityClass
}

// CityLocation returns the location factor of a city.
func (db *DB) CityLocation(city string) float64 {
	if c := db.resolve(city); c != nil {
		return c.Location
	}
	return DefaultCityLocation
}

// IsTourism reports whether the city is flagged as a tourism destination.
func (db *DB) IsTourism(city string) bool {
	if c := db.resolve(city); c != nil {
		return c.Tourism
	}
	return false
}

// IsMultiAirport reports whether the code or city is served by more than one airport.
func (db *DB) IsMultiAirport(codeOrCity string) bool {
	c := db.resolve(codeOrCity)
	return c != nil && len(c.Airports) > 1
}

// Places resolves a city, airport display name or code into its factors.
func (db *DB) Places(place string) domain.PlaceFactors {
	return domain.PlaceFactors{
		AirportFactor: db.AirportFactor(place),
		CityClass:     db.CityClass(place),
		CityLocation:  db.CityLocation(place),
		Tourism:       db.IsTourism(place),
	}
}

// fareKeys returns the codes under which a place may carry a published fare.
func (db *DB) fareKeys(place string) []string {
	c := db.resolve(place)
	if c == nil {
		return []string{strings.ToUpper(strings.TrimSpace(place))}
	}
	keys := []string{c.Code}
	if code := strings.ToUpper(strings.TrimSpace(place)); code != c.Code && db.airports[code] != nil {
		keys = append([]string{code}, keys...)
	}
	for _, a := range c.Airports {
		if a.Code != c.Code {
			keys = append(keys, a.Code)
		}
	}
	return keys
}

// FullFare returns the published full fare between two places, or 0 when unknown.
// The lookup is symmetric and city codes fall back to their airports (BJS to PEK).
func (db *DB) FullFare(origin, arrival string) int {
	for _, a := range db.fareKeys(origin) {
		for _, b := range db.fareKeys(arrival) {
			if a == b {
				continue
			}
			if f, ok := db.fares[domain.NewPair(a, b)]; ok {
				return f
			}
		}
	}
	return 0
}

// SkippedRoutes returns the unordered pairs skipped at the given ignore threshold.
// The extended list applies from SkipThreshold upwards.
func (db *DB) SkippedRoutes(threshold int) domain.PairSet {
	out := domain.PairSet{}
	out.Union(db.skipBase)
	if threshold >= SkipThreshold {
		out.Union(db.skipExtra)
	}
	return out
}

// Remember registers a code seen in a payload but missing from the dataset.
func (db *DB) Remember(code, city string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || city == "" || db.Known(code) {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.extended[code] = city
}

// DisplayName returns the airport display name used in per-pair workbooks.
// Multi-airport cities get a two-rune airport suffix. Unknown codes fall back
// to the payload city name, which is remembered for the rest of the run.
func (db *DB) DisplayName(code, payloadCity, airportName string) string {
	c := db.resolve(code)
	if c == nil {
		db.Remember(code, payloadCity)
		return payloadCity
	}
	if len(c.Airports) <= 1 {
		return c.Name
	}
	name := airportName
	if name == "" {
		if a, ok := db.airports[strings.ToUpper(code)]; ok {
			name = a.Name
		}
	}
	return displayName(c.Name, name)
}

// CityOfName maps an airport display name back to its city name.
// Names of remembered codes map to themselves. Unknown names are returned unchanged.
func (db *DB) CityOfName(display string) string {
	display = strings.TrimSpace(display)
	if c := db.resolve(display); c != nil {
		return c.Name
	}
	best := ""
	for name := range db.byName {
		if strings.HasPrefix(display, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return best
	}
	return display
}

// RouteFactor is the sum of the traffic factors of the two ends of a route.
func (db *DB) RouteFactor(a, b string) float64 {
	return db.AirportFactor(a) + db.AirportFactor(b)
}

// RouteClass classifies a route as trunk, semi-trunk or branch by its route factor.
func (db *DB) RouteClass(a, b string) string {
	f := db.RouteFactor(a, b)
	switch {
	case f >= trunkFactor:
		return "干线"
	case f > semiTrunkFactor:
		return "次干线"
	default:
		return "支线"
	}
}

// Remembered returns the run-local extension as sorted "CODE=city" entries.
func (db *DB) Remembered() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, 0, len(db.extended))
	for code, city := range db.extended {
		out = append(out, code+"="+city)
	}
	sort.Strings(out)
	return out
}
