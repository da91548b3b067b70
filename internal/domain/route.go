package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// airportCodeRegex matches 3-letter IATA city or airport codes.
var airportCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// IsAirportCode reports whether code is a valid 3-letter upper-case code.
func IsAirportCode(code string) bool {
	return airportCodeRegex.MatchString(code)
}

// Pair is an unordered route between two codes, normalized so that A < B.
type Pair struct {
	A string
	B string
}

// NewPair builds the normalized unordered pair of x and y.
func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// String renders the pair as "A-B".
func (p Pair) String() string {
	return p.A + "-" + p.B
}

// MarshalText renders the pair as "A-B" in JSON and logs.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses any form accepted by ParsePair.
func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePair parses "AAA-BBB", "AAA~BBB" or "AAA,BBB" into a normalized pair.
func ParsePair(s string) (Pair, error) {
	parts := strings.FieldsFunc(strings.ToUpper(strings.TrimSpace(s)), func(r rune) bool {
		return r == '-' || r == '~' || r == ',' || r == '/'
	})
	if len(parts) != 2 || !IsAirportCode(parts[0]) || !IsAirportCode(parts[1]) {
		return Pair{}, fmt.Errorf("%w: invalid route pair %q", ErrInvalidConfig, s)
	}
	if parts[0] == parts[1] {
		return Pair{}, fmt.Errorf("%w: route pair %q has identical ends", ErrInvalidConfig, s)
	}
	return NewPair(parts[0], parts[1]), nil
}

// PairSet is a set of unordered pairs.
type PairSet map[Pair]struct{}

// Add inserts the unordered pair of x and y.
func (s PairSet) Add(x, y string) {
	s[NewPair(x, y)] = struct{}{}
}

// Has reports whether the unordered pair of x and y is in the set.
// Identical ends are always reported as present.
func (s PairSet) Has(x, y string) bool {
	if x == y {
		return true
	}
	_, ok := s[NewPair(x, y)]
	return ok
}

// Union adds every pair of other to s.
func (s PairSet) Union(other PairSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// PreprocSuffix is inserted before the extension of preprocessed workbooks.
const PreprocSuffix = "_preproc"

// PairFileName returns the per-pair workbook base name: "ORIG~DEST" with return
// flights, "ORIG-DEST" for a single direction.
func PairFileName(origin, destination string, withReturn bool) string {
	sep := "-"
	if withReturn {
		sep = "~"
	}
	return origin + sep + destination
}

// PreprocFileName returns the preprocessed variant of a workbook file name.
func PreprocFileName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + PreprocSuffix + ext
}

// IsPreprocFile reports whether name is a preprocessed workbook.
func IsPreprocFile(name string) bool {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return strings.HasSuffix(base, PreprocSuffix) || strings.HasSuffix(base, "_预处理")
}

// RunFolder returns the archive folder "<first_flight_date>/<collection_date>".
func RunFolder(firstDate, collectDate time.Time) string {
	return filepath.Join(firstDate.Format(DateLayout), collectDate.Format(DateLayout))
}

// Batch is every record collected for one pair in one run.
// It is handed to the sink as a single unit.
type Batch struct {
	Origin      string
	Destination string
	WithReturn  bool
	FirstDate   time.Time
	CollectDate time.Time
	Records     []FlightRecord
}

// FileName returns the per-pair workbook base name of the batch.
func (b Batch) FileName() string {
	return PairFileName(b.Origin, b.Destination, b.WithReturn)
}
