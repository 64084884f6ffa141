package gtd

import (
	"sort"
	"strings"
)

// Region is one of the twelve fine-grained GTD region categories
// (region_txt).
type Region string

// The closed set of regions found in region_txt.
const (
	CentralAmericaCaribbean Region = "Central America & Caribbean"
	NorthAmerica            Region = "North America"
	SoutheastAsia           Region = "Southeast Asia"
	WesternEurope           Region = "Western Europe"
	EastAsia                Region = "East Asia"
	SouthAmerica            Region = "South America"
	EasternEurope           Region = "Eastern Europe"
	SubSaharanAfrica        Region = "Sub-Saharan Africa"
	MiddleEastNorthAfrica   Region = "Middle East & North Africa"
	AustralasiaOceania      Region = "Australasia & Oceania"
	SouthAsia               Region = "South Asia"
	CentralAsia             Region = "Central Asia"
)

// Regions lists every region in the order they are declared in the world
// bucket.
var Regions = []Region{
	CentralAmericaCaribbean, NorthAmerica, SoutheastAsia, WesternEurope,
	EastAsia, SouthAmerica, EasternEurope, SubSaharanAfrica,
	MiddleEastNorthAfrica, AustralasiaOceania, SouthAsia, CentralAsia,
}

// Valid reports whether r is one of the twelve known regions.
func (r Region) Valid() bool {
	_, ok := regionContinents[r]
	return ok
}

// Continent is a coarse geographic bucket used to scope queries.
type Continent uint8

// Continent buckets. World contains every region.
const (
	World Continent = iota
	Asia
	Africa
	Europe
	NorthAmericaBucket
	SouthAmericaBucket
	numContinents
)

// Continents lists the buckets in the order a UI presents them.
var Continents = []Continent{World, Europe, Asia, Africa, NorthAmericaBucket, SouthAmericaBucket}

var continentNames = [numContinents]string{
	World:              "world",
	Asia:               "asia",
	Africa:             "africa",
	Europe:             "europe",
	NorthAmericaBucket: "north america",
	SouthAmericaBucket: "south america",
}

var continentLabels = [numContinents]string{
	World:              "The World",
	Asia:               "Asia",
	Africa:             "Africa",
	Europe:             "Europe",
	NorthAmericaBucket: "North America",
	SouthAmericaBucket: "South America",
}

// String returns the bucket's query name, e.g. "north america".
func (c Continent) String() string {
	if c >= numContinents {
		return "unknown"
	}
	return continentNames[c]
}

// Label returns the bucket's display title, e.g. "The World".
func (c Continent) Label() string {
	if c >= numContinents {
		return "Unknown"
	}
	return continentLabels[c]
}

// ParseContinent returns the bucket with the given name. Names are matched
// case-insensitively after trimming spaces. An unknown name is an
// ErrInvalidFilterValue.
func ParseContinent(name string) (Continent, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, cn := range continentNames {
		if cn == n {
			return Continent(c), nil
		}
	}
	return 0, Invalidf("unknown continent bucket '%s'", name)
}

// ContinentSet is the set of buckets a region belongs to.
type ContinentSet uint8

// Has reports whether c is in the set.
func (s ContinentSet) Has(c Continent) bool {
	return s&(1<<c) != 0
}

// Add returns the set with c added.
func (s ContinentSet) Add(c Continent) ContinentSet {
	return s | 1<<c
}

// Union returns the union of the two sets.
func (s ContinentSet) Union(o ContinentSet) ContinentSet {
	return s | o
}

// Slice returns the members of the set in bucket order.
func (s ContinentSet) Slice() []Continent {
	ret := make([]Continent, 0, numContinents)
	for c := World; c < numContinents; c++ {
		if s.Has(c) {
			ret = append(ret, c)
		}
	}
	return ret
}

// String joins the member names with "|".
func (s ContinentSet) String() string {
	members := s.Slice()
	names := make([]string, len(members))
	for i, c := range members {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}

// MarshalText encodes the set as its member names so JSON output is
// readable.
func (s ContinentSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *ContinentSet) UnmarshalText(text []byte) error {
	var set ContinentSet
	if len(text) > 0 {
		for _, name := range strings.Split(string(text), "|") {
			c, err := ParseContinent(name)
			if err != nil {
				return err
			}
			set = set.Add(c)
		}
	}
	*s = set
	return nil
}

// continentRegions is the static bucket -> regions mapping. Central America
// & Caribbean is deliberately in both americas, and Middle East & North
// Africa is in both asia and africa.
var continentRegions = map[Continent][]Region{
	World:              Regions,
	Asia:               {SoutheastAsia, MiddleEastNorthAfrica, AustralasiaOceania, EastAsia, SouthAsia, CentralAsia},
	Africa:             {SubSaharanAfrica, MiddleEastNorthAfrica},
	Europe:             {WesternEurope, EasternEurope},
	NorthAmericaBucket: {CentralAmericaCaribbean, NorthAmerica},
	SouthAmericaBucket: {CentralAmericaCaribbean, SouthAmerica},
}

// regionContinents is the inverse of continentRegions.
var regionContinents = func() map[Region]ContinentSet {
	m := make(map[Region]ContinentSet, len(Regions))
	for c, regions := range continentRegions {
		for _, r := range regions {
			m[r] = m[r].Add(c)
		}
	}
	return m
}()

// RegionsOf returns the regions belonging to bucket c, sorted by name.
func RegionsOf(c Continent) []Region {
	regions := append([]Region(nil), continentRegions[c]...)
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}

// ContinentsOf returns the set of buckets region r belongs to. Unknown
// regions belong to no bucket.
func ContinentsOf(r Region) ContinentSet {
	return regionContinents[r]
}

// ExcludedCountries lists countries removed from a bucket even though their
// region is in it. Iraq is kept out of africa so that it does not dominate
// Africa-scoped views.
var ExcludedCountries = map[Continent][]string{
	Africa: {"Iraq"},
}
