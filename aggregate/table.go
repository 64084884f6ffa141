// Package aggregate turns filtered views into small typed tables. Every
// function here is a pure function of its inputs; an empty view yields a
// non-nil table with zero rows.
package aggregate

import (
	"strconv"

	"github.com/pilosa/gtd"
)

// Table is a rendered aggregate: column names plus string cells. Header is
// fixed per table kind, so an empty table still has its columns.
type Table interface {
	Header() []string
	Rows() [][]string
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// CountryFatalities is one row of SumFatalitiesByCountry.
type CountryFatalities struct {
	Country      string           `json:"country"`
	NKill        float64          `json:"nkill"`
	NKillUS      float64          `json:"nkillus"`
	Continents   gtd.ContinentSet `json:"continent"`
	TotalAttacks int              `json:"total_attacks"`
}

// CountryFatalitiesTable holds fatalities per country, sorted by country.
type CountryFatalitiesTable []CountryFatalities

// Header implements Table.
func (CountryFatalitiesTable) Header() []string {
	return []string{"Country", "Fatalities", "US Fatalities", "Continents", "Total attacks"}
}

// Rows implements Table.
func (t CountryFatalitiesTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{r.Country, ftoa(r.NKill), ftoa(r.NKillUS), r.Continents.String(), strconv.Itoa(r.TotalAttacks)}
	}
	return ret
}

// GroupCount is the number of incidents attributed to a group.
type GroupCount struct {
	Group string `json:"gname"`
	Count int    `json:"size"`
}

// GroupCountTable is a ranked list of groups.
type GroupCountTable []GroupCount

// Header implements Table.
func (GroupCountTable) Header() []string { return []string{"Group", "Attacks"} }

// Rows implements Table.
func (t GroupCountTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{r.Group, strconv.Itoa(r.Count)}
	}
	return ret
}

// AttackTypeYear is the number of incidents of one attack type in one year.
type AttackTypeYear struct {
	AttackType string `json:"attacktype1_txt"`
	Year       int    `json:"iyear"`
	Count      int    `json:"size"`
}

// AttackTypeYearTable is a sparse attack type by year series.
type AttackTypeYearTable []AttackTypeYear

// Header implements Table.
func (AttackTypeYearTable) Header() []string { return []string{"Attack type", "Year", "Attacks"} }

// Rows implements Table.
func (t AttackTypeYearTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{r.AttackType, strconv.Itoa(r.Year), strconv.Itoa(r.Count)}
	}
	return ret
}

// GroupYear is the number of incidents attributed to a group in one year.
type GroupYear struct {
	Group string `json:"gname"`
	Year  int    `json:"iyear"`
	Count int    `json:"size"`
}

// GroupYearTable is a sparse group by year series, sorted by year.
type GroupYearTable []GroupYear

// Header implements Table.
func (GroupYearTable) Header() []string { return []string{"Year", "Group", "Attacks"} }

// Rows implements Table.
func (t GroupYearTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{strconv.Itoa(r.Year), r.Group, strconv.Itoa(r.Count)}
	}
	return ret
}

// RegionAttackFatalities is the fatality total for one attack type within
// one region.
type RegionAttackFatalities struct {
	Region     gtd.Region `json:"region_txt"`
	AttackType string     `json:"attacktype1_txt"`
	NKill      float64    `json:"nkill"`
}

// RegionAttackFatalitiesTable is a two level region, attack type breakdown.
type RegionAttackFatalitiesTable []RegionAttackFatalities

// Header implements Table.
func (RegionAttackFatalitiesTable) Header() []string {
	return []string{"Region", "Attack type", "Fatalities"}
}

// Rows implements Table.
func (t RegionAttackFatalitiesTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{string(r.Region), r.AttackType, ftoa(r.NKill)}
	}
	return ret
}

// ValueCount is the number of events holding a categorical value.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCountTable is a ranked list of values.
type ValueCountTable []ValueCount

// Header implements Table.
func (ValueCountTable) Header() []string { return []string{"Value", "Count"} }

// Rows implements Table.
func (t ValueCountTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{r.Value, strconv.Itoa(r.Count)}
	}
	return ret
}

// GeoPoint is the location of one event.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
}

// GeoPointTable lists event locations in table order.
type GeoPointTable []GeoPoint

// Header implements Table.
func (GeoPointTable) Header() []string { return []string{"Latitude", "Longitude", "City"} }

// Rows implements Table.
func (t GeoPointTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{ftoa(r.Latitude), ftoa(r.Longitude), r.City}
	}
	return ret
}

// GeoCell is the number of points falling in one geohash cell.
type GeoCell struct {
	Geohash string `json:"geohash"`
	Count   int    `json:"count"`
}

// GeoCellTable is a point density, densest cell first.
type GeoCellTable []GeoCell

// Header implements Table.
func (GeoCellTable) Header() []string { return []string{"Geohash", "Count"} }

// Rows implements Table.
func (t GeoCellTable) Rows() [][]string {
	ret := make([][]string, len(t))
	for i, r := range t {
		ret[i] = []string{r.Geohash, strconv.Itoa(r.Count)}
	}
	return ret
}
