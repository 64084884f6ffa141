package aggregate

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/filter"
	"github.com/pkg/errors"
)

// DefaultTopK is the default rank cut-off of TopGroupsByCount.
const DefaultTopK = 15

// DefaultHistoricalTopK is the default number of allow-listed groups used by
// HistoricalSeriesForGroups.
const DefaultHistoricalTopK = 11

// ProfileTopN is the number of values kept for each facet of a country
// profile.
const ProfileTopN = 5

// DefaultHistoricalGroups are the notable groups tracked over time by
// HistoricalSeriesForGroups.
var DefaultHistoricalGroups = []string{
	"Taliban",
	"Islamic State of Iraq and the Levant (ISIL)",
	"Shining Path (SL)",
	"Farabundo Marti National Liberation Front (FMLN)",
	"Al-Shabaab",
	"New People's Army (NPA)",
	"Irish Republican Army (IRA)",
	"Revolutionary Armed Forces of Colombia (FARC)",
	"Boko Haram",
	"Kurdistan Workers' Party (PKK)",
}

// SumFatalitiesByCountry sums nkill and nkillus per country, treating
// missing values as 0, and counts the events of each country. Countries
// absent from the view have no row.
func SumFatalitiesByCountry(v gtd.View) CountryFatalitiesTable {
	idx := make(map[string]int)
	ret := CountryFatalitiesTable{}
	v.Each(func(_ uint32, e *gtd.Event) {
		i, ok := idx[e.Country]
		if !ok {
			i = len(ret)
			idx[e.Country] = i
			ret = append(ret, CountryFatalities{Country: e.Country})
		}
		r := &ret[i]
		r.NKill += e.NKill.OrZero()
		r.NKillUS += e.NKillUS.OrZero()
		r.Continents = r.Continents.Union(e.Continents)
		r.TotalAttacks++
	})
	sort.Slice(ret, func(i, j int) bool { return ret[i].Country < ret[j].Country })
	return ret
}

// TopGroupsByCount ranks groups by number of events, most first and ties by
// name, then keeps ranks 2 through topK; the top ranked group is always
// left out. If dropUnknown is set, the "Unknown" group is removed from what
// remains without pulling in the next ranked group.
func TopGroupsByCount(v gtd.View, topK int, dropUnknown bool) (GroupCountTable, error) {
	counts, err := ValueCounts(v, gtd.FieldGroup, -1)
	if err != nil {
		return nil, errors.Wrap(err, "counting groups")
	}
	if topK > len(counts) {
		topK = len(counts)
	}
	ret := GroupCountTable{}
	for i := 1; i < topK; i++ {
		if dropUnknown && counts[i].Value == gtd.UnknownGroup {
			continue
		}
		ret = append(ret, GroupCount{Group: counts[i].Value, Count: counts[i].Count})
	}
	return ret, nil
}

// AttackTypeCountsByYear counts events per attack type and year. Years
// without events of a type have no row. Rows are sorted by attack type, then
// year.
func AttackTypeCountsByYear(v gtd.View) AttackTypeYearTable {
	type key struct {
		typ  string
		year int
	}
	counts := make(map[key]int)
	v.Each(func(_ uint32, e *gtd.Event) {
		counts[key{e.AttackType, e.Year}]++
	})
	ret := make(AttackTypeYearTable, 0, len(counts))
	for k, n := range counts {
		ret = append(ret, AttackTypeYear{AttackType: k.typ, Year: k.year, Count: n})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].AttackType != ret[j].AttackType {
			return ret[i].AttackType < ret[j].AttackType
		}
		return ret[i].Year < ret[j].Year
	})
	return ret
}

// HistoricalSeriesForGroups counts events per year for the first topK names
// of groups. A nil groups uses DefaultHistoricalGroups and a topK <= 0 uses
// every name given. Rows are sorted by year, then group.
func HistoricalSeriesForGroups(v gtd.View, groups []string, topK int) (GroupYearTable, error) {
	if groups == nil {
		groups = DefaultHistoricalGroups
	}
	if topK > 0 && topK < len(groups) {
		groups = groups[:topK]
	}
	ret := GroupYearTable{}
	if v.Table() == nil {
		return ret, nil
	}
	rows, err := v.Table().Rows(gtd.FieldGroup, groups...)
	if err != nil {
		return nil, errors.Wrap(err, "getting group rows")
	}
	type key struct {
		group string
		year  int
	}
	counts := make(map[key]int)
	v.Restrict(rows).Each(func(_ uint32, e *gtd.Event) {
		counts[key{e.Group, e.Year}]++
	})
	for k, n := range counts {
		ret = append(ret, GroupYear{Group: k.group, Year: k.year, Count: n})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Year != ret[j].Year {
			return ret[i].Year < ret[j].Year
		}
		return ret[i].Group < ret[j].Group
	})
	return ret, nil
}

// FatalitiesByRegionAttackType sums nkill per region and attack type. Events
// with a missing nkill are skipped rather than counted as 0. Rows are sorted
// by region, then attack type.
func FatalitiesByRegionAttackType(v gtd.View) RegionAttackFatalitiesTable {
	type key struct {
		region gtd.Region
		typ    string
	}
	sums := make(map[key]float64)
	v.Each(func(_ uint32, e *gtd.Event) {
		if !e.NKill.Valid {
			return
		}
		sums[key{e.Region, e.AttackType}] += e.NKill.Value
	})
	ret := make(RegionAttackFatalitiesTable, 0, len(sums))
	for k, s := range sums {
		ret = append(ret, RegionAttackFatalities{Region: k.region, AttackType: k.typ, NKill: s})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Region != ret[j].Region {
			return ret[i].Region < ret[j].Region
		}
		return ret[i].AttackType < ret[j].AttackType
	})
	return ret
}

// ValueCounts counts the events in v holding each value of a categorical
// frame, most frequent first with ties broken by value, and keeps the first
// n. A negative n keeps every value. Missing values are not counted.
func ValueCounts(v gtd.View, frame string, n int) (ValueCountTable, error) {
	ret := ValueCountTable{}
	if v.Table() == nil || v.Len() == 0 {
		return ret, nil
	}
	err := v.Table().FrameRows(frame, func(val string, rows *roaring.Bitmap) {
		if c := v.Count(rows); c > 0 {
			ret = append(ret, ValueCount{Value: val, Count: c})
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "counting %s", frame)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Count != ret[j].Count {
			return ret[i].Count > ret[j].Count
		}
		return ret[i].Value < ret[j].Value
	})
	if n >= 0 && n < len(ret) {
		ret = ret[:n]
	}
	return ret, nil
}

// Profile summarizes the located events of one country.
type Profile struct {
	Country string          `json:"country"`
	Groups  ValueCountTable `json:"groups"`
	Targets ValueCountTable `json:"targets"`
	Weapons ValueCountTable `json:"weapons"`
	Cities  ValueCountTable `json:"cities"`
	Points  GeoPointTable   `json:"points"`
}

// CountryProfile restricts v to country and to events with both
// coordinates, then returns the top ProfileTopN groups, target types, weapon
// subtypes and cities of what remains along with its points. Facets with
// fewer distinct values are not padded.
func CountryProfile(v gtd.View, country string) (Profile, error) {
	located, err := filter.NewChain(v).Country(country).HasCoordinates().View()
	if err != nil {
		return Profile{}, errors.Wrap(err, "filtering country")
	}
	p := Profile{Country: country, Points: Points(located)}
	facets := []struct {
		frame string
		dst   *ValueCountTable
	}{
		{gtd.FieldGroup, &p.Groups},
		{gtd.FieldTargetType, &p.Targets},
		{gtd.FieldWeaponSubtype, &p.Weapons},
		{gtd.FieldCity, &p.Cities},
	}
	for _, f := range facets {
		*f.dst, err = ValueCounts(located, f.frame, ProfileTopN)
		if err != nil {
			return Profile{}, err
		}
	}
	return p, nil
}

// Points returns the location of every event in v which has both
// coordinates.
func Points(v gtd.View) GeoPointTable {
	ret := GeoPointTable{}
	v.Each(func(_ uint32, e *gtd.Event) {
		if !e.HasCoordinates() {
			return
		}
		ret = append(ret, GeoPoint{Latitude: e.Latitude.Value, Longitude: e.Longitude.Value, City: e.City})
	})
	return ret
}
