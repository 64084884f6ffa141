package aggregate_test

import (
	"testing"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/aggregate"
	"github.com/pilosa/gtd/test"
)

func TestSumFatalitiesByCountry(t *testing.T) {
	tbl := test.MustTable(t,
		test.Ev{Year: 2001, Region: gtd.NorthAmerica, Country: "B", NKill: test.P(5), NKillUS: test.P(5)},
		test.Ev{Year: 2001, Region: gtd.MiddleEastNorthAfrica, Country: "A", NKill: test.P(2)},
		test.Ev{Year: 2002, Region: gtd.MiddleEastNorthAfrica, Country: "A"},
	)
	got := aggregate.SumFatalitiesByCountry(tbl.All())
	exp := aggregate.CountryFatalitiesTable{
		{Country: "A", NKill: 2, Continents: gtd.ContinentsOf(gtd.MiddleEastNorthAfrica), TotalAttacks: 2},
		{Country: "B", NKill: 5, NKillUS: 5, Continents: gtd.ContinentsOf(gtd.NorthAmerica), TotalAttacks: 1},
	}
	test.MustBe(t, got, exp)
	test.MustBe(t, got.Rows()[0], []string{"A", "2", "0", "world|asia|africa", "2"})

	empty := aggregate.SumFatalitiesByCountry(gtd.View{})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil table, got %#v", empty)
	}
	test.MustBe(t, len(empty.Header()), 5)
}

func groupTable(t *testing.T, counts map[string]int) *gtd.Table {
	evs := []test.Ev{}
	for g, n := range counts {
		for i := 0; i < n; i++ {
			evs = append(evs, test.Ev{Year: 1990, Region: gtd.SouthAsia, Country: "India", Group: g})
		}
	}
	return test.MustTable(t, evs...)
}

func TestTopGroupsByCount(t *testing.T) {
	tbl := groupTable(t, map[string]int{"X": 10, "Y": 9, "Z": 8, "W": 7})
	got, err := aggregate.TopGroupsByCount(tbl.All(), 3, true)
	test.ErrNil(t, err, "top groups")
	test.MustBe(t, got, aggregate.GroupCountTable{{"Y", 9}, {"Z", 8}})

	got, err = aggregate.TopGroupsByCount(tbl.All(), 15, true)
	test.ErrNil(t, err, "top groups past end")
	test.MustBe(t, got, aggregate.GroupCountTable{{"Y", 9}, {"Z", 8}, {"W", 7}})

	got, err = aggregate.TopGroupsByCount(tbl.All(), 1, true)
	test.ErrNil(t, err, "top 1")
	test.MustBe(t, got, aggregate.GroupCountTable{})
}

func TestTopGroupsByCountUnknown(t *testing.T) {
	tbl := groupTable(t, map[string]int{"X": 10, gtd.UnknownGroup: 9, "Z": 8, "W": 7, "V": 6})

	got, err := aggregate.TopGroupsByCount(tbl.All(), 4, true)
	test.ErrNil(t, err, "dropping unknown")
	// Unknown is removed after the slice is taken and nothing refills it
	test.MustBe(t, got, aggregate.GroupCountTable{{"Z", 8}, {"W", 7}})

	got, err = aggregate.TopGroupsByCount(tbl.All(), 4, false)
	test.ErrNil(t, err, "keeping unknown")
	test.MustBe(t, got, aggregate.GroupCountTable{{gtd.UnknownGroup, 9}, {"Z", 8}, {"W", 7}})

	// an Unknown ranked first is skipped by the slice either way
	tbl = groupTable(t, map[string]int{gtd.UnknownGroup: 10, "Y": 3})
	got, err = aggregate.TopGroupsByCount(tbl.All(), aggregate.DefaultTopK, false)
	test.ErrNil(t, err, "unknown first")
	test.MustBe(t, got, aggregate.GroupCountTable{{"Y", 3}})
}

func TestTopGroupsByCountTies(t *testing.T) {
	tbl := groupTable(t, map[string]int{"top": 5, "b": 2, "c": 2, "a": 2})
	got, err := aggregate.TopGroupsByCount(tbl.All(), 15, true)
	test.ErrNil(t, err, "ties")
	test.MustBe(t, got, aggregate.GroupCountTable{{"a", 2}, {"b", 2}, {"c", 2}})
}

func TestAttackTypeCountsByYear(t *testing.T) {
	tbl := test.MustTable(t,
		test.Ev{Year: 1990, Region: gtd.SouthAsia, Country: "India", Attack: "Hijacking"},
		test.Ev{Year: 1990, Region: gtd.SouthAsia, Country: "India", Attack: "Armed Assault"},
		test.Ev{Year: 1992, Region: gtd.SouthAsia, Country: "India", Attack: "Armed Assault"},
		test.Ev{Year: 1990, Region: gtd.SouthAsia, Country: "India", Attack: "Armed Assault"},
	)
	got := aggregate.AttackTypeCountsByYear(tbl.All())
	test.MustBe(t, got, aggregate.AttackTypeYearTable{
		{"Armed Assault", 1990, 2},
		{"Armed Assault", 1992, 1},
		{"Hijacking", 1990, 1},
	})
	for _, r := range got {
		if r.AttackType == "Hijacking" && r.Year == 1992 {
			t.Fatalf("series must be sparse")
		}
	}
	test.MustBe(t, len(aggregate.AttackTypeCountsByYear(gtd.View{})), 0)
}

func TestHistoricalSeriesForGroups(t *testing.T) {
	tbl := test.MustTable(t,
		test.Ev{Year: 2010, Region: gtd.SouthAsia, Country: "Afghanistan", Group: "Taliban"},
		test.Ev{Year: 1985, Region: gtd.SouthAmerica, Country: "Peru", Group: "Shining Path (SL)"},
		test.Ev{Year: 2010, Region: gtd.SubSaharanAfrica, Country: "Nigeria", Group: "Boko Haram"},
		test.Ev{Year: 1985, Region: gtd.SouthAmerica, Country: "Peru", Group: "Shining Path (SL)"},
		test.Ev{Year: 1999, Region: gtd.SouthAmerica, Country: "Peru", Group: "Someone Else"},
	)
	got, err := aggregate.HistoricalSeriesForGroups(tbl.All(), nil, aggregate.DefaultHistoricalTopK)
	test.ErrNil(t, err, "series")
	test.MustBe(t, got, aggregate.GroupYearTable{
		{"Shining Path (SL)", 1985, 2},
		{"Boko Haram", 2010, 1},
		{"Taliban", 2010, 1},
	})

	got, err = aggregate.HistoricalSeriesForGroups(tbl.All(), []string{"Taliban", "Boko Haram"}, 1)
	test.ErrNil(t, err, "series truncated")
	test.MustBe(t, got, aggregate.GroupYearTable{{"Taliban", 2010, 1}})
}

func TestFatalitiesByRegionAttackType(t *testing.T) {
	tbl := test.MustTable(t,
		test.Ev{Year: 2000, Region: gtd.WesternEurope, Country: "Spain", Attack: "Bombing/Explosion", NKill: test.P(3)},
		test.Ev{Year: 2000, Region: gtd.WesternEurope, Country: "France", Attack: "Bombing/Explosion", NKill: test.P(1)},
		test.Ev{Year: 2000, Region: gtd.WesternEurope, Country: "France", Attack: "Hijacking"},
		test.Ev{Year: 2000, Region: gtd.EastAsia, Country: "Japan", Attack: "Armed Assault", NKill: test.P(0)},
	)
	got := aggregate.FatalitiesByRegionAttackType(tbl.All())
	test.MustBe(t, got, aggregate.RegionAttackFatalitiesTable{
		{gtd.EastAsia, "Armed Assault", 0},
		{gtd.WesternEurope, "Bombing/Explosion", 4},
	})
}

func TestCountryProfile(t *testing.T) {
	loc := func(city, group, target, weapon string) test.Ev {
		return test.Ev{Year: 2014, Region: gtd.SubSaharanAfrica, Country: "Nigeria", City: city, Group: group,
			Target: target, Weapon: weapon, Lat: test.P(11.8), Lon: test.P(13.1)}
	}
	tbl := test.MustTable(t,
		loc("Maiduguri", "Boko Haram", "Police", "Unknown Gun Type"),
		loc("Maiduguri", "Boko Haram", "Military", ""),
		loc("Kano", "Fulani extremists", "Police", "Vehicle"),
		loc("", "Unknown", "Police", "Vehicle"),
		test.Ev{Year: 2014, Region: gtd.SubSaharanAfrica, Country: "Nigeria", City: "Lagos", Group: "Boko Haram", Target: "Business"},
		test.Ev{Year: 2014, Region: gtd.SubSaharanAfrica, Country: "Niger", City: "Diffa", Group: "Boko Haram", Lat: test.P(13.3), Lon: test.P(12.6)},
	)
	p, err := aggregate.CountryProfile(tbl.All(), "Nigeria")
	test.ErrNil(t, err, "profile")
	test.MustBe(t, p.Groups, aggregate.ValueCountTable{{"Boko Haram", 2}, {"Fulani extremists", 1}, {"Unknown", 1}})
	test.MustBe(t, p.Targets, aggregate.ValueCountTable{{"Police", 3}, {"Military", 1}})
	test.MustBe(t, p.Weapons, aggregate.ValueCountTable{{"Vehicle", 2}, {"Unknown Gun Type", 1}})
	test.MustBe(t, p.Cities, aggregate.ValueCountTable{{"Maiduguri", 2}, {"Kano", 1}})
	test.MustBe(t, len(p.Points), 4)

	p, err = aggregate.CountryProfile(tbl.All(), "Atlantis")
	test.ErrNil(t, err, "absent country")
	test.MustBe(t, len(p.Groups)+len(p.Targets)+len(p.Weapons)+len(p.Cities)+len(p.Points), 0)
	if p.Groups == nil || p.Points == nil {
		t.Fatalf("empty profile tables must not be nil")
	}
}

func TestValueCountsTopN(t *testing.T) {
	evs := []test.Ev{}
	for i, c := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for j := 0; j <= i; j++ {
			evs = append(evs, test.Ev{Year: 1990, Region: gtd.SouthAsia, Country: "India", City: c})
		}
	}
	got, err := aggregate.ValueCounts(test.MustTable(t, evs...).All(), gtd.FieldCity, aggregate.ProfileTopN)
	test.ErrNil(t, err, "value counts")
	test.MustBe(t, got, aggregate.ValueCountTable{{"g", 7}, {"f", 6}, {"e", 5}, {"d", 4}, {"c", 3}})
}

func TestAggregationIsRepeatable(t *testing.T) {
	tbl := groupTable(t, map[string]int{"X": 4, "Y": 3, "Z": 2})
	a, _ := aggregate.TopGroupsByCount(tbl.All(), 15, true)
	b, _ := aggregate.TopGroupsByCount(tbl.All(), 15, true)
	test.MustBe(t, a, b)
	test.MustBe(t, aggregate.SumFatalitiesByCountry(tbl.All()), aggregate.SumFatalitiesByCountry(tbl.All()))
}
