package query_test

import (
	"testing"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/aggregate"
	"github.com/pilosa/gtd/query"
	"github.com/pilosa/gtd/test"
)

func table(t *testing.T) *gtd.Table {
	return test.MustTable(t,
		test.Ev{Year: 1990, Region: gtd.MiddleEastNorthAfrica, Country: "Iraq", Attack: "Armed Assault", Group: "Kurdistan Workers' Party (PKK)", NKill: test.P(4)},
		test.Ev{Year: 1990, Region: gtd.MiddleEastNorthAfrica, Country: "Iraq", Attack: "Bombing/Explosion", NKill: test.P(10)},
		test.Ev{Year: 1991, Region: gtd.MiddleEastNorthAfrica, Country: "Algeria", Attack: "Bombing/Explosion", Group: "GIA", NKill: test.P(2)},
		test.Ev{Year: 1992, Region: gtd.MiddleEastNorthAfrica, Country: "Algeria", Attack: "Armed Assault", Group: "GIA"},
		test.Ev{Year: 1993, Region: gtd.SubSaharanAfrica, Country: "Nigeria", Attack: "Armed Assault", Group: "Boko Haram", NKill: test.P(1),
			City: "Maiduguri", Lat: test.P(11.84), Lon: test.P(13.16)},
		test.Ev{Year: 1994, Region: gtd.SubSaharanAfrica, Country: "Nigeria", Attack: "Hijacking", Group: "Boko Haram",
			City: "Maiduguri", Lat: test.P(11.85), Lon: test.P(13.15)},
		test.Ev{Year: 1995, Region: gtd.SubSaharanAfrica, Country: "Nigeria", Attack: "Armed Assault", Group: "Fulani extremists"},
		test.Ev{Year: 1975, Region: gtd.CentralAmericaCaribbean, Country: "Cuba", Attack: "Assassination", Group: "MANO-D", NKill: test.P(1)},
		test.Ev{Year: 1992, Region: gtd.SouthAmerica, Country: "Peru", Attack: "Armed Assault", Group: "Shining Path (SL)", NKill: test.P(3)},
	)
}

func TestDensity(t *testing.T) {
	f := query.NewFacade(table(t))

	res, err := f.Density(query.Params{Start: 1986, End: 2002, Continent: "africa"})
	test.ErrNil(t, err, "density")
	test.MustBe(t, res.Label, "Africa")
	test.MustBe(t, res.Continent, "africa")
	got := []string{}
	for _, r := range res.Countries {
		got = append(got, r.Country)
		if r.Country == "Iraq" {
			t.Fatalf("Iraq in africa density")
		}
	}
	test.MustBe(t, got, []string{"Algeria", "Nigeria"})
	test.MustBe(t, res.Countries[1].TotalAttacks, 3)
	test.MustBe(t, res.Countries[1].NKill, 1.0)

	// continent is applied before the group, so an Iraq group is empty in africa
	p := query.Params{Start: 1986, End: 2002, Continent: "africa", Group: "Kurdistan Workers' Party (PKK)"}
	res, err = f.Density(p)
	test.ErrNil(t, err, "density by group")
	test.MustBe(t, len(res.Countries), 0)
	p.Continent = "asia"
	res, err = f.Density(p)
	test.ErrNil(t, err, "density by group in asia")
	test.MustBe(t, res.Countries, aggregate.CountryFatalitiesTable{{
		Country: "Iraq", NKill: 4, Continents: gtd.ContinentsOf(gtd.MiddleEastNorthAfrica), TotalAttacks: 1,
	}})

	res, err = f.Density(query.Params{Start: 1970, End: 2017, Continent: "north america", AttackTypes: []string{"Assassination"}})
	test.ErrNil(t, err, "density by attack type")
	test.MustBe(t, len(res.Countries), 1)
	test.MustBe(t, res.Label, "North America")

	_, err = f.Density(query.Params{Start: 1970, End: 2017, Continent: "oceania"})
	if !gtd.IsInvalidFilterValue(err) {
		t.Fatalf("expected invalid filter value, got %v", err)
	}

	res, err = f.Density(query.Params{Start: 2002, End: 1986})
	test.ErrNil(t, err, "inverted range")
	test.MustBe(t, len(res.Countries), 0)
}

func TestTopGroupsIgnoresGroupSelector(t *testing.T) {
	f := query.NewFacade(table(t))
	p := query.DefaultParams()
	p.Continent = "africa"
	a, err := f.TopGroups(p)
	test.ErrNil(t, err, "top groups")
	p.Group = "GIA"
	b, err := f.TopGroups(p)
	test.ErrNil(t, err, "top groups with selector")
	test.MustBe(t, a, b)
	// africa without Iraq: Boko Haram 2, GIA 2, Fulani 1; rank 1 is skipped
	test.MustBe(t, a, aggregate.GroupCountTable{{Group: "GIA", Count: 2}, {Group: "Fulani extremists", Count: 1}})
}

func TestComposition(t *testing.T) {
	f := query.NewFacade(table(t))
	res, err := f.Composition()
	test.ErrNil(t, err, "composition")
	test.MustBe(t, res.GroupHistory, aggregate.GroupYearTable{
		{Group: "Kurdistan Workers' Party (PKK)", Year: 1990, Count: 1},
		{Group: "Shining Path (SL)", Year: 1992, Count: 1},
		{Group: "Boko Haram", Year: 1993, Count: 1},
		{Group: "Boko Haram", Year: 1994, Count: 1},
	})
	total := 0
	for _, r := range res.AttackTypesByYear {
		total += r.Count
	}
	test.MustBe(t, total, 9, "composition covers the whole table")
	for _, r := range res.RegionFatalities {
		if r.Region == gtd.MiddleEastNorthAfrica && r.AttackType == "Bombing/Explosion" {
			test.MustBe(t, r.NKill, 12.0)
		}
	}
}

func TestProfile(t *testing.T) {
	f := query.NewFacade(table(t))
	res, err := f.Profile("Nigeria")
	test.ErrNil(t, err, "profile")
	test.MustBe(t, res.Groups, aggregate.ValueCountTable{{Value: "Boko Haram", Count: 2}})
	test.MustBe(t, res.Cities, aggregate.ValueCountTable{{Value: "Maiduguri", Count: 2}})
	test.MustBe(t, len(res.Points), 2)
	test.MustBe(t, res.Cells, aggregate.GeoCellTable{{Geohash: "s617", Count: 2}})

	res, err = f.Profile("Atlantis")
	test.ErrNil(t, err, "unknown country")
	test.MustBe(t, len(res.Points), 0)
}

func TestEnumerations(t *testing.T) {
	f := query.NewFacade(table(t))
	countries, err := f.Countries()
	test.ErrNil(t, err, "countries")
	test.MustBe(t, countries, []string{"Algeria", "Cuba", "Iraq", "Nigeria", "Peru"})

	groups, err := f.Groups()
	test.ErrNil(t, err, "groups")
	test.MustBe(t, groups[0], "all")
	test.MustBe(t, groups[1:], []string{"Boko Haram", "Fulani extremists", "GIA", "Kurdistan Workers' Party (PKK)", "MANO-D", "Shining Path (SL)", "Unknown"})

	types, err := f.AttackTypes()
	test.ErrNil(t, err, "attack types")
	test.MustBe(t, types, []string{"all", "Armed Assault", "Bombing/Explosion", "Hijacking", "Assassination"})

	test.MustBe(t, f.Continents(), []string{"world", "europe", "asia", "africa", "north america", "south america"})

	l, err := f.Lists()
	test.ErrNil(t, err, "lists")
	test.MustBe(t, l.Countries, countries)
}

func TestCachedMatchesUncached(t *testing.T) {
	tbl := table(t)
	cache, err := query.NewLRUCache(8)
	test.ErrNil(t, err, "cache")
	cached := query.NewFacade(tbl, query.WithCache(cache))
	plain := query.NewFacade(tbl)

	params := []query.Params{
		query.DefaultParams(),
		{Start: 1970, End: 2017, Continent: "africa", AttackTypes: []string{"Hijacking", "Armed Assault"}},
		{Start: 1970, End: 2017, Continent: "Africa", AttackTypes: []string{"Armed Assault", "Hijacking", "Hijacking"}},
	}
	for i := 0; i < 2; i++ {
		for _, p := range params {
			a, err := cached.Density(p)
			test.ErrNil(t, err, "cached density")
			b, err := plain.Density(p)
			test.ErrNil(t, err, "density")
			test.MustBe(t, a, b)

			ga, err := cached.TopGroups(p)
			test.ErrNil(t, err, "cached groups")
			gb, err := plain.TopGroups(p)
			test.ErrNil(t, err, "groups")
			test.MustBe(t, ga, gb)
		}
	}
	// the last two params are equivalent
	test.MustBe(t, cache.Len(), 4)

	// another table never hits the first table's entries
	other := query.NewFacade(test.MustTable(t), query.WithCache(cache))
	res, err := other.Density(query.DefaultParams())
	test.ErrNil(t, err, "density on empty table")
	test.MustBe(t, len(res.Countries), 0)
}
