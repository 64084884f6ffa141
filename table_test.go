package gtd_test

import (
	"io"
	"testing"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/test"
	"github.com/pkg/errors"
)

func sampleTable(t *testing.T) *gtd.Table {
	return test.MustTable(t,
		test.Ev{Year: 1970, Region: gtd.CentralAmericaCaribbean, Country: "Cuba", Attack: "Assassination", Group: "MANO-D"},
		test.Ev{Year: 1985, Region: gtd.SouthAmerica, Country: "Peru", Attack: "Armed Assault", Group: "Shining Path (SL)", City: "Lima"},
		test.Ev{Year: 1985, Region: gtd.SouthAmerica, Country: "Peru", Attack: "Bombing/Explosion", Group: "Shining Path (SL)"},
		test.Ev{Year: 2014, Region: gtd.MiddleEastNorthAfrica, Country: "Iraq", Attack: "Bombing/Explosion"},
	)
}

func TestTableRows(t *testing.T) {
	tbl := sampleTable(t)
	test.MustBe(t, tbl.Len(), 4)
	min, max := tbl.YearBounds()
	test.MustBe(t, []int{min, max}, []int{1970, 2014})

	peru, err := tbl.Row(gtd.FieldCountry, "Peru")
	test.ErrNil(t, err, "row")
	test.MustBe(t, peru.ToArray(), []uint32{1, 2})

	none, err := tbl.Row(gtd.FieldCountry, "Narnia")
	test.ErrNil(t, err, "unknown row")
	test.MustBe(t, none.IsEmpty(), true)

	rows, err := tbl.Rows(gtd.FieldAttackType, "Assassination", "Armed Assault", "nope")
	test.ErrNil(t, err, "rows")
	test.MustBe(t, rows.ToArray(), []uint32{0, 1})

	// city is null on most events and nulls are not indexed
	cities, err := tbl.Values(gtd.FieldCity)
	test.ErrNil(t, err, "values")
	test.MustBe(t, cities, []string{"Lima"})
}

func TestTableYearRows(t *testing.T) {
	tbl := sampleTable(t)
	test.MustBe(t, tbl.YearRows(1980, 1990).ToArray(), []uint32{1, 2})
	test.MustBe(t, tbl.YearRows(1900, 2100).ToArray(), []uint32{0, 1, 2, 3})
	test.MustBe(t, tbl.YearRows(1990, 1980).IsEmpty(), true, "start > end")
	test.MustBe(t, tbl.YearRows(1971, 1984).IsEmpty(), true, "gap")
}

func TestTableValuesFirstSeenOrder(t *testing.T) {
	tbl := sampleTable(t)
	vals, err := tbl.Values(gtd.FieldAttackType)
	test.ErrNil(t, err, "values")
	test.MustBe(t, vals, []string{"Assassination", "Armed Assault", "Bombing/Explosion"})
}

func TestTableIDsDiffer(t *testing.T) {
	a, b := sampleTable(t), sampleTable(t)
	if a.ID() == b.ID() {
		t.Fatalf("tables share id %d", a.ID())
	}
}

func TestViewOps(t *testing.T) {
	tbl := sampleTable(t)
	all := tbl.All()
	test.MustBe(t, all.Len(), 4)

	bombs, _ := tbl.Row(gtd.FieldAttackType, "Bombing/Explosion")
	v := all.Restrict(bombs)
	test.MustBe(t, v.Len(), 2)
	iraq, _ := tbl.Row(gtd.FieldCountry, "Iraq")
	test.MustBe(t, v.Exclude(iraq).Rows().ToArray(), []uint32{2})
	test.MustBe(t, v.Count(iraq), 1)

	old := all.Where(func(e *gtd.Event) bool { return e.Year < 1980 })
	test.MustBe(t, len(old.Events()), 1)
	test.MustBe(t, old.Events()[0].Country, "Cuba")

	// the table is untouched by view operations
	test.MustBe(t, tbl.All().Len(), 4)
	test.MustBe(t, all.Restrict(bombs).Equal(v), true)

	var zero gtd.View
	test.MustBe(t, zero.Len(), 0)
	test.MustBe(t, len(zero.Events()), 0)
}

type sliceSource struct {
	recs []interface{}
	err  error
}

func (s *sliceSource) Record() (interface{}, error) {
	if len(s.recs) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	r := s.recs[0]
	s.recs = s.recs[1:]
	return r, nil
}

func TestIngester(t *testing.T) {
	good := map[string]string{"iyear": "2001", "region_txt": "North America", "country_txt": "United States", "attacktype1_txt": "Hijacking", "gname": "Al-Qaida", "nkill": "1"}
	bad := map[string]string{"iyear": "x"}

	tbl, err := gtd.NewIngester(&sliceSource{recs: []interface{}{good, good}}, gtd.EventParser{}).Run()
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, tbl.Len(), 2)

	_, err = gtd.NewIngester(&sliceSource{recs: []interface{}{good, bad}}, gtd.EventParser{}).Run()
	if !gtd.IsDataUnavailable(err) {
		t.Fatalf("expected data unavailable for malformed record, got %v", err)
	}

	_, err = gtd.NewIngester(&sliceSource{err: errors.New("disk on fire")}, gtd.EventParser{}).Run()
	if !gtd.IsDataUnavailable(err) {
		t.Fatalf("expected data unavailable for source error, got %v", err)
	}
}
