package boltdb_test

import (
	"path/filepath"
	"testing"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/boltdb"
	"github.com/pilosa/gtd/test"
)

func TestSnapshot(t *testing.T) {
	file := filepath.Join(test.TempDir(t), "snap.db")
	s, err := boltdb.NewSnapshot(file)
	test.ErrNil(t, err, "opening")

	events := []gtd.Event{
		test.Ev{Year: 1992, Region: gtd.SouthAmerica, Country: "Peru", City: "Lima", NKill: test.P(3)}.Event(),
		test.Ev{Year: 2014, Region: gtd.MiddleEastNorthAfrica, Country: "Iraq", Lat: test.P(33.3), Lon: test.P(44.4)}.Event(),
	}
	test.ErrNil(t, s.Put("gtd.csv", "v1", events), "putting")

	_, ok, err := s.Get("gtd.csv", "v2")
	test.ErrNil(t, err, "getting other version")
	test.MustBe(t, ok, false)

	test.ErrNil(t, s.Close(), "closing")
	s, err = boltdb.NewSnapshot(file)
	test.ErrNil(t, err, "reopening")
	defer s.Close()

	got, ok, err := s.Get("gtd.csv", "v1")
	test.ErrNil(t, err, "getting")
	test.MustBe(t, ok, true)
	test.MustBe(t, got, events)
	test.MustBe(t, got[0].NKillUS.Valid, false, "null survives the round trip")
}
