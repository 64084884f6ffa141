// Package test holds helpers shared by the tests of the gtd packages.
package test

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/pilosa/gtd"
)

// MustBe uses reflect.DeepEqual to assert that thing1 and thing2 are equal, and
// fails otherwise.
func MustBe(t testing.TB, thing1, thing2 interface{}, context ...string) {
	t.Helper()
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

// ErrNil asserts that the err is nil and fails otherwise.
func ErrNil(t testing.TB, err error, ctx string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%v: %v", ctx, err)
	}
}

// TempFile writes content to a new temporary file and returns its name. The
// file is removed when the test finishes.
func TempFile(t testing.TB, content string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "gtd")
	if err != nil {
		t.Fatalf("getting temp file: %v", err)
	}
	defer f.Close()
	n, err := f.WriteString(content)
	if err != nil || n != len(content) {
		t.Fatalf("writing temp file: %v, n: %v", err, n)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

// TempDir returns a new temporary directory which is removed when the test
// finishes.
func TempDir(t testing.TB) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "gtd")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// Ev is a compact way of writing an event in a test.
type Ev struct {
	Year     int
	Region   gtd.Region
	Country  string
	City     string
	Attack   string
	Group    string
	Target   string
	Weapon   string
	NKill    *float64
	NKillUS  *float64
	Lat, Lon *float64
}

// Event converts e to a gtd.Event with its continent set filled in.
func (e Ev) Event() gtd.Event {
	ev := gtd.Event{
		Year:          e.Year,
		Region:        e.Region,
		Country:       e.Country,
		City:          e.City,
		AttackType:    e.Attack,
		Group:         e.Group,
		TargetType:    e.Target,
		WeaponSubtype: e.Weapon,
		Continents:    gtd.ContinentsOf(e.Region),
	}
	if ev.AttackType == "" {
		ev.AttackType = "Bombing/Explosion"
	}
	if ev.Group == "" {
		ev.Group = gtd.UnknownGroup
	}
	if e.NKill != nil {
		ev.NKill = gtd.F(*e.NKill)
	}
	if e.NKillUS != nil {
		ev.NKillUS = gtd.F(*e.NKillUS)
	}
	if e.Lat != nil {
		ev.Latitude = gtd.F(*e.Lat)
	}
	if e.Lon != nil {
		ev.Longitude = gtd.F(*e.Lon)
	}
	return ev
}

// P returns a pointer to v.
func P(v float64) *float64 { return &v }

// MustTable builds a table from evs and fails the test on error.
func MustTable(t testing.TB, evs ...Ev) *gtd.Table {
	t.Helper()
	events := make([]gtd.Event, len(evs))
	for i, e := range evs {
		events[i] = e.Event()
	}
	tbl, err := gtd.NewTable(events, nil)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tbl
}

// SampleCSV is a small extract in the GTD CSV layout, including quoted
// fields, extra columns and missing values.
const SampleCSV = `eventid,iyear,imonth,country_txt,region_txt,city,latitude,longitude,attacktype1_txt,targtype1_txt,gname,weapsubtype1_txt,nkill,nkillus
197000000001,1970,7,Dominican Republic,Central America & Caribbean,Santo Domingo,18.456792,-69.951164,Assassination,Private Citizens & Property,MANO-D,,1,
197000000002,1970,0,Mexico,North America,Mexico city,19.371887,-99.086624,Hostage Taking (Kidnapping),Government (Diplomatic),23rd of September Communist League,,0,
197001000001,1970,1,Philippines,Southeast Asia,Unknown,15.478598,120.599741,Assassination,Journalists & Media,Unknown,,1,
197001000002,1970,1,Greece,Western Europe,Athens,37.99749,23.762728,Bombing/Explosion,Government (Diplomatic),Unknown,Unknown Explosive Type,,
197001000003,1970,1,Japan,East Asia,Fukouka,33.580412,130.396361,Facility/Infrastructure Attack,Government (Diplomatic),Unknown,Arson/Fire,,
199201010001,1992,1,Iraq,Middle East & North Africa,Baghdad,33.303566,44.371773,Armed Assault,Military,"Kurdistan Workers' Party (PKK)",Automatic or Semi-Automatic Rifle,4,0
199201010002,1992,1,Algeria,Middle East & North Africa,"Algiers, Kasbah",36.752887,3.042048,Bombing/Explosion,Police,Unknown,Vehicle,2,0
199201010003,1992,1,Peru,South America,Lima,,,Armed Assault,Police,Shining Path (SL),Unknown Gun Type,3,0
201401010001,2014,1,Nigeria,Sub-Saharan Africa,Maiduguri,11.846440,13.160274,Armed Assault,Private Citizens & Property,Boko Haram,Unknown Gun Type,12,0
201401010002,2014,1,Nigeria,Sub-Saharan Africa,,,,Bombing/Explosion,Private Citizens & Property,Boko Haram,Suicide (carried bodily by human being),7,0
`
