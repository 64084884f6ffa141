package gtd

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EventParser parses the map[string]string records produced by the csv and
// sqlite sources. Column names are the GTD names (see Fields).
type EventParser struct{}

// Parse implements Parser. Required columns are iyear, region_txt,
// country_txt, attacktype1_txt and gname. Missing numeric columns are null,
// but a present value which does not parse is an error.
func (EventParser) Parse(data interface{}) (e Event, err error) {
	rec, ok := data.(map[string]string)
	if !ok {
		return e, errors.Errorf("unexpected record type %T", data)
	}

	yearStr := strings.TrimSpace(rec[FieldYear])
	e.Year, err = strconv.Atoi(yearStr)
	if err != nil {
		return e, errors.Wrapf(err, "parsing %s '%s'", FieldYear, yearStr)
	}

	e.Region = Region(rec[FieldRegion])
	if !e.Region.Valid() {
		return e, errors.Errorf("unknown %s '%s'", FieldRegion, rec[FieldRegion])
	}
	e.Continents = ContinentsOf(e.Region)

	required := []struct {
		name string
		dst  *string
	}{
		{FieldCountry, &e.Country},
		{FieldAttackType, &e.AttackType},
		{FieldGroup, &e.Group},
	}
	for _, r := range required {
		*r.dst = rec[r.name]
		if *r.dst == "" {
			return e, errors.Errorf("missing required field %s", r.name)
		}
	}
	e.City = rec[FieldCity]
	e.TargetType = rec[FieldTargetType]
	e.WeaponSubtype = rec[FieldWeaponSubtype]

	floats := []struct {
		name     string
		dst      *NullFloat
		negative bool
	}{
		{FieldLatitude, &e.Latitude, true},
		{FieldLongitude, &e.Longitude, true},
		{FieldNKill, &e.NKill, false},
		{FieldNKillUS, &e.NKillUS, false},
	}
	for _, f := range floats {
		*f.dst, err = parseNullFloat(rec[f.name])
		if err != nil {
			return e, errors.Wrapf(err, "parsing %s", f.name)
		}
		if !f.negative && f.dst.Valid && f.dst.Value < 0 {
			return e, errors.Errorf("negative %s '%s'", f.name, rec[f.name])
		}
	}
	return e, nil
}

// nullTokens are spellings of a missing value found in exports of the
// database.
var nullTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "-": {},
}

// parseNullFloat parses a finite number. Empty strings and null tokens are
// null.
func parseNullFloat(s string) (NullFloat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullFloat{}, nil
	}
	if _, ok := nullTokens[strings.ToLower(s)]; ok {
		return NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}, errors.Errorf("non-finite value '%s'", s)
	}
	return F(v), nil
}
