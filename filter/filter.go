// Package filter narrows gtd.Views. Every filter is total and side-effect
// free: it returns a new View and never modifies the one it is given or the
// table behind it.
package filter

import (
	"github.com/pilosa/gtd"
	"github.com/pkg/errors"
)

// All is the selector value meaning "no restriction" for attack types and
// groups.
const All = "all"

// YearRange keeps events with start <= year <= end. If start > end the
// result is empty.
func YearRange(v gtd.View, start, end int) gtd.View {
	if v.Table() == nil {
		return v
	}
	return v.Restrict(v.Table().YearRows(start, end))
}

// Continent keeps events whose region belongs to the named bucket. The
// africa bucket additionally drops events in Iraq. An unknown bucket name is
// an ErrInvalidFilterValue.
func Continent(v gtd.View, bucket string) (gtd.View, error) {
	c, err := gtd.ParseContinent(bucket)
	if err != nil {
		return gtd.View{}, err
	}
	if v.Table() == nil || c == gtd.World {
		return v, nil
	}
	regions := gtd.RegionsOf(c)
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = string(r)
	}
	rows, err := v.Table().Rows(gtd.FieldRegion, names...)
	if err != nil {
		return gtd.View{}, errors.Wrap(err, "getting region rows")
	}
	ret := v.Restrict(rows)
	if excl := gtd.ExcludedCountries[c]; len(excl) > 0 {
		out, err := v.Table().Rows(gtd.FieldCountry, excl...)
		if err != nil {
			return gtd.View{}, errors.Wrap(err, "getting excluded country rows")
		}
		ret = ret.Exclude(out)
	}
	return ret, nil
}

// AttackTypes keeps events whose attack type is one of types. An empty list,
// or one containing "all", leaves the view unchanged. Order and duplicates
// do not matter.
func AttackTypes(v gtd.View, types []string) (gtd.View, error) {
	if len(types) == 0 || contains(types, All) || v.Table() == nil {
		return v, nil
	}
	rows, err := v.Table().Rows(gtd.FieldAttackType, types...)
	if err != nil {
		return gtd.View{}, errors.Wrap(err, "getting attack type rows")
	}
	return v.Restrict(rows), nil
}

// Group keeps events attributed to group. "all" leaves the view unchanged;
// a group not in the table gives an empty view.
func Group(v gtd.View, group string) (gtd.View, error) {
	if group == All {
		return v, nil
	}
	return equal(v, gtd.FieldGroup, group)
}

// Country keeps events in country. A country not in the table gives an
// empty view.
func Country(v gtd.View, country string) (gtd.View, error) {
	return equal(v, gtd.FieldCountry, country)
}

// HasCoordinates drops events missing a latitude or a longitude.
func HasCoordinates(v gtd.View) gtd.View {
	return v.Where((*gtd.Event).HasCoordinates)
}

func equal(v gtd.View, frame, val string) (gtd.View, error) {
	if v.Table() == nil {
		return v, nil
	}
	rows, err := v.Table().Row(frame, val)
	if err != nil {
		return gtd.View{}, errors.Wrapf(err, "getting %s rows", frame)
	}
	return v.Restrict(rows), nil
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
