// Package query composes the filter and aggregate packages into one
// operation per analytical view of the profiler. A Facade holds no state
// between calls other than its optional result cache, so identical calls
// return identical results whether or not a cache is used.
package query

import (
	"fmt"
	"sort"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/aggregate"
	"github.com/pilosa/gtd/filter"
	"github.com/pilosa/gtd/geohash"
	"github.com/pkg/errors"
)

// Facade answers queries over one table.
type Facade struct {
	table     *gtd.Table
	cache     Cache
	precision uint
}

// FacadeOption configures a Facade.
type FacadeOption func(f *Facade)

// WithCache sets the cache results are stored in. The default is NopCache.
func WithCache(c Cache) FacadeOption {
	return func(f *Facade) {
		f.cache = c
	}
}

// WithGeohashPrecision sets the cell size of profile density maps.
func WithGeohashPrecision(p uint) FacadeOption {
	return func(f *Facade) {
		f.precision = p
	}
}

// NewFacade returns a Facade over t.
func NewFacade(t *gtd.Table, opts ...FacadeOption) *Facade {
	f := &Facade{
		table:     t,
		cache:     NopCache{},
		precision: geohash.DefaultPrecision,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Table returns the table the facade queries.
func (f *Facade) Table() *gtd.Table { return f.table }

func (f *Facade) key(view string, args ...interface{}) string {
	return fmt.Sprintf("%d/%s/%v", f.table.ID(), view, args)
}

// cached returns the cached result for key, or computes, caches and returns
// it. Errors are not cached.
func (f *Facade) cached(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := f.cache.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	f.cache.Add(key, v)
	return v, nil
}

// scope applies the time, attack type and continent filters in that order.
func (f *Facade) scope(p Params) *filter.Chain {
	return filter.NewChain(f.table.All()).
		YearRange(p.Start, p.End).
		AttackTypes(p.AttackTypes).
		Continent(p.Continent)
}

// densityChain applies the group filter after the scope filters.
func (f *Facade) densityChain(p Params) *filter.Chain {
	return f.scope(p).Group(p.Group)
}

// DensityResult is the fatality map of a set of filters.
type DensityResult struct {
	Continent string                           `json:"continent"`
	Label     string                           `json:"label"`
	Countries aggregate.CountryFatalitiesTable `json:"countries"`
}

// Density filters by years, attack types, continent and group, in that
// order, and sums fatalities per country.
func (f *Facade) Density(p Params) (DensityResult, error) {
	p = p.normalize()
	v, err := f.cached(f.key("density", p.Key()), func() (interface{}, error) {
		c, err := gtd.ParseContinent(p.Continent)
		if err != nil {
			return nil, err
		}
		view, err := f.densityChain(p).View()
		if err != nil {
			return nil, errors.Wrap(err, "filtering")
		}
		return DensityResult{
			Continent: c.String(),
			Label:     c.Label(),
			Countries: aggregate.SumFatalitiesByCountry(view),
		}, nil
	})
	if err != nil {
		return DensityResult{}, err
	}
	return v.(DensityResult), nil
}

// TopGroups filters by years, attack types and continent, and ranks the
// most active groups. The group selector is not applied.
func (f *Facade) TopGroups(p Params) (aggregate.GroupCountTable, error) {
	p = p.normalize()
	p.Group = filter.All
	v, err := f.cached(f.key("groups", p.Key()), func() (interface{}, error) {
		view, err := f.scope(p).View()
		if err != nil {
			return nil, errors.Wrap(err, "filtering")
		}
		return aggregate.TopGroupsByCount(view, aggregate.DefaultTopK, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(aggregate.GroupCountTable), nil
}

// CompositionResult describes how attacks evolved over the whole table.
type CompositionResult struct {
	AttackTypesByYear aggregate.AttackTypeYearTable         `json:"attack_types_by_year"`
	RegionFatalities  aggregate.RegionAttackFatalitiesTable `json:"region_fatalities"`
	GroupHistory      aggregate.GroupYearTable              `json:"group_history"`
}

// Composition aggregates the unfiltered table.
func (f *Facade) Composition() (CompositionResult, error) {
	v, err := f.cached(f.key("composition"), func() (interface{}, error) {
		all := f.table.All()
		hist, err := aggregate.HistoricalSeriesForGroups(all, nil, aggregate.DefaultHistoricalTopK)
		if err != nil {
			return nil, errors.Wrap(err, "building group history")
		}
		return CompositionResult{
			AttackTypesByYear: aggregate.AttackTypeCountsByYear(all),
			RegionFatalities:  aggregate.FatalitiesByRegionAttackType(all),
			GroupHistory:      hist,
		}, nil
	})
	if err != nil {
		return CompositionResult{}, err
	}
	return v.(CompositionResult), nil
}

// ProfileResult is a country profile with its point density.
type ProfileResult struct {
	aggregate.Profile
	Cells aggregate.GeoCellTable `json:"cells"`
}

// Profile returns the profile of country over the whole table. An unknown
// country has an empty profile.
func (f *Facade) Profile(country string) (ProfileResult, error) {
	v, err := f.cached(f.key("profile", country), func() (interface{}, error) {
		p, err := aggregate.CountryProfile(f.table.All(), country)
		if err != nil {
			return nil, errors.Wrap(err, "profiling")
		}
		return ProfileResult{Profile: p, Cells: geohash.Cells(p.Points, f.precision)}, nil
	})
	if err != nil {
		return ProfileResult{}, err
	}
	return v.(ProfileResult), nil
}

// Countries returns the distinct countries, sorted.
func (f *Facade) Countries() ([]string, error) {
	vals, err := f.table.Values(gtd.FieldCountry)
	if err != nil {
		return nil, errors.Wrap(err, "listing countries")
	}
	sort.Strings(vals)
	return vals, nil
}

// Groups returns "all" followed by the distinct groups, sorted.
func (f *Facade) Groups() ([]string, error) {
	vals, err := f.table.Values(gtd.FieldGroup)
	if err != nil {
		return nil, errors.Wrap(err, "listing groups")
	}
	sort.Strings(vals)
	return append([]string{filter.All}, vals...), nil
}

// AttackTypes returns "all" followed by the distinct attack types in the
// order they first appear in the table.
func (f *Facade) AttackTypes() ([]string, error) {
	vals, err := f.table.Values(gtd.FieldAttackType)
	if err != nil {
		return nil, errors.Wrap(err, "listing attack types")
	}
	return append([]string{filter.All}, vals...), nil
}

// Continents returns the bucket names in display order.
func (f *Facade) Continents() []string {
	ret := make([]string, len(gtd.Continents))
	for i, c := range gtd.Continents {
		ret[i] = c.String()
	}
	return ret
}

// Lists holds every enumeration a UI needs to populate its selectors.
type Lists struct {
	Countries   []string `json:"countries"`
	Groups      []string `json:"groups"`
	AttackTypes []string `json:"attack_types"`
	Continents  []string `json:"continents"`
}

// Lists returns all the enumerations at once.
func (f *Facade) Lists() (Lists, error) {
	var l Lists
	var err error
	if l.Countries, err = f.Countries(); err != nil {
		return Lists{}, err
	}
	if l.Groups, err = f.Groups(); err != nil {
		return Lists{}, err
	}
	if l.AttackTypes, err = f.AttackTypes(); err != nil {
		return Lists{}, err
	}
	l.Continents = f.Continents()
	return l, nil
}
