package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/filter"
)

// Default filter values, matching what the profiler shows before the user
// changes anything.
const (
	DefaultStart     = 1986
	DefaultEnd       = 2002
	DefaultContinent = "world"
)

// Params are the filter parameters of the density and top groups views.
type Params struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Continent   string   `json:"continent"`
	AttackTypes []string `json:"attack"`
	Group       string   `json:"group"`
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		Start:       DefaultStart,
		End:         DefaultEnd,
		Continent:   DefaultContinent,
		AttackTypes: []string{filter.All},
		Group:       filter.All,
	}
}

// normalize fills empty selectors with their "everything" value.
func (p Params) normalize() Params {
	if p.Continent == "" {
		p.Continent = DefaultContinent
	}
	if p.Group == "" {
		p.Group = filter.All
	}
	return p
}

// attackKey returns the attack type selection with order and duplicates
// removed, or "all".
func (p Params) attackKey() string {
	types := make([]string, 0, len(p.AttackTypes))
	seen := make(map[string]struct{}, len(p.AttackTypes))
	for _, typ := range p.AttackTypes {
		if typ == filter.All {
			return filter.All
		}
		if _, ok := seen[typ]; ok {
			continue
		}
		seen[typ] = struct{}{}
		types = append(types, typ)
	}
	if len(types) == 0 {
		return filter.All
	}
	sort.Strings(types)
	return strings.Join(types, "\x1f")
}

// Key returns a canonical string for p: parameters selecting the same
// events have the same key.
func (p Params) Key() string {
	p = p.normalize()
	c := strings.ToLower(strings.TrimSpace(p.Continent))
	if bucket, err := gtd.ParseContinent(c); err == nil {
		c = bucket.String()
	}
	return strings.Join([]string{strconv.Itoa(p.Start), strconv.Itoa(p.End), c, p.attackKey(), p.Group}, "\x1e")
}
