package filter

import (
	"github.com/pilosa/gtd"
)

// Step names recorded by a Chain.
const (
	StepTime        = "time"
	StepAttackTypes = "attack"
	StepContinent   = "continent"
	StepGroup       = "group"
	StepCountry     = "country"
	StepCoordinates = "coordinates"
)

// Chain applies filters one after the other and records the name of each
// step applied. After the first error every further step is skipped and
// View returns that error.
type Chain struct {
	v     gtd.View
	steps []string
	err   error
}

// NewChain starts a chain from v.
func NewChain(v gtd.View) *Chain {
	return &Chain{v: v}
}

func (c *Chain) apply(step string, fn func(gtd.View) (gtd.View, error)) *Chain {
	if c.err != nil {
		return c
	}
	c.v, c.err = fn(c.v)
	c.steps = append(c.steps, step)
	return c
}

// YearRange adds a YearRange step.
func (c *Chain) YearRange(start, end int) *Chain {
	return c.apply(StepTime, func(v gtd.View) (gtd.View, error) {
		return YearRange(v, start, end), nil
	})
}

// AttackTypes adds an AttackTypes step.
func (c *Chain) AttackTypes(types []string) *Chain {
	return c.apply(StepAttackTypes, func(v gtd.View) (gtd.View, error) {
		return AttackTypes(v, types)
	})
}

// Continent adds a Continent step.
func (c *Chain) Continent(bucket string) *Chain {
	return c.apply(StepContinent, func(v gtd.View) (gtd.View, error) {
		return Continent(v, bucket)
	})
}

// Group adds a Group step.
func (c *Chain) Group(group string) *Chain {
	return c.apply(StepGroup, func(v gtd.View) (gtd.View, error) {
		return Group(v, group)
	})
}

// Country adds a Country step.
func (c *Chain) Country(country string) *Chain {
	return c.apply(StepCountry, func(v gtd.View) (gtd.View, error) {
		return Country(v, country)
	})
}

// HasCoordinates adds a HasCoordinates step.
func (c *Chain) HasCoordinates() *Chain {
	return c.apply(StepCoordinates, func(v gtd.View) (gtd.View, error) {
		return HasCoordinates(v), nil
	})
}

// Steps returns the names of the steps applied so far, in order.
func (c *Chain) Steps() []string {
	return append([]string(nil), c.steps...)
}

// View returns the filtered view, or the first error encountered.
func (c *Chain) View() (gtd.View, error) {
	if c.err != nil {
		return gtd.View{}, c.err
	}
	return c.v, nil
}
