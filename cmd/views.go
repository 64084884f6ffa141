package cmd

import (
	"fmt"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/query"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func paramFlags(fs *pflag.FlagSet, p *query.Params, group bool) {
	fs.IntVar(&p.Start, "start", p.Start, "First year of the range.")
	fs.IntVar(&p.End, "end", p.End, "Last year of the range.")
	fs.StringVar(&p.Continent, "continent", p.Continent, "Continent bucket: world, europe, asia, africa, north america or south america.")
	fs.StringSliceVar(&p.AttackTypes, "attack", p.AttackTypes, "Attack types to keep, or all.")
	if group {
		fs.StringVar(&p.Group, "group", p.Group, "Perpetrator group to keep, or all.")
	}
}

// viewCommand builds a command which loads the table and runs fn on it.
func viewCommand(e *env, use, short string, flags func(fs *pflag.FlagSet), fn func(f *query.Facade) error) *cobra.Command {
	com := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, sess, err := e.loader.open(e.stderr)
			if err != nil {
				return err
			}
			defer sess.Close()
			return fn(f)
		},
	}
	if flags != nil {
		flags(com.Flags())
	}
	return com
}

// newDensityCommand returns the command printing fatalities per country.
func newDensityCommand(e *env) *cobra.Command {
	p := query.DefaultParams()
	pr := &printer{}
	return viewCommand(e, "density", "density - fatalities and attacks per country",
		func(fs *pflag.FlagSet) {
			paramFlags(fs, &p, true)
			pr.flags(fs)
		},
		func(f *query.Facade) error {
			res, err := f.Density(p)
			if err != nil {
				return err
			}
			if !pr.JSON {
				fmt.Fprintf(e.stdout, "%s, %d-%d\n", res.Label, p.Start, p.End)
			}
			return pr.print(e.stdout, res, res.Countries)
		})
}

// newGroupsCommand returns the command ranking the most active groups.
func newGroupsCommand(e *env) *cobra.Command {
	p := query.DefaultParams()
	pr := &printer{}
	return viewCommand(e, "groups", "groups - most active perpetrator groups",
		func(fs *pflag.FlagSet) {
			paramFlags(fs, &p, false)
			pr.flags(fs)
		},
		func(f *query.Facade) error {
			res, err := f.TopGroups(p)
			if err != nil {
				return err
			}
			return pr.print(e.stdout, res, res)
		})
}

// newCompositionCommand returns the command describing how attacks evolved.
func newCompositionCommand(e *env) *cobra.Command {
	pr := &printer{}
	return viewCommand(e, "composition", "composition - attack types, regions and groups over time",
		pr.flags,
		func(f *query.Facade) error {
			res, err := f.Composition()
			if err != nil {
				return err
			}
			return pr.print(e.stdout, res, res.AttackTypesByYear, res.RegionFatalities, res.GroupHistory)
		})
}

// newProfileCommand returns the command profiling one country.
func newProfileCommand(e *env) *cobra.Command {
	var country string
	pr := &printer{}
	return viewCommand(e, "profile", "profile - groups, targets, weapons and cities of a country",
		func(fs *pflag.FlagSet) {
			fs.StringVar(&country, "country", "", "Country to profile.")
			pr.flags(fs)
		},
		func(f *query.Facade) error {
			if country == "" {
				return gtd.Invalidf("missing country")
			}
			res, err := f.Profile(country)
			if err != nil {
				return err
			}
			return pr.print(e.stdout, res, res.Groups, res.Targets, res.Weapons, res.Cities, res.Cells)
		})
}

// newListsCommand returns the command printing the selector values.
func newListsCommand(e *env) *cobra.Command {
	pr := &printer{}
	return viewCommand(e, "lists", "lists - countries, groups, attack types and continents",
		pr.flags,
		func(f *query.Facade) error {
			res, err := f.Lists()
			if err != nil {
				return err
			}
			if pr.JSON {
				return pr.print(e.stdout, res)
			}
			pr.printList(e.stdout, "Continent", res.Continents)
			pr.printList(e.stdout, "Attack type", res.AttackTypes)
			pr.printList(e.stdout, "Country", res.Countries)
			pr.printList(e.stdout, "Group", res.Groups)
			return nil
		})
}

func init() {
	subcommandFns["density"] = newDensityCommand
	subcommandFns["groups"] = newGroupsCommand
	subcommandFns["composition"] = newCompositionCommand
	subcommandFns["profile"] = newProfileCommand
	subcommandFns["lists"] = newListsCommand
}
