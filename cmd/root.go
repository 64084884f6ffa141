// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package cmd holds the gtd command line. The root command owns the flags
// describing where the events come from; each subcommand loads the table
// through them and prints one view.
package cmd

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version and BuildTime are set with -ldflags at build time.
var (
	Version   = "v0.0.0"
	BuildTime = "not recorded"
)

// envPrefix prefixes the environment variable of every flag, e.g.
// GTD_SNAPSHOT for --snapshot.
const envPrefix = "GTD"

// env is what a subcommand is built from: the process streams and the
// loader configured by the root's persistent flags.
type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	loader         *loader
}

var subcommandFns = map[string]func(e *env) *cobra.Command{}

// NewRootCommand returns the gtd command with every registered subcommand.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, loader: newLoader()}
	rc := &cobra.Command{
		Use:   "gtd",
		Short: "gtd - Global Terrorism Database profiler",
		Long: `Loads a Global Terrorism Database extract and answers the
profiler's questions about it: fatality density by country, the most
active groups, how attacks evolved, and per-country profiles.

The source flags below apply to every command. Any flag may also be set
through an environment variable such as GTD_FILE or GTD_DICT_DIR, or in the
config file given with --config (TOML unless its extension says otherwise).
Command line values win over the environment, which wins over the file.`,
		Version:      Version + " (built " + BuildTime + ")",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(viper.New(), cmd.Flags())
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	e.loader.flags(rc.PersistentFlags())
	for _, fn := range subcommandFns {
		rc.AddCommand(fn(e))
	}
	rc.SetOutput(stderr)
	return rc
}

// bindConfig fills every flag which was not given on the command line from
// its GTD_ environment variable or from the config file.
func bindConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file '%s'", path)
		}
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		err = errors.Wrapf(setFlag(f, v), "setting %s", f.Name)
	})
	return err
}

// setFlag copies the viper value of f into f.
func setFlag(f *pflag.Flag, v *viper.Viper) error {
	if f.Value.Type() == "stringSlice" {
		// a TOML array reads back from GetString as ""
		return f.Value.Set(strings.Join(v.GetStringSlice(f.Name), ","))
	}
	return f.Value.Set(v.GetString(f.Name))
}
