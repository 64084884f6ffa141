package cmd

import (
	"os"
	"os/signal"

	"github.com/pilosa/gtd/http"
	"github.com/spf13/cobra"
)

// newServeCommand returns the command serving the JSON API.
func newServeCommand(e *env) *cobra.Command {
	bind := ":8050"
	com := &cobra.Command{
		Use:   "serve",
		Short: "serve - answer profiler queries over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, sess, err := e.loader.open(e.stderr)
			if err != nil {
				return err
			}
			defer sess.Close()
			s, err := http.NewServer(http.NewHandler(f, sess.Log), http.WithAddr(bind))
			if err != nil {
				return err
			}
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)
			go func() {
				<-sigs
				s.Close()
			}()
			sess.Log.Printf("listening on %s", s.Addr())
			return s.Serve()
		},
	}
	com.Flags().StringVarP(&bind, "bind", "b", bind, "Address to listen on.")
	return com
}

func init() {
	subcommandFns["serve"] = newServeCommand
}
