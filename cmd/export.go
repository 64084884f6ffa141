package cmd

import (
	"time"

	"github.com/pilosa/gtd/pilosa"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// newExportCommand returns the command copying the table into Pilosa.
func newExportCommand(e *env) *cobra.Command {
	hosts := []string{"localhost:10101"}
	index := "gtd"
	batchSize := pilosa.DefaultBatchSize
	com := &cobra.Command{
		Use:   "export",
		Short: "export - index the events into Pilosa",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			f, sess, err := e.loader.open(e.stderr)
			if err != nil {
				return err
			}
			defer sess.Close()
			client, err := pilosa.NewClient(hosts)
			if err != nil {
				return err
			}
			e := pilosa.NewExporter(client, index,
				pilosa.OptBatchSize(batchSize),
				pilosa.OptLogger(sess.Log),
				pilosa.OptStats(sess.Stats))
			if err := e.Export(f.Table()); err != nil {
				return errors.Wrap(err, "exporting")
			}
			sess.Log.Printf("done in %v", time.Since(start))
			return nil
		},
	}
	com.Flags().StringSliceVarP(&hosts, "pilosa", "p", hosts, "Pilosa hosts.")
	com.Flags().StringVarP(&index, "index", "i", index, "Pilosa index to write to.")
	com.Flags().IntVar(&batchSize, "batch-size", batchSize, "Records per import request.")
	return com
}

func init() {
	subcommandFns["export"] = newExportCommand
}
