package cmd

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pilosa/gtd/aggregate"
	"github.com/pilosa/gtd/query"
	"github.com/pilosa/gtd/store"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// sourceFlags registers the flags every command reading the table shares.
func sourceFlags(fs *pflag.FlagSet, c *store.Config) {
	fs.StringVarP(&c.File, "file", "f", c.File, "CSV extract to read: a path, an http(s) URL, or s3://bucket/key.")
	fs.StringVar(&c.SQLite, "sqlite", c.SQLite, "SQLite database to read instead of a CSV file.")
	fs.StringVar(&c.Table, "table", c.Table, "Table of the SQLite database holding the events.")
	fs.StringVar(&c.Region, "aws-region", c.Region, "AWS region of s3 URLs.")
	fs.BoolVar(&c.Latin1, "latin1", c.Latin1, "Decode the CSV file from ISO-8859-1.")
	fs.IntVar(&c.Retries, "max-retries", c.Retries, "Times a failed CSV read is retried.")
	fs.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Files read at once.")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "Bolt file caching parsed events between runs.")
	fs.StringVar(&c.DictDir, "dict-dir", c.DictDir, "Directory of a persistent value dictionary.")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Enable verbose logging.")
	fs.BoolVar(&c.Stats, "stats", c.Stats, "Print load statistics.")
}

// loader opens a store from the shared source flags and wraps the table in
// a facade.
type loader struct {
	Config    *store.Config
	CacheSize int
	Precision uint
}

func newLoader() *loader {
	return &loader{Config: store.NewConfig(), CacheSize: 128, Precision: 4}
}

func (l *loader) flags(fs *pflag.FlagSet) {
	sourceFlags(fs, l.Config)
	fs.IntVar(&l.CacheSize, "cache-size", l.CacheSize, "Query results kept in memory; 0 disables the cache.")
	fs.UintVar(&l.Precision, "geohash-precision", l.Precision, "Geohash length of profile map cells.")
}

// open loads the table. The session must be closed by the caller.
func (l *loader) open(stderr io.Writer) (*query.Facade, *store.Session, error) {
	sess, err := l.Config.Open(stderr)
	if err != nil {
		return nil, nil, err
	}
	t, err := sess.Load()
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	opts := []query.FacadeOption{query.WithGeohashPrecision(l.Precision)}
	if l.CacheSize > 0 {
		c, err := query.NewLRUCache(l.CacheSize)
		if err != nil {
			sess.Close()
			return nil, nil, errors.Wrap(err, "creating cache")
		}
		opts = append(opts, query.WithCache(c))
	}
	return query.NewFacade(t, opts...), sess, nil
}

// printer writes results as text tables or JSON.
type printer struct {
	JSON bool
}

func (p *printer) flags(fs *pflag.FlagSet) {
	fs.BoolVar(&p.JSON, "json", p.JSON, "Print JSON instead of text tables.")
}

// print writes v as JSON, or writes each table in tables.
func (p *printer) print(w io.Writer, v interface{}, tables ...aggregate.Table) error {
	if p.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding result")
	}
	for _, t := range tables {
		tw := tablewriter.NewWriter(w)
		tw.SetHeader(t.Header())
		tw.AppendBulk(t.Rows())
		tw.Render()
	}
	return nil
}

// printList writes one value per line.
func (p *printer) printList(w io.Writer, header string, vals []string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{header})
	for _, v := range vals {
		tw.Append([]string{v})
	}
	tw.Render()
}
