package store

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/aws/s3"
	"github.com/pilosa/gtd/boltdb"
	"github.com/pilosa/gtd/csv"
	"github.com/pilosa/gtd/json"
	"github.com/pilosa/gtd/leveldb"
	"github.com/pilosa/gtd/sqlite"
	"github.com/pilosa/gtd/termstat"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Config describes where the records come from and which optional caches
// and collectors wrap the load. Exactly one of File and SQLite must be set.
// A File ending in .json, .jsonl or .ndjson is read as a stream of JSON
// objects, anything else as CSV.
type Config struct {
	File        string
	SQLite      string
	Table       string
	Region      string
	Latin1      bool
	Retries     int
	Concurrency int
	Snapshot    string
	DictDir     string
	Verbose     bool
	Stats       bool
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Table:       sqlite.DefaultTable,
		Retries:     3,
		Concurrency: 1,
	}
}

// Session is an opened Config: the Store plus everything which must be
// released when the caller is done with it.
type Session struct {
	*Store
	Log   gtd.Logger
	Stats gtd.Statter

	name    string
	closers []io.Closer
	stats   *termstat.Collector
}

// Close flushes the stats collector, logs where the events came from, and
// closes the snapshot and translator.
func (s *Session) Close() error {
	if s.stats != nil {
		s.stats.Flush()
		s.Log.Printf("%s: %d events parsed, %d from snapshot", s.name,
			s.stats.Get("records.parsed"), s.stats.Get("records.snapshot"))
	}
	var errs gtd.Errors
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Open validates c and builds a Store from it. Log lines and stats are
// written to out.
func (c *Config) Open(out io.Writer) (_ *Session, err error) {
	if (c.File == "") == (c.SQLite == "") {
		return nil, errors.New("exactly one of file and sqlite must be given")
	}
	sess := &Session{
		Log:   gtd.StdLogger{Logger: log.New(out, "", log.LstdFlags)},
		Stats: gtd.NopStatter{},
		name:  c.name(),
	}
	if c.Verbose {
		sess.Log = gtd.VerboseLogger{Logger: log.New(out, "", log.LstdFlags)}
	}
	defer func() {
		if err != nil {
			sess.Close()
		}
	}()
	if c.Stats {
		sess.stats = termstat.NewCollector(out, 5*time.Second)
		sess.Stats = sess.stats
	}

	opts := []Option{OptLogger(sess.Log), OptStats(sess.Stats)}
	if c.DictDir != "" {
		tr, err := leveldb.NewTranslator(c.DictDir, gtd.CategoricalFields...)
		if err != nil {
			return nil, errors.Wrap(err, "opening translator")
		}
		sess.closers = append(sess.closers, tr)
		opts = append(opts, OptTranslator(tr))
	}
	if c.Snapshot != "" {
		snap, err := boltdb.NewSnapshot(c.Snapshot)
		if err != nil {
			return nil, errors.Wrap(err, "opening snapshot")
		}
		sess.closers = append(sess.closers, snap)
		opts = append(opts, OptSnapshot(snap, c.version()))
	}
	sess.Store = New(c.name(), c.source, opts...)
	return sess, nil
}

func (c *Config) name() string {
	if c.SQLite != "" {
		return "sqlite:" + c.SQLite + "/" + c.Table
	}
	return c.File
}

// version identifies the contents of a local source by its size and
// modification time. Remote sources have no version, so their snapshot is
// reused until it is deleted.
func (c *Config) version() string {
	path := c.SQLite
	if path == "" {
		path = c.File
	}
	fi, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d-%d", fi.Size(), fi.ModTime().UnixNano())
}

func (c *Config) source() (gtd.Source, error) {
	if c.SQLite != "" {
		db, err := sqlite.Open(c.SQLite)
		if err != nil {
			return nil, err
		}
		src, err := sqlite.NewSource(db, sqlite.WithTable(c.Table))
		if err != nil {
			db.Close()
			return nil, err
		}
		return &dbSource{Source: src, db: db}, nil
	}
	if json.IsPath(c.File) {
		r, err := c.openFile()
		if err != nil {
			return nil, err
		}
		return json.NewSource(r), nil
	}
	return CSVSource(c.File, c.Region, c.csvOptions()...)
}

// openFile opens a local or s3 file for a single pass.
func (c *Config) openFile() (io.ReadCloser, error) {
	if s3.IsURL(c.File) {
		o, err := s3.NewOpener(c.File, s3.OptOpenerRegion(c.Region))
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 opener")
		}
		return o.Open()
	}
	f, err := os.Open(c.File)
	return f, errors.Wrap(err, "opening file")
}

func (c *Config) csvOptions() []csv.Option {
	opts := []csv.Option{csv.WithMaxRetries(c.Retries), csv.WithConcurrency(c.Concurrency)}
	if c.Latin1 {
		opts = append(opts, csv.WithEncoding(charmap.ISO8859_1))
	}
	return opts
}

// CSVSource returns a csv.Source reading file, which may be a local path,
// an http(s) URL, or an s3://bucket/key URL fetched from region.
func CSVSource(file, region string, opts ...csv.Option) (*csv.Source, error) {
	if s3.IsURL(file) {
		o, err := s3.NewOpener(file, s3.OptOpenerRegion(region))
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 opener")
		}
		opts = append(opts, csv.WithOpenStringers([]csv.OpenStringer{o}))
	} else {
		opts = append(opts, csv.WithURLs([]string{file}))
	}
	return csv.NewSource(opts...), nil
}

// dbSource closes the database along with the rows.
type dbSource struct {
	*sqlite.Source
	db interface{ Close() error }
}

func (s *dbSource) Close() error {
	err := s.Source.Close()
	if dberr := s.db.Close(); err == nil {
		err = dberr
	}
	return err
}
