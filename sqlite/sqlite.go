// Package sqlite reads and writes GTD records in a SQLite database using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/pilosa/gtd"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultTable is the table events are read from and written to.
const DefaultTable = "events"

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open opens the database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database '%s'", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connecting to sqlite database '%s'", path)
	}
	return db, nil
}

func columns() string {
	return strings.Join(gtd.Fields, ", ")
}

func checkTable(table string) error {
	if !identRE.MatchString(table) {
		return errors.Errorf("invalid table name '%s'", table)
	}
	return nil
}

// Source is a gtd.Source reading the GTD columns of every row of a table.
// Records are map[string]string like the csv package's; NULL columns are
// left out. Source is safe for concurrent use.
type Source struct {
	mu   sync.Mutex
	rows *sql.Rows
	done bool
}

// Option is a functional option to pass to NewSource.
type Option func(*sourceConfig)

type sourceConfig struct {
	table string
}

// WithTable returns an Option which sets the table to read.
func WithTable(table string) Option {
	return func(c *sourceConfig) {
		c.table = table
	}
}

// NewSource starts a query reading every event from db.
func NewSource(db *sql.DB, opts ...Option) (*Source, error) {
	conf := &sourceConfig{table: DefaultTable}
	for _, opt := range opts {
		opt(conf)
	}
	if err := checkTable(conf.table); err != nil {
		return nil, err
	}
	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", columns(), conf.table))
	if err != nil {
		return nil, errors.Wrapf(err, "querying table '%s'", conf.table)
	}
	return &Source{rows: rows}, nil
}

// Record returns the next row, or io.EOF once every row has been read.
func (s *Source) Record() (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, io.EOF
	}
	if !s.rows.Next() {
		s.done = true
		err := s.rows.Err()
		s.rows.Close()
		if err != nil {
			return nil, errors.Wrap(err, "iterating rows")
		}
		return nil, io.EOF
	}
	vals := make([]sql.NullString, len(gtd.Fields))
	dest := make([]interface{}, len(vals))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "scanning row")
	}
	rec := make(map[string]string, len(vals))
	for i, v := range vals {
		if v.Valid && v.String != "" {
			rec[gtd.Fields[i]] = v.String
		}
	}
	return rec, nil
}

// Close stops reading.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	return s.rows.Close()
}

// CreateTable creates table with a column for every GTD field if it does not
// exist yet.
func CreateTable(db *sql.DB, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	cols := make([]string, len(gtd.Fields))
	for i, f := range gtd.Fields {
		typ := "TEXT"
		switch f {
		case gtd.FieldYear:
			typ = "INTEGER"
		case gtd.FieldLatitude, gtd.FieldLongitude, gtd.FieldNKill, gtd.FieldNKillUS:
			typ = "REAL"
		}
		cols[i] = f + " " + typ
	}
	_, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", ")))
	return errors.Wrapf(err, "creating table '%s'", table)
}

// Import copies every record of src into table, which is created if needed,
// in a single transaction. Records must be map[string]string; missing keys
// are stored as NULL. It returns the number of rows written.
func Import(db *sql.DB, table string, src gtd.Source) (n int, err error) {
	if err := CreateTable(db, table); err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(gtd.Fields)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, columns(), marks))
	if err != nil {
		return 0, errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	args := make([]interface{}, len(gtd.Fields))
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		} else if err != nil {
			return n, errors.Wrapf(err, "reading record %d", n)
		}
		m, ok := rec.(map[string]string)
		if !ok {
			return n, errors.Errorf("unsupported record type %T", rec)
		}
		for i, f := range gtd.Fields {
			if v, ok := m[f]; ok && v != "" {
				args[i] = v
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return n, errors.Wrapf(err, "inserting record %d", n)
		}
		n++
	}
	return n, errors.Wrap(tx.Commit(), "committing")
}
