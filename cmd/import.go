package cmd

import (
	"log"
	"strings"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/pilosa/gtd/csv"
	"github.com/pilosa/gtd/sqlite"
	"github.com/pilosa/gtd/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
)

// ImportMain holds the config for the import command. Its flags are named
// apart from the root's source flags, which describe the table to read
// rather than the file to copy.
type ImportMain struct {
	Input    string `help:"CSV extract to copy: a path, an http(s) URL, or s3://bucket/key."`
	Database string `help:"SQLite database to write to."`
	Dest     string `help:"Table to write the events to."`
	Encoding string `help:"Encoding of the extract: utf-8 or latin1."`
	Tries    int    `help:"Times a failed CSV read is tried."`
}

// NewImportMain gets a new ImportMain with default values.
func NewImportMain() *ImportMain {
	return &ImportMain{
		Database: "gtd.db",
		Dest:     sqlite.DefaultTable,
		Encoding: "utf-8",
		Tries:    3,
	}
}

// Run copies the CSV records into the database.
func (m *ImportMain) Run() error {
	if m.Input == "" {
		return errors.New("an input file is required")
	}
	opts := []csv.Option{csv.WithMaxRetries(m.Tries)}
	switch strings.ToLower(m.Encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1":
		opts = append(opts, csv.WithEncoding(charmap.ISO8859_1))
	default:
		return errors.Errorf("unsupported encoding '%s'", m.Encoding)
	}
	src, err := store.CSVSource(m.Input, "", opts...)
	if err != nil {
		return err
	}
	defer src.Close()
	db, err := sqlite.Open(m.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	n, err := sqlite.Import(db, m.Dest, src)
	if err != nil {
		return errors.Wrapf(err, "importing %s", m.Input)
	}
	log.Printf("imported %d records into %s:%s", n, m.Database, m.Dest)
	return nil
}

// newImportCommand returns the command copying a CSV extract into SQLite.
func newImportCommand(e *env) *cobra.Command {
	com, err := cobrafy.Command(NewImportMain())
	if err != nil {
		panic(err)
	}
	com.Use = "import"
	com.Short = "import - copy a CSV extract into a SQLite database"
	return com
}

func init() {
	subcommandFns["import"] = newImportCommand
}
