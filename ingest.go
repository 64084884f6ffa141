package gtd

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Ingester reads every record from a Source, parses it, and builds a Table.
// Unlike a streaming pipeline, a single bad record fails the whole ingest:
// a partially loaded table would produce silently wrong aggregates.
type Ingester struct {
	Translator Translator
	Stats      Statter
	Log        Logger

	src    Source
	parser Parser
}

// NewIngester returns an Ingester with an in-memory translator and no stats
// or logging.
func NewIngester(source Source, parser Parser) *Ingester {
	return &Ingester{
		Stats:  NopStatter{},
		Log:    NopLogger{},
		src:    source,
		parser: parser,
	}
}

// Run consumes the source. Every error it returns is caused by
// ErrDataUnavailable.
func (n *Ingester) Run() (*Table, error) {
	start := time.Now()
	b := NewTableBuilder(n.Translator)
	for i := 0; ; i++ {
		rec, err := n.src.Record()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, Unavailable(err, "reading record")
		}
		ev, err := n.parser.Parse(rec)
		if err != nil {
			return nil, Unavailable(errors.Wrapf(err, "record %d", i), "parsing")
		}
		if err := b.Add(ev); err != nil {
			return nil, Unavailable(err, "indexing")
		}
		n.Stats.Count("records.parsed", 1, 1)
	}
	t := b.Table()
	n.Stats.Timing("ingest", time.Since(start), 1)
	n.Log.Debugf("ingested %d events in %v", t.Len(), time.Since(start))
	return t, nil
}
