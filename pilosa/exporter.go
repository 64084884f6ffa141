// Package pilosa copies an event table into a Pilosa index so the same
// filters can be run as PQL against a cluster.
package pilosa

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/pilosa/gtd"
	"github.com/pkg/errors"
)

// FieldContinent holds one row per continent bucket an event belongs to.
const FieldContinent = "continent"

// DefaultBatchSize is the number of records sent per import request.
const DefaultBatchSize = 100000

// Client is the part of *gopilosa.Client an Exporter uses.
type Client interface {
	SyncSchema(schema *gopilosa.Schema) error
	ImportField(field *gopilosa.Field, iterator gopilosa.RecordIterator, options ...gopilosa.ImportOption) error
}

// NewClient connects to a Pilosa cluster.
func NewClient(hosts []string) (*gopilosa.Client, error) {
	client, err := gopilosa.NewClient(hosts,
		gopilosa.OptClientSocketTimeout(time.Minute*60),
		gopilosa.OptClientConnectTimeout(time.Second*60))
	if err != nil {
		return nil, errors.Wrap(err, "creating pilosa cluster client")
	}
	return client, nil
}

// Exporter writes tables to one index.
type Exporter struct {
	client    Client
	index     string
	batchSize int
	cacheSize int
	log       gtd.Logger
	stats     gtd.Statter
}

// ExporterOption configures an Exporter.
type ExporterOption func(e *Exporter)

// OptBatchSize sets the import batch size.
func OptBatchSize(n int) ExporterOption {
	return func(e *Exporter) {
		e.batchSize = n
	}
}

// OptCacheSize sets the ranked cache size of the set fields.
func OptCacheSize(n int) ExporterOption {
	return func(e *Exporter) {
		e.cacheSize = n
	}
}

// OptLogger sets the logger.
func OptLogger(l gtd.Logger) ExporterOption {
	return func(e *Exporter) {
		e.log = l
	}
}

// OptStats sets the statter which counts exported records per field.
func OptStats(s gtd.Statter) ExporterOption {
	return func(e *Exporter) {
		e.stats = s
	}
}

// NewExporter returns an Exporter writing to the named index through client.
func NewExporter(client Client, index string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		client:    client,
		index:     index,
		batchSize: DefaultBatchSize,
		cacheSize: 100000,
		log:       gtd.NopLogger{},
		stats:     gtd.NopStatter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the index layout: a keyed set field per categorical column
// plus the continent buckets, and int fields for year and fatalities. The
// column id of an event is its position in the table.
func (e *Exporter) Schema(minYear, maxYear int) (*gopilosa.Schema, *gopilosa.Index) {
	schema := gopilosa.NewSchema()
	index := schema.Index(e.index)
	sets := append([]string{FieldContinent}, gtd.CategoricalFields...)
	for _, name := range sets {
		index.Field(name,
			gopilosa.OptFieldTypeSet(gopilosa.CacheTypeRanked, e.cacheSize),
			gopilosa.OptFieldKeys(true))
	}
	index.Field(gtd.FieldYear, gopilosa.OptFieldTypeInt(int64(minYear), int64(maxYear)))
	index.Field(gtd.FieldNKill, gopilosa.OptFieldTypeInt(0, 1<<31-1))
	return schema, index
}

// Export syncs the schema and imports every event of t. Fields are imported
// concurrently; the first error is returned after all imports finish.
func (e *Exporter) Export(t *gtd.Table) error {
	if t.Len() == 0 {
		return nil
	}
	minYear, maxYear := t.YearBounds()
	schema, index := e.Schema(minYear, maxYear)
	if err := e.client.SyncSchema(schema); err != nil {
		return errors.Wrap(err, "synchronizing schema")
	}

	iters := make(map[string]*sliceIterator)
	for _, name := range gtd.CategoricalFields {
		it := &sliceIterator{}
		err := t.FrameRows(name, func(val string, rows *roaring.Bitmap) {
			rows.Iterate(func(pos uint32) bool {
				it.recs = append(it.recs, gopilosa.Column{RowKey: val, ColumnID: uint64(pos)})
				return true
			})
		})
		if err != nil {
			return errors.Wrapf(err, "reading frame %s", name)
		}
		iters[name] = it
	}
	continents, years, nkill := &sliceIterator{}, &sliceIterator{}, &sliceIterator{}
	for pos, ev := range t.Events() {
		col := uint64(pos)
		for _, c := range ev.Continents.Slice() {
			continents.recs = append(continents.recs, gopilosa.Column{RowKey: c.String(), ColumnID: col})
		}
		years.recs = append(years.recs, gopilosa.FieldValue{ColumnID: col, Value: int64(ev.Year)})
		if ev.NKill.Valid {
			nkill.recs = append(nkill.recs, gopilosa.FieldValue{ColumnID: col, Value: int64(math.Round(ev.NKill.Value))})
		}
	}
	iters[FieldContinent] = continents
	iters[gtd.FieldYear] = years
	iters[gtd.FieldNKill] = nkill

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for name, it := range iters {
		field := index.Field(name)
		wg.Add(1)
		go func(name string, field *gopilosa.Field, it *sliceIterator) {
			defer wg.Done()
			start := time.Now()
			err := e.client.ImportField(field, it, gopilosa.OptImportBatchSize(e.batchSize))
			if err != nil {
				mu.Lock()
				if first == nil {
					first = errors.Wrapf(err, "importing field %s", name)
				}
				mu.Unlock()
				return
			}
			e.stats.Count("export."+name, int64(len(it.recs)), 1)
			e.stats.Timing("export.time", time.Since(start), 1)
			e.log.Debugf("imported %d records into %s/%s", len(it.recs), e.index, name)
		}(name, field, it)
	}
	wg.Wait()
	if first == nil {
		e.log.Printf("exported %d events to index %s", t.Len(), e.index)
	}
	return first
}

// sliceIterator is a gopilosa.RecordIterator over buffered records.
type sliceIterator struct {
	recs []gopilosa.Record
	next int
}

func (s *sliceIterator) NextRecord() (gopilosa.Record, error) {
	if s.next >= len(s.recs) {
		return nil, io.EOF
	}
	r := s.recs[s.next]
	s.next++
	return r, nil
}
