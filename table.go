package gtd

import (
	"math"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"
)

var tableIDs uint64

// Table is the immutable base event table. Besides the events themselves it
// keeps, for every categorical frame, one bitmap of record positions per
// distinct value (the bitmap row id is the value's Translator id), and one
// bitmap per year. Nothing returned by a Table may be modified by callers.
type Table struct {
	id         uint64
	events     []Event
	translator Translator

	frames map[string][]*roaring.Bitmap
	order  map[string][]uint64
	years  map[int]*roaring.Bitmap
	all    *roaring.Bitmap

	minYear, maxYear int
}

// TableBuilder accumulates events into a new Table.
type TableBuilder struct {
	t *Table
}

// NewTableBuilder returns a builder which maps categorical values to row ids
// with tr. A nil tr gets a fresh MapTranslator.
func NewTableBuilder(tr Translator) *TableBuilder {
	if tr == nil {
		tr = NewMapTranslator()
	}
	t := &Table{
		translator: tr,
		frames:     make(map[string][]*roaring.Bitmap, len(CategoricalFields)),
		order:      make(map[string][]uint64, len(CategoricalFields)),
		years:      make(map[int]*roaring.Bitmap),
		all:        roaring.New(),
		minYear:    math.MaxInt32,
		maxYear:    math.MinInt32,
	}
	return &TableBuilder{t: t}
}

// Add appends e to the table and indexes it.
func (b *TableBuilder) Add(e Event) error {
	t := b.t
	if len(t.events) >= math.MaxUint32 {
		return errors.New("table is full")
	}
	pos := uint32(len(t.events))
	t.events = append(t.events, e)
	t.all.Add(pos)

	for _, frame := range CategoricalFields {
		val := e.Value(frame)
		if val == "" {
			continue // nulls are not indexed
		}
		id, err := t.translator.GetID(frame, val)
		if err != nil {
			return errors.Wrapf(err, "getting id for %s '%s'", frame, val)
		}
		rows := t.frames[frame]
		for uint64(len(rows)) <= id {
			rows = append(rows, nil)
		}
		if rows[id] == nil {
			rows[id] = roaring.New()
			t.order[frame] = append(t.order[frame], id)
		}
		rows[id].Add(pos)
		t.frames[frame] = rows
	}

	ybm, ok := t.years[e.Year]
	if !ok {
		ybm = roaring.New()
		t.years[e.Year] = ybm
	}
	ybm.Add(pos)
	if e.Year < t.minYear {
		t.minYear = e.Year
	}
	if e.Year > t.maxYear {
		t.maxYear = e.Year
	}
	return nil
}

// Table returns the built table with a new unique id. The builder must not be
// used afterwards.
func (b *TableBuilder) Table() *Table {
	t := b.t
	b.t = nil
	t.id = atomic.AddUint64(&tableIDs, 1)
	for _, bm := range t.years {
		bm.RunOptimize()
	}
	for _, rows := range t.frames {
		for _, bm := range rows {
			if bm != nil {
				bm.RunOptimize()
			}
		}
	}
	return t
}

// NewTable builds a table from events.
func NewTable(events []Event, tr Translator) (*Table, error) {
	b := NewTableBuilder(tr)
	for i := range events {
		if err := b.Add(events[i]); err != nil {
			return nil, errors.Wrapf(err, "adding event %d", i)
		}
	}
	return b.Table(), nil
}

// ID uniquely identifies the table within the process. It is used to key
// query caches.
func (t *Table) ID() uint64 { return t.id }

// Len returns the number of events.
func (t *Table) Len() int { return len(t.events) }

// Event returns the event at position pos.
func (t *Table) Event(pos uint32) *Event { return &t.events[pos] }

// Events returns the events in source order.
func (t *Table) Events() []Event { return t.events }

// Translator returns the translator used for the categorical frames.
func (t *Table) Translator() Translator { return t.translator }

// YearBounds returns the smallest and largest year in the table. Both are 0
// for an empty table.
func (t *Table) YearBounds() (min, max int) {
	if len(t.events) == 0 {
		return 0, 0
	}
	return t.minYear, t.maxYear
}

// All returns a view of every event.
func (t *Table) All() View {
	return View{table: t, rows: t.all}
}

// Row returns the positions of the events whose frame has value val. Unknown
// frames or values give an empty bitmap.
func (t *Table) Row(frame, val string) (*roaring.Bitmap, error) {
	id, ok, err := t.translator.FindID(frame, val)
	if err != nil {
		return nil, errors.Wrapf(err, "finding id for %s '%s'", frame, val)
	}
	rows := t.frames[frame]
	if !ok || id >= uint64(len(rows)) || rows[id] == nil {
		return roaring.New(), nil
	}
	return rows[id], nil
}

// Rows returns the union of the rows for each of vals.
func (t *Table) Rows(frame string, vals ...string) (*roaring.Bitmap, error) {
	bms := make([]*roaring.Bitmap, 0, len(vals))
	for _, val := range vals {
		bm, err := t.Row(frame, val)
		if err != nil {
			return nil, err
		}
		bms = append(bms, bm)
	}
	return roaring.FastOr(bms...), nil
}

// YearRows returns the positions of events with start <= year <= end.
func (t *Table) YearRows(start, end int) *roaring.Bitmap {
	if start > end || len(t.events) == 0 {
		return roaring.New()
	}
	if start < t.minYear {
		start = t.minYear
	}
	if end > t.maxYear {
		end = t.maxYear
	}
	bms := make([]*roaring.Bitmap, 0, len(t.years))
	for y := start; y <= end; y++ {
		if bm, ok := t.years[y]; ok {
			bms = append(bms, bm)
		}
	}
	return roaring.FastOr(bms...)
}

// Values returns the distinct values of a frame in first-seen order.
func (t *Table) Values(frame string) ([]string, error) {
	ids := t.order[frame]
	vals := make([]string, 0, len(ids))
	for _, id := range ids {
		v, err := t.translator.Get(frame, id)
		if err != nil {
			return nil, errors.Wrapf(err, "translating %s id %d", frame, id)
		}
		vals = append(vals, toString(v))
	}
	return vals, nil
}

// FrameRows calls fn for each distinct value of frame, in first-seen order,
// with the positions holding it.
func (t *Table) FrameRows(frame string, fn func(val string, rows *roaring.Bitmap)) error {
	rows := t.frames[frame]
	for _, id := range t.order[frame] {
		v, err := t.translator.Get(frame, id)
		if err != nil {
			return errors.Wrapf(err, "translating %s id %d", frame, id)
		}
		fn(toString(v), rows[id])
	}
	return nil
}

func toString(v interface{}) string {
	switch vt := v.(type) {
	case string:
		return vt
	case []byte:
		return string(vt)
	}
	return ""
}
