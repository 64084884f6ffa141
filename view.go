package gtd

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// View is a filtered, read-only subset of a Table. It owns no event data:
// it is a bitmap of record positions into the table. The zero View is empty
// and has no table.
type View struct {
	table *Table
	rows  *roaring.Bitmap
}

// Table returns the table the view refers to.
func (v View) Table() *Table { return v.table }

// Len returns the number of events in the view.
func (v View) Len() int {
	if v.rows == nil {
		return 0
	}
	return int(v.rows.GetCardinality())
}

// Rows returns the positions in the view. It must not be modified.
func (v View) Rows() *roaring.Bitmap {
	if v.rows == nil {
		return roaring.New()
	}
	return v.rows
}

// Restrict returns the view intersected with rows.
func (v View) Restrict(rows *roaring.Bitmap) View {
	return View{table: v.table, rows: roaring.And(v.Rows(), rows)}
}

// Exclude returns the view without rows.
func (v View) Exclude(rows *roaring.Bitmap) View {
	return View{table: v.table, rows: roaring.AndNot(v.Rows(), rows)}
}

// Where returns the view restricted to events for which keep is true.
func (v View) Where(keep func(*Event) bool) View {
	out := roaring.New()
	v.Each(func(pos uint32, e *Event) {
		if keep(e) {
			out.Add(pos)
		}
	})
	return View{table: v.table, rows: out}
}

// Each calls fn for every event in the view in table order.
func (v View) Each(fn func(pos uint32, e *Event)) {
	if v.table == nil || v.rows == nil {
		return
	}
	it := v.rows.Iterator()
	for it.HasNext() {
		pos := it.Next()
		fn(pos, v.table.Event(pos))
	}
}

// Count returns the number of events in the view which are also in rows,
// without materializing the intersection.
func (v View) Count(rows *roaring.Bitmap) int {
	if v.rows == nil {
		return 0
	}
	return int(v.rows.AndCardinality(rows))
}

// Events returns a copy of the events in the view.
func (v View) Events() []Event {
	ret := make([]Event, 0, v.Len())
	v.Each(func(_ uint32, e *Event) {
		ret = append(ret, *e)
	})
	return ret
}

// Equal reports whether both views select the same positions of the same
// table.
func (v View) Equal(o View) bool {
	return v.table == o.table && v.Rows().Equals(o.Rows())
}
