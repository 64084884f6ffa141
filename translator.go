package gtd

import (
	"sync"

	"github.com/pkg/errors"
)

// MapTranslator is an in-memory implementation of Translator using a map per
// frame.
type MapTranslator struct {
	lock   sync.RWMutex
	frames map[string]*MapFrameTranslator
}

// NewMapTranslator creates a new MapTranslator.
func NewMapTranslator() *MapTranslator {
	return &MapTranslator{
		frames: make(map[string]*MapFrameTranslator),
	}
}

func (m *MapTranslator) getFrameTranslator(frame string, create bool) *MapFrameTranslator {
	m.lock.RLock()
	if mt, ok := m.frames[frame]; ok {
		m.lock.RUnlock()
		return mt
	}
	m.lock.RUnlock()
	if !create {
		return nil
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if mt, ok := m.frames[frame]; ok {
		return mt
	}
	m.frames[frame] = NewMapFrameTranslator()
	return m.frames[frame]
}

// Get returns the value mapped to the given id in the given frame.
func (m *MapTranslator) Get(frame string, id uint64) (interface{}, error) {
	ft := m.getFrameTranslator(frame, false)
	if ft == nil {
		return nil, errors.Errorf("unknown frame '%s'", frame)
	}
	val, err := ft.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "frame '%v', id %v", frame, id)
	}
	return val, nil
}

// GetID returns the integer id associated with the given value in the given
// frame. It allocates a new ID if the value is not found.
func (m *MapTranslator) GetID(frame string, val interface{}) (uint64, error) {
	return m.getFrameTranslator(frame, true).GetID(val)
}

// FindID returns the id for val in frame without allocating.
func (m *MapTranslator) FindID(frame string, val interface{}) (uint64, bool, error) {
	ft := m.getFrameTranslator(frame, false)
	if ft == nil {
		return 0, false, nil
	}
	id, ok := ft.FindID(val)
	return id, ok, nil
}

// MapFrameTranslator maps the values of a single frame to contiguous ids.
// Only values which are valid map keys are supported; byte slices are
// converted to strings.
type MapFrameTranslator struct {
	l   sync.RWMutex
	ids map[interface{}]uint64
	s   []interface{}
}

// NewMapFrameTranslator creates a new MapFrameTranslator.
func NewMapFrameTranslator() *MapFrameTranslator {
	return &MapFrameTranslator{
		ids: make(map[interface{}]uint64),
		s:   make([]interface{}, 0),
	}
}

func mapKey(val interface{}) interface{} {
	if valB, ok := val.([]byte); ok {
		return string(valB)
	}
	return val
}

// Get returns the value mapped to the given id.
func (m *MapFrameTranslator) Get(id uint64) (interface{}, error) {
	m.l.RLock()
	defer m.l.RUnlock()
	if id >= uint64(len(m.s)) {
		return nil, errors.Errorf("requested unknown id %d", id)
	}
	return m.s[id], nil
}

// FindID returns the id for val if one has been allocated.
func (m *MapFrameTranslator) FindID(val interface{}) (uint64, bool) {
	m.l.RLock()
	defer m.l.RUnlock()
	id, ok := m.ids[mapKey(val)]
	return id, ok
}

// GetID returns the integer id associated with the given value. It allocates
// the next id if the value is not found.
func (m *MapFrameTranslator) GetID(val interface{}) (uint64, error) {
	key := mapKey(val)
	if id, ok := m.FindID(key); ok {
		return id, nil
	}
	m.l.Lock()
	defer m.l.Unlock()
	// re-check after locking
	if id, ok := m.ids[key]; ok {
		return id, nil
	}
	id := uint64(len(m.s))
	m.s = append(m.s, key)
	m.ids[key] = id
	return id, nil
}

// Len returns the number of ids allocated.
func (m *MapFrameTranslator) Len() int {
	m.l.RLock()
	defer m.l.RUnlock()
	return len(m.s)
}
