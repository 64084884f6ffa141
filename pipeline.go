package gtd

// Source is the interface for getting raw data one record at a time. Record
// returns io.EOF once the source is exhausted. Implementations of Source
// should be thread safe.
type Source interface {
	Record() (interface{}, error)
}

// Parser is the interface for turning raw records from Source into Events.
// Implementations of Parser should be thread safe.
type Parser interface {
	Parse(data interface{}) (Event, error)
}

// Translator describes the functionality for mapping arbitrary values in a
// given frame to row ids and back. Implementations should be threadsafe and
// generate ids monotonically from 0 in first-seen order.
type Translator interface {
	Get(frame string, id uint64) (interface{}, error)
	GetID(frame string, val interface{}) (uint64, error)

	// FindID returns the id of val if it has already been mapped. It never
	// allocates a new id.
	FindID(frame string, val interface{}) (id uint64, ok bool, err error)
}
