// Package store loads the GTD event table once per session.
package store

import (
	"sync"
	"time"

	"github.com/pilosa/gtd"
	"github.com/pkg/errors"
)

// SourceFunc returns a fresh source for the raw records. It is called at
// most once per Store.
type SourceFunc func() (gtd.Source, error)

// Snapshot caches parsed events between sessions.
type Snapshot interface {
	Get(name, version string) (events []gtd.Event, ok bool, err error)
	Put(name, version string, events []gtd.Event) error
}

// Store is the record store. Load reads and parses the source on its first
// call and returns the same table, or the same error, on every call after.
type Store struct {
	name       string
	version    string
	source     SourceFunc
	parser     gtd.Parser
	snapshot   Snapshot
	translator gtd.Translator
	stats      gtd.Statter
	log        gtd.Logger

	mu    sync.Mutex
	table *gtd.Table
	err   error
	done  bool
}

// Option configures a Store.
type Option func(s *Store)

// OptSnapshot sets the snapshot consulted before parsing the source. version
// identifies the source contents; a snapshot of another version is ignored.
func OptSnapshot(snap Snapshot, version string) Option {
	return func(s *Store) {
		s.snapshot = snap
		s.version = version
	}
}

// OptTranslator sets the translator of the loaded table.
func OptTranslator(tr gtd.Translator) Option {
	return func(s *Store) {
		s.translator = tr
	}
}

// OptParser replaces gtd.EventParser.
func OptParser(p gtd.Parser) Option {
	return func(s *Store) {
		s.parser = p
	}
}

// OptStats sets the stats collector.
func OptStats(st gtd.Statter) Option {
	return func(s *Store) {
		s.stats = st
	}
}

// OptLogger sets the logger.
func OptLogger(l gtd.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a Store reading the source named name through src.
func New(name string, src SourceFunc, opts ...Option) *Store {
	s := &Store{
		name:   name,
		source: src,
		parser: gtd.EventParser{},
		stats:  gtd.NopStatter{},
		log:    gtd.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the event table. Every error it returns is caused by
// gtd.ErrDataUnavailable, and a failed load stays failed.
func (s *Store) Load() (*gtd.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.done {
		s.table, s.err = s.load()
		s.done = true
	}
	return s.table, s.err
}

func (s *Store) load() (*gtd.Table, error) {
	start := time.Now()
	if s.snapshot != nil {
		events, ok, err := s.snapshot.Get(s.name, s.version)
		if err != nil {
			s.log.Printf("reading snapshot of %s: %v", s.name, err)
		} else if ok {
			t, err := gtd.NewTable(events, s.translator)
			if err == nil {
				s.stats.Count("records.snapshot", int64(t.Len()), 1)
				s.log.Debugf("loaded %d events of %s from snapshot in %v", t.Len(), s.name, time.Since(start))
				return t, nil
			}
			s.log.Printf("indexing snapshot of %s: %v", s.name, err)
		}
	}

	src, err := s.source()
	if err != nil {
		return nil, gtd.Unavailable(err, "opening "+s.name)
	}
	if c, ok := src.(interface{ Close() error }); ok {
		defer c.Close()
	}
	ing := gtd.NewIngester(src, s.parser)
	ing.Translator = s.translator
	ing.Stats = s.stats
	ing.Log = s.log
	t, err := ing.Run()
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", s.name)
	}
	s.log.Printf("loaded %d events from %s in %v", t.Len(), s.name, time.Since(start))

	if s.snapshot != nil {
		if err := s.snapshot.Put(s.name, s.version, t.Events()); err != nil {
			s.log.Printf("writing snapshot of %s: %v", s.name, err)
		}
	}
	return t, nil
}
