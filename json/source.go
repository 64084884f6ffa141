// Package json reads GTD records from a stream of JSON objects, one per
// event, keyed by the same column names as the CSV extracts.
package json

import (
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Source is a gtd.Source for reading json data. Records are returned as
// map[string]string like the csv package's: numbers keep their literal
// text, booleans become "true" or "false", and null values are left out.
// Source is safe for concurrent use.
type Source struct {
	mu  sync.Mutex
	r   io.Reader
	dec *json.Decoder
	n   int
}

// NewSource gets a new json source which will decode from the given reader.
// If r is an io.Closer it is closed by Close.
func NewSource(r io.Reader) *Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Source{r: r, dec: dec}
}

// Record implements gtd.Source. It returns the next json object that can be
// decoded from the reader, or io.EOF after the last one.
func (s *Source) Record() (rec interface{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res map[string]interface{}
	err = s.dec.Decode(&res)
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(err, "decoding object %d", s.n)
	}
	s.n++
	ret := make(map[string]string, len(res))
	for k, v := range res {
		switch vt := v.(type) {
		case nil:
		case string:
			ret[k] = vt
		case json.Number:
			ret[k] = vt.String()
		case bool:
			if vt {
				ret[k] = "true"
			} else {
				ret[k] = "false"
			}
		default:
			return nil, errors.Errorf("object %d: unsupported value %#v for '%s'", s.n-1, v, k)
		}
	}
	return ret, nil
}

// Close closes the underlying reader if it can be closed.
func (s *Source) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// IsPath reports whether name looks like a file of JSON objects.
func IsPath(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".json") || strings.HasSuffix(n, ".jsonl") || strings.HasSuffix(n, ".ndjson")
}
