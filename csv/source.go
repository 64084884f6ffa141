// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package csv reads GTD records from RFC 4180 CSV files. Files may be local
// paths, http(s) URLs, or any OpenStringer such as an S3 object.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

// PositionKey is the record key holding the file and line a record was read
// from. It can't collide with a header since headers can't contain commas.
const PositionKey = ","

// Source satisfies the gtd.Source interface for CSV data. Each line in a CSV
// file will be returned by a call to Record as a map[string]string where the
// keys are taken from the first line of the CSV. Source is safe for
// concurrent use.
//
// The Source takes care of retrying failed reads/downloads and making sure not
// to return duplicate data.
type Source struct {
	files       []*file
	maxRetries  int
	concurrency int
	enc         encoding.Encoding

	records chan record
	done    chan struct{}
	once    sync.Once
}

// NewSource creates a gtd.Source for CSV data. The source of the raw data can
// be set by using Options defined in this package. e.g.
//
// src := NewSource(WithURLs([]string{"globalterrorismdb.csv", "http://example.com/gtd.csv"}))
func NewSource(options ...Option) *Source {
	src := &Source{
		records:     make(chan record),
		done:        make(chan struct{}),
		maxRetries:  3,
		concurrency: 1,
	}

	for _, opt := range options {
		opt(src)
	}
	go src.getRecords()
	return src
}

// Option is a functional option to pass to NewSource.
type Option func(*Source)

// WithURLs returns an Option which adds the slice of URLs to the set of data
// sources a Source will read from. The URLs may be HTTP or local files.
func WithURLs(urls []string) Option {
	return func(s *Source) {
		for _, url := range urls {
			s.files = append(s.files, &file{OpenStringer: urlOpener(url)})
		}
	}
}

// WithOpenStringers returns an Option which adds the slice of OpenStringers to
// the set of data sources a Source will read from.
func WithOpenStringers(os []OpenStringer) Option {
	return func(s *Source) {
		for _, os := range os {
			s.files = append(s.files, &file{OpenStringer: os})
		}
	}
}

// WithMaxRetries returns an Option which sets the max number of retries per file on
// a Source.
func WithMaxRetries(maxRetries int) Option {
	return func(s *Source) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
	}
}

// WithConcurrency returns an Option which sets the number of goroutines fetching
// files simultaneously. With more than one, records of different files are
// interleaved.
func WithConcurrency(c int) Option {
	return func(s *Source) {
		if c > 0 {
			s.concurrency = c
		}
	}
}

// WithEncoding returns an Option which decodes every file from enc into
// UTF-8. The published GTD extracts are ISO-8859-1, for which
// charmap.ISO8859_1 can be used.
func WithEncoding(enc encoding.Encoding) Option {
	return func(s *Source) {
		s.enc = enc
	}
}

// file tracks the use of an OpenStringer.
type file struct {
	OpenStringer
	line int // tracks how many lines of this file we've read.
}

// Opener is an interface to a resource which can be repeatedly Opened (and the
// returned ReadCloser can be subsequently read). Each call to Open should
// return a ReadCloser which reads from the beginning of the resource. In the
// case of an error while reading, Open will be called again to retry reading
// the entire resource.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// OpenStringer is an Opener which also has a String method which should return
// the name of the resource being opened (e.g. a file or URL).
type OpenStringer interface {
	fmt.Stringer
	Opener
}

// urlOpener turns a URL or file (string) into an OpenStringer.
type urlOpener string

func (u urlOpener) Open() (io.ReadCloser, error) {
	url := string(u)
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("getting via http: status %s", resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(url)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (u urlOpener) String() string {
	return string(u)
}

// Record returns a map[string]string representing a single data line of a
// CSV file. Each key is taken from the header, and each value is parsed from a
// row - empty fields are skipped.
func (c *Source) Record() (interface{}, error) {
	select {
	case <-c.done:
		return nil, io.EOF
	default:
	}
	rec, ok := <-c.records
	if !ok {
		return nil, io.EOF
	}
	return rec.rec, rec.err
}

type record struct {
	rec map[string]string
	err error
}

// Close stops reading. The reading goroutines exit, closing their files, and
// Record returns io.EOF from then on.
func (c *Source) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// send delivers r, reporting false if the source was closed first.
func (c *Source) send(r record) bool {
	select {
	case c.records <- r:
		return true
	case <-c.done:
		return false
	}
}

func (c *Source) getRecords() {
	fileChan := make(chan *file, c.concurrency)
	wg := sync.WaitGroup{}
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			for file := range fileChan {
				c.getRows(file)
			}
			wg.Done()
		}()
	}
feed:
	for _, file := range c.files {
		select {
		case fileChan <- file:
		case <-c.done:
			break feed
		}
	}
	close(fileChan)
	wg.Wait()
	close(c.records)
}

func (c *Source) getRows(file *file) {
	var err error
	for try := 0; try < c.maxRetries; try++ {
		err = c.getRowTry(file)
		if err == nil {
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
	}
	c.send(record{err: errors.Wrapf(err, "couldn't fetch '%s' - tried %d times, latest", file, c.maxRetries)})
}

func (c *Source) getRowTry(file *file) error {
	content, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening")
	}
	defer content.Close()

	var r io.Reader = content
	if c.enc != nil {
		r = c.enc.NewDecoder().Reader(r)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil // empty file
	} else if err != nil {
		return errors.Wrapf(err, "reading header of '%s'", file)
	}
	header = append([]string(nil), header...)
	if err := validateHeader(header); err != nil {
		c.send(record{err: errors.Wrapf(err, "validating header of %s", file)})
		return nil // error is permanent so we don't return to getRows for retry
	}
	if file.line == 0 {
		file.line++
	}

	line := 1
	// catch up to previous location
	for line < file.line {
		if _, err := reader.Read(); err != nil {
			return errors.Wrapf(err, "skipping to line %d of '%s'", file.line, file)
		}
		line++
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		} else if pe, ok := err.(*csv.ParseError); ok && pe.Err != csv.ErrFieldCount {
			c.send(record{err: errors.Wrapf(err, "file %s: parsing line %d", file, file.line+1)})
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "reading '%s', line %d", file, file.line)
		}
		file.line++
		if isBlank(row) {
			continue
		}
		recordMap, err := parseRecord(header, row)
		if err != nil {
			if !c.send(record{err: errors.Wrapf(err, "file %s: parsing line %d", file, file.line)}) {
				return nil
			}
			continue
		}
		recordMap[PositionKey] = fmt.Sprintf("%s:line%d", file, file.line)
		if !c.send(record{rec: recordMap}) {
			return nil
		}
	}
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRecord(header []string, row []string) (map[string]string, error) {
	if len(header) > len(row) {
		return nil, errors.Errorf("header/row len mismatch: %dvs%d, %v and %v", len(header), len(row), header, row)
	} else if len(row) > len(header) {
		for i := len(header); i < len(row); i++ {
			if strings.TrimSpace(row[i]) != "" {
				return nil, errors.Errorf("data in non headered field %d: %v", i, row)
			}
		}
	}
	ret := make(map[string]string, len(header)+1)
	for i := 0; i < len(header); i++ {
		if row[i] == "" {
			continue
		}
		ret[header[i]] = row[i]
	}
	return ret, nil
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}
