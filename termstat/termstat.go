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

// Package termstat provides a gtd.Statter which periodically writes its
// counters to a terminal. It is meant for watching a load from the command
// line in lieu of an actual collector writing to an external tool like
// graphite or datadog.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Collector collects stats and prints them to the terminal
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	timings map[string]time.Duration
	changed bool
	out     io.Writer

	stop chan struct{}
	once sync.Once
}

// NewCollector initializes and returns a new Collector writing every
// interval. A non-positive interval only writes on Flush.
func NewCollector(out io.Writer, interval time.Duration) *Collector {
	ts := &Collector{
		indexes: make(map[string]int),
		timings: make(map[string]time.Duration),
		out:     out,
		stop:    make(chan struct{}),
	}
	if interval > 0 {
		go func() {
			tick := time.NewTicker(interval)
			defer tick.Stop()
			for {
				select {
				case <-tick.C:
					ts.write(false)
				case <-ts.stop:
					return
				}
			}
		}()
	}
	return ts
}

// Count adds value to the named stat at the specified rate.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true

	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.stats)
		t.stats = append(t.stats, 0)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	if rate < 1 {
		if rand.Float64() > rate {
			return
		}
	}
	t.stats[idx] += value
}

// Timing records the latest duration of the named operation.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true
	t.timings[name] = value
}

// Get returns the current value of a counter.
func (t *Collector) Get(name string) int64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	if idx, ok := t.indexes[name]; ok {
		return t.stats[idx]
	}
	return 0
}

func (t *Collector) write(final bool) {
	sb := strings.Builder{}
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed && !final {
		return
	}
	for i := 0; i < len(t.stats); i++ {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %d ", t.names[i], t.stats[i]))
	}
	if final {
		for name, d := range t.timings {
			_, _ = sb.WriteString(fmt.Sprintf("%s: %v ", name, d))
		}
	}
	t.changed = false
	fmt.Fprint(t.out, "\r"+sb.String())
	if final {
		fmt.Fprintln(t.out)
	}
}

// Flush stops the periodic writes and writes every stat a last time,
// timings included.
func (t *Collector) Flush() {
	t.once.Do(func() { close(t.stop) })
	t.write(true)
}
