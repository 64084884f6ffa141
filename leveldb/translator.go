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

// Package leveldb provides a gtd.Translator which keeps the value/id mapping
// of every frame in leveldb, so row ids are stable across runs.
package leveldb

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pilosa/gtd"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ gtd.Translator = &Translator{}

// Translator is a gtd.Translator which stores the two way val/id mapping in
// leveldb. Values are strings; byte slices are accepted and stored as
// strings.
type Translator struct {
	lock    sync.RWMutex
	dirname string
	frames  map[string]*FrameTranslator
}

// FrameTranslator maps the values of one frame using a pair of leveldbs.
type FrameTranslator struct {
	lock   valueLocker
	idMap  *leveldb.DB
	valMap *leveldb.DB
	curID  *uint64
}

// Close closes all of the underlying leveldb instances.
func (lt *Translator) Close() error {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	errs := make(gtd.Errors, 0)
	for f, lft := range lt.frames {
		err := lft.Close()
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "frame : %v", f))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Close closes the two leveldbs used by the FrameTranslator.
func (lft *FrameTranslator) Close() error {
	errs := make(gtd.Errors, 0)
	err := lft.idMap.Close()
	if err != nil {
		errs = append(errs, errors.Wrap(err, "closing idMap"))
	}
	err = lft.valMap.Close()
	if err != nil {
		errs = append(errs, errors.Wrap(err, "closing valMap"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// getFrameTranslator retrieves or creates a FrameTranslator for the given
// frame. With create false, a frame which has never been opened and has no
// files on disk gives nil.
func (lt *Translator) getFrameTranslator(frame string, create bool) (*FrameTranslator, error) {
	lt.lock.RLock()
	if tr, ok := lt.frames[frame]; ok {
		lt.lock.RUnlock()
		return tr, nil
	}
	lt.lock.RUnlock()
	if !create {
		if _, err := os.Stat(filepath.Join(lt.dirname, frame+"-val")); os.IsNotExist(err) {
			return nil, nil
		}
	}
	lt.lock.Lock()
	defer lt.lock.Unlock()
	if tr, ok := lt.frames[frame]; ok {
		return tr, nil
	}
	lft, err := NewFrameTranslator(lt.dirname, frame)
	if err != nil {
		return nil, errors.Wrap(err, "creating new FrameTranslator")
	}
	lt.frames[frame] = lft
	return lft, nil
}

// NewFrameTranslator creates a new FrameTranslator which uses LevelDB as
// backing storage. Ids continue after the largest id already stored.
func NewFrameTranslator(dirname string, frame string) (*FrameTranslator, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	var initialID uint64
	mdbs := &FrameTranslator{
		curID: &initialID,
		lock:  newBucketVLock(),
	}
	idPath := filepath.Join(dirname, frame+"-id")
	mdbs.idMap, err = leveldb.OpenFile(idPath, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", idPath)
	}
	valPath := filepath.Join(dirname, frame+"-val")
	mdbs.valMap, err = leveldb.OpenFile(valPath, &opt.Options{})
	if err != nil {
		mdbs.idMap.Close()
		return nil, errors.Wrapf(err, "opening leveldb at %v", valPath)
	}

	// ids are big endian so the last key is the largest
	iter := mdbs.idMap.NewIterator(nil, nil)
	if iter.Last() {
		initialID = binary.BigEndian.Uint64(iter.Key()) + 1
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		mdbs.Close()
		return nil, errors.Wrap(err, "finding last id")
	}
	return mdbs, nil
}

// NewTranslator gets a new Translator storing its files under dirname.
func NewTranslator(dirname string, frames ...string) (lt *Translator, err error) {
	lt = &Translator{
		dirname: dirname,
		frames:  make(map[string]*FrameTranslator),
	}
	for _, frame := range frames {
		lft, err := NewFrameTranslator(dirname, frame)
		if err != nil {
			lt.Close()
			return nil, errors.Wrap(err, "making FrameTranslator")
		}
		lt.frames[frame] = lft
	}
	return lt, nil
}

// Get returns the value mapped to the given id in the given frame.
func (lt *Translator) Get(frame string, id uint64) (val interface{}, err error) {
	lft, err := lt.getFrameTranslator(frame, false)
	if err != nil {
		return nil, errors.Wrap(err, "getting frame translator")
	}
	if lft == nil {
		return nil, errors.Errorf("unknown frame '%s'", frame)
	}
	return lft.Get(id)
}

// Get returns the value mapped to the given id.
func (lft *FrameTranslator) Get(id uint64) (val interface{}, err error) {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	data, err := lft.idMap.Get(idBytes, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching id %d from idMap", id)
	}
	return string(data), nil
}

// GetID returns the integer id associated with the given value in the given frame.
// It allocates a new ID if the value is not found.
func (lt *Translator) GetID(frame string, val interface{}) (id uint64, err error) {
	lft, err := lt.getFrameTranslator(frame, true)
	if err != nil {
		return 0, errors.Wrap(err, "getting frame translator")
	}
	return lft.GetID(val)
}

// FindID returns the id of val in frame if one has been allocated.
func (lt *Translator) FindID(frame string, val interface{}) (id uint64, ok bool, err error) {
	lft, err := lt.getFrameTranslator(frame, false)
	if err != nil {
		return 0, false, errors.Wrap(err, "getting frame translator")
	}
	if lft == nil {
		return 0, false, nil
	}
	return lft.FindID(val)
}

func valBytes(val interface{}) ([]byte, error) {
	switch valt := val.(type) {
	case []byte:
		return valt, nil
	case string:
		return []byte(valt), nil
	}
	return nil, errors.Errorf("val needs to be string or byte slice, but is type: %T, val: '%v'", val, val)
}

// FindID returns the id of val if one has been allocated.
func (lft *FrameTranslator) FindID(val interface{}) (id uint64, ok bool, err error) {
	vb, err := valBytes(val)
	if err != nil {
		return 0, false, err
	}
	data, err := lft.valMap.Get(vb, &opt.ReadOptions{})
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	} else if err != nil {
		return 0, false, errors.Wrap(err, "trying to read value map")
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// GetID returns the integer id associated with the given value. It allocates a
// new ID if the value is not found.
func (lft *FrameTranslator) GetID(val interface{}) (id uint64, err error) {
	vb, err := valBytes(val)
	if err != nil {
		return 0, err
	}
	// if you're expecting most of the mapping to already be done, this would be faster
	if id, ok, err := lft.FindID(vb); err != nil || ok {
		return id, err
	}

	// else, val not found
	lft.lock.Lock(vb)
	defer lft.lock.Unlock(vb)
	// re-read after locking
	if id, ok, err := lft.FindID(vb); err != nil || ok {
		return id, err
	}

	idBytes := make([]byte, 8)
	new := atomic.AddUint64(lft.curID, 1)
	binary.BigEndian.PutUint64(idBytes, new-1)
	err = lft.idMap.Put(idBytes, vb, &opt.WriteOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "putting new id into idmap")
	}
	err = lft.valMap.Put(vb, idBytes, &opt.WriteOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "putting new id into valmap")
	}
	return new - 1, nil
}

type valueLocker interface {
	Lock(val []byte)
	Unlock(val []byte)
}

type bucketVLock struct {
	ms []sync.Mutex
}

func newBucketVLock() bucketVLock {
	return bucketVLock{
		ms: make([]sync.Mutex, 1000),
	}
}

func (b bucketVLock) Lock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Lock()
}

func (b bucketVLock) Unlock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Unlock()
}
