package gtd_test

import (
	"reflect"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/test"
)

func TestMapTranslator(t *testing.T) {
	mt := gtd.NewMapTranslator()
	id, err := mt.GetID("gname", "Taliban")
	test.MustBe(t, id, uint64(0), "first")
	test.ErrNil(t, err, "first")
	id, err = mt.GetID("gname", "Taliban")
	test.MustBe(t, id, uint64(0), "repeat")
	test.ErrNil(t, err, "repeat")

	id, err = mt.GetID("gname", "Boko Haram")
	test.MustBe(t, id, uint64(1), "third")
	test.ErrNil(t, err, "third")

	id, err = mt.GetID("country_txt", "Peru")
	test.MustBe(t, id, uint64(0), "fourth")
	test.ErrNil(t, err, "fourth")

	val, err := mt.Get("gname", 1)
	test.ErrNil(t, err, "Get gname 1")
	test.MustBe(t, val, "Boko Haram", "Get gname 1")
	val, err = mt.Get("country_txt", 0)
	test.ErrNil(t, err, "Get country 0")
	test.MustBe(t, val, "Peru", "Get country 0")

	if _, err := mt.Get("gname", 2); err == nil {
		t.Fatalf("expected error getting unallocated id")
	}
	if _, err := mt.Get("nope", 0); err == nil {
		t.Fatalf("expected error getting from unknown frame")
	}
}

func TestMapTranslatorFindID(t *testing.T) {
	mt := gtd.NewMapTranslator()
	_, ok, err := mt.FindID("gname", "Taliban")
	test.ErrNil(t, err, "find in unknown frame")
	test.MustBe(t, ok, false, "unknown frame")

	_, _ = mt.GetID("gname", "Taliban")
	id, ok, err := mt.FindID("gname", []byte("Taliban"))
	test.ErrNil(t, err, "find")
	test.MustBe(t, ok, true, "found")
	test.MustBe(t, id, uint64(0), "id")

	_, ok, _ = mt.FindID("gname", "ISIL")
	test.MustBe(t, ok, false, "not found")
	// FindID must not allocate
	id, _ = mt.GetID("gname", "ISIL")
	test.MustBe(t, id, uint64(1), "next id after FindID miss")
}

func TestConcMapTranslator(t *testing.T) {
	bt := gtd.NewMapTranslator()

	wg := &sync.WaitGroup{}
	rets := make([][]uint64, 8)
	for i := 0; i < 8; i++ {
		rets[i] = make([]uint64, 1000)
		wg.Add(1)
		go func(ret []uint64) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				id, err := bt.GetID("f1", []byte(strconv.Itoa(j)))
				if err != nil {
					t.Errorf("error getting id: %v", err)
					return
				}
				ret[j] = id
			}
		}(rets[i])
	}

	wg.Wait()
	for i, ret := range rets {
		if i != 0 {
			if !reflect.DeepEqual(ret, rets[i-1]) {
				t.Fatalf("returned ids different in different threads: %v, %v", ret, rets[i-1])
			}
		}
		sort.Slice(ret, func(a, b int) bool { return ret[a] < ret[b] })
		for j := 0; j < 1000; j++ {
			if ret[j] != uint64(j) {
				t.Fatalf("returned ids are not monotonic, pos: %v, val: %v", j, ret[j])
			}
		}
	}
}
