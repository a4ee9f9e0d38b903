package ordered_test

import (
	"testing"

	"github.com/gx-org/texpr/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		deletes []string
		want    []entry
	}{
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			want: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
				{k: "b", v: 2},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "a", v: 2},
				{k: "a", v: 3},
				{k: "a", v: 4},
			},
			want: []entry{
				{k: "a", v: 4},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			deletes: []string{"b", "zz"},
			want: []entry{
				{k: "a", v: 1},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
			},
			deletes: []string{"a"},
			want:    []entry{},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, entry := range test.entries {
			m.Store(entry.k, entry.v)
		}
		for _, k := range test.deletes {
			m.Delete(k)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		if m.Empty() != (len(test.want) == 0) {
			t.Errorf("test %d: Empty()=%v but map has %d entries", ti, m.Empty(), len(test.want))
		}

		// Clone the map before the tests.
		m = m.Clone()

		// Iterate from the key.
		i := 0
		for gotK := range m.Keys() {
			gotV, _ := m.Load(gotK)
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotV != wantV {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, gotK, gotV, wantK, wantV)
			}
			i++
		}

		// Iterate over all the items.
		i = 0
		for gotK, gotV := range m.Iter() {
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotK != wantK || gotV != wantV {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, gotK, gotV, wantK, wantV)
			}
			i++
		}

		// Iterate over all the values.
		i = 0
		for gotV := range m.Values() {
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotV != wantV {
				t.Errorf("test %d entry %d: got .->%d but want %s->%d", ti, i, gotV, wantK, wantV)
			}
			i++
		}
	}
}

func TestMapStoreAfterDelete(t *testing.T) {
	m := ordered.NewMap[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)
	m.Delete("a")
	m.Store("a", 3)
	want := []entry{
		{k: "b", v: 2},
		{k: "a", v: 3},
	}
	i := 0
	for gotK, gotV := range m.Iter() {
		if gotK != want[i].k || gotV != want[i].v {
			t.Errorf("entry %d: got %s->%d but want %s->%d", i, gotK, gotV, want[i].k, want[i].v)
		}
		i++
	}
	if i != len(want) {
		t.Errorf("got %d entries but want %d", i, len(want))
	}
}
