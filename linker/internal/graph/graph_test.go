package graph

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMark(t *testing.T) {
	g := New(8)
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)
	g.AddEdge(4, 5)
	g.AddEdge(6, 6)

	got := g.Mark([]uint32{1}).ToSlice()
	if diff := cmp.Diff([]uint32{1, 2, 3}, got); diff != "" {
		t.Errorf("reachable (-want +got):\n%s", diff)
	}

	got = g.Mark([]uint32{4, 6}).ToSlice()
	if diff := cmp.Diff([]uint32{4, 5, 6}, got); diff != "" {
		t.Errorf("reachable (-want +got):\n%s", diff)
	}

	if n := g.Mark(nil).Count(); n != 0 {
		t.Errorf("empty root set marked %d nodes", n)
	}
}

func TestAddEdgeGrows(t *testing.T) {
	g := New(0)
	g.AddEdge(3, 200)
	if g.Len() != 201 {
		t.Fatalf("Len = %d, want 201", g.Len())
	}
	if !g.Mark([]uint32{3}).Has(200) {
		t.Error("edge past initial size not followed")
	}
	if g.Successors(500) != nil {
		t.Error("unknown node should have no successors")
	}
}

func TestMarkIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(150)
		g := New(n)
		for i := 0; i < n*2; i++ {
			g.AddEdge(uint32(rng.Intn(n)), uint32(rng.Intn(n)))
		}
		var roots []uint32
		for i := 0; i < 3; i++ {
			roots = append(roots, uint32(rng.Intn(n)))
		}

		once := g.Mark(roots)
		twice := g.Mark(once.ToSlice())
		if !once.Equal(twice) {
			t.Fatalf("round %d: marking is not idempotent: %v vs %v", round, once.ToSlice(), twice.ToSlice())
		}

		// reversing root order must not change the result
		rev := make([]uint32, len(roots))
		for i, r := range roots {
			rev[len(roots)-1-i] = r
		}
		if !once.Equal(g.Mark(rev)) {
			t.Fatalf("round %d: result depends on root order", round)
		}

		// more roots never shrink the set
		bigger := g.Mark(append(roots, uint32(rng.Intn(n))))
		for _, v := range once.ToSlice() {
			if !bigger.Has(v) {
				t.Fatalf("round %d: node %d lost after adding a root", round, v)
			}
		}
	}
}

func TestBitSet(t *testing.T) {
	b := NewBitSet(10)
	for _, v := range []uint32{0, 63, 64, 130} {
		b.Set(v)
	}
	if b.Count() != 4 {
		t.Errorf("Count = %d, want 4", b.Count())
	}
	if b.Has(1) || !b.Has(130) {
		t.Error("membership mismatch")
	}
	if diff := cmp.Diff([]uint32{0, 63, 64, 130}, b.ToSlice()); diff != "" {
		t.Errorf("ToSlice (-want +got):\n%s", diff)
	}

	c := NewBitSet(500)
	for _, v := range []uint32{130, 64, 63, 0} {
		c.Set(v)
	}
	if !b.Equal(c) || !c.Equal(b) {
		t.Error("sets with different capacity should compare equal")
	}
	c.Set(400)
	if b.Equal(c) {
		t.Error("different sets compare equal")
	}
}
