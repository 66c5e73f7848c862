package chashtable

import "testing"

func TestSetAddContainsRemove(t *testing.T) {
	s := NewSet[string](nil)

	if s.Contains("x") {
		t.Fatalf("fresh set should not contain x")
	}
	if !s.Add("x") {
		t.Fatalf("first add of x should succeed")
	}
	if s.Add("x") {
		t.Fatalf("second add of x should report already-present")
	}
	if !s.Contains("x") {
		t.Fatalf("x should be present after Add")
	}
	if !s.Remove("x") {
		t.Fatalf("remove of present key should succeed")
	}
	if s.Contains("x") {
		t.Fatalf("x should be gone after Remove")
	}
}

func TestSetRemoveIf(t *testing.T) {
	s := NewSet[int](nil)
	for i := 0; i < 10; i++ {
		s.Add(i)
	}
	removed := s.RemoveIf(func(k int) bool { return k%2 == 0 })
	if removed != 5 {
		t.Fatalf("expected 5 even keys removed, got %d", removed)
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 keys remaining, got %d", s.Len())
	}
	s.Range(func(k int) {
		if k%2 == 0 {
			t.Fatalf("even key %d should have been removed", k)
		}
	})
}

func TestSetMerge(t *testing.T) {
	a := NewSet[int](nil)
	b := NewSet[int](nil)
	a.Add(1)
	b.Add(2)
	b.Add(3)

	a.Merge(b)

	if a.Len() != 3 {
		t.Fatalf("expected 3 keys after merge, got %d", a.Len())
	}
	if b.Len() != 0 {
		t.Fatalf("expected source set drained after merge, got %d", b.Len())
	}
}
