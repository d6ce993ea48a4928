package book

import "testing"

func TestArenaAllocateRelease(t *testing.T) {
	a := newArena(2)

	s1, ok := a.allocate()
	if !ok {
		t.Fatal("expected allocate to succeed")
	}
	s2, ok := a.allocate()
	if !ok {
		t.Fatal("expected second allocate to succeed")
	}
	if s1 == s2 {
		t.Fatal("expected distinct slots")
	}

	if _, ok := a.allocate(); ok {
		t.Fatal("expected arena exhaustion at capacity 2")
	}

	a.release(s1)
	s3, ok := a.allocate()
	if !ok {
		t.Fatal("expected allocate to succeed after release")
	}
	if s3 != s1 {
		t.Fatalf("expected released slot %d to be reused, got %d", s1, s3)
	}
}

func TestArenaReleaseZeroesRecord(t *testing.T) {
	a := newArena(1)
	s, _ := a.allocate()
	r := a.get(s)
	*r = record{orderID: 42, price: 7, qty: 99}

	a.release(s)

	r2 := a.get(s)
	if *r2 != (record{}) {
		t.Fatalf("expected zeroed record after release, got %+v", *r2)
	}
}

func TestArenaZeroCapacity(t *testing.T) {
	a := newArena(0)
	if _, ok := a.allocate(); ok {
		t.Fatal("expected allocate to fail on a zero-capacity arena")
	}
}
