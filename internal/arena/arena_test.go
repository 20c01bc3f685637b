package arena

import "testing"

func TestAllocateAlignment(t *testing.T) {
	a := New()
	r := a.NewRegion("test")
	defer r.Destroy()

	b1 := r.Allocate(1, 1)
	b8 := r.Allocate(3, 8)
	if len(b1) != 1 || len(b8) != 3 {
		t.Fatalf("unexpected lengths: %d %d", len(b1), len(b8))
	}
	// b8 must start at an 8-byte-aligned offset relative to its chunk.
	// We can't observe the absolute address, but successive allocations
	// from the same region must not overlap.
	b1[0] = 0xFF
	for _, v := range b8 {
		if v == 0xFF {
			t.Fatalf("allocations overlap")
		}
	}
}

func TestOversizedAllocationGetsDedicatedChunk(t *testing.T) {
	a := New()
	r := a.NewRegion("big")
	defer r.Destroy()

	big := r.Allocate(chunkSize, 8)
	if len(big) != chunkSize {
		t.Fatalf("expected %d bytes, got %d", chunkSize, len(big))
	}
}

func TestDestroyReleasesAccounting(t *testing.T) {
	a := New()
	r := a.NewRegion("r")
	r.Allocate(100, 8)
	if a.Live() == 0 {
		t.Fatalf("expected nonzero live bytes")
	}
	r.Destroy()
	if a.Live() != 0 {
		t.Fatalf("expected zero live bytes after destroy, got %d", a.Live())
	}
}

func TestArenaDestroy(t *testing.T) {
	a := New()
	r1 := a.NewRegion("a")
	r2 := a.NewRegion("b")
	r1.Allocate(10, 1)
	r2.Allocate(10, 1)
	a.Destroy()
	if a.Live() != 0 {
		t.Fatalf("expected zero live bytes after arena destroy")
	}
}
