package state

import (
	"fmt"
	"testing"
)

func TestProcessedHasAndAdd(t *testing.T) {
	db := testDB(t)
	store := NewProcessedStore(db)

	ok, err := store.Has("msg-1")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("Has(msg-1) = true before Add")
	}

	if err := store.Add("msg-1", "msg-2"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for _, id := range []string{"msg-1", "msg-2"} {
		ok, err := store.Has(id)
		if err != nil {
			t.Fatalf("Has(%s): %v", id, err)
		}
		if !ok {
			t.Errorf("Has(%s) = false after Add", id)
		}
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestProcessedAddEmpty(t *testing.T) {
	db := testDB(t)
	store := NewProcessedStore(db)

	if err := store.Add(); err != nil {
		t.Fatalf("Add with no ids: %v", err)
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestProcessedReAddRefreshes(t *testing.T) {
	db := testDB(t)
	store := NewProcessedStore(db)

	if err := store.Add("msg-1", "msg-2"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add("msg-1"); err != nil {
		t.Fatalf("re-Add: %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count after re-add = %d, want 2", n)
	}
}

func TestProcessedEvictsOldest(t *testing.T) {
	db := testDB(t)
	store := NewProcessedStore(db)

	ids := make([]string, maxProcessedItems+10)
	for i := range ids {
		ids[i] = fmt.Sprintf("msg-%04d", i)
	}
	if err := store.Add(ids...); err != nil {
		t.Fatalf("Add: %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != maxProcessedItems {
		t.Fatalf("Count = %d, want %d", n, maxProcessedItems)
	}

	// The first ten ids fell off; the most recent ones survive.
	for _, id := range ids[:10] {
		if ok, _ := store.Has(id); ok {
			t.Errorf("Has(%s) = true, want evicted", id)
		}
	}
	for _, id := range ids[len(ids)-10:] {
		ok, err := store.Has(id)
		if err != nil {
			t.Fatalf("Has(%s): %v", id, err)
		}
		if !ok {
			t.Errorf("Has(%s) = false, want retained", id)
		}
	}
}

func TestProcessedRefreshSurvivesEviction(t *testing.T) {
	db := testDB(t)
	store := NewProcessedStore(db)

	if err := store.Add("keeper"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for i := 0; i < maxProcessedItems-1; i++ {
		if err := store.Add(fmt.Sprintf("filler-%04d", i)); err != nil {
			t.Fatalf("Add filler: %v", err)
		}
	}
	// Refresh moves "keeper" to the newest position, so the next
	// insert evicts a filler instead.
	if err := store.Add("keeper"); err != nil {
		t.Fatalf("refresh Add: %v", err)
	}
	if err := store.Add("newcomer"); err != nil {
		t.Fatalf("Add newcomer: %v", err)
	}

	ok, err := store.Has("keeper")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Error("refreshed id was evicted")
	}
	if ok, _ := store.Has("filler-0000"); ok {
		t.Error("oldest filler survived eviction")
	}
}
