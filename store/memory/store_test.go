package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/assetsync/store"
)

func ctx() context.Context { return context.Background() }

func TestLifecycle(t *testing.T) {
	s := New()

	if err := s.Migrate(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Get(ctx(), "k"); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed from Get, got %v", err)
	}
}

func TestGetPutDelete(t *testing.T) {
	s := New()

	if _, err := s.Get(ctx(), "brand:a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx(), "brand:a", []byte(`{"brandId":"a"}`)); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx(), "brand:a")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"brandId":"a"}` {
		t.Fatalf("Get = %s", got)
	}

	// Returned slices must not alias internal state.
	got[0] = 'X'
	again, _ := s.Get(ctx(), "brand:a")
	if again[0] != '{' {
		t.Fatal("Get returned an aliased slice")
	}

	if err := s.Delete(ctx(), "brand:a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx(), "brand:a"); err != nil {
		t.Fatalf("deleting an absent key should succeed, got %v", err)
	}
	if _, err := s.Get(ctx(), "brand:a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListByPrefix(t *testing.T) {
	s := New()

	for _, k := range []string{"brand:b", "brand:a", "secret-index:x", "brand:c"} {
		if err := s.Put(ctx(), k, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx(), "brand:")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"brand:a", "brand:b", "brand:c"}
	for i, e := range entries {
		if e.Key != want[i] {
			t.Errorf("entries[%d].Key = %q, want %q", i, e.Key, want[i])
		}
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	if err := s.Put(ctx(), "brand:a", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx(), "brand:a"); err != nil {
		t.Fatalf("expected live entry, got %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := s.Get(ctx(), "brand:a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired entry to be missing, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}
