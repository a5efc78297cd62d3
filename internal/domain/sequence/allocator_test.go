package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// brokenStore fails every operation, simulating an unavailable backend.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Put(context.Context, string, []byte) error { return errors.New("backend down") }
func (brokenStore) Delete(context.Context, string) error      { return errors.New("backend down") }

func newTestAllocator(kv kvstore.Store, max MaxExistingFunc) *Allocator {
	return New(kv, "test:id-seq", max, zerolog.Nop())
}

func TestNextID_StrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(kvstore.NewMemory(), nil)

	seen := make(map[int]bool)
	prev := 0
	for i := 0; i < 50; i++ {
		id := a.NextID(ctx)
		if seen[id] {
			t.Fatalf("id %d issued twice", id)
		}
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestNextID_SelfHealsFromExistingRecords(t *testing.T) {
	ctx := context.Background()
	// No counter persisted; records with ids {3, 7, 5} exist.
	a := newTestAllocator(kvstore.NewMemory(), func(context.Context) int { return 7 })

	if got := a.NextID(ctx); got != 8 {
		t.Errorf("expected first id 8, got %d", got)
	}
	if got := a.NextID(ctx); got != 9 {
		t.Errorf("expected second id 9, got %d", got)
	}
}

func TestNextID_IgnoresCorruptCounter(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	if err := kv.Put(ctx, "test:id-seq", []byte("not a number")); err != nil {
		t.Fatal(err)
	}
	a := newTestAllocator(kv, func(context.Context) int { return 2 })

	if got := a.NextID(ctx); got != 3 {
		t.Errorf("expected corrupt counter to reseed from records, got %d", got)
	}
}

func TestNextID_SentinelWhenStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(brokenStore{}, func(context.Context) int { return 99 })

	if got := a.NextID(ctx); got != 1 {
		t.Errorf("expected sentinel 1 for unavailable store, got %d", got)
	}
}

func TestReset_ReseedsOnNextUse(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	maxID := 0
	a := newTestAllocator(kv, func(context.Context) int { return maxID })

	id := a.NextID(ctx)
	if id != 1 {
		t.Fatalf("expected 1, got %d", id)
	}

	a.Reset(ctx)
	if got := a.NextID(ctx); got != 1 {
		t.Errorf("after reset with no records expected 1, got %d", got)
	}

	maxID = 4
	a.Reset(ctx)
	if got := a.NextID(ctx); got != 5 {
		t.Errorf("after reset with max id 4 expected 5, got %d", got)
	}
}
