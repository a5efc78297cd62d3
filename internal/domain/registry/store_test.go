package registry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

func newTestStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewStore(kv, zerolog.Nop()), kv
}

func TestNormalizeMobile(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+880 1234-567890", "+8801234567890"},
		{"8801234567890", "8801234567890"},
		{"01712 (345) 678", "01712345678"},
		{"+880+1234", "+8801234"},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeMobile(c.in); got != c.want {
			t.Errorf("NormalizeMobile(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first := s.Resolve(ctx, "Jane Doe", "+8801234567890")
	second := s.Resolve(ctx, "Jane Doe", "+880 1234-567890")

	if first.PUID != second.PUID {
		t.Errorf("same normalized mobile got two PUIDs: %d and %d", first.PUID, second.PUID)
	}
	if got := len(s.LoadAll(ctx)); got != 1 {
		t.Errorf("expected 1 registry entry, got %d", got)
	}
}

func TestResolve_AllocatesSequentialPUIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a := s.Resolve(ctx, "A", "0111111111")
	b := s.Resolve(ctx, "B", "0122222222")

	if a.PUID != 1 || b.PUID != 2 {
		t.Errorf("expected PUIDs 1 and 2, got %d and %d", a.PUID, b.PUID)
	}
	if a.LastVisitNo != 0 {
		t.Errorf("new entry should start with lastVisitNo 0, got %d", a.LastVisitNo)
	}
}

func TestResolve_RefreshesName(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Resolve(ctx, "Jane Doe", "01712345678")
	got := s.Resolve(ctx, "Jane Smith", "01712345678")

	if got.Name != "Jane Smith" {
		t.Errorf("expected refreshed name, got %q", got.Name)
	}
	entries := s.LoadAll(ctx)
	if len(entries) != 1 || entries[0].Name != "Jane Smith" {
		t.Errorf("expected persisted name refresh, got %+v", entries)
	}
}

func TestResolve_DistinguishesLeadingPlus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	withPlus := s.Resolve(ctx, "A", "+8801234567890")
	without := s.Resolve(ctx, "A", "8801234567890")

	if withPlus.PUID == without.PUID {
		t.Error("numbers differing in leading + must remain distinct patients")
	}
}

func TestIncrementVisitNo_Sequence(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	entry := s.Resolve(ctx, "Jane", "01712345678")
	for want := 1; want <= 3; want++ {
		if got := s.IncrementVisitNo(ctx, entry.PUID); got != want {
			t.Errorf("visit %d: got %d", want, got)
		}
	}
}

func TestIncrementVisitNo_UnknownPUID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Resolve(ctx, "Jane", "01712345678")
	if got := s.IncrementVisitNo(ctx, 999); got != 1 {
		t.Errorf("unknown puid should return 1, got %d", got)
	}
	entries := s.LoadAll(ctx)
	if entries[0].LastVisitNo != 0 {
		t.Errorf("unknown puid must not mutate existing entries, got %+v", entries[0])
	}
}

func TestLoadAll_CorruptBlobReadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	if err := kv.Put(ctx, kvstore.KeyPatientRegistry, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadAll(ctx); got != nil {
		t.Errorf("corrupt registry should read as empty, got %+v", got)
	}
}

func TestClearAll_ResetsPUIDSequence(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Resolve(ctx, "A", "0111111111")
	s.Resolve(ctx, "B", "0122222222")
	s.ClearAll(ctx)

	if got := len(s.LoadAll(ctx)); got != 0 {
		t.Fatalf("expected empty registry after clear, got %d entries", got)
	}
	fresh := s.Resolve(ctx, "C", "0133333333")
	if fresh.PUID != 1 {
		t.Errorf("expected PUID sequence restart at 1, got %d", fresh.PUID)
	}
}
