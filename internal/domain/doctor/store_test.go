package doctor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

func newTestDoctorStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewStore(kv, zerolog.Nop()), kv
}

func sampleProfile(id int, name string) Profile {
	return Profile{
		ID:             id,
		Name:           name,
		Degrees:        []string{"MBBS", "FCPS (Medicine)"},
		Specialty:      "Medicine",
		BMDCNo:         "A119962",
		ChamberName:    "Medilife Chamber",
		ChamberAddress: "Dhaka",
		Mobile:         "01700000000",
	}
}

func TestDoctorStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)

	want := sampleProfile(1, "Dr. Ayesha Rahman")
	s.Add(ctx, want)

	got, err := s.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, want)
	}
}

func TestDoctorStore_UpdatePatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)
	s.Add(ctx, sampleProfile(1, "Dr. A"))

	specialty := "Cardiology"
	s.Update(ctx, 1, Patch{Specialty: &specialty})

	got, _ := s.GetByID(ctx, 1)
	if got.Specialty != "Cardiology" {
		t.Errorf("specialty not patched: %q", got.Specialty)
	}
	if got.Name != "Dr. A" {
		t.Errorf("untouched field changed: %q", got.Name)
	}
}

func TestRemove_ReassignsToSoleRemainingDoctor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)

	a, b := sampleProfile(1, "Dr. A"), sampleProfile(2, "Dr. B")
	s.Add(ctx, a)
	s.Add(ctx, b)
	s.SetCurrentDoctorID(ctx, &a.ID)

	s.Remove(ctx, a.ID)

	current := s.CurrentDoctorID(ctx)
	if current == nil || *current != b.ID {
		t.Errorf("expected sole remaining doctor to become current, got %v", current)
	}
}

func TestRemove_ClearsPointerWhenSeveralRemain(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)

	a, b, c := sampleProfile(1, "Dr. A"), sampleProfile(2, "Dr. B"), sampleProfile(3, "Dr. C")
	s.Add(ctx, a)
	s.Add(ctx, b)
	s.Add(ctx, c)
	s.SetCurrentDoctorID(ctx, &a.ID)

	s.Remove(ctx, a.ID)

	if current := s.CurrentDoctorID(ctx); current != nil {
		t.Errorf("expected pointer cleared with two doctors remaining, got %d", *current)
	}
}

func TestRemove_NonCurrentLeavesPointerAlone(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)

	a, b := sampleProfile(1, "Dr. A"), sampleProfile(2, "Dr. B")
	s.Add(ctx, a)
	s.Add(ctx, b)
	s.SetCurrentDoctorID(ctx, &a.ID)

	s.Remove(ctx, b.ID)

	current := s.CurrentDoctorID(ctx)
	if current == nil || *current != a.ID {
		t.Errorf("pointer should be untouched, got %v", current)
	}
}

func TestCurrent_ResolvesProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDoctorStore(t)

	if _, err := s.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound with no selection, got %v", err)
	}

	p := sampleProfile(1, "Dr. A")
	s.Add(ctx, p)
	s.SetCurrentDoctorID(ctx, &p.ID)

	got, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.Name != "Dr. A" {
		t.Errorf("unexpected current doctor %q", got.Name)
	}
}

func TestClearAll_ResetsEverything(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestDoctorStore(t)

	p := sampleProfile(1, "Dr. A")
	s.Add(ctx, p)
	s.SetCurrentDoctorID(ctx, &p.ID)
	if err := kv.Put(ctx, kvstore.KeyDoctorSeq, []byte("1")); err != nil {
		t.Fatal(err)
	}

	s.ClearAll(ctx)

	if got := s.LoadAll(ctx); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
	if got := s.CurrentDoctorID(ctx); got != nil {
		t.Errorf("expected cleared pointer, got %d", *got)
	}
	if _, err := kv.Get(ctx, kvstore.KeyDoctorSeq); !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.Errorf("expected doctor sequence reset, got %v", err)
	}
}

func TestDoctorStore_CorruptBlobReadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestDoctorStore(t)
	if err := kv.Put(ctx, kvstore.KeyDoctors, []byte("] nope")); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadAll(ctx); got != nil {
		t.Errorf("corrupt blob should read as empty, got %+v", got)
	}
}
