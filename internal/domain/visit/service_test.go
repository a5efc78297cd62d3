package visit

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/domain/registry"
	"github.com/chamberdesk/chamberdesk/internal/domain/sequence"
	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	kv := kvstore.NewMemory()
	log := zerolog.Nop()
	store := NewStore(kv, log)
	reg := registry.NewStore(kv, log)
	seq := sequence.New(kv, kvstore.KeyPrescriptionSeq, store.MaxID, log)
	return NewService(store, reg, seq)
}

func validInput() CreateInput {
	return CreateInput{
		Name:   "Jane Doe",
		Age:    34,
		Sex:    SexFemale,
		Mobile: "+880 1712-345678",
		Date:   "2024-01-10",
		CC:     []string{"fever", "", "  ", "cough"},
		Advice: []string{"", "rest"},
		Rx: []RxItem{
			{Drug: "Paracetamol 500mg", DurationDays: 5, TimesPerDay: "1+1+1", Timing: TimingAfter},
			{}, // all-empty: dropped
			{Drug: "  ", DurationDays: 0, TimesPerDay: "", Timing: ""}, // also empty
		},
		FollowupDays: 7,
	}
}

func TestCreate_AssignsIdentityAndFilters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	rec, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec.ID != 1 || rec.PUID != 1 || rec.VisitNo != 1 {
		t.Errorf("expected id/puid/visitNo all 1, got %d/%d/%d", rec.ID, rec.PUID, rec.VisitNo)
	}
	if rec.Mobile != "+8801712345678" {
		t.Errorf("expected normalized mobile snapshot, got %q", rec.Mobile)
	}
	if len(rec.CC) != 2 || rec.CC[0] != "fever" || rec.CC[1] != "cough" {
		t.Errorf("empty strings not filtered from cc: %v", rec.CC)
	}
	if len(rec.Rx) != 1 {
		t.Errorf("empty rx items not dropped: %+v", rec.Rx)
	}
}

func TestCreate_VisitNumbersArePerPatient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, _ := svc.Create(ctx, validInput())
	second, _ := svc.Create(ctx, validInput())

	other := validInput()
	other.Name = "Bob"
	other.Mobile = "01811111111"
	third, _ := svc.Create(ctx, other)

	if first.VisitNo != 1 || second.VisitNo != 2 {
		t.Errorf("expected visit numbers 1,2 for same patient, got %d,%d",
			first.VisitNo, second.VisitNo)
	}
	if first.PUID != second.PUID {
		t.Errorf("same patient got two PUIDs: %d, %d", first.PUID, second.PUID)
	}
	if third.PUID == first.PUID || third.VisitNo != 1 {
		t.Errorf("new patient should get a fresh PUID and visit 1, got puid=%d visitNo=%d",
			third.PUID, third.VisitNo)
	}
	if second.ID != 2 || third.ID != 3 {
		t.Errorf("record ids should be globally sequential, got %d,%d", second.ID, third.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing name", func(in *CreateInput) { in.Name = "" }},
		{"missing mobile", func(in *CreateInput) { in.Mobile = "" }},
		{"bad sex", func(in *CreateInput) { in.Sex = "unknown" }},
		{"no chief complaints", func(in *CreateInput) { in.CC = []string{"", " "} }},
		{"bad date", func(in *CreateInput) { in.Date = "10/01/2024" }},
		{"bad times per day", func(in *CreateInput) { in.Rx[0].TimesPerDay = "2+0+1" }},
		{"bad timing", func(in *CreateInput) { in.Rx[0].Timing = "midnight" }},
		{"negative followup", func(in *CreateInput) { in.FollowupDays = -1 }},
	}
	for _, c := range cases {
		in := validInput()
		c.mutate(&in)
		if _, err := svc.Create(ctx, in); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestCreate_DefaultsDateToToday(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	in := validInput()
	in.Date = ""
	rec, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Date == "" {
		t.Error("expected date to default")
	}
}

func TestUpdate_FiltersListsAndReturnsRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	rec, _ := svc.Create(ctx, validInput())

	cc := []string{"", "follow-up visit", " "}
	rx := []RxItem{{}, {Drug: "Omeprazole 20mg"}}
	got, err := svc.Update(ctx, rec.ID, Patch{CC: &cc, Rx: &rx})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.CC) != 1 || got.CC[0] != "follow-up visit" {
		t.Errorf("cc not filtered on update: %v", got.CC)
	}
	if len(got.Rx) != 1 || got.Rx[0].Drug != "Omeprazole 20mg" {
		t.Errorf("rx not filtered on update: %+v", got.Rx)
	}
}

func TestUpdate_UnknownIDReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Update(ctx, 42, Patch{}); err == nil {
		t.Error("expected not-found error")
	}
}
