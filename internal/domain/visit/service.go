package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/chamberdesk/chamberdesk/internal/domain/registry"
	"github.com/chamberdesk/chamberdesk/internal/domain/sequence"
)

// CreateInput is a validated visit as captured by the form. Identity fields
// (id, puid, visitNo) are absent: the creation flow assigns them.
type CreateInput struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Sex    Sex    `json:"sex"`
	Mobile string `json:"mobile"`
	Date   string `json:"date"`

	CC             []string `json:"cc"`
	Dx             []string `json:"dx"`
	Investigations []string `json:"investigations"`
	Advice         []string `json:"advice"`
	Rx             []RxItem `json:"rx"`

	Pulse  string `json:"pulse"`
	BP     string `json:"bp"`
	SpO2   string `json:"sp02"`
	Weight string `json:"weight"`
	Others string `json:"others"`

	FollowupDays int `json:"followupDays"`
}

// Service runs the creation flow: filter empties, resolve the patient in the
// registry, take the next visit number, allocate a record id, persist.
type Service struct {
	store    *Store
	registry *registry.Store
	seq      *sequence.Allocator
}

func NewService(store *Store, reg *registry.Store, seq *sequence.Allocator) *Service {
	return &Service{store: store, registry: reg, seq: seq}
}

// Store exposes the underlying record store for read paths.
func (s *Service) Store() *Store { return s.store }

func (in *CreateInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.Mobile == "" {
		return fmt.Errorf("mobile is required")
	}
	if !in.Sex.Valid() {
		return fmt.Errorf("sex must be male, female, or other")
	}
	if in.Age < 0 {
		return fmt.Errorf("age must not be negative")
	}
	if len(FilterList(in.CC)) == 0 {
		return fmt.Errorf("at least one chief complaint is required")
	}
	if in.FollowupDays < 0 {
		return fmt.Errorf("followupDays must be >= 1 when set")
	}
	if in.Date != "" {
		if _, err := time.Parse("2006-01-02", in.Date); err != nil {
			if _, err := time.Parse(time.RFC3339, in.Date); err != nil {
				return fmt.Errorf("date must be ISO-8601: %q", in.Date)
			}
		}
	}
	for i, r := range in.Rx {
		if r.Empty() {
			continue
		}
		if r.DurationDays < 0 {
			return fmt.Errorf("rx[%d]: durationDays must be >= 1 when set", i)
		}
		if r.TimesPerDay != "" && !ValidTimesPerDay(r.TimesPerDay) {
			return fmt.Errorf("rx[%d]: timesPerDay must match D+D+D with D in {0,1}", i)
		}
		if r.Timing != "" && !ValidTiming(r.Timing) {
			return fmt.Errorf("rx[%d]: timing must be before, after, or anytime", i)
		}
	}
	return nil
}

// Create persists a new visit record and returns it with identity assigned.
// Empty strings and all-empty rx items are filtered here, before the record
// reaches the store.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	date := in.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	entry := s.registry.Resolve(ctx, in.Name, in.Mobile)
	visitNo := s.registry.IncrementVisitNo(ctx, entry.PUID)
	id := s.seq.NextID(ctx)

	rec := Record{
		ID:             id,
		PUID:           entry.PUID,
		VisitNo:        visitNo,
		Name:           entry.Name,
		Age:            in.Age,
		Sex:            in.Sex,
		Mobile:         entry.Mobile,
		Date:           date,
		CC:             FilterList(in.CC),
		Dx:             FilterList(in.Dx),
		Investigations: FilterList(in.Investigations),
		Advice:         FilterList(in.Advice),
		Rx:             FilterRx(in.Rx),
		Pulse:          in.Pulse,
		BP:             in.BP,
		SpO2:           in.SpO2,
		Weight:         in.Weight,
		Others:         in.Others,
		FollowupDays:   in.FollowupDays,
	}

	s.store.Add(ctx, rec)
	return &rec, nil
}

// Update filters list fields present in the patch the same way Create does,
// then delegates to the store. Unknown ids remain a silent no-op; the
// refreshed record (or ErrNotFound) is returned for the API layer.
func (s *Service) Update(ctx context.Context, id int, patch Patch) (*Record, error) {
	if patch.CC != nil {
		filtered := FilterList(*patch.CC)
		patch.CC = &filtered
	}
	if patch.Dx != nil {
		filtered := FilterList(*patch.Dx)
		patch.Dx = &filtered
	}
	if patch.Investigations != nil {
		filtered := FilterList(*patch.Investigations)
		patch.Investigations = &filtered
	}
	if patch.Advice != nil {
		filtered := FilterList(*patch.Advice)
		patch.Advice = &filtered
	}
	if patch.Rx != nil {
		filtered := FilterRx(*patch.Rx)
		patch.Rx = &filtered
	}
	if patch.Sex != nil && !patch.Sex.Valid() {
		return nil, fmt.Errorf("sex must be male, female, or other")
	}

	s.store.Update(ctx, id, patch)
	return s.store.GetByID(ctx, id)
}
