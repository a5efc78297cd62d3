package visit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// ErrNotFound is the explicit absent-record result from GetByID. Update and
// Remove treat an unknown id as a silent no-op instead.
var ErrNotFound = errors.New("visit: record not found")

// Store persists the full record list as one blob, newest first. Storage and
// deserialization failures degrade to an empty list on read and a no-op on
// write; no Store method ever returns a storage error.
type Store struct {
	kv  kvstore.Store
	log zerolog.Logger

	// Snapshot cache of the last decoded list, invalidated on every write.
	// Purely an optimization: a miss just re-reads the blob.
	mu    sync.Mutex
	cache []Record
	valid bool
}

func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// LoadAll returns every record, newest-first by insertion.
func (s *Store) LoadAll(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.loadLocked(ctx)...)
}

func (s *Store) loadLocked(ctx context.Context) []Record {
	if s.valid {
		return s.cache
	}
	raw, err := s.kv.Get(ctx, kvstore.KeyPrescriptions)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("prescription list unreadable, treating as empty")
		}
		s.cache, s.valid = nil, true
		return nil
	}
	records, err := decodeRecords(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("prescription list malformed, treating as empty")
		s.cache, s.valid = nil, true
		return nil
	}
	s.cache, s.valid = records, true
	return records
}

func (s *Store) saveLocked(ctx context.Context, records []Record) {
	s.valid = false
	raw, err := json.Marshal(records)
	if err != nil {
		s.log.Warn().Err(err).Msg("prescription list not serializable")
		return
	}
	if err := s.kv.Put(ctx, kvstore.KeyPrescriptions, raw); err != nil {
		s.log.Warn().Err(err).Msg("prescription list not persisted")
		return
	}
	s.cache, s.valid = records, true
}

// Add prepends the record. Uniqueness of the id and validity of the
// (puid, visitNo) pair are the creation flow's responsibility, not the
// store's.
func (s *Store) Add(ctx context.Context, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]Record{rec}, s.loadLocked(ctx)...)
	s.saveLocked(ctx, records)
}

// Patch carries the mutable fields of a record; nil fields are left
// untouched. ID, PUID and VisitNo are immutable and deliberately absent.
type Patch struct {
	Name           *string   `json:"name,omitempty"`
	Age            *int      `json:"age,omitempty"`
	Sex            *Sex      `json:"sex,omitempty"`
	Mobile         *string   `json:"mobile,omitempty"`
	Date           *string   `json:"date,omitempty"`
	CC             *[]string `json:"cc,omitempty"`
	Dx             *[]string `json:"dx,omitempty"`
	Investigations *[]string `json:"investigations,omitempty"`
	Advice         *[]string `json:"advice,omitempty"`
	Rx             *[]RxItem `json:"rx,omitempty"`
	Pulse          *string   `json:"pulse,omitempty"`
	BP             *string   `json:"bp,omitempty"`
	SpO2           *string   `json:"sp02,omitempty"`
	Weight         *string   `json:"weight,omitempty"`
	Others         *string   `json:"others,omitempty"`
	FollowupDays   *int      `json:"followupDays,omitempty"`
}

func (p Patch) apply(r *Record) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Age != nil {
		r.Age = *p.Age
	}
	if p.Sex != nil {
		r.Sex = *p.Sex
	}
	if p.Mobile != nil {
		r.Mobile = *p.Mobile
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.CC != nil {
		r.CC = *p.CC
	}
	if p.Dx != nil {
		r.Dx = *p.Dx
	}
	if p.Investigations != nil {
		r.Investigations = *p.Investigations
	}
	if p.Advice != nil {
		r.Advice = *p.Advice
	}
	if p.Rx != nil {
		r.Rx = *p.Rx
	}
	if p.Pulse != nil {
		r.Pulse = *p.Pulse
	}
	if p.BP != nil {
		r.BP = *p.BP
	}
	if p.SpO2 != nil {
		r.SpO2 = *p.SpO2
	}
	if p.Weight != nil {
		r.Weight = *p.Weight
	}
	if p.Others != nil {
		r.Others = *p.Others
	}
	if p.FollowupDays != nil {
		r.FollowupDays = *p.FollowupDays
	}
}

// Update applies the patch to the record with the given id. Unknown ids are
// a silent no-op.
func (s *Store) Update(ctx context.Context, id int, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.loadLocked(ctx)
	for i := range records {
		if records[i].ID == id {
			next := append([]Record(nil), records...)
			patch.apply(&next[i])
			s.saveLocked(ctx, next)
			return
		}
	}
}

// Remove deletes the record with the given id; no-op if absent.
func (s *Store) Remove(ctx context.Context, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.loadLocked(ctx)
	next := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	if len(next) != len(records) {
		s.saveLocked(ctx, next)
	}
}

// GetByID returns the matching record or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.loadLocked(ctx) {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// ClearAll empties the list and resets the record-id sequence so ids restart
// at 1. The patient registry and its counters are untouched.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx, []Record{})
	if err := s.kv.Delete(ctx, kvstore.KeyPrescriptionSeq); err != nil {
		s.log.Warn().Err(err).Msg("prescription id sequence not reset")
	}
}

// MaxID reports the highest persisted record id, used to reseed a lost id
// counter.
func (s *Store) MaxID(ctx context.Context) int {
	max := 0
	for _, r := range s.LoadAll(ctx) {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}
