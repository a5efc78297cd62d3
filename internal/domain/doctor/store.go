package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// ErrNotFound is the explicit absent-profile result from GetByID.
var ErrNotFound = errors.New("doctor: profile not found")

// Store persists the doctor list as one blob plus a nullable current-doctor
// pointer. Like the visit store, storage failures degrade to empty reads and
// no-op writes.
type Store struct {
	kv  kvstore.Store
	log zerolog.Logger
	mu  sync.Mutex
}

func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// LoadAll returns every profile, newest-first by insertion.
func (s *Store) LoadAll(ctx context.Context) []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) []Profile {
	raw, err := s.kv.Get(ctx, kvstore.KeyDoctors)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("doctor list unreadable, treating as empty")
		}
		return nil
	}
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		s.log.Warn().Err(err).Msg("doctor list malformed, treating as empty")
		return nil
	}
	return profiles
}

func (s *Store) saveLocked(ctx context.Context, profiles []Profile) {
	raw, err := json.Marshal(profiles)
	if err != nil {
		s.log.Warn().Err(err).Msg("doctor list not serializable")
		return
	}
	if err := s.kv.Put(ctx, kvstore.KeyDoctors, raw); err != nil {
		s.log.Warn().Err(err).Msg("doctor list not persisted")
	}
}

// Add prepends the profile. The caller must have allocated the id.
func (s *Store) Add(ctx context.Context, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := append([]Profile{p}, s.loadLocked(ctx)...)
	s.saveLocked(ctx, profiles)
}

// Update applies the patch to the profile with the given id; silent no-op on
// unknown ids.
func (s *Store) Update(ctx context.Context, id int, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := s.loadLocked(ctx)
	for i := range profiles {
		if profiles[i].ID == id {
			patch.apply(&profiles[i])
			s.saveLocked(ctx, profiles)
			return
		}
	}
}

// GetByID returns the matching profile or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.loadLocked(ctx) {
		if p.ID == id {
			profile := p
			return &profile, nil
		}
	}
	return nil, ErrNotFound
}

// Remove deletes the profile and resolves the current-doctor invariant in
// the same logical operation: when the removed doctor was current, the sole
// remaining doctor (if exactly one) becomes current, otherwise the pointer
// is cleared.
func (s *Store) Remove(ctx context.Context, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.loadLocked(ctx)
	next := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(profiles) {
		return
	}
	s.saveLocked(ctx, next)

	current := s.currentLocked(ctx)
	if current == nil || *current != id {
		return
	}
	if len(next) == 1 {
		s.setCurrentLocked(ctx, &next[0].ID)
	} else {
		s.setCurrentLocked(ctx, nil)
	}
}

// CurrentDoctorID returns the selected doctor's id, or nil when none is
// selected.
func (s *Store) CurrentDoctorID(ctx context.Context) *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

func (s *Store) currentLocked(ctx context.Context) *int {
	raw, err := s.kv.Get(ctx, kvstore.KeyCurrentDoctor)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("current-doctor pointer unreadable")
		}
		return nil
	}
	n, perr := strconv.Atoi(string(raw))
	if perr != nil {
		return nil
	}
	return &n
}

// SetCurrentDoctorID updates the pointer; nil clears it.
func (s *Store) SetCurrentDoctorID(ctx context.Context, id *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCurrentLocked(ctx, id)
}

func (s *Store) setCurrentLocked(ctx context.Context, id *int) {
	if id == nil {
		if err := s.kv.Delete(ctx, kvstore.KeyCurrentDoctor); err != nil {
			s.log.Warn().Err(err).Msg("current-doctor pointer not cleared")
		}
		return
	}
	if err := s.kv.Put(ctx, kvstore.KeyCurrentDoctor, []byte(strconv.Itoa(*id))); err != nil {
		s.log.Warn().Err(err).Msg("current-doctor pointer not persisted")
	}
}

// Current resolves the pointer to a profile, or ErrNotFound when no doctor
// is selected or the pointed-at profile is gone.
func (s *Store) Current(ctx context.Context) (*Profile, error) {
	id := s.CurrentDoctorID(ctx)
	if id == nil {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, *id)
}

// ClearAll resets the doctor list, the doctor-id sequence, and the
// current-doctor pointer together.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx, []Profile{})
	if err := s.kv.Delete(ctx, kvstore.KeyDoctorSeq); err != nil {
		s.log.Warn().Err(err).Msg("doctor id sequence not reset")
	}
	s.setCurrentLocked(ctx, nil)
}

// MaxID reports the highest persisted profile id, used to reseed a lost id
// counter.
func (s *Store) MaxID(ctx context.Context) int {
	max := 0
	for _, p := range s.LoadAll(ctx) {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}
