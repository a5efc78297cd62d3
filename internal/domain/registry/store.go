package registry

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// Store persists the patient registry as one serialized blob plus an
// independent next-PUID counter. Storage failures degrade to empty reads and
// no-op writes: the registry never surfaces a storage error to callers.
type Store struct {
	kv  kvstore.Store
	log zerolog.Logger
}

func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// LoadAll returns every registry entry in insertion order. Missing or
// malformed blobs read as an empty registry.
func (s *Store) LoadAll(ctx context.Context) []Entry {
	raw, err := s.kv.Get(ctx, kvstore.KeyPatientRegistry)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("patient registry unreadable, treating as empty")
		}
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn().Err(err).Msg("patient registry malformed, treating as empty")
		return nil
	}
	return entries
}

func (s *Store) saveAll(ctx context.Context, entries []Entry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		s.log.Warn().Err(err).Msg("patient registry not serializable")
		return
	}
	if err := s.kv.Put(ctx, kvstore.KeyPatientRegistry, raw); err != nil {
		s.log.Warn().Err(err).Msg("patient registry not persisted")
	}
}

func (s *Store) nextPUID(ctx context.Context) int {
	raw, err := s.kv.Get(ctx, kvstore.KeyNextPUID)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("next-puid counter unreadable")
		}
		return 1
	}
	n, perr := strconv.Atoi(string(raw))
	if perr != nil || n <= 0 {
		return 1
	}
	return n
}

func (s *Store) saveNextPUID(ctx context.Context, next int) {
	if err := s.kv.Put(ctx, kvstore.KeyNextPUID, []byte(strconv.Itoa(next))); err != nil {
		s.log.Warn().Err(err).Msg("next-puid counter not persisted")
	}
}

// Resolve finds the patient registered under the normalized form of mobile,
// creating a new entry with the next PUID when none exists. A hit refreshes
// the stored name when the patient's name has changed; lastVisitNo is left
// untouched either way.
func (s *Store) Resolve(ctx context.Context, name, mobile string) Entry {
	entries := s.LoadAll(ctx)
	normMobile := NormalizeMobile(mobile)
	normName := strings.TrimSpace(name)

	for i := range entries {
		if NormalizeMobile(entries[i].Mobile) == normMobile {
			if entries[i].Name != normName {
				entries[i].Name = normName
			}
			s.saveAll(ctx, entries)
			return entries[i]
		}
	}

	next := s.nextPUID(ctx)
	entry := Entry{PUID: next, Name: normName, Mobile: normMobile, LastVisitNo: 0}
	entries = append(entries, entry)
	s.saveNextPUID(ctx, next+1)
	s.saveAll(ctx, entries)
	return entry
}

// IncrementVisitNo bumps the patient's visit counter and returns the new
// value. An unknown puid returns 1 without mutating anything; callers are
// expected to have gone through Resolve first.
func (s *Store) IncrementVisitNo(ctx context.Context, puid int) int {
	entries := s.LoadAll(ctx)
	for i := range entries {
		if entries[i].PUID == puid {
			entries[i].LastVisitNo++
			s.saveAll(ctx, entries)
			return entries[i].LastVisitNo
		}
	}
	return 1
}

// ClearAll wipes every entry and the PUID counter. Prescription-store clears
// do not reach here; only a full data reset does.
func (s *Store) ClearAll(ctx context.Context) {
	s.saveAll(ctx, []Entry{})
	if err := s.kv.Delete(ctx, kvstore.KeyNextPUID); err != nil {
		s.log.Warn().Err(err).Msg("next-puid counter not reset")
	}
}
