// Package visit holds the prescription/visit records that are the core of
// the prescription manager: the record model, the blob-backed store, the
// creation flow that ties records to the patient registry, and the HTTP
// handlers.
package visit

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Sex is stored as an open string; the three defined values are what the
// creation flow accepts.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

// Rx timing relative to meals.
const (
	TimingBefore  = "before"
	TimingAfter   = "after"
	TimingAnytime = "anytime"
)

// timesPerDayPattern encodes morning/afternoon/evening dosing, e.g. "1+0+1".
var timesPerDayPattern = regexp.MustCompile(`^[01]\+[01]\+[01]$`)

func ValidTimesPerDay(v string) bool { return timesPerDayPattern.MatchString(v) }

func ValidTiming(v string) bool {
	return v == TimingBefore || v == TimingAfter || v == TimingAnytime
}

// RxItem is one prescribed drug line. Zero values mean "not filled in";
// an item with every field empty is dropped before persistence.
type RxItem struct {
	Drug         string `json:"drug,omitempty"`
	DurationDays int    `json:"durationDays,omitempty"`
	TimesPerDay  string `json:"timesPerDay,omitempty"`
	Timing       string `json:"timing,omitempty"`
}

func (r RxItem) Empty() bool {
	return strings.TrimSpace(r.Drug) == "" && r.DurationDays == 0 &&
		r.TimesPerDay == "" && r.Timing == ""
}

// Record is one submitted prescription. ID, PUID and VisitNo are assigned at
// creation and immutable; name/age/sex/mobile are a snapshot of the patient
// at visit time and are not retroactively updated when the registry entry
// changes.
type Record struct {
	ID      int    `json:"id"`
	PUID    int    `json:"puid"`
	VisitNo int    `json:"visitNo"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Sex     Sex    `json:"sex"`
	Mobile  string `json:"mobile"`
	Date    string `json:"date"`

	CC             []string `json:"cc"`
	Dx             []string `json:"dx,omitempty"`
	Investigations []string `json:"investigations,omitempty"`
	Advice         []string `json:"advice,omitempty"`
	Rx             []RxItem `json:"rx,omitempty"`

	Pulse  string `json:"pulse,omitempty"`
	BP     string `json:"bp,omitempty"`
	SpO2   string `json:"sp02,omitempty"`
	Weight string `json:"weight,omitempty"`
	Others string `json:"others,omitempty"`

	FollowupDays int `json:"followupDays,omitempty"`
}

// FilterList drops empty and whitespace-only strings, preserving order.
func FilterList(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterRx drops all-empty items, preserving order.
func FilterRx(in []RxItem) []RxItem {
	var out []RxItem
	for _, r := range in {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Legacy shape migration
// ---------------------------------------------------------------------------
//
// Early versions of the app persisted rx as a bare list of drug-name strings
// and occasionally stored single strings where lists now live. The coercion
// happens once here, at decode time, producing canonical records; nothing
// downstream ever sees a legacy shape.

// flexStringList accepts a JSON array of strings or a single scalar string.
type flexStringList []string

func (f *flexStringList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		if single == "" {
			*f = nil
		} else {
			*f = []string{single}
		}
		return nil
	}
	// Unknown shape reads as empty rather than failing the whole blob.
	*f = nil
	return nil
}

// flexRxList accepts the canonical []RxItem or the legacy []string form.
type flexRxList []RxItem

func (f *flexRxList) UnmarshalJSON(b []byte) error {
	var items []RxItem
	if err := json.Unmarshal(b, &items); err == nil {
		*f = items
		return nil
	}
	var legacy []string
	if err := json.Unmarshal(b, &legacy); err == nil {
		out := make([]RxItem, 0, len(legacy))
		for _, drug := range legacy {
			if strings.TrimSpace(drug) == "" {
				continue
			}
			out = append(out, RxItem{Drug: drug})
		}
		*f = out
		return nil
	}
	*f = nil
	return nil
}

type looseRecord struct {
	ID             int            `json:"id"`
	PUID           int            `json:"puid"`
	VisitNo        int            `json:"visitNo"`
	Name           string         `json:"name"`
	Age            int            `json:"age"`
	Sex            Sex            `json:"sex"`
	Mobile         string         `json:"mobile"`
	Date           string         `json:"date"`
	CC             flexStringList `json:"cc"`
	Dx             flexStringList `json:"dx"`
	Investigations flexStringList `json:"investigations"`
	Advice         flexStringList `json:"advice"`
	Rx             flexRxList     `json:"rx"`
	Pulse          string         `json:"pulse"`
	BP             string         `json:"bp"`
	SpO2           string         `json:"sp02"`
	Weight         string         `json:"weight"`
	Others         string         `json:"others"`
	FollowupDays   int            `json:"followupDays"`
}

// decodeRecords parses a persisted blob, migrating legacy shapes to the
// canonical Record form.
func decodeRecords(raw []byte) ([]Record, error) {
	var loose []looseRecord
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}
	records := make([]Record, len(loose))
	for i, l := range loose {
		records[i] = Record{
			ID:             l.ID,
			PUID:           l.PUID,
			VisitNo:        l.VisitNo,
			Name:           l.Name,
			Age:            l.Age,
			Sex:            l.Sex,
			Mobile:         l.Mobile,
			Date:           l.Date,
			CC:             l.CC,
			Dx:             l.Dx,
			Investigations: l.Investigations,
			Advice:         l.Advice,
			Rx:             l.Rx,
			Pulse:          l.Pulse,
			BP:             l.BP,
			SpO2:           l.SpO2,
			Weight:         l.Weight,
			Others:         l.Others,
			FollowupDays:   l.FollowupDays,
		}
	}
	return records, nil
}
