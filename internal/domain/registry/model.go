// Package registry maps normalized mobile numbers to persistent patient
// identifiers (PUIDs) and tracks each patient's visit counter. Visit numbers
// are assigned only through IncrementVisitNo, never computed by callers.
package registry

import "strings"

// Entry is one registered patient. Entries are created on a patient's first
// visit and never deleted outside a bulk clear. Name tracks the most recent
// visit; historical prescription records keep their own snapshot.
type Entry struct {
	PUID        int    `json:"puid"`
	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	LastVisitNo int    `json:"lastVisitNo"`
}

// NormalizeMobile strips every non-digit character, preserving a single
// leading "+". Matching is exact on the normalized string: "+8801..." and
// "01..." remain distinct patients, and no E.164 canonicalization is
// attempted.
func NormalizeMobile(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if i == 0 && r == '+' {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
