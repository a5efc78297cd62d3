// Package followup derives calendar appointments from stored visit records.
// The projection is pure: it persists nothing and can be recomputed from the
// record list at any time.
package followup

import (
	"sort"
	"time"

	"github.com/chamberdesk/chamberdesk/internal/domain/visit"
)

// Appointment is one projected follow-up visit.
type Appointment struct {
	ID           int       `json:"id"`
	PUID         int       `json:"puid"`
	VisitNo      int       `json:"visitNo"`
	PatientName  string    `json:"patientName"`
	Date         time.Time `json:"date"`
	OriginalDate time.Time `json:"originalDate"`
	FollowupDays int       `json:"followupDays"`
	CCSummary    string    `json:"ccSummary,omitempty"`
}

// Day groups the appointments falling on one calendar day.
type Day struct {
	Date         string        `json:"date"` // YYYY-MM-DD, local time zone
	Appointments []Appointment `json:"appointments"`
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseVisitDate(s string) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local(), true
	}
	return time.Time{}, false
}

// Project maps records with a follow-up interval to appointments grouped by
// calendar day. The follow-up date is visit date + followupDays calendar
// days; projections strictly before today (at day granularity) are dropped.
// Days are returned ascending; within a day, appointments are ordered by
// follow-up date then record id.
func Project(records []visit.Record, today time.Time) []Day {
	today = startOfDay(today)
	byDay := make(map[string][]Appointment)

	for _, rec := range records {
		if rec.FollowupDays < 1 {
			continue
		}
		base, ok := parseVisitDate(rec.Date)
		if !ok {
			continue
		}
		due := startOfDay(base.AddDate(0, 0, rec.FollowupDays))
		if due.Before(today) {
			continue
		}

		summary := ""
		if len(rec.CC) > 0 {
			summary = rec.CC[0]
		}
		key := due.Format("2006-01-02")
		byDay[key] = append(byDay[key], Appointment{
			ID:           rec.ID,
			PUID:         rec.PUID,
			VisitNo:      rec.VisitNo,
			PatientName:  rec.Name,
			Date:         due,
			OriginalDate: startOfDay(base),
			FollowupDays: rec.FollowupDays,
			CCSummary:    summary,
		})
	}

	days := make([]Day, 0, len(byDay))
	for key, appts := range byDay {
		sort.Slice(appts, func(i, j int) bool {
			if !appts[i].Date.Equal(appts[j].Date) {
				return appts[i].Date.Before(appts[j].Date)
			}
			return appts[i].ID < appts[j].ID
		})
		days = append(days, Day{Date: key, Appointments: appts})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
