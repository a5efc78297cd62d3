// Package sandbox generates synthetic clinic data for demo environments
// and developer on-boarding. Generation is reproducible: the same seed
// produces the same doctors, patients and prescriptions.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chamberdesk/chamberdesk/internal/domain/doctor"
	"github.com/chamberdesk/chamberdesk/internal/domain/sequence"
	"github.com/chamberdesk/chamberdesk/internal/domain/visit"
)

// SeedConfig controls the volume of generated synthetic data.
type SeedConfig struct {
	DoctorCount      int   `json:"doctorCount"`
	PatientCount     int   `json:"patientCount"`
	VisitsPerPatient int   `json:"visitsPerPatient"`
	Seed             int64 `json:"seed"`
}

// DefaultSeedConfig returns a SeedConfig sized for a small demo chamber.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		DoctorCount:      2,
		PatientCount:     25,
		VisitsPerPatient: 2,
		Seed:             1,
	}
}

var (
	firstNames = []string{
		"Abdul", "Fatema", "Rahim", "Ayesha", "Karim", "Nasrin",
		"Jahangir", "Salma", "Mominul", "Rokeya", "Shahidul", "Taslima",
	}
	lastNames = []string{
		"Karim", "Begum", "Uddin", "Rahman", "Hossain", "Akter",
		"Islam", "Khatun", "Mia", "Sultana",
	}
	complaints = []string{
		"Fever for 3 days", "Cough with sputum", "Headache",
		"Abdominal pain", "Generalized weakness", "Chest tightness",
		"Loose motion", "Burning micturition", "Joint pain", "Skin rash",
	}
	diagnoses = []string{
		"Viral fever", "Acute bronchitis", "Migraine", "Gastritis",
		"Iron deficiency anemia", "UTI", "Osteoarthritis", "Dermatitis",
	}
	investigations = []string{
		"CBC", "Urine R/M/E", "Chest X-ray P/A", "RBS", "S. Creatinine",
		"ECG", "USG of whole abdomen", "Lipid profile",
	}
	drugs = []string{
		"Tab. Paracetamol 500mg", "Cap. Omeprazole 20mg",
		"Tab. Cetirizine 10mg", "Syr. Ambroxol", "Tab. Metronidazole 400mg",
		"Cap. Amoxicillin 500mg", "Tab. Naproxen 500mg", "Tab. Montelukast 10mg",
	}
	advices = []string{
		"Plenty of fluids", "Complete bed rest", "Avoid spicy food",
		"Light diet", "Warm saline gargle", "Follow up with reports",
	}
	timesOptions  = []string{"1+1+1", "1+0+1", "1+0+0", "0+0+1"}
	timingOptions = []string{visit.TimingBefore, visit.TimingAfter, visit.TimingAnytime}

	doctorNames = []string{
		"Dr. Ayesha Rahman", "Dr. Mahbub Alam", "Dr. Sharmin Sultana",
		"Dr. Towhidul Islam",
	}
	specialties = []string{
		"Medicine Specialist", "Cardiologist", "Gynecologist", "Pediatrician",
	}
	chambers = []string{
		"Medilife Chamber, Dhanmondi, Dhaka",
		"Green Care Clinic, Uttara, Dhaka",
		"City Health Point, Agrabad, Chattogram",
	}
)

// Seeder writes synthetic data through the real stores so every
// invariant of the creation flow holds for seeded data too.
type Seeder struct {
	cfg     SeedConfig
	rng     *rand.Rand
	doctors *doctor.Store
	docSeq  *sequence.Allocator
	visits  *visit.Service
}

func NewSeeder(cfg SeedConfig, doctors *doctor.Store, docSeq *sequence.Allocator, visits *visit.Service) *Seeder {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Seeder{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		doctors: doctors,
		docSeq:  docSeq,
		visits:  visits,
	}
}

// SeedResult summarizes what was written.
type SeedResult struct {
	Doctors       int `json:"doctors"`
	Patients      int `json:"patients"`
	Prescriptions int `json:"prescriptions"`
}

func (s *Seeder) pick(pool []string) string {
	return pool[s.rng.Intn(len(pool))]
}

func (s *Seeder) pickSome(pool []string, max int) []string {
	n := 1 + s.rng.Intn(max)
	out := make([]string, 0, n)
	seen := map[string]bool{}
	for len(out) < n {
		v := s.pick(pool)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (s *Seeder) randomMobile() string {
	return fmt.Sprintf("017%08d", s.rng.Intn(100000000))
}

func (s *Seeder) randomRx() []visit.RxItem {
	n := 1 + s.rng.Intn(4)
	items := make([]visit.RxItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, visit.RxItem{
			Drug:         s.pick(drugs),
			DurationDays: []int{3, 5, 7, 10, 14}[s.rng.Intn(5)],
			TimesPerDay:  s.pick(timesOptions),
			Timing:       s.pick(timingOptions),
		})
	}
	return items
}

// Seed generates the configured doctors and patient visits. Visits are
// dated within the last 30 days so some follow-ups land in the future.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	res := &SeedResult{}

	for i := 0; i < s.cfg.DoctorCount; i++ {
		p := doctor.Profile{
			ID:             s.docSeq.NextID(ctx),
			Name:           doctorNames[i%len(doctorNames)],
			Degrees:        []string{"MBBS", "FCPS"},
			Specialty:      s.pick(specialties),
			BMDCNo:         fmt.Sprintf("A%06d", 100000+s.rng.Intn(900000)),
			ChamberName:    s.pick(chambers),
			ChamberAddress: "",
			Mobile:         s.randomMobile(),
		}
		s.doctors.Add(ctx, p)
		if s.doctors.CurrentDoctorID(ctx) == nil {
			s.doctors.SetCurrentDoctorID(ctx, &p.ID)
		}
		res.Doctors++
	}

	now := time.Now()
	for i := 0; i < s.cfg.PatientCount; i++ {
		name := s.pick(firstNames) + " " + s.pick(lastNames)
		mobile := s.randomMobile()
		age := 5 + s.rng.Intn(80)
		sex := []visit.Sex{visit.SexMale, visit.SexFemale}[s.rng.Intn(2)]

		for v := 0; v < s.cfg.VisitsPerPatient; v++ {
			date := now.AddDate(0, 0, -s.rng.Intn(30)).Format("2006-01-02")
			followup := 0
			if s.rng.Intn(2) == 0 {
				followup = []int{3, 5, 7, 14, 30}[s.rng.Intn(5)]
			}
			in := visit.CreateInput{
				Name:           name,
				Age:            age,
				Sex:            sex,
				Mobile:         mobile,
				Date:           date,
				CC:             s.pickSome(complaints, 3),
				Dx:             s.pickSome(diagnoses, 2),
				Investigations: s.pickSome(investigations, 3),
				Advice:         s.pickSome(advices, 2),
				Rx:             s.randomRx(),
				BP:             fmt.Sprintf("%d/%d", 100+s.rng.Intn(50), 60+s.rng.Intn(30)),
				Pulse:          fmt.Sprintf("%d", 60+s.rng.Intn(40)),
				SpO2:           fmt.Sprintf("%d%%", 94+s.rng.Intn(6)),
				FollowupDays:   followup,
			}
			if _, err := s.visits.Create(ctx, in); err != nil {
				return nil, fmt.Errorf("seed visit for %q: %w", name, err)
			}
			res.Prescriptions++
		}
		res.Patients++
	}

	return res, nil
}
