package submissions

import (
	"sort"
	"time"
)

// Program is an enrollment option with an inclusive age range in months.
type Program struct {
	Name      string
	MinMonths float64
	MaxMonths float64
}

// DefaultPrograms are the programs offered by the center.
func DefaultPrograms() map[string]Program {
	return map[string]Program{
		"infant":    {Name: "infant", MinMonths: 1.5, MaxMonths: 15},
		"toddler":   {Name: "toddler", MinMonths: 15, MaxMonths: 36},
		"preschool": {Name: "preschool", MinMonths: 36, MaxMonths: 60},
		"prek":      {Name: "prek", MinMonths: 48, MaxMonths: 72},
	}
}

// Accepts reports whether ageMonths is inside the range, boundaries included.
func (p Program) Accepts(ageMonths float64) bool {
	return ageMonths >= p.MinMonths && ageMonths <= p.MaxMonths
}

func programNames(programs map[string]Program) []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AgeInMonths returns whole calendar months between birth and on plus the
// elapsed fraction of the current month. Both dates are taken at midnight UTC
// of their calendar day.
func AgeInMonths(birth, on time.Time) float64 {
	birth = dateOnly(birth)
	on = dateOnly(on)
	if on.Before(birth) {
		return 0
	}
	months := (on.Year()-birth.Year())*12 + int(on.Month()) - int(birth.Month())
	anniversary := birth.AddDate(0, months, 0)
	for anniversary.After(on) {
		months--
		anniversary = birth.AddDate(0, months, 0)
	}
	next := birth.AddDate(0, months+1, 0)
	span := next.Sub(anniversary)
	if span <= 0 {
		return float64(months)
	}
	return float64(months) + float64(on.Sub(anniversary))/float64(span)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
