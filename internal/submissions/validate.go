package submissions

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Validator checks sanitized payloads against the field rules, then applies
// the date and eligibility rules that depend on today's date and the program
// table.
type Validator struct {
	programs map[string]Program
	location *time.Location
	now      func() time.Time
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithPrograms replaces the program table.
func WithPrograms(programs map[string]Program) ValidatorOption {
	return func(v *Validator) { v.programs = programs }
}

// WithLocation sets the time zone that defines "today".
func WithLocation(loc *time.Location) ValidatorOption {
	return func(v *Validator) {
		if loc != nil {
			v.location = loc
		}
	}
}

// WithValidatorClock overrides time.Now.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator builds a validator with the default programs.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		programs: DefaultPrograms(),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) today() time.Time {
	return dateOnly(v.now().In(v.location))
}

// ValidateContact normalizes p in place and returns field errors, or nil.
func (v *Validator) ValidateContact(p *ContactPayload) FieldErrors {
	p.Email = strings.ToLower(p.Email)
	return nilIfEmpty(checkRules(KindContact, p))
}

// ValidateEnrollment normalizes p in place and returns field errors, or nil.
func (v *Validator) ValidateEnrollment(p *EnrollmentPayload) FieldErrors {
	p.Email = strings.ToLower(p.Email)
	p.Program = strings.ToLower(p.Program)
	fe := checkRules(KindEnrollment, p)

	today := v.today()
	birth, birthOK := parseDate(p.ChildBirthDate)
	if birthOK && birth.After(today) {
		fe.Add("child_birth_date", "cannot be in the future")
		birthOK = false
	}
	if start, ok := parseDate(p.StartDate); ok && start.Before(today) {
		fe.Add("start_date", "cannot be in the past")
	}

	if p.Program != "" {
		program, known := v.programs[p.Program]
		switch {
		case !known:
			fe.Add("program", fmt.Sprintf("must be one of: %s", strings.Join(programNames(v.programs), ", ")))
		case birthOK:
			age := AgeInMonths(birth, today)
			if !program.Accepts(age) {
				fe.Add("program", fmt.Sprintf(
					"not eligible: child is %s months old, the %s program accepts %s to %s months",
					formatMonths(age), program.Name, formatMonths(program.MinMonths), formatMonths(program.MaxMonths)))
			}
		}
	}
	return nilIfEmpty(fe)
}

// parseDate reads a YYYY-MM-DD value. Malformed values are reported by the
// field rules, so they are only skipped here.
func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatMonths(m float64) string {
	if m == float64(int(m)) {
		return fmt.Sprintf("%d", int(m))
	}
	return fmt.Sprintf("%.1f", m)
}

func nilIfEmpty(fe FieldErrors) FieldErrors {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
