package submissions

import (
	"time"
)

// Kind identifies which form produced a submission.
type Kind string

const (
	KindContact    Kind = "contact"
	KindEnrollment Kind = "enrollment"
)

// Valid reports whether k is a known form kind.
func (k Kind) Valid() bool {
	return k == KindContact || k == KindEnrollment
}

// Status is assigned by the store when a submission is persisted.
type Status string

const (
	StatusPending    Status = "pending"
	StatusWaitlisted Status = "waitlisted"
	StatusRejected   Status = "rejected"
)

// ContactPayload is the body of the contact form.
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// EnrollmentPayload is the body of the enrollment form.
type EnrollmentPayload struct {
	ParentName     string `json:"parent_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Zip            string `json:"zip"`
	ChildName      string `json:"child_name"`
	ChildBirthDate string `json:"child_birth_date"`
	Program        string `json:"program"`
	StartDate      string `json:"start_date"`
	Schedule       string `json:"schedule,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// RequestMeta describes where a submission came from.
type RequestMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Locale    string `json:"locale,omitempty"`
	// IdempotencyKey is supplied by the client (header or nonce field) or
	// generated once per request, and reused across persist retries.
	IdempotencyKey string `json:"-"`
}

// Submission is a sanitized, validated form record. Exactly one of Contact
// and Enrollment is set, matching Kind. ID and Status are empty until the
// store accepts it.
type Submission struct {
	ID         string             `json:"id,omitempty"`
	Kind       Kind               `json:"kind"`
	Status     Status             `json:"status,omitempty"`
	Contact    *ContactPayload    `json:"contact,omitempty"`
	Enrollment *EnrollmentPayload `json:"enrollment,omitempty"`
	Source     RequestMeta        `json:"source"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Email returns the submitter's address regardless of kind.
func (s *Submission) Email() string {
	switch {
	case s.Contact != nil:
		return s.Contact.Email
	case s.Enrollment != nil:
		return s.Enrollment.Email
	}
	return ""
}

// SubmitterName returns the person to address in messages.
func (s *Submission) SubmitterName() string {
	switch {
	case s.Contact != nil:
		return s.Contact.Name
	case s.Enrollment != nil:
		return s.Enrollment.ParentName
	}
	return ""
}

// Program returns the enrollment program, or "" for contact requests.
func (s *Submission) Program() string {
	if s.Enrollment != nil {
		return s.Enrollment.Program
	}
	return ""
}

// Stored is what the store reports after a successful persist.
type Stored struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	// Duplicate is true when the idempotency key matched an earlier row.
	Duplicate bool
}

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeSucceeded           Outcome = "succeeded"
	OutcomeRejectedValidation  Outcome = "rejected_validation"
	OutcomeRejectedRateLimited Outcome = "rejected_rate_limited"
	OutcomeFailedPersist       Outcome = "failed_persist"
	OutcomeFailedInternal      Outcome = "failed_internal"
)

// Result is returned to the caller of the pipeline and serialized as the
// HTTP response body.
type Result struct {
	Success           bool                `json:"success"`
	SubmissionID      string              `json:"submissionId,omitempty"`
	Status            Status              `json:"status,omitempty"`
	Message           string              `json:"message"`
	Errors            map[string][]string `json:"errors,omitempty"`
	NextSteps         []string            `json:"nextSteps,omitempty"`
	RemainingAttempts *int                `json:"remainingAttempts,omitempty"`
	ResetAt           *time.Time          `json:"resetAt,omitempty"`

	Outcome Outcome `json:"-"`
	// PersistAttempts counts store calls made for this result.
	PersistAttempts int `json:"-"`
}
