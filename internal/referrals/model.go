package referrals

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks a referral through enrollment.
type Status string

const (
	StatusNew      Status = "new"
	StatusEnrolled Status = "enrolled"
	StatusRewarded Status = "rewarded"
)

// Referral records a family recommending the center to another family.
type Referral struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	ReferrerName   string    `json:"referrer_name"`
	ReferrerEmail  string    `json:"referrer_email"`
	ReferredFamily string    `json:"referred_family"`
	ReferredEmail  string    `json:"referred_email,omitempty"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateReferralRequest is the body of POST /api/admin/referrals.
type CreateReferralRequest struct {
	Code           string `json:"code"`
	ReferrerName   string `json:"referrer_name"`
	ReferrerEmail  string `json:"referrer_email"`
	ReferredFamily string `json:"referred_family"`
	ReferredEmail  string `json:"referred_email"`
	Notes          string `json:"notes"`
}

var codePattern = regexp.MustCompile(`^[A-Z0-9-]{4,32}$`)

// Normalize trims fields, upper-cases the code and generates one when blank.
func (r *CreateReferralRequest) Normalize() {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Code == "" {
		r.Code = NewCode()
	}
	r.ReferrerName = strings.TrimSpace(r.ReferrerName)
	r.ReferrerEmail = strings.ToLower(strings.TrimSpace(r.ReferrerEmail))
	r.ReferredFamily = strings.TrimSpace(r.ReferredFamily)
	r.ReferredEmail = strings.ToLower(strings.TrimSpace(r.ReferredEmail))
	r.Notes = strings.TrimSpace(r.Notes)
}

// Validate validates a normalized request.
func (r *CreateReferralRequest) Validate() error {
	if r.ReferrerName == "" || !validEmail(r.ReferrerEmail) {
		return ErrInvalidReferrer
	}
	if r.ReferredFamily == "" {
		return ErrMissingFamily
	}
	if r.ReferredEmail != "" && !validEmail(r.ReferredEmail) {
		return ErrInvalidReferredEmail
	}
	if !codePattern.MatchString(r.Code) {
		return ErrInvalidCode
	}
	return nil
}

// NewCode returns an eight character referral code.
func NewCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:8])
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
