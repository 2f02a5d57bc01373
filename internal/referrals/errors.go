package referrals

import "errors"

var (
	// ErrInvalidReferrer is returned when the referrer name or email is missing.
	ErrInvalidReferrer = errors.New("referrer name and a valid email are required")

	// ErrMissingFamily is returned when the referred family is blank.
	ErrMissingFamily = errors.New("referred family is required")

	// ErrInvalidReferredEmail is returned when the optional family email is malformed.
	ErrInvalidReferredEmail = errors.New("referred email is invalid")

	// ErrInvalidCode is returned for codes outside [A-Z0-9-]{4,32}.
	ErrInvalidCode = errors.New("code must be 4-32 letters, digits or dashes")

	// ErrDuplicateCode is returned when the code is already taken.
	ErrDuplicateCode = errors.New("referral code already exists")

	// ErrNotFound is returned when no referral has the code.
	ErrNotFound = errors.New("referral not found")
)
