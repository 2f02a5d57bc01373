package submissions

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/observability/metrics"
	"github.com/wolfman30/childcare-site/internal/ratelimit"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

var tracer = otel.Tracer("childcare.internal.submissions")

// Notifier delivers staff and applicant messages for a stored submission.
// Implementations must not fail the submission: problems are handled and
// logged inside.
type Notifier interface {
	NotifySubmission(ctx context.Context, sub *Submission)
}

// Config wires the pipeline collaborators.
type Config struct {
	Validator *Validator
	Limiter   ratelimit.Limiter
	Store     Store
	Notifier  Notifier
	Retry     RetryPolicy
	// StoreTimeout bounds each persist attempt. Zero means no extra bound.
	StoreTimeout  time.Duration
	DefaultLocale string
	Logger        *logging.Logger
	Metrics       *metrics.FormMetrics
	Now           func() time.Time
	NewKey        func() string
}

// Service runs the form pipeline: shape check, sanitize, validate, rate
// limit, persist with retry, notify.
type Service struct {
	validator     *Validator
	limiter       ratelimit.Limiter
	store         Store
	notifier      Notifier
	retry         RetryPolicy
	storeTimeout  time.Duration
	defaultLocale string
	logger        *logging.Logger
	metrics       *metrics.FormMetrics
	now           func() time.Time
	newKey        func() string
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("submissions: store required")
	}
	if cfg.Validator == nil {
		cfg.Validator = NewValidator()
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = locale.English
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewKey == nil {
		cfg.NewKey = uuid.NewString
	}
	return &Service{
		validator:     cfg.Validator,
		limiter:       cfg.Limiter,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		retry:         cfg.Retry,
		storeTimeout:  cfg.StoreTimeout,
		defaultLocale: cfg.DefaultLocale,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           cfg.Now,
		newKey:        cfg.NewKey,
	}, nil
}

// Handle runs one submission through the pipeline. It never panics and never
// returns internal error detail to the caller.
func (s *Service) Handle(ctx context.Context, kind Kind, raw []byte, meta RequestMeta) (res Result) {
	started := s.now()
	meta.Locale = locale.Normalize(meta.Locale, s.defaultLocale)
	lang := meta.Locale

	ctx, span := tracer.Start(ctx, "submissions.handle")
	span.SetAttributes(attribute.String("form.kind", string(kind)), attribute.String("form.locale", lang))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("submissions: pipeline panic", "kind", kind, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			span.SetStatus(codes.Error, "panic")
			res = internalFailure(lang)
		}
		span.SetAttributes(attribute.String("form.outcome", string(res.Outcome)))
		s.metrics.ObserveSubmission(string(kind), string(res.Outcome))
		s.metrics.ObservePipelineLatency(string(kind), s.now().Sub(started).Seconds())
	}()

	if !kind.Valid() {
		s.logger.Error("submissions: unknown form kind", "kind", kind)
		return internalFailure(lang)
	}

	sub, err := s.prepare(kind, raw, meta)
	if err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			s.logger.Info("submission rejected by validation", "kind", kind, "fields", len(fe))
			return validationFailure(lang, fe)
		}
		s.logger.Error("submissions: prepare failed", "kind", kind, "error", err)
		return internalFailure(lang)
	}

	decision, limited := s.checkRate(ctx, sub)
	if limited != nil {
		s.metrics.ObserveRateLimited("forms")
		s.logger.Warn("submission rate limited", "kind", kind, "ip", meta.IP, "reset_at", limited.ResetAt)
		return rateLimited(lang, limited.ResetAt)
	}

	key := meta.IdempotencyKey
	if key == "" {
		key = clientIdempotencyKey(raw)
	}
	if key != "" {
		key = scopedKey(kind, requesterID(sub), key)
	} else {
		key = s.newKey()
	}
	sub.Source.IdempotencyKey = key

	stored, attempts, err := s.persist(ctx, sub, key)
	s.metrics.ObservePersistAttempts(string(kind), attempts)
	if errors.Is(err, ErrIdempotencyConflict) {
		s.logger.Warn("idempotency key reused with a different payload", "kind", kind, "ip", meta.IP)
		return validationFailure(lang, FieldErrors{"idempotency_key": {"was already used for a different submission"}})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.Error("submissions: persist failed", "kind", kind, "attempts", attempts, "error", err)
		return Result{
			Success:         false,
			Message:         locale.Message(lang, locale.MsgTryAgainLater),
			Outcome:         OutcomeFailedPersist,
			PersistAttempts: attempts,
		}
	}

	sub.ID = stored.ID
	sub.Status = stored.Status
	sub.CreatedAt = stored.CreatedAt

	if stored.Duplicate {
		s.logger.Info("submission replayed by idempotency key", "kind", kind, "submission_id", sub.ID)
	} else {
		s.notify(ctx, sub)
	}

	res = Result{
		Success:         true,
		SubmissionID:    sub.ID,
		Status:          sub.Status,
		Message:         successMessage(lang, sub),
		NextSteps:       NextSteps(lang, sub),
		Outcome:         OutcomeSucceeded,
		PersistAttempts: attempts,
	}
	if s.limiter != nil && !decision.FailOpen {
		remaining := decision.Remaining
		res.RemainingAttempts = &remaining
	}
	s.logger.Info("submission stored",
		"kind", kind,
		"submission_id", sub.ID,
		"status", sub.Status,
		"attempts", attempts,
	)
	return res
}

// prepare decodes, sanitizes and validates raw into a Submission.
func (s *Service) prepare(kind Kind, raw []byte, meta RequestMeta) (*Submission, error) {
	payload, err := checkShape(kind, raw)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Kind: kind, Source: meta}
	switch p := payload.(type) {
	case *ContactPayload:
		p.sanitize()
		if fe := s.validator.ValidateContact(p); fe != nil {
			return nil, fe
		}
		sub.Contact = p
	case *EnrollmentPayload:
		p.sanitize()
		if fe := s.validator.ValidateEnrollment(p); fe != nil {
			return nil, fe
		}
		sub.Enrollment = p
	default:
		return nil, ErrUnknownKind
	}
	return sub, nil
}

// checkRate consults the limiter keyed by client IP, or by email when the IP
// is unknown. Limiter errors fail open.
func (s *Service) checkRate(ctx context.Context, sub *Submission) (ratelimit.Decision, *RateLimitedError) {
	if s.limiter == nil {
		return ratelimit.Decision{Allowed: true}, nil
	}
	decision, err := s.limiter.Allow(ctx, requesterID(sub))
	if err != nil {
		s.logger.Warn("rate limiter unavailable, allowing submission", "error", err)
		return ratelimit.Decision{Allowed: true, FailOpen: true}, nil
	}
	if !decision.Allowed {
		return decision, &RateLimitedError{ResetAt: decision.ResetAt}
	}
	return decision, nil
}

// requesterID identifies who sent sub: the client IP, or the email when the
// IP is unknown.
func requesterID(sub *Submission) string {
	switch {
	case sub.Source.IP != "":
		return "ip:" + sub.Source.IP
	case sub.Email() != "":
		return "email:" + sub.Email()
	}
	return ""
}

// scopedKey confines a client-supplied idempotency key to one form kind and
// one requester, so two clients choosing the same key never share a row.
func scopedKey(kind Kind, requester, clientKey string) string {
	return string(kind) + ":" + requester + ":" + clientKey
}

func (s *Service) persist(ctx context.Context, sub *Submission, key string) (*Stored, int, error) {
	ctx, span := tracer.Start(ctx, "submissions.persist")
	defer span.End()

	stored, attempts, err := Run(ctx, s.retry, func(ctx context.Context, attempt int) (*Stored, error) {
		if s.storeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
			defer cancel()
		}
		stored, err := s.store.Persist(ctx, sub, key)
		if err != nil {
			s.logger.Warn("persist attempt failed", "kind", sub.Kind, "attempt", attempt, "error", err)
			return nil, err
		}
		return stored, nil
	})
	span.SetAttributes(attribute.Int("persist.attempts", attempts))
	if err != nil {
		return nil, attempts, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return stored, attempts, nil
}

// notify runs the notifier in isolation so a misbehaving sender cannot change
// the outcome of a stored submission.
func (s *Service) notify(ctx context.Context, sub *Submission) {
	if s.notifier == nil {
		return
	}
	ctx, span := tracer.Start(ctx, "submissions.notify")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "notifier panic")
			s.logger.Error("submissions: notifier panic", "submission_id", sub.ID, "panic", fmt.Sprint(r))
		}
	}()
	s.notifier.NotifySubmission(ctx, sub)
}

func successMessage(lang string, sub *Submission) string {
	switch {
	case sub.Kind == KindContact:
		return locale.Message(lang, locale.MsgContactReceived)
	case sub.Status == StatusWaitlisted:
		return locale.Message(lang, locale.MsgEnrollmentWaitlist)
	default:
		return locale.Message(lang, locale.MsgEnrollmentReceived)
	}
}

// NextSteps lists what the submitter can expect, by kind and status.
func NextSteps(lang string, sub *Submission) []string {
	keys := []string{locale.NextConfirmationEmail}
	switch {
	case sub.Kind == KindContact:
		keys = append(keys, locale.NextContactReply)
	case sub.Status == StatusWaitlisted:
		keys = append(keys, locale.NextWaitlistPosition)
	default:
		keys = append(keys, locale.NextEnrollmentReview, locale.NextEnrollmentTour)
	}
	steps := make([]string, 0, len(keys))
	for _, k := range keys {
		steps = append(steps, locale.Message(lang, k))
	}
	return steps
}

func validationFailure(lang string, fe FieldErrors) Result {
	return Result{
		Success: false,
		Message: locale.Message(lang, locale.MsgValidationFailed),
		Errors:  fe,
		Outcome: OutcomeRejectedValidation,
	}
}

func rateLimited(lang string, resetAt time.Time) Result {
	zero := 0
	reset := resetAt.UTC()
	return Result{
		Success:           false,
		Message:           locale.Message(lang, locale.MsgRateLimited),
		RemainingAttempts: &zero,
		ResetAt:           &reset,
		Outcome:           OutcomeRejectedRateLimited,
	}
}

func internalFailure(lang string) Result {
	return Result{
		Success: false,
		Message: locale.Message(lang, locale.MsgTryAgainLater),
		Outcome: OutcomeFailedInternal,
	}
}
