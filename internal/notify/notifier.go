package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/notify/templates"
	"github.com/wolfman30/childcare-site/internal/observability/metrics"
	"github.com/wolfman30/childcare-site/internal/submissions"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

var tracer = otel.Tracer("childcare.internal.notify")

const (
	staffSubjectTmpl = `{{if .Urgent}}[Action needed] {{end}}{{.Title}}: {{.Who}}`

	staffBodyTmpl = `{{.Title}}
Status: {{.Status}}
Reference: {{.ID}}
Received: {{.Received}}
Language: {{.Locale}}
{{range .Fields}}
{{.Label}}: {{.Value}}{{end}}
`

	applicantBodyTmpl = `{{.Greeting}} {{.Name}},

{{.Message}}

{{.Intro}}

{{.ReferenceLabel}}: {{.ID}}

{{.NextStepsLabel}}:{{range .NextSteps}}
- {{.}}{{end}}

{{.SiteName}}
`
)

// Config configures a Notifier.
type Config struct {
	// StaffEmail receives internal notifications. Empty disables them.
	StaffEmail string
	SiteName   string
	// Timeout bounds each send. Zero means 10 seconds.
	Timeout  time.Duration
	Location *time.Location
	Metrics  *metrics.FormMetrics
}

// Delivery is the result of one send.
type Delivery struct {
	Attempted bool
	Err       error
}

// Report describes what a NotifySubmission call did.
type Report struct {
	Staff     Delivery
	Applicant Delivery
}

// Notifier sends the staff notification and applicant confirmation for a
// stored submission. The two sends are independent and failures are only
// logged.
type Notifier struct {
	email      EmailSender
	staffEmail string
	siteName   string
	timeout    time.Duration
	location   *time.Location
	renderer   *templates.Renderer
	metrics    *metrics.FormMetrics
	logger     *logging.Logger
}

// NewNotifier creates a notifier. A nil sender disables delivery.
func NewNotifier(email EmailSender, cfg Config, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SiteName == "" {
		cfg.SiteName = DefaultFromName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Notifier{
		email:      email,
		staffEmail: cfg.StaffEmail,
		siteName:   cfg.SiteName,
		timeout:    cfg.Timeout,
		location:   cfg.Location,
		renderer:   templates.NewRenderer(),
		metrics:    cfg.Metrics,
		logger:     logger,
	}
}

// NotifySubmission implements submissions.Notifier.
func (n *Notifier) NotifySubmission(ctx context.Context, sub *submissions.Submission) {
	n.Notify(ctx, sub)
}

// Notify sends both messages and reports the outcome of each.
func (n *Notifier) Notify(ctx context.Context, sub *submissions.Submission) Report {
	var report Report
	if n.email == nil || sub == nil {
		return report
	}

	// Sends outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "notify.submission")
	defer span.End()
	span.SetAttributes(attribute.String("submission.kind", string(sub.Kind)), attribute.String("submission.id", sub.ID))

	if n.staffEmail != "" {
		report.Staff = n.deliver(ctx, "staff", sub, n.staffMessage)
	}
	if sub.Email() != "" {
		report.Applicant = n.deliver(ctx, "applicant", sub, n.applicantMessage)
	}
	return report
}

func (n *Notifier) deliver(ctx context.Context, audience string, sub *submissions.Submission, build func(*submissions.Submission) (EmailMessage, error)) (d Delivery) {
	d.Attempted = true
	defer func() {
		if r := recover(); r != nil {
			d.Err = fmt.Errorf("notify: %s send panicked: %v", audience, r)
		}
		if d.Err != nil {
			n.logger.Error("notification failed", "audience", audience, "submission_id", sub.ID, "error", d.Err)
		}
		n.metrics.ObserveNotification(audience, d.Err == nil)
	}()

	msg, err := build(sub)
	if err != nil {
		d.Err = err
		return d
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	d.Err = n.email.Send(sendCtx, msg)
	return d
}

type field struct {
	Label string
	Value string
}

func (n *Notifier) staffMessage(sub *submissions.Submission) (EmailMessage, error) {
	title, who, urgent := "New contact message", sub.SubmitterName(), false
	var fields []field
	switch {
	case sub.Contact != nil:
		c := sub.Contact
		if c.Subject != "" {
			title = "Contact: " + c.Subject
		}
		fields = nonEmpty(
			field{"Name", c.Name},
			field{"Email", c.Email},
			field{"Phone", c.Phone},
			field{"Message", c.Message},
		)
	case sub.Enrollment != nil:
		e := sub.Enrollment
		urgent = true
		title = "Enrollment request"
		if sub.Status == submissions.StatusWaitlisted {
			title = "Waitlisted enrollment request"
		}
		who = fmt.Sprintf("%s (%s)", e.ChildName, e.Program)
		fields = nonEmpty(
			field{"Parent", e.ParentName},
			field{"Email", e.Email},
			field{"Phone", e.Phone},
			field{"ZIP", e.Zip},
			field{"Child", e.ChildName},
			field{"Birth date", e.ChildBirthDate},
			field{"Program", e.Program},
			field{"Start date", e.StartDate},
			field{"Schedule", e.Schedule},
			field{"Notes", e.Notes},
		)
	default:
		return EmailMessage{}, submissions.ErrUnknownKind
	}

	data := map[string]any{
		"Urgent":   urgent,
		"Title":    title,
		"Who":      who,
		"Status":   string(sub.Status),
		"ID":       sub.ID,
		"Received": sub.CreatedAt.In(n.location).Format("Mon Jan 2, 2006 3:04 PM MST"),
		"Locale":   sub.Source.Locale,
		"Fields":   fields,
	}
	subject, err := n.renderer.Render("staff_subject", staffSubjectTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	body, err := n.renderer.Render("staff_body", staffBodyTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      n.staffEmail,
		ReplyTo: sub.Email(),
		Subject: subject,
		Body:    body,
	}, nil
}

func (n *Notifier) applicantMessage(sub *submissions.Submission) (EmailMessage, error) {
	lang := locale.Normalize(sub.Source.Locale, locale.English)
	message := locale.Message(lang, locale.MsgContactReceived)
	if sub.Kind == submissions.KindEnrollment {
		message = locale.Message(lang, locale.MsgEnrollmentReceived)
		if sub.Status == submissions.StatusWaitlisted {
			message = locale.Message(lang, locale.MsgEnrollmentWaitlist)
		}
	}

	data := map[string]any{
		"Greeting":       locale.Message(lang, locale.MsgConfirmGreeting),
		"Name":           sub.SubmitterName(),
		"Message":        message,
		"Intro":          locale.Message(lang, locale.MsgConfirmBody),
		"ReferenceLabel": locale.Message(lang, locale.MsgConfirmReference),
		"ID":             sub.ID,
		"NextStepsLabel": locale.Message(lang, locale.MsgConfirmNextSteps),
		"NextSteps":      applicantSteps(lang, sub),
		"SiteName":       n.siteName,
	}
	body, err := n.renderer.Render("applicant_body", applicantBodyTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      sub.Email(),
		ToName:  sub.SubmitterName(),
		Subject: fmt.Sprintf("%s - %s", locale.Message(lang, locale.MsgConfirmSubject), n.siteName),
		Body:    strings.TrimSpace(body) + "\n",
	}, nil
}

// applicantSteps drops the "you will get an email" step from the email itself.
func applicantSteps(lang string, sub *submissions.Submission) []string {
	skip := locale.Message(lang, locale.NextConfirmationEmail)
	var steps []string
	for _, s := range submissions.NextSteps(lang, sub) {
		if s != skip {
			steps = append(steps, s)
		}
	}
	return steps
}

func nonEmpty(fields ...field) []field {
	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f.Value) != "" {
			out = append(out, f)
		}
	}
	return out
}

var _ submissions.Notifier = (*Notifier)(nil)
