package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	return &rest.Response{StatusCode: f.status}, nil
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "", FromEmail: "hello@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "hello@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, DefaultFromName, sender.fromName)

	custom := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromName: "Custom Name"}, nil)
	require.NotNil(t, custom)
	assert.Equal(t, "Custom Name", custom.fromName)
}

func TestSendGridSender_BuildsMessage(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := &SendGridSender{client: fake, fromEmail: "hello@example.com", fromName: "Center", logger: logging.Discard()}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "parent@example.com",
		ToName:  "Maria",
		ReplyTo: "office@example.com",
		Subject: "Hi",
		Body:    "plain",
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	assert.Equal(t, "Hi", msg.Subject)
	require.Len(t, msg.Content, 1, "empty HTML body is not attached")
	assert.Equal(t, "text/plain", msg.Content[0].Type)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "office@example.com", msg.ReplyTo.Address)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "parent@example.com", msg.Personalizations[0].To[0].Address)
}

func TestSendGridSender_Errors(t *testing.T) {
	sender := &SendGridSender{client: &fakeSendGrid{status: 400}, logger: logging.Discard()}
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "a@b.co", Body: "x"}))

	sender = &SendGridSender{client: &fakeSendGrid{err: errors.New("timeout")}, logger: logging.Discard()}
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "a@b.co", Body: "x"}))

	sender = &SendGridSender{}
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "a@b.co"}))
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "hello@example.com"}, logging.Discard())
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "parent@example.com",
		ReplyTo: "office@example.com",
		Subject: "Hi",
		Body:    "plain",
		HTML:    "<p>plain</p>",
	})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, DefaultFromName+" <hello@example.com>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"office@example.com"}, in.ReplyToAddresses)
	assert.Equal(t, "plain", aws.ToString(in.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>plain</p>", aws.ToString(in.Content.Simple.Body.Html.Data))
}

func TestSESSender_Error(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{}, logging.Discard())
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "a@b.co"}))
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "recipient@example.com", Subject: "Test"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}
