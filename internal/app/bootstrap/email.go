package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/childcare-site/internal/config"
	"github.com/wolfman30/childcare-site/internal/notify"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

// BuildEmailSender picks the configured provider. It returns the sender, the
// provider actually used and, when that differs from the preference, why.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.EmailFromAddress) == "" && cfg.EmailProvider != "stub" {
		return notify.NewStubEmailSender(logger), "stub", "EMAIL_FROM_ADDRESS not set"
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return notify.NewStubEmailSender(logger), "stub", "SENDGRID_API_KEY not set"
		}
		return sender, "sendgrid", ""
	case "ses":
		if awsCfg == nil {
			return notify.NewStubEmailSender(logger), "stub", "aws config unavailable"
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger), "ses", ""
	case "stub", "":
		return notify.NewStubEmailSender(logger), "stub", ""
	default:
		return notify.NewStubEmailSender(logger), "stub", "unknown EMAIL_PROVIDER " + cfg.EmailProvider
	}
}
