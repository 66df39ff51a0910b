package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/utils"
)

// Notifier delivers one-time codes out of band. Implementations must treat
// delivery as best-effort: the caller persists the issued code before
// dispatching, and a delivery failure never rolls that write back.
type Notifier interface {
	SendEmail(ctx context.Context, toEmail, subject, body string) error
	SendSMS(ctx context.Context, toPhone, body string) error
}

type deliveryNotifier struct {
	cfg            *config.Config
	sendgridClient *sendgrid.Client
	twilioClient   *twilio.RestClient
}

func NewNotifier(cfg *config.Config) Notifier {
	sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &deliveryNotifier{
		cfg:            cfg,
		sendgridClient: sgClient,
		twilioClient:   twClient,
	}
}

func (n *deliveryNotifier) SendEmail(ctx context.Context, toEmail, subject, body string) error {
	if n.cfg.DryRunDelivery {
		utils.Logger.Infof("Dry run: skipping verification email to %s", toEmail)
		return nil
	}

	from := mail.NewEmail(n.cfg.OrganizationName, n.cfg.SendgridFromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, fmt.Sprintf("<p>%s</p>", body))

	_, sendErr := n.sendgridClient.Send(message)
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send verification email to %s via SendGrid", toEmail)
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return nil
}

func (n *deliveryNotifier) SendSMS(ctx context.Context, toPhone, body string) error {
	if n.cfg.DryRunDelivery {
		utils.Logger.Infof("Dry run: skipping verification SMS to %s", toPhone)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toPhone)
	params.SetFrom(n.cfg.TwilioFromPhone)
	params.SetBody(body)

	_, sendErr := n.twilioClient.Api.CreateMessage(params)
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send verification SMS to %s via Twilio", toPhone)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return nil
}
