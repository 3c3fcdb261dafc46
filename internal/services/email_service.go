package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"yogastudio/internal/config"
	"yogastudio/internal/models"
)

// Mailer delivers a single message to one recipient
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, plain, html string) error
	Enabled() bool
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridMailer(cfg config.SendGridConfig) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (m *SendGridMailer) Enabled() bool { return true }

func (m *SendGridMailer) Send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toEmail, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", toEmail, response.StatusCode)
	}
	return nil
}

// SESMailer sends through Amazon SES v2
type SESMailer struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
}

func NewSESMailer(ctx context.Context, cfg config.SESConfig) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESMailer{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}, nil
}

func (m *SESMailer) Enabled() bool { return true }

func (m *SESMailer) Send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(plain), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}

// NoopMailer logs and drops every message
type NoopMailer struct {
	log *zap.Logger
}

func NewNoopMailer(log *zap.Logger) *NoopMailer {
	return &NoopMailer{log: log}
}

func (m *NoopMailer) Enabled() bool { return false }

func (m *NoopMailer) Send(_ context.Context, toEmail, _, subject, _, _ string) error {
	m.log.Debug("email disabled, skipping send", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// NewMailer picks SendGrid when an API key is set, then SES when a sender is
// set, and falls back to a no-op.
func NewMailer(ctx context.Context, cfg *config.Config, log *zap.Logger) (Mailer, error) {
	switch {
	case cfg.SendGrid.APIKey != "":
		log.Info("email via sendgrid", zap.String("from", cfg.SendGrid.FromEmail))
		return NewSendGridMailer(cfg.SendGrid), nil
	case cfg.SES.FromEmail != "":
		log.Info("email via ses", zap.String("from", cfg.SES.FromEmail), zap.String("region", cfg.SES.Region))
		return NewSESMailer(ctx, cfg.SES)
	default:
		log.Info("email service disabled: no sendgrid key or ses sender configured")
		return NewNoopMailer(log), nil
	}
}

type EmailService struct {
	mailer Mailer
}

func NewEmailService(mailer Mailer) *EmailService {
	return &EmailService{mailer: mailer}
}

func (s *EmailService) Enabled() bool {
	return s.mailer.Enabled()
}

// SendWelcomeEmail greets a newly registered member
func (s *EmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	subject := "Welcome to the studio"
	plain := fmt.Sprintf("Hello %s, your account is ready. Browse the class schedule and join a group to get started.",
		user.FirstName)
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your account is ready. Browse the class schedule and join a group to get started.</p>",
		html.EscapeString(user.FirstName))
	return s.mailer.Send(ctx, user.Email, user.FullName(), subject, plain, body)
}

// SendSessionReminder tells a member about an upcoming class occurrence
func (s *EmailService) SendSessionReminder(ctx context.Context, user *models.User, group *models.Group, occurrence time.Time, kind models.ReminderType) error {
	subject := ReminderTitle(group, kind)

	when := occurrence
	if loc, err := time.LoadLocation(group.Schedule.Timezone); err == nil {
		when = occurrence.In(loc)
	}
	at := when.Format("Mon Jan 2, 3:04 PM")
	venue := venueName(group.Location)

	plain := fmt.Sprintf("Hello %s, your class %s starts %s at %s. See you on the mat!",
		user.FirstName, group.Name, at, venue)
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your class <strong>%s</strong> starts %s at %s.</p><p>See you on the mat!</p>",
		html.EscapeString(user.FirstName), html.EscapeString(group.Name), at, html.EscapeString(venue))

	return s.mailer.Send(ctx, user.Email, user.FullName(), subject, plain, body)
}

// ReminderTitle is the subject line shared by push and email reminders
func ReminderTitle(group *models.Group, kind models.ReminderType) string {
	if kind == models.Reminder24Hour {
		return fmt.Sprintf("Reminder: %s is tomorrow", group.Name)
	}
	return fmt.Sprintf("Reminder: %s starts in 1 hour", group.Name)
}

func venueName(loc models.Location) string {
	switch {
	case loc.Type == models.LocationOnline:
		return "online"
	case loc.Name != "":
		return loc.Name
	case loc.FormattedAddress != "":
		return loc.FormattedAddress
	default:
		return "the studio"
	}
}
