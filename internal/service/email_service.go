package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"levelquiz/internal/models"
)

// sesSender is the part of the SES client the email service uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// UserLookup resolves the account a result belongs to
type UserLookup interface {
	GetUserByID(ctx context.Context, id models.UserID) (*models.User, error)
}

// EmailService sends quiz result emails via Amazon SES
type EmailService struct {
	client     sesSender
	users      UserLookup
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is skipped.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, users UserLookup, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{users: users, enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		users:      users,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyResult emails the result to its owner when they have an address on file
func (s *EmailService) NotifyResult(ctx context.Context, result *models.Result) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Email service is disabled, no result email for user %s", result.UserID)
		}
		return nil
	}

	user, err := s.users.GetUserByID(ctx, result.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user for result email: %w", err)
	}
	if user == nil || user.Email == "" {
		if s.debug {
			log.Printf("[DEBUG] User %s has no email address, skipping result email", result.UserID)
		}
		return nil
	}

	subject, htmlBody, textBody := s.resultEmail(user, result)
	return s.sendEmail(ctx, user.Email, subject, htmlBody, textBody)
}

func (s *EmailService) resultEmail(user *models.User, result *models.Result) (subject, htmlBody, textBody string) {
	name := user.DisplayName()
	pct := result.Percentage()
	subject = fmt.Sprintf("Your English level: %s", result.Level)
	resultsLink := strings.TrimRight(s.appBaseURL, "/") + "/results"

	htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Quiz complete</h1>
	<p>Hi %s,</p>
	<p>You answered <strong>%d of %d</strong> questions correctly (%.1f%%) in %d seconds.</p>
	<p>Your level: <strong>%s</strong> (%s)</p>
	<p><a href="%s">See all your results</a></p>
</body>
</html>
`, html.EscapeString(name), result.Score, result.Total, pct, result.ElapsedSeconds,
		result.Level, html.EscapeString(result.Level.Description()), resultsLink)

	textBody = fmt.Sprintf(`Hi %s,

You answered %d of %d questions correctly (%.1f%%) in %d seconds.
Your level: %s (%s)

See all your results: %s
`, name, result.Score, result.Total, pct, result.ElapsedSeconds, result.Level, result.Level.Description(), resultsLink)

	return subject, htmlBody, textBody
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] sendEmail: from=%s to=%s subject=%s", fromAddress, toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
