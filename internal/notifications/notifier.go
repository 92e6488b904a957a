// internal/notifications/notifier.go
package notifications

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"onboarding-engine/internal/common/config"
	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/matching"
	"onboarding-engine/internal/session"
)

// Sender delivers the matches-ready notification. Delivery is best effort;
// the flow never blocks or fails on a notification error.
type Sender interface {
	NotifyMatchesReady(ctx context.Context, contact session.Contact, matches []matching.ScoredUniversity) error
}

// NoOp is used when notifications are disabled.
type NoOp struct{}

func (NoOp) NotifyMatchesReady(context.Context, session.Contact, []matching.ScoredUniversity) error {
	return nil
}

// emailClient and smsClient are the narrow AWS surfaces the sender calls.
// Satisfied by *ses.Client and *sns.Client.
type emailClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type smsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSSender sends the matches-ready message over SES email and SNS SMS,
// whichever channels are enabled and have contact info.
type AWSSender struct {
	email  emailClient
	sms    smsClient
	cfg    config.NotificationConfig
	logger logger.Logger
}

// NewAWSSender builds the enabled channel clients from a single shared AWS
// config so credential resolution happens once.
func NewAWSSender(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*AWSSender, error) {
	sender := &AWSSender{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notifications"}),
	}
	if !cfg.AWS.SES.Enabled && !cfg.AWS.SNS.Enabled {
		return sender, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.AWS.SES.Enabled {
		sender.email = ses.NewFromConfig(awsCfg)
	}
	if cfg.AWS.SNS.Enabled {
		sender.sms = sns.NewFromConfig(awsCfg)
	}
	return sender, nil
}

func (s *AWSSender) NotifyMatchesReady(ctx context.Context, contact session.Contact, matches []matching.ScoredUniversity) error {
	if len(matches) == 0 {
		return nil
	}

	var firstErr error
	if s.email != nil && contact.Email != "" {
		if err := s.sendEmail(ctx, contact.Email, matches); err != nil {
			s.logger.Warn("match email failed", map[string]interface{}{
				"error": err.Error(),
			})
			firstErr = apperrors.NewNotificationSendFailedError(err)
		}
	}
	if s.sms != nil && contact.Phone != "" {
		if err := s.sendSMS(ctx, contact.Phone, matches); err != nil {
			s.logger.Warn("match sms failed", map[string]interface{}{
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError(err)
			}
		}
	}
	return firstErr
}

func (s *AWSSender) sendEmail(ctx context.Context, to string, matches []matching.ScoredUniversity) error {
	subject := fmt.Sprintf("Your university matches are ready (%d found)", len(matches))
	body := emailBody(matches)

	_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(s.cfg.AWS.SES.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	return err
}

func (s *AWSSender) sendSMS(ctx context.Context, phone string, matches []matching.ScoredUniversity) error {
	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(smsBody(matches)),
	}
	if senderID := s.cfg.AWS.SNS.DefaultSMSSenderID; senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(senderID),
			},
		}
	}
	_, err := s.sms.Publish(ctx, input)
	return err
}

func emailBody(matches []matching.ScoredUniversity) string {
	var b strings.Builder
	b.WriteString("We found universities matching your profile.\n\nTop matches:\n")
	for i, m := range topMatches(matches, 3) {
		fmt.Fprintf(&b, "%d. %s, %s (match score %d)\n", i+1, m.Name, m.Country, m.MatchScore)
	}
	b.WriteString("\nOpen your onboarding session to see the full list.\n")
	return b.String()
}

func smsBody(matches []matching.ScoredUniversity) string {
	top := topMatches(matches, 3)
	names := make([]string, 0, len(top))
	for _, m := range top {
		names = append(names, m.Name)
	}
	return fmt.Sprintf("Your %d university matches are ready. Top picks: %s",
		len(matches), strings.Join(names, ", "))
}

func topMatches(matches []matching.ScoredUniversity, n int) []matching.ScoredUniversity {
	if len(matches) < n {
		n = len(matches)
	}
	return matches[:n]
}
