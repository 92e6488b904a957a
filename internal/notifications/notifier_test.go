// internal/notifications/notifier_test.go
package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-engine/internal/catalog"
	"onboarding-engine/internal/common/config"
	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/matching"
	"onboarding-engine/internal/session"
)

type fakeEmailClient struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmailClient) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{}, f.err
}

type fakeSMSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSMSClient) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

func testSender(t *testing.T, email *fakeEmailClient, sms *fakeSMSClient) *AWSSender {
	t.Helper()
	var cfg config.NotificationConfig
	cfg.AWS.SES.FromEmail = "noreply@example.com"
	cfg.AWS.SNS.DefaultSMSSenderID = "UNIMATCH"

	s := &AWSSender{cfg: cfg, logger: logger.NewTestLogger(t)}
	if email != nil {
		s.email = email
	}
	if sms != nil {
		s.sms = sms
	}
	return s
}

func matches(names ...string) []matching.ScoredUniversity {
	out := make([]matching.ScoredUniversity, 0, len(names))
	for i, name := range names {
		out = append(out, matching.ScoredUniversity{
			CandidateUniversity: catalog.CandidateUniversity{Name: name, Country: "Canada"},
			MatchScore:          90 - i,
		})
	}
	return out
}

func TestNoOpSender(t *testing.T) {
	err := NoOp{}.NotifyMatchesReady(context.Background(), session.Contact{Email: "a@b.c"}, matches("Uni A"))
	assert.NoError(t, err)
}

func TestNotifySendsBothChannels(t *testing.T) {
	email := &fakeEmailClient{}
	sms := &fakeSMSClient{}
	s := testSender(t, email, sms)

	contact := session.Contact{Email: "a@b.c", Phone: "+15550100"}
	err := s.NotifyMatchesReady(context.Background(), contact, matches("Uni A", "Uni B"))
	require.NoError(t, err)

	require.Len(t, email.inputs, 1)
	assert.Equal(t, "noreply@example.com", *email.inputs[0].Source)
	assert.Equal(t, []string{"a@b.c"}, email.inputs[0].Destination.ToAddresses)
	assert.Contains(t, *email.inputs[0].Message.Subject.Data, "2 found")

	require.Len(t, sms.inputs, 1)
	assert.Equal(t, "+15550100", *sms.inputs[0].PhoneNumber)
	attr, ok := sms.inputs[0].MessageAttributes["AWS.SNS.SMS.SenderID"]
	require.True(t, ok)
	assert.Equal(t, "UNIMATCH", *attr.StringValue)
}

func TestNotifySkipsChannelsWithoutContact(t *testing.T) {
	email := &fakeEmailClient{}
	sms := &fakeSMSClient{}
	s := testSender(t, email, sms)

	err := s.NotifyMatchesReady(context.Background(), session.Contact{Email: "a@b.c"}, matches("Uni A"))
	require.NoError(t, err)

	assert.Len(t, email.inputs, 1)
	assert.Empty(t, sms.inputs)
}

func TestNotifyEmptyMatchesIsSilent(t *testing.T) {
	email := &fakeEmailClient{}
	s := testSender(t, email, nil)

	err := s.NotifyMatchesReady(context.Background(), session.Contact{Email: "a@b.c"}, nil)
	require.NoError(t, err)
	assert.Empty(t, email.inputs)
}

func TestNotifyReportsFirstFailure(t *testing.T) {
	email := &fakeEmailClient{err: errors.New("throttled")}
	sms := &fakeSMSClient{}
	s := testSender(t, email, sms)

	contact := session.Contact{Email: "a@b.c", Phone: "+15550100"}
	err := s.NotifyMatchesReady(context.Background(), contact, matches("Uni A"))

	require.Error(t, err)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, code)

	// The SMS channel still went out despite the email failure.
	assert.Len(t, sms.inputs, 1)
}

func TestEmailBodyListsTopThree(t *testing.T) {
	body := emailBody(matches("Uni A", "Uni B", "Uni C", "Uni D"))

	assert.Contains(t, body, "1. Uni A")
	assert.Contains(t, body, "3. Uni C")
	assert.NotContains(t, body, "Uni D")
	assert.Contains(t, body, "match score 90")
}

func TestSMSBody(t *testing.T) {
	body := smsBody(matches("Uni A", "Uni B"))

	assert.Contains(t, body, "2 university matches")
	assert.Contains(t, body, "Uni A, Uni B")
}

func TestTopMatchesShorterThanLimit(t *testing.T) {
	top := topMatches(matches("Only One"), 3)
	require.Len(t, top, 1)
	assert.Equal(t, "Only One", top[0].Name)
}
