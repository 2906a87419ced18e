package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"norgeskole/internal/domain"
)

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

func TestNewSESMailer_DisabledWithoutSender(t *testing.T) {
	m, err := NewSESMailer(context.Background(), "eu-north-1", "", "Norgeskole", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, m.Enabled())
	assert.NoError(t, m.SendInvite(context.Background(), "kari@skole.no", "http://localhost/invite/ABC", domain.RoleTeacher))
}

func TestSESMailer_SendInvite(t *testing.T) {
	client := new(mockSES)
	m := newSESMailer(client, "noreply@norgeskole.no", "Norgeskole", zap.NewNop())

	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		return aws.ToString(in.FromEmailAddress) == "Norgeskole <noreply@norgeskole.no>" &&
			in.Destination.ToAddresses[0] == "kari@skole.no" &&
			aws.ToString(in.Content.Simple.Subject.Data) == "Invitasjon til Norgeskole som Lærer"
	})).Return(&sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	err := m.SendInvite(context.Background(), "kari@skole.no", "http://localhost/invite/ABC", domain.RoleTeacher)

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSESMailer_SendInvite_Error(t *testing.T) {
	client := new(mockSES)
	m := newSESMailer(client, "noreply@norgeskole.no", "", zap.NewNop())

	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := m.SendInvite(context.Background(), "kari@skole.no", "http://localhost/invite/ABC", domain.RoleLearner)

	assert.ErrorContains(t, err, "throttled")
	client.AssertExpectations(t)
}
