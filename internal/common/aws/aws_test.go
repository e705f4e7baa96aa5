package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

// ==========================
// SES
// ==========================

func TestSESClient_Send(t *testing.T) {
	api := new(MockSES)
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@example.com" &&
			in.Destination.ToAddresses[0] == "jane@example.com" &&
			aws.ToString(in.Message.Subject.Data) == "Hello" &&
			aws.ToString(in.Message.Body.Html.Data) == "<p>hi</p>"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	client := NewSESClientWithAPI(api, "noreply@example.com")
	id, err := client.Send(context.Background(), "jane@example.com", "Hello", "<p>hi</p>")

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendError(t *testing.T) {
	api := new(MockSES)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	client := NewSESClientWithAPI(api, "noreply@example.com")
	id, err := client.Send(context.Background(), "jane@example.com", "Hello", "<p>hi</p>")

	require.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "throttled")
}

// ==========================
// SNS
// ==========================

func TestSNSClient_Publish(t *testing.T) {
	api := new(MockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr := in.MessageAttributes["eventType"]
		return aws.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:1:matches" &&
			aws.ToString(attr.StringValue) == "matches.notified" &&
			aws.ToString(in.Message) == `{"applicantId":"A-1"}`
	})).Return(&sns.PublishOutput{}, nil)

	client := NewSNSClientWithAPI(api, "arn:aws:sns:us-east-1:1:matches")
	err := client.Publish(context.Background(), "matches.notified", map[string]string{"applicantId": "A-1"})

	require.NoError(t, err)
	api.AssertExpectations(t)
}
