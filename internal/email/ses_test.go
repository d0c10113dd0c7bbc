package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sesv2.SendEmailOutput)
	return out, args.Error(1)
}

func newTestSES(client SESAPI) *SESSender {
	return NewSESSender(client, "no-reply@mangaalertitalia.it", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSESSenderSendsTextAndHTML(t *testing.T) {
	client := new(mockSES)
	var got *sesv2.SendEmailInput
	client.On("SendEmail", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*sesv2.SendEmailInput) }).
		Return(&sesv2.SendEmailOutput{MessageId: aws.String("0102-abc")}, nil)

	err := newTestSES(client).Send(context.Background(), Message{
		To:      "a@b.com",
		Subject: "Prossima Uscita: Solo Leveling Vol. 12 domani",
		Text:    "Ciao",
		HTML:    "<p>Ciao</p>",
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "no-reply@mangaalertitalia.it", aws.ToString(got.FromEmailAddress))
	assert.Equal(t, []string{"a@b.com"}, got.Destination.ToAddresses)
	msg := got.Content.Simple
	assert.Equal(t, "Prossima Uscita: Solo Leveling Vol. 12 domani", aws.ToString(msg.Subject.Data))
	assert.Equal(t, "UTF-8", aws.ToString(msg.Subject.Charset))
	assert.Equal(t, "Ciao", aws.ToString(msg.Body.Text.Data))
	assert.Equal(t, "<p>Ciao</p>", aws.ToString(msg.Body.Html.Data))
	client.AssertExpectations(t)
}

func TestSESSenderTextOnly(t *testing.T) {
	client := new(mockSES)
	var got *sesv2.SendEmailInput
	client.On("SendEmail", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*sesv2.SendEmailInput) }).
		Return(&sesv2.SendEmailOutput{}, nil)

	require.NoError(t, newTestSES(client).Send(context.Background(), Message{To: "a@b.com", Subject: "s", Text: "t"}))
	assert.Nil(t, got.Content.Simple.Body.Html)
}

func TestSESSenderFailureIsDeliveryError(t *testing.T) {
	rejected := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusBadRequest}},
			Err:      errors.New("MessageRejected: Email address is not verified"),
		},
		RequestID: "req-1",
	}
	client := new(mockSES)
	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, rejected).Once()
	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout")).Once()
	s := newTestSES(client)

	err := s.Send(context.Background(), Message{To: "x@b.com", Subject: "s", Text: "t"})
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusBadRequest, de.StatusCode)
	assert.Equal(t, "x@b.com", de.To)
	assert.Contains(t, err.Error(), "not verified")

	err = s.Send(context.Background(), Message{To: "y@b.com", Subject: "s", Text: "t"})
	require.ErrorAs(t, err, &de)
	assert.Zero(t, de.StatusCode)
}
