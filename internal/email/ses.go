package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const charsetUTF8 = "UTF-8"

// SESAPI is the slice of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES from a verified sender address.
type SESSender struct {
	client SESAPI
	from   string
	logger *slog.Logger
}

func NewSESSender(client SESAPI, from string, logger *slog.Logger) *SESSender {
	return &SESSender{client: client, from: from, logger: logger}
}

// NewSESFromRegion builds a sender from the default AWS credential chain.
func NewSESFromRegion(ctx context.Context, region, from string, logger *slog.Logger) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger), nil
}

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charsetUTF8)},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charsetUTF8)}
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
				Body:    body,
			},
		},
	})
	if err != nil {
		de := &DeliveryError{To: msg.To, Err: err}
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			de.StatusCode = re.HTTPStatusCode()
		}
		return de
	}
	s.logger.Debug("ses_email_sent", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
