package email

import (
	"context"
	"errors"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender delivers through the SendGrid v3 mail/send API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridSender targets host, e.g. https://api.sendgrid.com.
func NewSendGridSender(host, apiKey, from string) *SendGridSender {
	request := sendgrid.GetRequest(apiKey, sendGridEndpoint, host)
	request.Method = rest.Post
	return &SendGridSender{
		client: &sendgrid.Client{Request: request},
		from:   mail.NewEmail(senderName, from),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)

	// text/plain must come before text/html
	m.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			To:         msg.To,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(resp.Body)),
		}
	}
	return nil
}
