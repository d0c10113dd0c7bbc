package alerting

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"text/template"

	"mangaalert/internal/email"
	"mangaalert/internal/models"
)

const dateLayout = "02/01/2006"

var textBody = template.Must(template.New("text").Parse(`Ciao,

il manga '{{.Title}}' Vol. {{.Volume}} sarà disponibile il {{.Date}}.

Casa editrice: {{.Publisher}}
Link per l'acquisto: {{.Link}}

Grazie per aver utilizzato il nostro servizio.

Cordiali saluti,
Manga Alert Italia

Questo è un messaggio automatico, per favore non rispondere a questa email.
Per annullare l'iscrizione: {{.UnsubscribeURL}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>Ciao,</p>
<p>il manga <strong>{{.Title}}</strong> Vol. {{.Volume}} sarà disponibile il <strong>{{.Date}}</strong>.</p>
<p>Casa editrice: {{.Publisher}}<br>
<a href="{{.Link}}">Link per l'acquisto</a></p>
<p>Grazie per aver utilizzato il nostro servizio.</p>
<p>Cordiali saluti,<br>Manga Alert Italia</p>
<p style="font-size:small;color:#888">Questo è un messaggio automatico, per favore non rispondere a questa email.
<a href="{{.UnsubscribeURL}}">Annulla l'iscrizione</a></p>
`))

type messageData struct {
	Title          string
	Volume         string
	Date           string
	Publisher      string
	Link           string
	UnsubscribeURL string
}

// Composer renders the Italian reminder email.
type Composer struct {
	unsubscribeBase string
}

func NewComposer(unsubscribeBaseURL string) *Composer {
	return &Composer{unsubscribeBase: unsubscribeBaseURL}
}

// UnsubscribeURL links to the site page that reads the unsubscribe_token query parameter.
func (c *Composer) UnsubscribeURL(token string) string {
	u, err := url.Parse(c.unsubscribeBase)
	if err != nil {
		return c.unsubscribeBase + "?unsubscribe_token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("unsubscribe_token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Composer) Compose(release models.Release, subscriber models.Subscriber, daysAhead int) (email.Message, error) {
	data := messageData{
		Title:          release.Title,
		Volume:         release.VolumeNumber,
		Date:           release.ReleaseDate.Format(dateLayout),
		Publisher:      release.Publisher,
		Link:           release.PageLink,
		UnsubscribeURL: c.UnsubscribeURL(subscriber.UnsubscribeToken),
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return email.Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return email.Message{}, fmt.Errorf("render html body: %w", err)
	}

	return email.Message{
		To:      subscriber.EmailAddress,
		Subject: Subject(release, daysAhead),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Subject counts down to the release date.
func Subject(release models.Release, daysAhead int) string {
	var when string
	switch daysAhead {
	case 0:
		when = "oggi"
	case 1:
		when = "domani"
	default:
		when = fmt.Sprintf("tra %d giorni", daysAhead)
	}
	return fmt.Sprintf("Prossima Uscita: %s Vol. %s %s", release.Title, release.VolumeNumber, when)
}
