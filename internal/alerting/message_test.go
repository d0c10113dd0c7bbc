package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaalert/internal/models"
)

func TestSubjectCountdown(t *testing.T) {
	r := models.Release{Title: "Jujutsu Kaisen", VolumeNumber: "26"}

	assert.Equal(t, "Prossima Uscita: Jujutsu Kaisen Vol. 26 oggi", Subject(r, 0))
	assert.Equal(t, "Prossima Uscita: Jujutsu Kaisen Vol. 26 domani", Subject(r, 1))
	assert.Equal(t, "Prossima Uscita: Jujutsu Kaisen Vol. 26 tra 30 giorni", Subject(r, 30))
}

func TestComposeEscapesHTML(t *testing.T) {
	c := NewComposer("https://mangaalertitalia.it/unsubscribe")
	r := chainsawMan(7)
	r.Title = "Tom & Jerry <3"

	msg, err := c.Compose(r, subscriber(1, "a@b.com"), 7)
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", msg.To)
	assert.Contains(t, msg.Text, "Tom & Jerry <3")
	assert.Contains(t, msg.HTML, "Tom &amp; Jerry &lt;3")
	assert.Contains(t, msg.Text, "Manga Alert Italia")
}

func TestUnsubscribeURLKeepsExistingQuery(t *testing.T) {
	c := NewComposer("https://mangaalertitalia.it/unsubscribe?lang=it")
	assert.Equal(t, "https://mangaalertitalia.it/unsubscribe?lang=it&unsubscribe_token=abc", c.UnsubscribeURL("abc"))
}
