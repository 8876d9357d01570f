package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
<a href="mailto:Info@RedLion.co.uk?subject=Booking">Email us</a>
<a href="mailto:noreply@redlion.co.uk">ignored</a>
<a href="tel:+44 1245 123456">Call</a>
<a href="tel:999">too short</a>
<a href="https://www.redlion.co.uk/menu">Menu</a>
<a href="/about">About</a>
<a href="https://www.redlion.co.uk/menu">Menu again</a>
</body></html>`

	l := ExtractLinks(html)
	assert.Equal(t, []string{"info@redlion.co.uk"}, l.Emails)
	assert.Equal(t, []string{"+441245123456"}, l.Phones)
	assert.Equal(t, []string{"https://www.redlion.co.uk/menu"}, l.External)
}

func TestActualWebsite(t *testing.T) {
	html := `<a href="https://www.facebook.com/sharer">share</a>
<a href="https://static.xx.fbcdn.net/x.css">cdn</a>
<a href="https://maps.google.com/?q=pub">map</a>
<a href="https://www.redlion.co.uk/home">Website</a>`

	assert.Equal(t, "https://www.redlion.co.uk",
		ActualWebsite("https://www.facebook.com/theredlion", html))
	assert.Equal(t, "", ActualWebsite("https://www.redlion.co.uk", html))
	assert.Equal(t, "", ActualWebsite("https://www.tripadvisor.co.uk/x", `<a href="https://www.tripadvisor.com/y">y</a>`))
}

func TestIsListingPage(t *testing.T) {
	assert.True(t, IsListingPage("https://www.yelp.com/biz/red-lion"))
	assert.True(t, IsListingPage("https://www.tripadvisor.co.uk/Restaurant_Review"))
	assert.False(t, IsListingPage("https://redlion.co.uk"))
}
