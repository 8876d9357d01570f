package contact

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Links are the contact anchors and outbound sites on a page.
type Links struct {
	Emails   []string
	Phones   []string
	External []string
}

// ExtractLinks collects mailto: and tel: anchors, validated like the text
// extractors, and absolute http(s) links. Unparseable html yields nothing.
func ExtractLinks(html string) Links {
	var l Links
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return l
	}

	seen := make(map[string]struct{})
	add := func(list *[]string, v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		*list = append(*list, v)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			addr := href[len("mailto:"):]
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if dec, err := url.PathUnescape(addr); err == nil {
				addr = dec
			}
			addr = strings.TrimSpace(addr)
			if IsValidEmail(addr) {
				add(&l.Emails, strings.ToLower(addr))
			}
		case strings.HasPrefix(lower, "tel:"):
			if n, ok := NormalizePhone(href[len("tel:"):]); ok {
				add(&l.Phones, n)
			}
		case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
			add(&l.External, href)
		}
	})
	return l
}

// Listing sites whose pages stand in for a venue's own website.
var listingHosts = []string{"facebook.com", "tripadvisor", "yelp.com"}

// Hosts never reported as a venue's own site.
var (
	platformDomains = []string{
		"facebook.com", "fbcdn.net", "yelp.com", "instagram.com", "twitter.com",
		"x.com", "gstatic.com", "apple.com", "w3.org", "schema.org",
	}
	platformFragments = []string{"tripadvisor", "google"}
)

// IsListingPage reports whether pageURL is a social or review listing.
func IsListingPage(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	for _, h := range listingHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// ActualWebsite returns the scheme and host of the first outbound link on a
// listing page that is not another listing or platform host. It returns ""
// for pages that are not listings.
func ActualWebsite(pageURL, html string) string {
	if !IsListingPage(pageURL) {
		return ""
	}
	for _, href := range ExtractLinks(html).External {
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			continue
		}
		if isPlatformHost(strings.ToLower(u.Hostname())) {
			continue
		}
		return u.Scheme + "://" + u.Host
	}
	return ""
}

func isPlatformHost(host string) bool {
	for _, d := range platformDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	for _, f := range platformFragments {
		if strings.Contains(host, f) {
			return true
		}
	}
	return false
}
