package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minRenderedParagraph = 20
	fallbackParagraphs   = `article p, .article p, [class*="article"] p, .story-body p`
)

var titleSuffix = regexp.MustCompile(`\s*[|\-–]\s*[^|\-–]+$`)

// Rendered is what can be read off a page rendered by a logged-in browser.
type Rendered struct {
	Headline   string
	Content    string
	SourceName string
}

// FromRendered reads headline, body and site name out of a browser-rendered
// page using site-specific selectors. Unlike Extract it never fails; the
// caller decides whether the content is long enough.
func FromRendered(html, headlineSelector, contentSelector string) Rendered {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Rendered{}
	}

	headline := firstMatch(doc, []strategy{
		elementText(headlineSelector, 0),
		metaContent(`meta[property="og:title"]`, 0),
		metaContent(`meta[name="twitter:title"]`, 0),
		pageTitle,
		elementText("h1", 0),
	})

	var content string
	if container := doc.Find(contentSelector).First(); container.Length() > 0 {
		content = joinParagraphs(container.Find("p"), minRenderedParagraph)
	}
	if Length(content) < minBodyLength {
		content = joinParagraphs(doc.Find(fallbackParagraphs), minRenderedParagraph)
	}

	site, _ := doc.Find(`meta[property="og:site_name"]`).First().Attr("content")

	return Rendered{
		Headline:   headline,
		Content:    Normalize(content),
		SourceName: strings.TrimSpace(site),
	}
}

// pageTitle uses the document title with a trailing " | Site Name" or
// " - Site Name" removed.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	return strings.TrimSpace(titleSuffix.ReplaceAllString(title, ""))
}
