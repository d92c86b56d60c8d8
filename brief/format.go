// Package brief renders summarized articles into the formats editors paste
// into the CMS and newsletter, and stores finished briefs for later import.
package brief

import (
	"fmt"
	"strings"

	"github.com/pevans/briefsmith/article"
)

// SourcePin marks the attribution at the end of every item.
const SourcePin = "📌"

// Generated is every rendering of one article list. It is rebuilt in full
// whenever an article changes.
type Generated struct {
	HTML                string               `json:"html"`
	Plaintext           string               `json:"plaintext"`
	NewsletterHTML      string               `json:"newsletterHtml"`
	NewsletterPlaintext string               `json:"newsletterPlaintext"`
	Articles            []article.Summarized `json:"articles"`
}

// Generate renders all four formats.
func Generate(articles []article.Summarized) Generated {
	if articles == nil {
		articles = []article.Summarized{}
	}
	return Generated{
		HTML:                HTML(articles),
		Plaintext:           Plaintext(articles),
		NewsletterHTML:      NewsletterHTML(articles, ""),
		NewsletterPlaintext: NewsletterPlaintext(articles, ""),
		Articles:            articles,
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

func escape(s string) string {
	return htmlEscaper.Replace(s)
}

func htmlItem(a article.Summarized) string {
	return fmt.Sprintf(`%s <strong>%s</strong> %s %s Source: <a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
		a.Emoji, escape(a.Kicker), escape(a.Summary), SourcePin, escape(a.URL), escape(a.SourceName))
}

// HTML renders each article with a linked source, separated by blank lines.
func HTML(articles []article.Summarized) string {
	items := make([]string, len(articles))
	for i, a := range articles {
		items[i] = htmlItem(a)
	}
	return strings.Join(items, "\n\n")
}

// Plaintext renders each article with the URL in parentheses.
func Plaintext(articles []article.Summarized) string {
	items := make([]string, len(articles))
	for i, a := range articles {
		items[i] = fmt.Sprintf("%s %s %s %s Source: %s (%s)", a.Emoji, a.Kicker, a.Summary, SourcePin, a.SourceName, a.URL)
	}
	return strings.Join(items, "\n\n")
}

// NewsletterHTML renders one line per article with an unlinked source. A
// non-empty postURL adds a closing "Learn more..." link.
func NewsletterHTML(articles []article.Summarized, postURL string) string {
	if len(articles) == 0 {
		return ""
	}

	items := make([]string, len(articles))
	for i, a := range articles {
		items[i] = fmt.Sprintf("%s <strong>%s</strong> %s %s <em>%s</em>",
			a.Emoji, escape(a.Kicker), escape(a.Summary), SourcePin, escape(a.SourceName))
	}

	out := strings.Join(items, "<br>\n")
	if postURL != "" {
		out += fmt.Sprintf("<br>\n<br>\n<a href=\"%s\">Learn more...</a>", escape(postURL))
	}
	return out
}

// NewsletterPlaintext is the text-only newsletter variant.
func NewsletterPlaintext(articles []article.Summarized, postURL string) string {
	if len(articles) == 0 {
		return ""
	}

	items := make([]string, len(articles))
	for i, a := range articles {
		items[i] = fmt.Sprintf("%s %s %s %s %s", a.Emoji, a.Kicker, a.Summary, SourcePin, a.SourceName)
	}

	out := strings.Join(items, "\n")
	if postURL != "" {
		out += "\n\nLearn more... " + postURL
	}
	return out
}

// WordPressOptions controls the extra sections of a CMS post body.
type WordPressOptions struct {
	Headline              string `json:"headline,omitempty"`
	Deck                  string `json:"deck,omitempty"`
	IncludeOverview       bool   `json:"includeOverview,omitempty"`
	IncludeNewsletterForm bool   `json:"includeNewsletterSignup,omitempty"`
}

const (
	overviewItems  = 5
	overviewLength = 80
)

// WordPress renders a full post body: headline and deck (placeholders when
// empty), an optional overview of the first five items, an optional
// newsletter embed, then the reading list.
func WordPress(articles []article.Summarized, opts WordPressOptions) string {
	var parts []string

	if opts.Headline != "" {
		parts = append(parts, "<h1>"+escape(opts.Headline)+"</h1>")
	} else {
		parts = append(parts, "<h1>[HEADLINE - Editor to fill in]</h1>")
	}

	if opts.Deck != "" {
		parts = append(parts, `<p class="deck">`+escape(opts.Deck)+"</p>")
	} else {
		parts = append(parts, `<p class="deck">[DECK/STANDFIRST - Editor to fill in]</p>`)
	}

	if opts.IncludeOverview && len(articles) > 0 {
		parts = append(parts, "<h3>Overview</h3>", "<ul>")
		for _, a := range articles[:min(overviewItems, len(articles))] {
			parts = append(parts, fmt.Sprintf("<li>%s %s...</li>", escape(a.Kicker), escape(prefix(a.Summary, overviewLength))))
		}
		parts = append(parts, "</ul>")
	}

	if opts.IncludeNewsletterForm {
		parts = append(parts, "\n<!-- Newsletter Signup -->\n<div class=\"newsletter-embed\">\n[Newsletter signup widget HTML]\n</div>\n")
	}

	parts = append(parts, "<h3>What we're reading</h3>")
	for _, a := range articles {
		parts = append(parts, "<p>"+htmlItem(a)+"</p>")
	}

	return strings.Join(parts, "\n\n")
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
