package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/pevans/briefsmith/article"
	"github.com/pevans/briefsmith/urlcheck"
)

// Thresholds for the selector cascades, in characters.
const (
	minHeadlineLength  = 10
	minParagraphLength = 50
	minBodyLength      = 200
	maxAuthorLength    = 100
	maxDateTextLength  = 50
)

// DateLayout is the display format for publish dates.
const DateLayout = "January 2, 2006"

// strategy pulls one candidate value out of a document. An empty result
// means the strategy did not match.
type strategy func(doc *goquery.Document) string

// firstMatch runs strategies in order and returns the first non-empty
// result.
func firstMatch(doc *goquery.Document, strategies []strategy) string {
	for _, s := range strategies {
		if v := s(doc); v != "" {
			return v
		}
	}
	return ""
}

var headlineStrategies = []strategy{
	elementText("h1.headline", minHeadlineLength),
	elementText("h1.article-headline", minHeadlineLength),
	elementText("h1.entry-title", minHeadlineLength),
	elementText("h1.post-title", minHeadlineLength),
	elementText(`h1[class*="headline"]`, minHeadlineLength),
	elementText(`h1[class*="title"]`, minHeadlineLength),
	elementText("article h1", minHeadlineLength),
	elementText(".article-header h1", minHeadlineLength),
	elementText(".story-headline", minHeadlineLength),
	metaContent(`meta[property="og:title"]`, minHeadlineLength),
	metaContent(`meta[name="twitter:title"]`, minHeadlineLength),
	elementText("title", minHeadlineLength),
	elementText("h1", minHeadlineLength),
}

// boilerplate is stripped from the document before the body is located.
const boilerplate = `script, style, nav, header, footer, aside, .advertisement, .ad, ` +
	`.social-share, .related-articles, .comments, .sidebar, ` +
	`[class*="newsletter"], [class*="subscribe"]`

var contentContainers = []string{
	"article .article-body",
	"article .story-body",
	"article .entry-content",
	"article .post-content",
	".article-content",
	".story-content",
	".entry-content",
	".post-content",
	`[class*="article-body"]`,
	`[class*="story-body"]`,
	`[itemprop="articleBody"]`,
	"article",
	"main",
	".content",
}

var bylinePrefix = regexp.MustCompile(`(?i)^by\s+`)

var authorStrategies = []strategy{
	metaContent(`meta[name="author"]`, 0),
	metaContent(`meta[property="article:author"]`, 0),
	byline(`[rel="author"]`),
	byline(".author-name"),
	byline(".byline"),
	byline(".author"),
	byline(`[class*="author"]`),
	byline(`[itemprop="author"]`),
}

var dateStrategies = []strategy{
	dateAttr(`meta[property="article:published_time"]`, "content"),
	dateAttr(`meta[name="publish-date"]`, "content"),
	dateAttr(`meta[name="date"]`, "content"),
	dateAttr("time[datetime]", "datetime"),
	shortText(".publish-date"),
	shortText(".article-date"),
	shortText(`[class*="date"]`),
	shortText(`[itemprop="datePublished"]`),
}

// Extract parses an article page into structured content. It returns nil
// when no headline is found or the body is too short to be an article,
// which callers treat as a signal to ask for manual input.
func Extract(html, pageURL string) *article.ExtractedContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return FromDocument(doc, pageURL)
}

// FromDocument is Extract for an already parsed document. The document is
// modified: boilerplate elements are removed.
func FromDocument(doc *goquery.Document, pageURL string) *article.ExtractedContent {
	headline := firstMatch(doc, headlineStrategies)
	if headline == "" {
		return nil
	}

	extracted := &article.ExtractedContent{
		Headline: headline,
		Content:  mainContent(doc),
	}
	if !extracted.Usable() {
		return nil
	}

	extracted.Author = firstMatch(doc, authorStrategies)
	extracted.PublishDate = firstMatch(doc, dateStrategies)
	extracted.SourceName = sourceName(doc, pageURL)
	extracted.SourceURL = origin(pageURL)
	return extracted
}

func mainContent(doc *goquery.Document) string {
	doc.Find(boilerplate).Remove()

	for _, selector := range contentContainers {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		if text := joinParagraphs(container.Find("p"), minParagraphLength); Length(text) > minBodyLength {
			return Normalize(text)
		}

		if text := strings.TrimSpace(container.Text()); Length(text) > minBodyLength {
			return Normalize(text)
		}
	}

	if text := joinParagraphs(doc.Find("p"), minParagraphLength); Length(text) > minBodyLength {
		return Normalize(text)
	}
	return ""
}

// joinParagraphs joins the trimmed text of every paragraph longer than
// minLen with blank lines.
func joinParagraphs(paragraphs *goquery.Selection, minLen int) string {
	var kept []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); Length(text) > minLen {
			kept = append(kept, text)
		}
	})
	return strings.Join(kept, "\n\n")
}

func sourceName(doc *goquery.Document, pageURL string) string {
	if name, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok && name != "" {
		return urlcheck.NormalizeSourceName(name)
	}
	if name, ok := doc.Find(`meta[name="publisher"]`).First().Attr("content"); ok && name != "" {
		return urlcheck.NormalizeSourceName(name)
	}
	return urlcheck.GetSourceName(pageURL)
}

func origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// elementText matches the first element for selector whose trimmed text is
// longer than minLen.
func elementText(selector string, minLen int) strategy {
	return func(doc *goquery.Document) string {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		text := strings.TrimSpace(el.Text())
		if Length(text) <= minLen {
			return ""
		}
		return Normalize(text)
	}
}

// metaContent matches the content attribute of the first element for
// selector when it is longer than minLen.
func metaContent(selector string, minLen int) strategy {
	return func(doc *goquery.Document) string {
		content, ok := doc.Find(selector).First().Attr("content")
		if !ok || content == "" || Length(content) <= minLen {
			return ""
		}
		return Normalize(content)
	}
}

func byline(selector string) strategy {
	return func(doc *goquery.Document) string {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		text := strings.TrimSpace(el.Text())
		if text == "" || Length(text) >= maxAuthorLength {
			return ""
		}
		return Normalize(bylinePrefix.ReplaceAllString(text, ""))
	}
}

func dateAttr(selector, attr string) strategy {
	return func(doc *goquery.Document) string {
		value, ok := doc.Find(selector).First().Attr(attr)
		if !ok || value == "" {
			return ""
		}
		return FormatDate(value)
	}
}

func shortText(selector string) strategy {
	return func(doc *goquery.Document) string {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		text := strings.TrimSpace(el.Text())
		if Length(text) >= maxDateTextLength {
			return ""
		}
		return text
	}
}

// FormatDate reformats any recognizable date as "January 2, 2006". Values
// that cannot be parsed are returned unchanged.
func FormatDate(value string) string {
	t, err := dateparse.ParseIn(strings.TrimSpace(value), time.UTC)
	if err != nil {
		return value
	}
	return t.Format(DateLayout)
}

var blankLines = regexp.MustCompile(`\n[ \t\r\f\v]*\n\s*`)

// Normalize collapses whitespace inside each paragraph to single spaces and
// separates paragraphs with exactly one blank line.
func Normalize(text string) string {
	var paragraphs []string
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// Length counts characters rather than bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
