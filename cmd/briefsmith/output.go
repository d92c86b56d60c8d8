package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pevans/briefsmith/article"
	"github.com/pevans/briefsmith/brief"
	"github.com/pevans/briefsmith/browser"
	"github.com/pevans/briefsmith/curation"
)

// Brief output formats.
const (
	formatHTML           = "html"
	formatPlaintext      = "plaintext"
	formatNewsletter     = "newsletter"
	formatNewsletterText = "newsletter-text"
	formatWordPress      = "wordpress"
	formatJSON           = "json"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printBrief writes the brief in the requested format.
func printBrief(w io.Writer, g *brief.Generated, format, postURL string) error {
	switch format {
	case formatHTML:
		fmt.Fprintln(w, g.HTML)
	case formatPlaintext:
		fmt.Fprintln(w, g.Plaintext)
	case formatNewsletter:
		fmt.Fprintln(w, brief.NewsletterHTML(g.Articles, postURL))
	case formatNewsletterText:
		fmt.Fprintln(w, brief.NewsletterPlaintext(g.Articles, postURL))
	case formatWordPress:
		fmt.Fprintln(w, brief.WordPress(g.Articles, brief.WordPressOptions{}))
	case formatJSON:
		return printJSON(w, g)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func printFailures(w io.Writer, failures []article.ProcessingError) {
	for _, f := range failures {
		if f.URL != "" {
			fmt.Fprintf(w, "✗ %s: %s\n", f.URL, f.Error)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s\n", f.ID, f.Error)
	}
}

func printContent(w io.Writer, c *article.ExtractedContent) {
	fmt.Fprintln(w, c.Headline)
	fmt.Fprintf(w, "   %s", c.SourceName)
	if c.Author != "" {
		fmt.Fprintf(w, " | %s", c.Author)
	}
	if c.PublishDate != "" {
		fmt.Fprintf(w, " | Published: %s", c.PublishDate)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Content)
}

func printItems(w io.Writer, items []curation.Item) {
	for _, item := range items {
		fmt.Fprintf(w, "%s %s\n", item.Emoji, item.Caption)
		fmt.Fprintf(w, "   %s\n", truncate(item.Summary, 150))
		fmt.Fprintf(w, "   %s | %s\n", item.SourceName, item.URL)
		fmt.Fprintln(w)
	}
}

func printCandidates(w io.Writer, candidates []curation.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No entries in feed.")
		return
	}
	for _, c := range candidates {
		fmt.Fprintln(w, truncate(c.Headline, 70))
		fmt.Fprintf(w, "   %s | %s\n", c.Source, c.URL)
	}
}

func printSites(w io.Writer, statuses []browser.SiteStatus) {
	fmt.Fprintf(w, "%-24s %-40s %-8s %s\n", "KEY", "NAME", "SESSION", "DOMAINS")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------------")
	for _, s := range statuses {
		session := "-"
		if s.HasSession {
			session = "✓"
		}
		fmt.Fprintf(w, "%-24s %-40s %-8s %s\n", s.Key, truncate(s.Name, 40), session, strings.Join(s.Domains, ", "))
	}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
