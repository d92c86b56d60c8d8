package curation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Pin separates a story's narrative from its source attribution.
const Pin = "📍"

// ErrNoArticles is reported when a digest yields no parseable stories.
var ErrNoArticles = errors.New("Could not parse any articles. Make sure the format matches: emoji **caption** summary 📍 Source | URL")

// Item is one story recovered from a curated digest.
type Item struct {
	ID         string `json:"id"`
	Emoji      string `json:"emoji"`
	Caption    string `json:"caption"`
	Summary    string `json:"summary"`
	SourceName string `json:"sourceName"`
	URL        string `json:"url"`
}

// Pasted digests often carry non-breaking and other Unicode spaces.
const (
	space    = `[\s\p{Zs}]`
	nonSpace = `[^\s\p{Zs}]`
)

var (
	lineBreaks    = regexp.MustCompile(`[\r\n]+`)
	versionHeader = regexp.MustCompile(`(?i)^VERSION\s*\d`)
	sectionHeader = regexp.MustCompile(`(?i)^(Full List|Short Summary)`)
	separator     = regexp.MustCompile(`^-+$`)

	// emoji **caption** summary 📍 source | url
	boldLine = regexp.MustCompile(`^(` + nonSpace + `+)` + space + `+\*\*([^*]+)\*\*` + space + `+(.+?)` + space + `*` + Pin +
		space + `*([^|]+?)` + space + `*\|` + space + `*(https?://` + nonSpace + `+)`)

	// emoji text 📍 source | url
	plainLine = regexp.MustCompile(`^(` + nonSpace + `+)` + space + `+(.+?)` + space + `*` + Pin +
		space + `*([^|]+?)` + space + `*\|` + space + `*(https?://` + nonSpace + `+)`)

	whitespace = regexp.MustCompile(space + `+`)
)

// Parse recovers stories from a digest with one story per line. Lines that
// match neither layout are skipped; an empty result is not an error here.
func Parse(raw string) []Item {
	items := []Item{}
	for _, line := range candidateLines(raw) {
		if item, ok := parseLine(line); ok {
			item.ID = uuid.NewString()
			items = append(items, item)
		}
	}
	return items
}

// candidateLines drops headers, separators and anything without a pin.
func candidateLines(raw string) []string {
	var lines []string
	for _, line := range lineBreaks.Split(raw, -1) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case versionHeader.MatchString(line):
		case sectionHeader.MatchString(line):
		case separator.MatchString(line):
		case !strings.Contains(line, Pin):
		default:
			lines = append(lines, line)
		}
	}
	return lines
}

func parseLine(line string) (Item, bool) {
	if m := boldLine.FindStringSubmatch(line); m != nil {
		return Item{
			Emoji:      strings.TrimSpace(m[1]),
			Caption:    cleanText(m[2]),
			Summary:    cleanText(m[3]),
			SourceName: cleanText(m[4]),
			URL:        strings.TrimSpace(m[5]),
		}, true
	}

	if m := plainLine.FindStringSubmatch(line); m != nil {
		caption, summary := splitCaption(cleanText(m[2]))
		return Item{
			Emoji:      strings.TrimSpace(m[1]),
			Caption:    caption,
			Summary:    summary,
			SourceName: cleanText(m[3]),
			URL:        strings.TrimSpace(m[4]),
		}, true
	}

	return Item{}, false
}

const (
	shortTextWords    = 5
	defaultSplitIndex = 3
	firstSplitIndex   = 2
	lastSplitIndex    = 6
	minSummaryWords   = 3
)

// splitCaption divides unbolded text into a caption and a summary. The
// caption ends where a new capitalized clause begins, searching word
// positions 2 through 6 while leaving at least three words of summary.
// Without such a boundary the first three words become the caption.
func splitCaption(text string) (caption, summary string) {
	words := strings.Fields(text)
	if len(words) <= shortTextWords {
		return text, ""
	}

	split := defaultSplitIndex
	last := min(lastSplitIndex, len(words)-minSummaryWords)
	for i := firstSplitIndex; i <= last; i++ {
		startsClause := startsUpper(words[i])
		prefixEndsSentence := endsSentence(words[i-1])
		if startsClause && !prefixEndsSentence {
			split = i
			break
		}
	}

	return strings.Join(words[:split], " "), strings.Join(words[split:], " ")
}

func startsUpper(word string) bool {
	for _, r := range word {
		return r >= 'A' && r <= 'Z'
	}
	return false
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}

// cleanText strips markdown emphasis, turns underscores into spaces and
// collapses whitespace.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "*", "")
	text = strings.ReplaceAll(text, "_", " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
