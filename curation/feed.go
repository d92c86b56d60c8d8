package curation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/briefsmith/fetcher"
)

// FetchFeed reads an RSS or Atom feed and turns its entries into curation
// candidates. Entries without a link are skipped. Feeds on private or
// loopback addresses are refused.
func FetchFeed(ctx context.Context, url string) ([]Candidate, error) {
	return FetchFeedWithClient(ctx, fetcher.SafeClient(fetcher.DefaultTimeout), url)
}

// FetchFeedWithClient is FetchFeed with a caller-supplied HTTP client.
func FetchFeedWithClient(ctx context.Context, client *http.Client, url string) ([]Candidate, error) {
	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = fetcher.DefaultUserAgent

	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return FeedCandidates(feed), nil
}

// FeedCandidates maps feed items to candidates, using the feed title as the
// source name.
func FeedCandidates(feed *gofeed.Feed) []Candidate {
	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:      link,
			Headline: strings.TrimSpace(item.Title),
			Source:   strings.TrimSpace(feed.Title),
		})
	}
	return candidates
}
