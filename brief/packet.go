package brief

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/briefsmith/article"
)

const (
	// MaxSaved is how many briefs a store keeps.
	MaxSaved = 50

	// PacketTTL is how long the Redis store keeps a brief.
	PacketTTL = 30 * 24 * time.Hour
)

var ErrNoArticles = errors.New("At least one article is required")

// PacketArticle is one item in a saved brief.
type PacketArticle struct {
	Emoji      string `json:"emoji"`
	Caption    string `json:"caption"`
	Summary    string `json:"summary"`
	SourceName string `json:"sourceName"`
	URL        string `json:"url"`
}

// Packet is a finished brief saved for the newsletter builder.
type Packet struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"createdAt"`
	PostURL   *string         `json:"postUrl"`
	Articles  []PacketArticle `json:"articles"`
}

// NewPacket builds a packet with a fresh id. An empty title becomes
// "News brief — <date>".
func NewPacket(title, postURL string, articles []PacketArticle, now time.Time) (*Packet, error) {
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	if title == "" {
		title = "News brief — " + now.Format("Jan 2, 2006")
	}

	p := &Packet{
		ID:        "brief-" + uuid.NewString(),
		Title:     title,
		CreatedAt: now.UTC().Truncate(time.Millisecond),
		Articles:  articles,
	}
	if postURL != "" {
		p.PostURL = &postURL
	}
	return p, nil
}

// PacketArticles converts summarized articles to packet items. The kicker
// becomes the caption.
func PacketArticles(articles []article.Summarized) []PacketArticle {
	out := make([]PacketArticle, len(articles))
	for i, a := range articles {
		out[i] = PacketArticle{
			Emoji:      a.Emoji,
			Caption:    a.Kicker,
			Summary:    a.Summary,
			SourceName: a.SourceName,
			URL:        a.URL,
		}
	}
	return out
}

// Store persists packets. List returns the newest first, at most MaxSaved.
type Store interface {
	Save(ctx context.Context, p *Packet) error
	List(ctx context.Context) ([]Packet, error)
	Close() error
}
