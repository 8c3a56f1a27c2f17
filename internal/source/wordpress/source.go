package wordpress

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fan_hub/internal/domain"
	"fan_hub/internal/fetch"
)

const SourceID = "wordpress"

// Fallback labels for posts with unusable rendered fields.
const (
	titleFallback   = "Neuigkeit"
	summaryFallback = "Keine Vorschau verfügbar."
)

// Config holds WordPress source configuration.
type Config struct {
	Endpoint        string
	DefaultCategory string
}

// Source fetches club news from a WordPress REST endpoint and
// normalises posts into the canonical news-item set.
type Source struct {
	client          *fetch.Client
	endpoint        string
	defaultCategory string
	logger          *slog.Logger
}

// New creates a WordPress source. Endpoint is the full posts URL
// including per_page and _embed query parameters.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:          client,
		endpoint:        cfg.Endpoint,
		defaultCategory: cfg.DefaultCategory,
		logger:          logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

// FetchNews fetches and normalises the latest posts. Null raw entries
// are skipped; every other post yields an item, with synthesized ids
// guaranteeing a non-empty identity.
func (s *Source) FetchNews(ctx context.Context) ([]domain.NewsItem, error) {
	var posts []*RawPost
	if err := s.client.GetJSON(ctx, s.client.Candidates(s.endpoint), &posts); err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		items = append(items, s.parsePost(post))
	}

	s.logger.Debug("normalised news", "posts", len(posts), "items", len(items))
	return items, nil
}

func (s *Source) parsePost(post *RawPost) domain.NewsItem {
	title := StripHTML(post.Title.Rendered)
	if title == "" {
		title = titleFallback
	}

	summary := StripHTML(post.Excerpt.Rendered)
	if summary == "" {
		summary = summaryFallback
	}

	date := parseDate(post.Date)

	link := post.Link
	if link == "" {
		link = s.endpoint
	}

	return domain.NewsItem{
		ID:       deriveID(post, date, title),
		Date:     date,
		Title:    title,
		Summary:  summary,
		Link:     link,
		Category: s.category(post),
	}
}

// category picks the first embedded taxonomy term's name.
func (s *Source) category(post *RawPost) string {
	if post.Embedded != nil {
		for _, group := range post.Embedded.Terms {
			for _, term := range group {
				if term.Name != "" {
					return term.Name
				}
			}
		}
	}
	return s.defaultCategory
}

func deriveID(post *RawPost, date time.Time, title string) string {
	if post.ID != 0 {
		return strconv.FormatInt(post.ID, 10)
	}
	return fmt.Sprintf("%d-%s", date.UnixMilli(), title)
}

// parseDate handles the WP `date` field, which usually carries no
// offset. Absent or unparsable dates default to now rather than
// dropping the post.
func parseDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// StripHTML removes markup, decodes entities and collapses internal
// whitespace.
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}
