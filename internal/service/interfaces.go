package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"fan_hub/internal/domain"
)

type MatchSource interface {
	ID() string
	FetchMatches(ctx context.Context) ([]domain.Match, error)
}

type NewsSource interface {
	ID() string
	FetchNews(ctx context.Context) ([]domain.NewsItem, error)
}

type CacheStore interface {
	SaveMatches(ctx context.Context, matches []domain.Match) time.Time
	LoadMatches(ctx context.Context) *domain.CachedPayload[domain.Match]
	SaveNews(ctx context.Context, items []domain.NewsItem) time.Time
	LoadNews(ctx context.Context) *domain.CachedPayload[domain.NewsItem]
}

type Publisher interface {
	Publish(ctx context.Context, dataDomain string, count int, updatedAt time.Time) error
	Close() error
}
