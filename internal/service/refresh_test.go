package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fan_hub/internal/domain"
	"fan_hub/internal/service/mocks"
)

type RefresherTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	matches   *mocks.MockMatchSource
	news      *mocks.MockNewsSource
	cache     *mocks.MockCacheStore
	publisher *mocks.MockPublisher

	refresher *Refresher
	logger    *slog.Logger
}

func (s *RefresherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.matches = mocks.NewMockMatchSource(s.ctrl)
	s.news = mocks.NewMockNewsSource(s.ctrl)
	s.cache = mocks.NewMockCacheStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.refresher = NewRefresher(s.matches, s.news, s.cache, s.publisher, s.logger)
}

func (s *RefresherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRefresherTestSuite(t *testing.T) {
	suite.Run(t, new(RefresherTestSuite))
}

func sampleMatches() []domain.Match {
	return []domain.Match{{
		ID:              "123",
		Season:          2024,
		Date:            time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		Opponent:        "FC Gummersbach",
		Home:            true,
		DurationMinutes: 110,
	}}
}

func sampleNews() []domain.NewsItem {
	return []domain.NewsItem{{
		ID:    "4711",
		Date:  time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC),
		Title: "Derbysieg!",
	}}
}

func (s *RefresherTestSuite) TestLoadCache_InstallsCacheSnapshots() {
	ctx := context.Background()
	cachedAt := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	s.cache.EXPECT().LoadMatches(ctx).Return(&domain.CachedPayload[domain.Match]{
		Data:      sampleMatches(),
		UpdatedAt: cachedAt,
	})
	s.cache.EXPECT().LoadNews(ctx).Return(&domain.CachedPayload[domain.NewsItem]{
		Data:      sampleNews(),
		UpdatedAt: cachedAt,
	})

	s.refresher.LoadCache(ctx)

	matchSnap := s.refresher.MatchesSnapshot()
	s.Equal(domain.SourceCache, matchSnap.Source)
	s.Equal(domain.StateOK, matchSnap.State)
	s.Equal(cachedAt, matchSnap.UpdatedAt)
	s.Len(matchSnap.Data, 1)

	newsSnap := s.refresher.NewsSnapshot()
	s.Equal(domain.SourceCache, newsSnap.Source)
	s.Len(newsSnap.Data, 1)
}

func (s *RefresherTestSuite) TestLoadCache_NoCachedData() {
	ctx := context.Background()

	s.cache.EXPECT().LoadMatches(ctx).Return(nil)
	s.cache.EXPECT().LoadNews(ctx).Return(nil)

	s.refresher.LoadCache(ctx)

	s.Empty(s.refresher.MatchesSnapshot().Data)
	s.Empty(s.refresher.NewsSnapshot().Data)
}

func (s *RefresherTestSuite) TestRefresh_BothDomainsSucceed() {
	ctx := context.Background()
	savedAt := time.Now().UTC()

	s.matches.EXPECT().FetchMatches(ctx).Return(sampleMatches(), nil)
	s.news.EXPECT().FetchNews(ctx).Return(sampleNews(), nil)
	s.cache.EXPECT().SaveMatches(ctx, sampleMatches()).Return(savedAt)
	s.cache.EXPECT().SaveNews(ctx, sampleNews()).Return(savedAt)
	s.publisher.EXPECT().Publish(ctx, DomainMatches, 1, savedAt).Return(nil)
	s.publisher.EXPECT().Publish(ctx, DomainNews, 1, savedAt).Return(nil)

	stats := s.refresher.Refresh(ctx)

	s.Equal(1, stats.Matches)
	s.Equal(1, stats.News)
	s.Equal(0, stats.Errors)
	s.Equal(2, stats.Published)

	matchSnap := s.refresher.MatchesSnapshot()
	s.Equal(domain.SourceLive, matchSnap.Source)
	s.Equal(domain.StateOK, matchSnap.State)
	s.Equal(savedAt, matchSnap.UpdatedAt)
}

func (s *RefresherTestSuite) TestRefresh_FailureKeepsCachedSnapshot() {
	ctx := context.Background()
	cachedAt := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	s.cache.EXPECT().LoadMatches(ctx).Return(&domain.CachedPayload[domain.Match]{
		Data:      sampleMatches(),
		UpdatedAt: cachedAt,
	})
	s.cache.EXPECT().LoadNews(ctx).Return(nil)
	s.refresher.LoadCache(ctx)

	s.matches.EXPECT().FetchMatches(ctx).Return(nil, errors.New("api down"))
	s.news.EXPECT().FetchNews(ctx).Return(sampleNews(), nil)
	savedAt := time.Now().UTC()
	s.cache.EXPECT().SaveNews(ctx, sampleNews()).Return(savedAt)
	s.publisher.EXPECT().Publish(ctx, DomainNews, 1, savedAt).Return(nil)

	stats := s.refresher.Refresh(ctx)

	s.Equal(1, stats.Errors)
	s.Equal(1, stats.News)

	// Stale-but-present beats an error screen.
	matchSnap := s.refresher.MatchesSnapshot()
	s.Equal(domain.StateOK, matchSnap.State)
	s.Equal(domain.SourceCache, matchSnap.Source)
	s.Len(matchSnap.Data, 1)

	// The sibling domain still completed its success path.
	newsSnap := s.refresher.NewsSnapshot()
	s.Equal(domain.SourceLive, newsSnap.Source)
	s.Equal(domain.StateOK, newsSnap.State)
}

func (s *RefresherTestSuite) TestRefresh_FailureWithoutFallbackIsErrorState() {
	ctx := context.Background()

	s.matches.EXPECT().FetchMatches(ctx).Return(nil, errors.New("api down"))
	s.news.EXPECT().FetchNews(ctx).Return(nil, errors.New("wp down"))

	stats := s.refresher.Refresh(ctx)

	s.Equal(2, stats.Errors)
	s.Equal(domain.StateError, s.refresher.MatchesSnapshot().State)
	s.Equal(domain.StateError, s.refresher.NewsSnapshot().State)
}

func (s *RefresherTestSuite) TestRefresh_EmptyResultIsDistinctFromError() {
	ctx := context.Background()

	s.matches.EXPECT().FetchMatches(ctx).Return([]domain.Match{}, nil)
	s.news.EXPECT().FetchNews(ctx).Return([]domain.NewsItem{}, nil)

	stats := s.refresher.Refresh(ctx)

	s.Equal(0, stats.Errors)

	matchSnap := s.refresher.MatchesSnapshot()
	s.Equal(domain.StateEmpty, matchSnap.State)
	s.Equal(domain.SourceLive, matchSnap.Source)
	s.True(matchSnap.UpdatedAt.IsZero())
}

func (s *RefresherTestSuite) TestRefresh_PublisherNil() {
	ctx := context.Background()

	refresher := NewRefresher(s.matches, s.news, s.cache, nil, s.logger)

	savedAt := time.Now().UTC()
	s.matches.EXPECT().FetchMatches(ctx).Return(sampleMatches(), nil)
	s.news.EXPECT().FetchNews(ctx).Return(sampleNews(), nil)
	s.cache.EXPECT().SaveMatches(ctx, sampleMatches()).Return(savedAt)
	s.cache.EXPECT().SaveNews(ctx, sampleNews()).Return(savedAt)

	stats := refresher.Refresh(ctx)

	s.Equal(0, stats.Published)
	s.Equal(1, stats.Matches)
}

func (s *RefresherTestSuite) TestRefresh_PublishErrorIsNotFatal() {
	ctx := context.Background()
	savedAt := time.Now().UTC()

	s.matches.EXPECT().FetchMatches(ctx).Return(sampleMatches(), nil)
	s.news.EXPECT().FetchNews(ctx).Return([]domain.NewsItem{}, nil)
	s.cache.EXPECT().SaveMatches(ctx, sampleMatches()).Return(savedAt)
	s.publisher.EXPECT().Publish(ctx, DomainMatches, 1, savedAt).Return(errors.New("broker gone"))

	stats := s.refresher.Refresh(ctx)

	s.Equal(0, stats.Published)
	s.Equal(domain.StateOK, s.refresher.MatchesSnapshot().State)
}

func (s *RefresherTestSuite) TestNextMatch() {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	past := domain.Match{ID: "1", Date: now.Add(-24 * time.Hour)}
	upcoming := domain.Match{ID: "2", Date: now.Add(24 * time.Hour)}
	later := domain.Match{ID: "3", Date: now.Add(48 * time.Hour)}

	s.refresher.setMatches(domain.Snapshot[domain.Match]{
		Data:  []domain.Match{past, upcoming, later},
		State: domain.StateOK,
	})

	match, ok := s.refresher.NextMatch(now)
	s.True(ok)
	s.Equal("2", match.ID)

	_, ok = s.refresher.NextMatch(now.Add(72 * time.Hour))
	s.False(ok)
}

func (s *RefresherTestSuite) TestMatchByID() {
	s.refresher.setMatches(domain.Snapshot[domain.Match]{
		Data:  sampleMatches(),
		State: domain.StateOK,
	})

	match, ok := s.refresher.MatchByID("123")
	s.True(ok)
	s.Equal("FC Gummersbach", match.Opponent)

	_, ok = s.refresher.MatchByID("999")
	s.False(ok)
}
