package openligadb

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"fan_hub/internal/domain"
	"fan_hub/internal/fetch"
)

const SourceID = "openligadb"

// Placeholder labels for fixtures whose details are not settled yet.
const (
	opponentOpen    = "Noch offen"
	arenaUnresolved = "Noch nicht fixiert"
)

// defaultDurationMinutes covers warm-up, two halves and the break.
const defaultDurationMinutes = 110

var (
	offsetRe = regexp.MustCompile(`[+-]\d{2}:?\d{2}$`)
	digitsRe = regexp.MustCompile(`\d+`)
)

// Config holds OpenLigaDB source configuration.
type Config struct {
	BaseURL            string
	League             string
	ClubIdentifier     string
	DefaultCompetition string
}

// Source fetches season schedules from OpenLigaDB and normalises them
// into the canonical match set.
type Source struct {
	client             *fetch.Client
	baseURL            string
	league             string
	clubIdentifier     string
	defaultCompetition string
	logger             *slog.Logger
}

// New creates an OpenLigaDB source. ClubIdentifier is matched
// case-insensitively as a substring against both team names.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:             client,
		baseURL:            cfg.BaseURL,
		league:             cfg.League,
		clubIdentifier:     strings.ToLower(cfg.ClubIdentifier),
		defaultCompetition: cfg.DefaultCompetition,
		logger:             logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

// Seasons returns the season years worth querying at the given moment.
// A season spans two calendar years starting mid-year: from June onward
// the active pair is {Y, Y+1}, before that {Y-1, Y}. Y+1 is always
// included so next season's fixtures surface as soon as published.
func Seasons(now time.Time) []int {
	year := now.Year()

	set := map[int]struct{}{}
	if now.Month() >= time.June {
		set[year] = struct{}{}
		set[year+1] = struct{}{}
	} else {
		set[year-1] = struct{}{}
		set[year] = struct{}{}
	}
	set[year+1] = struct{}{}

	seasons := make([]int, 0, len(set))
	for season := range set {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)
	return seasons
}

type seasonEntry struct {
	match  RawMatch
	season int
}

// FetchMatches queries every relevant season concurrently and merges
// the results. A single season's failure is logged and skipped; the
// call errors only when every season query fails.
func (s *Source) FetchMatches(ctx context.Context) ([]domain.Match, error) {
	seasons := Seasons(time.Now())

	type result struct {
		season  int
		matches []RawMatch
		err     error
	}

	results := make([]result, len(seasons))
	var wg sync.WaitGroup
	for i, season := range seasons {
		wg.Add(1)
		go func(i, season int) {
			defer wg.Done()
			url := fmt.Sprintf("%s/getmatchdata/%s/%d", s.baseURL, s.league, season)

			var matches []RawMatch
			err := s.client.GetJSON(ctx, s.client.Candidates(url), &matches)
			results[i] = result{season: season, matches: matches, err: err}
		}(i, season)
	}
	wg.Wait()

	var entries []seasonEntry
	var lastErr error
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			lastErr = r.err
			s.logger.Warn("season schedule unavailable", "season", r.season, "error", r.err)
			continue
		}
		for _, m := range r.matches {
			entries = append(entries, seasonEntry{match: m, season: r.season})
		}
	}

	if failed == len(seasons) {
		return nil, fmt.Errorf("all %d season queries failed: %w", len(seasons), lastErr)
	}

	matches := s.normalise(entries)
	s.logger.Debug("normalised matches",
		"seasons", len(seasons),
		"seasons_failed", failed,
		"raw", len(entries),
		"matches", len(matches),
	)
	return matches, nil
}

// normalise applies the per-record transform: club filter, date
// derivation, first-seen-wins dedup and field defaults. Overlapping
// season queries legitimately return the same fixture, hence the dedup.
func (s *Source) normalise(entries []seasonEntry) []domain.Match {
	seen := map[string]struct{}{}
	matches := make([]domain.Match, 0, len(entries))

	for _, entry := range entries {
		m := entry.match
		if !s.isClub(m.Team1) && !s.isClub(m.Team2) {
			continue
		}

		date, ok := deriveDate(m)
		if !ok {
			continue
		}

		id := deriveID(m, entry.season, date)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		home := s.isClub(m.Team1)
		opponentTeam := m.Team1
		if home {
			opponentTeam = m.Team2
		}

		opponent := opponentOpen
		if opponentTeam != nil && opponentTeam.TeamName != "" {
			opponent = opponentTeam.TeamName
		}

		competition := m.LeagueName
		if competition == "" {
			competition = s.defaultCompetition
		}

		arena := arenaUnresolved
		city := ""
		var ticketURL *string
		if loc := m.Location; loc != nil {
			if loc.LocationStadium != "" {
				arena = loc.LocationStadium
			}
			city = formatCity(loc)
			if loc.TicketURL != "" {
				url := loc.TicketURL
				ticketURL = &url
			}
		}

		var groupName *string
		if m.Group != nil && m.Group.GroupName != "" {
			name := m.Group.GroupName
			groupName = &name
		}

		matches = append(matches, domain.Match{
			ID:              id,
			Season:          entry.season,
			Date:            date,
			Opponent:        opponent,
			Home:            home,
			Competition:     competition,
			Arena:           arena,
			City:            city,
			GroupName:       groupName,
			Matchday:        deriveMatchday(m.Group),
			TicketURL:       ticketURL,
			Notes:           m.Remark,
			Broadcast:       nil,
			DurationMinutes: defaultDurationMinutes,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	})
	return matches
}

func (s *Source) isClub(team *RawTeam) bool {
	if team == nil {
		return false
	}
	return strings.Contains(strings.ToLower(team.TeamName), s.clubIdentifier)
}

// deriveDate turns the raw datetime into a UTC instant. The UTC-tagged
// field is preferred; a missing offset or Z marker means the value is
// already UTC and gets the marker appended. Unparsable values reject
// the record.
func deriveDate(m RawMatch) (time.Time, bool) {
	raw := m.MatchDateTimeUTC
	if raw == "" {
		raw = m.MatchDateTime
	}
	if raw == "" {
		return time.Time{}, false
	}

	candidate := strings.Replace(raw, " ", "T", 1)
	if !offsetRe.MatchString(candidate) && !strings.HasSuffix(candidate, "Z") {
		candidate += "Z"
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// deriveID prefers the upstream match identifier and falls back to
// season plus instant. Two distinct matches sharing a season and
// kick-off instant would collide; that risk is accepted.
func deriveID(m RawMatch, season int, date time.Time) string {
	if m.MatchID != 0 {
		return strconv.FormatInt(m.MatchID, 10)
	}
	return fmt.Sprintf("%d-%s", season, date.Format(time.RFC3339))
}

// deriveMatchday prefers the numeric group order and falls back to the
// first run of digits in the group name.
func deriveMatchday(group *RawGroup) *int {
	if group == nil {
		return nil
	}
	if group.GroupOrderID != nil {
		order := *group.GroupOrderID
		return &order
	}
	if digits := digitsRe.FindString(group.GroupName); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return &n
		}
	}
	return nil
}

func formatCity(loc *RawLocation) string {
	parts := make([]string, 0, 2)
	for _, value := range []string{loc.LocationCity, loc.LocationCountry} {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
