package wordpress

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fan_hub/internal/fetch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource(endpoint string) *Source {
	client := fetch.New(fetch.Config{}, testLogger())
	return New(Config{
		Endpoint:        endpoint,
		DefaultCategory: "HC Erlangen",
	}, client, testLogger())
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hallo</p>", "Hallo"},
		{"<b>Fett</b> und <i>kursiv</i>", "Fett und kursiv"},
		{"Ohne Markup", "Ohne Markup"},
		{"<div>  Mehrere   Leerzeichen  </div>", "Mehrere Leerzeichen"},
		{"", ""},
		{"Sieg &amp; Aufstieg", "Sieg & Aufstieg"},
		{"<a href=\"url\">Link</a> Text", "Link Text"},
	}
	for _, tt := range tests {
		got := StripHTML(tt.input)
		if got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFetchNews_NormalisesPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{
				"id": 4711,
				"date": "2025-02-10T09:30:00",
				"link": "https://club.example/news/sieg",
				"title": {"rendered": "<strong>Derbysieg!</strong>"},
				"excerpt": {"rendered": "<p>Ein   starker\n Auftritt.</p>"},
				"_embedded": {"wp:term": [[{"name": "Bundesliga"}, {"name": "Heimspiel"}]]}
			},
			null,
			{
				"id": 4712,
				"date": "2025-02-08T12:00:00",
				"link": "https://club.example/news/jugend",
				"title": {"rendered": "Jugend gewinnt"},
				"excerpt": {"rendered": ""}
			}
		]`))
	}))
	defer srv.Close()

	items, err := newTestSource(srv.URL).FetchNews(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "4711", first.ID)
	assert.Equal(t, "Derbysieg!", first.Title)
	assert.Equal(t, "Ein starker Auftritt.", first.Summary)
	assert.Equal(t, "https://club.example/news/sieg", first.Link)
	assert.Equal(t, "Bundesliga", first.Category)
	assert.Equal(t, time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC), first.Date)

	second := items[1]
	assert.Equal(t, "4712", second.ID)
	assert.Equal(t, "Keine Vorschau verfügbar.", second.Summary)
	assert.Equal(t, "HC Erlangen", second.Category)
}

func TestParsePost_SynthesizesIDAndDefaults(t *testing.T) {
	s := newTestSource("https://club.example/wp-json/wp/v2/posts")

	item := s.parsePost(&RawPost{
		Date:  "2025-02-10T09:30:00",
		Title: RenderedText{Rendered: "<em>Ohne ID</em>"},
	})

	date := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "1739179800000-Ohne ID", item.ID)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, date, item.Date)
	assert.Equal(t, "https://club.example/wp-json/wp/v2/posts", item.Link)
}

func TestParsePost_InvalidDateDefaultsToNow(t *testing.T) {
	s := newTestSource("")

	before := time.Now().UTC()
	item := s.parsePost(&RawPost{
		ID:    1,
		Date:  "kein Datum",
		Title: RenderedText{Rendered: "Test"},
	})
	after := time.Now().UTC()

	assert.False(t, item.Date.Before(before))
	assert.False(t, item.Date.After(after))
}

func TestParsePost_EmptyTitleFallsBack(t *testing.T) {
	s := newTestSource("")

	item := s.parsePost(&RawPost{ID: 9, Date: "2025-01-01T00:00:00"})
	assert.Equal(t, "Neuigkeit", item.Title)
}
