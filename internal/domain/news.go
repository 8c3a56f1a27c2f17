package domain

import "time"

// NewsItem is a normalised club news post. HTML is already stripped from
// Title and Summary.
type NewsItem struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
}
