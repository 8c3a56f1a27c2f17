package domain

import "time"

// Match is the canonical view of a single fixture involving the club.
// Matches are rebuilt wholesale on every successful refresh and never
// mutated in place.
type Match struct {
	ID              string    `json:"id"`
	Season          int       `json:"season"`
	Date            time.Time `json:"date"`
	Opponent        string    `json:"opponent"`
	Home            bool      `json:"home"`
	Competition     string    `json:"competition"`
	Arena           string    `json:"arena"`
	City            string    `json:"city"`
	GroupName       *string   `json:"groupName"`
	Matchday        *int      `json:"matchday"`
	TicketURL       *string   `json:"ticketUrl"`
	Notes           string    `json:"notes"`
	Broadcast       *string   `json:"broadcast"`
	DurationMinutes int       `json:"durationMinutes"`
}

// Title renders the fixture as "<club> vs. <opponent>" respecting
// which side hosts.
func (m Match) Title(clubName string) string {
	if m.Home {
		return clubName + " vs. " + m.Opponent
	}
	return m.Opponent + " vs. " + clubName
}

// Location joins arena and city, skipping empty parts.
func (m Match) Location() string {
	switch {
	case m.Arena != "" && m.City != "":
		return m.Arena + ", " + m.City
	case m.Arena != "":
		return m.Arena
	default:
		return m.City
	}
}
