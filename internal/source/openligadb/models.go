package openligadb

// RawMatch mirrors the OpenLigaDB season-schedule record. Only the
// fields the normaliser reads are mapped.
type RawMatch struct {
	MatchID          int64        `json:"MatchID"`
	MatchDateTime    string       `json:"MatchDateTime"`
	MatchDateTimeUTC string       `json:"MatchDateTimeUTC"`
	LeagueName       string       `json:"LeagueName"`
	Team1            *RawTeam     `json:"Team1"`
	Team2            *RawTeam     `json:"Team2"`
	Location         *RawLocation `json:"Location"`
	Group            *RawGroup    `json:"Group"`
	Remark           string       `json:"Remark"`
}

type RawTeam struct {
	TeamID   int64  `json:"TeamId"`
	TeamName string `json:"TeamName"`
}

type RawLocation struct {
	LocationStadium string `json:"LocationStadium"`
	LocationCity    string `json:"LocationCity"`
	LocationCountry string `json:"LocationCountry"`
	TicketURL       string `json:"TicketURL"`
}

type RawGroup struct {
	GroupName    string `json:"GroupName"`
	GroupOrderID *int   `json:"GroupOrderID"`
}
