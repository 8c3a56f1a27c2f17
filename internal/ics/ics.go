// Package ics renders matches as RFC 5545 calendar events.
package ics

import (
	"strings"
	"time"

	"fan_hub/internal/domain"
)

const (
	prodID    = "-//HCE Fans App//DE"
	uidDomain = "hce-fans.app"
)

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\n", `\n`,
)

// Encode renders a single-event calendar for the match. now becomes the
// DTSTAMP; the event ends durationMinutes after kick-off.
func Encode(m domain.Match, clubName string, now time.Time) []byte {
	start := m.Date
	end := start.Add(time.Duration(m.DurationMinutes) * time.Minute)

	descriptionParts := make([]string, 0, 4)
	if m.Competition != "" {
		descriptionParts = append(descriptionParts, m.Competition)
	}
	if m.GroupName != nil && *m.GroupName != "" {
		descriptionParts = append(descriptionParts, *m.GroupName)
	}
	if m.Notes != "" {
		descriptionParts = append(descriptionParts, m.Notes)
	}
	if m.Broadcast != nil && *m.Broadcast != "" {
		descriptionParts = append(descriptionParts, "Live bei "+*m.Broadcast)
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:" + m.ID + "@" + uidDomain,
		"DTSTAMP:" + formatStamp(now),
		"DTSTART:" + formatStamp(start),
		"DTEND:" + formatStamp(end),
		"SUMMARY:" + Escape(m.Title(clubName)),
		"LOCATION:" + Escape(m.Location()),
	}
	if len(descriptionParts) > 0 {
		lines = append(lines, "DESCRIPTION:"+Escape(strings.Join(descriptionParts, "\n")))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	return []byte(strings.Join(lines, "\r\n"))
}

// Escape applies the RFC 5545 TEXT escaping rules.
func Escape(value string) string {
	return textEscaper.Replace(value)
}

// formatStamp renders a compact UTC timestamp, e.g. 20250301T180000Z.
func formatStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
