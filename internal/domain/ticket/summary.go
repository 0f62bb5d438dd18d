package ticket

import (
	"slices"
	"time"
)

// DefaultRecentLimit is how many tickets the dashboard lists as recent.
const DefaultRecentLimit = 5

// Stats counts tickets per status.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
}

// Summary is the dashboard view of a user's tickets.
type Summary struct {
	Stats  Stats    `json:"stats"`
	Recent []Ticket `json:"recent"`
}

// Summarize counts tickets by status and returns up to limit tickets ordered
// newest first. The input slice is not reordered.
func Summarize(tickets []Ticket, limit int) Summary {
	var stats Stats
	stats.Total = len(tickets)
	for _, t := range tickets {
		switch t.Status {
		case StatusOpen:
			stats.Open++
		case StatusInProgress:
			stats.InProgress++
		case StatusClosed:
			stats.Closed++
		}
	}

	recent := slices.Clone(tickets)
	slices.SortStableFunc(recent, func(a, b Ticket) int {
		return compareTimeDesc(a.CreatedAt, b.CreatedAt)
	})
	if limit >= 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	if recent == nil {
		recent = []Ticket{}
	}

	return Summary{Stats: stats, Recent: recent}
}

func compareTimeDesc(a, b time.Time) int {
	return b.Compare(a)
}
