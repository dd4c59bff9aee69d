package app

import (
	"strings"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// TabAll and related constants identify the status tabs.
const (
	TabAll      = "all"
	TabPending  = "pending"
	TabReviewed = "reviewed"
	TabArrived  = "arrived"
)

// Tab is one status filter shown above the grid.
type Tab struct {
	ID    string
	Label string
}

// Tabs returns the tab strip in display order.
func Tabs() []Tab {
	return []Tab{
		{ID: TabAll, Label: "All Orders"},
		{ID: TabPending, Label: "Pending"},
		{ID: TabReviewed, Label: "Reviewed"},
		{ID: TabArrived, Label: "Arrived"},
	}
}

// TabMatches reports whether a status belongs to tab. Unknown tabs match everything.
func TabMatches(tab string, status domain.Status) bool {
	switch tab {
	case TabPending:
		return status == domain.StatusNeedToStart || status == domain.StatusInProcess
	case TabReviewed:
		return status == domain.StatusComplete
	case TabArrived:
		return status == domain.StatusBlocked
	default:
		return true
	}
}

// FilterRecords applies the search and tab filters, preserving order.
func FilterRecords(records []domain.Record, search, tab string) []domain.Record {
	needle := strings.ToLower(search)
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !r.Matches(needle) {
			continue
		}
		if !TabMatches(tab, r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TabCounts counts the records under each tab after the search filter.
func TabCounts(records []domain.Record, search string) map[string]int {
	needle := strings.ToLower(search)
	counts := make(map[string]int, len(Tabs()))
	for _, r := range records {
		if !r.Matches(needle) {
			continue
		}
		for _, tab := range Tabs() {
			if TabMatches(tab.ID, r.Status) {
				counts[tab.ID]++
			}
		}
	}
	return counts
}
