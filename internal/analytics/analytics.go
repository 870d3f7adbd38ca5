package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"companion-bot/internal/storage"
)

// DailyStats aggregates one day of transcript events.
type DailyStats struct {
	Date          string              `json:"date"`
	TotalMessages int                 `json:"total_messages"`
	UniqueUsers   int                 `json:"unique_users"`
	ByTier        map[string]int      `json:"by_tier"`
	ByPersona     map[string]int      `json:"by_persona"`
	UserStats     map[int64]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID   int64          `json:"user_id"`
	Messages int            `json:"messages"`
	ByTier   map[string]int `json:"by_tier"`
}

// AnalyzeDailyLogs counts the events of the day containing targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		ByTier:    make(map[string]int),
		ByPersona: make(map[string]int),
		UserStats: make(map[int64]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// system records carry no user message
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		if event.Tier != "" {
			stats.ByTier[event.Tier]++
		}
		if event.Persona != "" {
			stats.ByPersona[event.Persona]++
		}

		userStat, exists := stats.UserStats[event.UserID]
		if !exists {
			userStat = UserStats{UserID: event.UserID, ByTier: make(map[string]int)}
		}
		userStat.Messages++
		if event.Tier != "" {
			userStat.ByTier[event.Tier]++
		}
		stats.UserStats[event.UserID] = userStat
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as a chat message.
func (ds *DailyStats) GenerateReportSummary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Companion activity for %s\n\n", ds.Date)
	fmt.Fprintf(&sb, "Messages: %d\nUnique callers: %d\n", ds.TotalMessages, ds.UniqueUsers)

	writeCounts(&sb, "By tier", ds.ByTier)
	writeCounts(&sb, "By persona", ds.ByPersona)

	if len(ds.UserStats) > 0 {
		ids := make([]int64, 0, len(ds.UserStats))
		for id := range ds.UserStats {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(&sb, "\nCallers (%d):\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(&sb, "- User %d: %d messages\n", id, ds.UserStats[id].Messages)
		}
	}
	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(sb, "- %s: %d\n", k, counts[k])
	}
}

// ToJSON serializes the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
