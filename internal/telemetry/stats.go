package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period               string            `json:"period"`
	EventCounts          map[EventType]int `json:"event_counts"`
	Players              int               `json:"players"`
	Clicks               int               `json:"clicks"`
	Purchases            int               `json:"purchases"`
	RejectedPurchases    int               `json:"rejected_purchases"`
	PurchasesByUpgrade   map[string]int    `json:"purchases_by_upgrade"`
	AchievementsUnlocked map[string]int    `json:"achievements_unlocked"`
	SaveFailures         int               `json:"save_failures"`
	CorruptSnapshots     int               `json:"corrupt_snapshots"`
	Resets               int               `json:"resets"`
	ClicksPerPurchase    float64           `json:"clicks_per_purchase"`
}

// CalculateStats computes gameplay stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:               since.Format("2006-01-02"),
		EventCounts:          make(map[EventType]int),
		PurchasesByUpgrade:   make(map[string]int),
		AchievementsUnlocked: make(map[string]int),
	}
	players := map[string]bool{}

	for _, event := range events {
		stats.EventCounts[event.Type]++
		if event.PlayerID != "" {
			players[event.PlayerID] = true
		}

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventClick:
			stats.Clicks++
		case EventUpgradePurchased:
			stats.Purchases++
			if id, ok := metadata["upgrade"].(string); ok {
				stats.PurchasesByUpgrade[id]++
			}
		case EventPurchaseRejected:
			stats.RejectedPurchases++
		case EventAchievementUnlocked:
			if id, ok := metadata["achievement"].(string); ok {
				stats.AchievementsUnlocked[id]++
			}
		case EventSaveFailed:
			stats.SaveFailures++
		case EventSnapshotCorrupt:
			stats.CorruptSnapshots++
		case EventGameReset:
			stats.Resets++
		}
	}

	stats.Players = len(players)
	if stats.Purchases > 0 {
		stats.ClicksPerPurchase = float64(stats.Clicks) / float64(stats.Purchases)
	}

	return stats, nil
}
