package telemetry

import "time"

type EventType string

const (
	EventClick               EventType = "click"
	EventUpgradePurchased    EventType = "upgrade_purchased"
	EventPurchaseRejected    EventType = "purchase_rejected"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventGameReset           EventType = "game_reset"
	EventSnapshotImported    EventType = "snapshot_imported"
	EventSnapshotCorrupt     EventType = "snapshot_corrupt"
	EventSaveFailed          EventType = "save_failed"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	PlayerID  string    `json:"player_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
