package domain

import "time"

// GameEventType describes what changed in the player state
type GameEventType string

const (
	GameEventQuestAdded         GameEventType = "quest_added"
	GameEventQuestUpdated       GameEventType = "quest_updated"
	GameEventQuestsReordered    GameEventType = "quests_reordered"
	GameEventQuestCompleted     GameEventType = "quest_completed"
	GameEventProductionUpgraded GameEventType = "production_upgraded"
	GameEventFishRewarded       GameEventType = "fish_rewarded"
)

// GameEvent is emitted after a mutation has been applied
type GameEvent struct {
	Type      GameEventType `json:"event_type"`
	QuestID   string        `json:"quest_id,omitempty"`
	GoldDelta int64         `json:"gold_delta,omitempty"`
	Level     int64         `json:"level"`
	Gold      int64         `json:"gold"`
	Timestamp time.Time     `json:"timestamp"`
}
