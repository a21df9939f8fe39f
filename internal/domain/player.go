package domain

import "time"

// Resources are the player's currency and progress counters
type Resources struct {
	Gold       int64 `json:"gold"`
	Experience int64 `json:"experience"`
}

// Quest represents a player-facing task with a reward
type Quest struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	RewardPoints    int64     `json:"reward_points"`
	RewardResources Resources `json:"reward_resources"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProductionEpoch is a step change in idle production rate, effective
// FromSeconds after the player started.
type ProductionEpoch struct {
	FromSeconds int64 `json:"from_seconds"`
	Power       int64 `json:"power"`
}

// PlayerState is the root aggregate owned by the store
type PlayerState struct {
	Level           int64             `json:"level"`
	Points          int64             `json:"points"`
	PointsPerSecond float64           `json:"points_per_second"`
	Resources       Resources         `json:"resources"`
	ActiveQuests    []Quest           `json:"active_quests"`
	CompletedQuests []Quest           `json:"completed_quests"`
	StartAt         time.Time         `json:"start_at"`
	LastUpdate      time.Time         `json:"last_update"`
	UpgradeTimes    []ProductionEpoch `json:"upgrade_times"`
}

// Clone returns a deep copy of the state. Slices in the copy never alias the
// original and are non-nil so they encode as empty JSON arrays.
func (s PlayerState) Clone() PlayerState {
	snap := s
	snap.ActiveQuests = append(make([]Quest, 0, len(s.ActiveQuests)), s.ActiveQuests...)
	snap.CompletedQuests = append(make([]Quest, 0, len(s.CompletedQuests)), s.CompletedQuests...)
	snap.UpgradeTimes = append(make([]ProductionEpoch, 0, len(s.UpgradeTimes)), s.UpgradeTimes...)
	return snap
}

// FindActiveQuest returns the index of the active quest with the given ID, or -1
func (s *PlayerState) FindActiveQuest(questID string) int {
	for i := range s.ActiveQuests {
		if s.ActiveQuests[i].ID == questID {
			return i
		}
	}
	return -1
}
