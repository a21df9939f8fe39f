package domain

// Command names accepted by the dispatcher. They match the names the game
// client invokes.
const (
	CommandGetPlayerState    = "get_player_state"
	CommandAddQuest          = "add_quest"
	CommandUpdateQuest       = "update_quest"
	CommandReorderQuests     = "reorder_quests"
	CommandCompleteQuest     = "complete_quest"
	CommandUpgradeProduction = "upgrade_points_per_second"
	CommandSuccessFish       = "success_fish"
)

// Command is a single invocation against the player state
type Command struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"command"`
	QuestID     string   `json:"quest_id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	QuestIDs    []string `json:"quest_ids,omitempty"`
}

// CommandResult is returned by the dispatcher
type CommandResult struct {
	Command string       `json:"command"`
	Applied bool         `json:"applied"`
	Quest   *Quest       `json:"quest,omitempty"`
	State   *PlayerState `json:"state,omitempty"`
}
