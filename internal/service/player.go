package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskfish-server/internal/domain"
	"github.com/taskfish-server/internal/store"
)

// Broadcaster pushes snapshots to connected clients
type Broadcaster interface {
	BroadcastState(state domain.PlayerState)
	BroadcastProduction(report domain.ProductionReport)
}

// EventPublisher forwards applied changes to an external sink
type EventPublisher interface {
	Publish(ctx context.Context, event domain.GameEvent) error
}

// PlayerService exposes the player store to transports. Notifications are
// sent only after the store has released its lock.
type PlayerService struct {
	store     *store.PlayerStore
	hub       Broadcaster
	publisher EventPublisher
	logger    *slog.Logger
}

// NewPlayerService creates a new player service
func NewPlayerService(store *store.PlayerStore, logger *slog.Logger) *PlayerService {
	return &PlayerService{
		store:  store,
		logger: logger,
	}
}

// SetHub sets the broadcaster used for state updates
func (s *PlayerService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// SetPublisher sets the event publisher
func (s *PlayerService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// GetState returns a snapshot of the player state
func (s *PlayerService) GetState(ctx context.Context) (domain.PlayerState, error) {
	st, err := s.store.GetState(ctx)
	if err != nil {
		return domain.PlayerState{}, fmt.Errorf("getting player state: %w", err)
	}
	return st, nil
}

// Production reports idle production accrued up to now
func (s *PlayerService) Production(ctx context.Context) (domain.ProductionReport, error) {
	st, err := s.GetState(ctx)
	if err != nil {
		return domain.ProductionReport{}, err
	}
	return st.Production(s.store.Now()), nil
}

// AddQuest adds a new active quest
func (s *PlayerService) AddQuest(ctx context.Context, title, description string) (domain.Quest, error) {
	quest, err := s.store.AddQuest(ctx, title, description)
	if err != nil {
		return domain.Quest{}, fmt.Errorf("adding quest: %w", err)
	}

	s.logger.Info("quest added", "quest_id", quest.ID, "reward_gold", quest.RewardResources.Gold)
	s.notify(ctx, domain.GameEvent{Type: domain.GameEventQuestAdded, QuestID: quest.ID})
	return quest, nil
}

// UpdateQuest edits an active quest. Unknown IDs are ignored.
func (s *PlayerService) UpdateQuest(ctx context.Context, questID, title, description string) (bool, error) {
	found, err := s.store.UpdateQuest(ctx, questID, title, description)
	if err != nil {
		return false, fmt.Errorf("updating quest: %w", err)
	}

	if !found {
		s.logger.Debug("update for unknown quest ignored", "quest_id", questID)
		return false, nil
	}
	s.notify(ctx, domain.GameEvent{Type: domain.GameEventQuestUpdated, QuestID: questID})
	return true, nil
}

// ReorderQuests replaces the active quest order
func (s *PlayerService) ReorderQuests(ctx context.Context, questIDs []string) error {
	if err := s.store.ReorderQuests(ctx, questIDs); err != nil {
		return fmt.Errorf("reordering quests: %w", err)
	}

	s.notify(ctx, domain.GameEvent{Type: domain.GameEventQuestsReordered})
	return nil
}

// CompleteQuest completes an active quest and credits its rewards
func (s *PlayerService) CompleteQuest(ctx context.Context, questID string) (domain.Quest, bool, error) {
	quest, applied, err := s.store.CompleteQuest(ctx, questID)
	if err != nil {
		return domain.Quest{}, false, fmt.Errorf("completing quest: %w", err)
	}

	if !applied {
		s.logger.Debug("completion for inactive quest ignored", "quest_id", questID)
		return domain.Quest{}, false, nil
	}

	s.logger.Info("quest completed", "quest_id", quest.ID, "reward_gold", quest.RewardResources.Gold)
	s.notify(ctx, domain.GameEvent{
		Type:      domain.GameEventQuestCompleted,
		QuestID:   quest.ID,
		GoldDelta: quest.RewardResources.Gold,
	})
	return quest, true, nil
}

// UpgradeProduction buys an idle production upgrade if affordable
func (s *PlayerService) UpgradeProduction(ctx context.Context) (bool, error) {
	applied, err := s.store.UpgradeIdleProduction(ctx)
	if err != nil {
		return false, fmt.Errorf("upgrading production: %w", err)
	}

	if !applied {
		s.logger.Debug("production upgrade skipped, insufficient gold")
		s.notify(ctx, domain.GameEvent{})
		return false, nil
	}

	s.logger.Info("production upgraded")
	s.notify(ctx, domain.GameEvent{
		Type:      domain.GameEventProductionUpgraded,
		GoldDelta: -s.store.Rules().UpgradeCost,
	})
	return true, nil
}

// SuccessFish credits the fishing minigame payout
func (s *PlayerService) SuccessFish(ctx context.Context) error {
	if err := s.store.ApplyFixedRewardEvent(ctx); err != nil {
		return fmt.Errorf("applying fish reward: %w", err)
	}

	s.notify(ctx, domain.GameEvent{
		Type:      domain.GameEventFishRewarded,
		GoldDelta: s.store.Rules().FishRewardGold,
	})
	return nil
}

// notify broadcasts the current snapshot and publishes event when it has a
// type. Failures are logged and never returned to the caller.
func (s *PlayerService) notify(ctx context.Context, event domain.GameEvent) {
	if s.hub == nil && s.publisher == nil {
		return
	}

	st, err := s.store.GetState(ctx)
	if err != nil {
		s.logger.Warn("failed to snapshot state for notification", "error", err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastState(st)
	}

	if s.publisher == nil || event.Type == "" {
		return
	}

	event.Level = st.Level
	event.Gold = st.Resources.Gold
	event.Timestamp = st.LastUpdate
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish game event", "event_type", event.Type, "error", err)
	}
}
