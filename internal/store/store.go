package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskfish-server/internal/clock"
	"github.com/taskfish-server/internal/config"
	"github.com/taskfish-server/internal/domain"
)

// PlayerStore owns the single player state. Every operation runs under one
// mutex and leaves the state fully applied before releasing it.
type PlayerStore struct {
	mu       sync.Mutex
	st       domain.PlayerState
	poisoned bool

	rules  *config.GameConfig
	clk    clock.Clock
	rng    *rand.Rand
	newID  func() string
	logger *slog.Logger
}

// Option configures a PlayerStore
type Option func(*PlayerStore)

// WithClock sets the time source
func WithClock(clk clock.Clock) Option {
	return func(s *PlayerStore) { s.clk = clk }
}

// WithRand sets the random source used for quest rewards
func WithRand(rng *rand.Rand) Option {
	return func(s *PlayerStore) { s.rng = rng }
}

// WithIDGenerator sets the quest ID generator
func WithIDGenerator(fn func() string) Option {
	return func(s *PlayerStore) { s.newID = fn }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *PlayerStore) { s.logger = logger }
}

// New creates a store holding a fresh level 1 player started now
func New(rules *config.GameConfig, opts ...Option) *PlayerStore {
	s := &PlayerStore{
		rules:  rules,
		clk:    clock.RealClock{},
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.clk.Now()
	s.st = domain.PlayerState{
		Level:           1,
		PointsPerSecond: rules.BasePointsPerSecond,
		ActiveQuests:    []domain.Quest{},
		CompletedQuests: []domain.Quest{},
		StartAt:         now,
		LastUpdate:      now,
		UpgradeTimes:    []domain.ProductionEpoch{{FromSeconds: 0, Power: rules.BasePower}},
	}
	return s
}

// update runs fn with exclusive access to the state. A panic inside fn
// poisons the store: this and every later call fail with ErrStateAccess.
func (s *PlayerStore) update(fn func(st *domain.PlayerState, now time.Time)) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return domain.ErrStateAccess
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.logger.Error("player state mutation panicked, store poisoned", "panic", r)
			err = fmt.Errorf("%w: %v", domain.ErrStateAccess, r)
		}
	}()

	fn(&s.st, s.clk.Now())
	return nil
}

// GetState returns a deep copy of the current state
func (s *PlayerStore) GetState(ctx context.Context) (domain.PlayerState, error) {
	var snap domain.PlayerState
	err := s.update(func(st *domain.PlayerState, _ time.Time) {
		snap = st.Clone()
	})
	return snap, err
}

// AddQuest appends a new active quest with a randomised gold reward
func (s *PlayerStore) AddQuest(ctx context.Context, title, description string) (domain.Quest, error) {
	var quest domain.Quest
	err := s.update(func(st *domain.PlayerState, now time.Time) {
		quest = domain.Quest{
			ID:           s.newID(),
			Title:        title,
			Description:  description,
			RewardPoints: s.rules.QuestRewardPoints,
			RewardResources: domain.Resources{
				Gold: s.rollQuestGold(),
			},
			CreatedAt: now,
		}
		st.ActiveQuests = append(st.ActiveQuests, quest)
		st.LastUpdate = now
	})
	return quest, err
}

// rollQuestGold draws uniformly from [QuestGoldMin, QuestGoldMax)
func (s *PlayerStore) rollQuestGold() int64 {
	span := s.rules.QuestGoldMax - s.rules.QuestGoldMin
	if span <= 0 {
		return s.rules.QuestGoldMin
	}
	return s.rules.QuestGoldMin + s.rng.Int64N(span)
}

// UpdateQuest replaces the title and description of an active quest.
// An unknown ID is not an error; the returned bool reports whether a quest
// was found.
func (s *PlayerStore) UpdateQuest(ctx context.Context, questID, title, description string) (bool, error) {
	found := false
	err := s.update(func(st *domain.PlayerState, now time.Time) {
		st.LastUpdate = now
		idx := st.FindActiveQuest(questID)
		if idx < 0 {
			return
		}
		st.ActiveQuests[idx].Title = title
		st.ActiveQuests[idx].Description = description
		found = true
	})
	return found, err
}

// ReorderQuests rebuilds the active list from questIDs. IDs that do not name
// an active quest are skipped and active quests not named are dropped.
func (s *PlayerStore) ReorderQuests(ctx context.Context, questIDs []string) error {
	return s.update(func(st *domain.PlayerState, now time.Time) {
		byID := make(map[string]domain.Quest, len(st.ActiveQuests))
		for _, q := range st.ActiveQuests {
			byID[q.ID] = q
		}

		reordered := make([]domain.Quest, 0, len(questIDs))
		for _, id := range questIDs {
			q, ok := byID[id]
			if !ok {
				continue
			}
			reordered = append(reordered, q)
			delete(byID, id)
		}

		st.ActiveQuests = reordered
		st.LastUpdate = now
	})
}

// CompleteQuest moves an active quest to the completed list and credits its
// rewards. The bool is false when no active quest had the ID.
func (s *PlayerStore) CompleteQuest(ctx context.Context, questID string) (domain.Quest, bool, error) {
	var quest domain.Quest
	applied := false
	err := s.update(func(st *domain.PlayerState, now time.Time) {
		st.LastUpdate = now
		idx := st.FindActiveQuest(questID)
		if idx < 0 {
			return
		}

		quest = st.ActiveQuests[idx]
		st.ActiveQuests = append(st.ActiveQuests[:idx:idx], st.ActiveQuests[idx+1:]...)
		quest.Completed = true

		st.Points += quest.RewardPoints
		st.Resources.Gold += quest.RewardResources.Gold
		st.Resources.Experience += quest.RewardResources.Experience
		st.Level = domain.LevelForExperience(st.Resources.Experience, s.rules.ExperiencePerLevel)

		st.CompletedQuests = append(st.CompletedQuests, quest)
		applied = true
	})
	return quest, applied, err
}

// ApplyFixedRewardEvent credits the fixed minigame payout
func (s *PlayerStore) ApplyFixedRewardEvent(ctx context.Context) error {
	return s.update(func(st *domain.PlayerState, now time.Time) {
		st.Resources.Gold += s.rules.FishRewardGold
		st.LastUpdate = now
	})
}

// UpgradeIdleProduction spends gold to start a new production epoch now.
// With insufficient gold nothing but LastUpdate changes.
func (s *PlayerStore) UpgradeIdleProduction(ctx context.Context) (bool, error) {
	applied := false
	err := s.update(func(st *domain.PlayerState, now time.Time) {
		st.LastUpdate = now
		if st.Resources.Gold < s.rules.UpgradeCost {
			return
		}

		from := domain.ElapsedSeconds(st.StartAt, now)
		if n := len(st.UpgradeTimes); n > 0 && st.UpgradeTimes[n-1].FromSeconds > from {
			from = st.UpgradeTimes[n-1].FromSeconds
		}

		st.Resources.Gold -= s.rules.UpgradeCost
		st.UpgradeTimes = append(st.UpgradeTimes, domain.ProductionEpoch{
			FromSeconds: from,
			Power:       s.rules.UpgradePower,
		})
		applied = true
	})
	return applied, err
}

// Now returns the store's notion of the current time
func (s *PlayerStore) Now() time.Time {
	return s.clk.Now()
}

// Rules returns a copy of the game rules the store applies
func (s *PlayerStore) Rules() config.GameConfig {
	return *s.rules
}
