package service

import (
	"context"
	"fmt"

	"github.com/taskfish-server/internal/domain"
)

// Dispatch runs a named command against the player state. It is the entry
// point for transports that carry commands rather than REST calls.
func (s *PlayerService) Dispatch(ctx context.Context, cmd domain.Command) (domain.CommandResult, error) {
	result := domain.CommandResult{Command: cmd.Name}

	switch cmd.Name {
	case domain.CommandGetPlayerState:
		st, err := s.GetState(ctx)
		if err != nil {
			return result, err
		}
		result.Applied = true
		result.State = &st

	case domain.CommandAddQuest:
		quest, err := s.AddQuest(ctx, cmd.Title, cmd.Description)
		if err != nil {
			return result, err
		}
		result.Applied = true
		result.Quest = &quest

	case domain.CommandUpdateQuest:
		found, err := s.UpdateQuest(ctx, cmd.QuestID, cmd.Title, cmd.Description)
		if err != nil {
			return result, err
		}
		result.Applied = found

	case domain.CommandReorderQuests:
		if err := s.ReorderQuests(ctx, cmd.QuestIDs); err != nil {
			return result, err
		}
		result.Applied = true

	case domain.CommandCompleteQuest:
		quest, applied, err := s.CompleteQuest(ctx, cmd.QuestID)
		if err != nil {
			return result, err
		}
		result.Applied = applied
		if applied {
			result.Quest = &quest
		}

	case domain.CommandUpgradeProduction:
		applied, err := s.UpgradeProduction(ctx)
		if err != nil {
			return result, err
		}
		result.Applied = applied

	case domain.CommandSuccessFish:
		if err := s.SuccessFish(ctx); err != nil {
			return result, err
		}
		result.Applied = true

	default:
		return result, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd.Name)
	}

	return result, nil
}
