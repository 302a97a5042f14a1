package agents

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockCouncil/internal/models"
)

// MessageClearNode resets the working conversation between phases, leaving a
// single placeholder so the next agent never sees an empty message list.
type MessageClearNode struct{}

// NewMessageClear returns the between-phase conversation reset node.
func NewMessageClear() *MessageClearNode { return &MessageClearNode{} }

// Run purges the conversation and seeds it with the placeholder turn.
func (n *MessageClearNode) Run(_ context.Context, _ *models.AgentState) (*models.StateDelta, error) {
	return &models.StateDelta{
		ClearMessages: true,
		Messages:      []*schema.Message{schema.UserMessage("Continue")},
	}, nil
}

// PhaseCheckerNode raises the analysis-complete flag once every selected
// analyst has a finalized report. Running it again after the flag is up is a
// no-op.
type PhaseCheckerNode struct {
	selected []string
}

// NewPhaseChecker builds the checker for the run's analyst selection.
func NewPhaseChecker(selected []string) *PhaseCheckerNode {
	return &PhaseCheckerNode{selected: selected}
}

// Run reports whether the analysis phase is finished.
func (n *PhaseCheckerNode) Run(_ context.Context, state *models.AgentState) (*models.StateDelta, error) {
	if state.AnalysisComplete {
		return &models.StateDelta{AnalysisComplete: true}, nil
	}
	done := state.CompletedAnalysts()
	for _, name := range n.selected {
		if !done[name] {
			return &models.StateDelta{}, nil
		}
	}
	return &models.StateDelta{AnalysisComplete: true}, nil
}
