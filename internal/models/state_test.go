package models

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyWriteOnceReports(t *testing.T) {
	state := &AgentState{CompanyOfInterest: "AAPL", TradeDate: "2024-06-01"}

	require.NoError(t, state.Apply(&StateDelta{MarketReport: "bullish setup"}))
	assert.Equal(t, "bullish setup", state.MarketReport)

	// Restating the identical value is a no-op.
	require.NoError(t, state.Apply(&StateDelta{MarketReport: "bullish setup"}))

	err := state.Apply(&StateDelta{MarketReport: "something else"})
	require.ErrorIs(t, err, ErrWriteOnce)
	assert.Equal(t, "bullish setup", state.MarketReport)
}

func TestApplyClearMessagesInsertsPlaceholder(t *testing.T) {
	state := &AgentState{
		Messages: []*schema.Message{
			schema.UserMessage("AAPL"),
			schema.AssistantMessage("calling tools", nil),
		},
	}

	placeholder := schema.UserMessage("Continue")
	require.NoError(t, state.Apply(&StateDelta{ClearMessages: true, Messages: []*schema.Message{placeholder}}))

	require.Len(t, state.Messages, 1)
	assert.Equal(t, "Continue", state.Messages[0].Content)
}

func TestApplyDebateRollbackRejected(t *testing.T) {
	state := &AgentState{InvestDebateState: &InvestDebateState{BullCount: 2, BearCount: 2, Count: 4}}

	err := state.Apply(&StateDelta{Debate: &InvestDebateState{BullCount: 1, BearCount: 2, Count: 3}})
	require.ErrorIs(t, err, ErrDebateRollback)
	assert.Equal(t, 2, state.InvestDebateState.BullCount)
}

func TestAnalysisCompleteIsMonotonic(t *testing.T) {
	state := &AgentState{AnalysisComplete: true}
	before := *state

	require.NoError(t, state.Apply(&StateDelta{AnalysisComplete: false}))
	assert.Equal(t, before.AnalysisComplete, state.AnalysisComplete)
}

func TestDebateHistoryRoundTrip(t *testing.T) {
	debate := &InvestDebateState{}
	debate.AppendUtterance(BullSpeaker, "growth is accelerating")
	debate.AppendUtterance(BearSpeaker, "valuation is stretched")
	debate.AppendUtterance(BullSpeaker, "margins expanded again")
	debate.AppendUtterance(BearSpeaker, "macro headwinds remain")

	lines := strings.Split(debate.History, "\n")
	require.Len(t, lines, 4)

	// Filtering the interleaved history by speaker tag reproduces the
	// per-side transcripts.
	var bull, bear []string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, BullSpeaker+":"):
			bull = append(bull, line)
		case strings.HasPrefix(line, BearSpeaker+":"):
			bear = append(bear, line)
		}
	}
	assert.Equal(t, strings.Join(bull, "\n"), debate.BullHistory)
	assert.Equal(t, strings.Join(bear, "\n"), debate.BearHistory)

	assert.Equal(t, 2, debate.BullCount)
	assert.Equal(t, 2, debate.BearCount)
	assert.Equal(t, 4, debate.Count)
	assert.Equal(t, lines[3], debate.CurrentResponse)
}

func TestCompletedAnalystsSet(t *testing.T) {
	state := &AgentState{NewsReport: "quiet week"}
	done := state.CompletedAnalysts()
	assert.False(t, done[AnalystMarket])
	assert.True(t, done[AnalystNews])
}
