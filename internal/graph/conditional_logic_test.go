package graph

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/StockCouncil/internal/models"
)

func debateState(bull, bear int) *models.AgentState {
	return &models.AgentState{
		InvestDebateState: &models.InvestDebateState{
			BullCount: bull,
			BearCount: bear,
			Count:     bull + bear,
			History:   "Bull Analyst: up\nBear Analyst: down",
		},
	}
}

func TestDebateTieBreakGoesToBull(t *testing.T) {
	cl := NewConditionalLogic(2, 5, []string{models.AnalystMarket})

	next, delta := cl.ShouldContinueDebate(debateState(0, 0))
	assert.Equal(t, NodeBullResearcher, next)
	assert.Nil(t, delta)

	next, _ = cl.ShouldContinueDebate(debateState(1, 1))
	assert.Equal(t, NodeBullResearcher, next)

	next, _ = cl.ShouldContinueDebate(debateState(1, 0))
	assert.Equal(t, NodeBearResearcher, next)
}

func TestDebateConsensusResolvesToTrader(t *testing.T) {
	cl := NewConditionalLogic(1, 5, []string{models.AnalystMarket})

	next, delta := cl.ShouldContinueDebate(debateState(1, 1))
	assert.Equal(t, NodeTrader, next)
	require.NotNil(t, delta)
	assert.Contains(t, delta.InvestmentPlan, "Research Team Consensus:")
	assert.Contains(t, delta.InvestmentPlan, "Bull Analyst: up")
}

func TestDebateIndividualCeiling(t *testing.T) {
	cl := NewConditionalLogic(1, 5, []string{models.AnalystMarket})

	next, delta := cl.ShouldContinueDebate(debateState(2, 0))
	assert.Equal(t, NodeTrader, next)
	require.NotNil(t, delta)
	assert.Contains(t, delta.InvestmentPlan, "Individual limit reached.")
}

func TestDebateTotalCeilingTakesPriority(t *testing.T) {
	cl := NewConditionalLogic(1, 5, []string{models.AnalystMarket})

	// Both the total and the individual ceiling are breached; the total
	// ceiling wins.
	next, delta := cl.ShouldContinueDebate(debateState(2, 2))
	assert.Equal(t, NodeTrader, next)
	require.NotNil(t, delta)
	assert.Contains(t, delta.InvestmentPlan, "Max rounds reached.")
}

func TestDebateRouterNeverMutatesState(t *testing.T) {
	cl := NewConditionalLogic(1, 5, []string{models.AnalystMarket})
	state := debateState(1, 0)
	before := *state.InvestDebateState

	cl.ShouldContinueDebate(state)
	assert.Equal(t, before, *state.InvestDebateState)
}

func TestDebateRouterIsDeterministic(t *testing.T) {
	cl := NewConditionalLogic(2, 5, []string{models.AnalystMarket})
	state := debateState(2, 1)

	first, _ := cl.ShouldContinueDebate(state)
	for i := 0; i < 10; i++ {
		next, _ := cl.ShouldContinueDebate(state)
		assert.Equal(t, first, next)
	}
}

func TestAnalystRoutingRespectsToolRoundCeiling(t *testing.T) {
	cl := NewConditionalLogic(1, 2, []string{models.AnalystMarket})

	pending := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "call-1", Function: schema.FunctionCall{Name: "get_stock_price_data", Arguments: "{}"}},
	})
	state := &models.AgentState{
		Messages:   []*schema.Message{pending},
		ToolRounds: map[string]int{},
	}

	assert.Equal(t, NodeToolsMarket, cl.ShouldContinueMarket(state))

	state.ToolRounds[models.AnalystMarket] = 2
	assert.Equal(t, NodeClearMarket, cl.ShouldContinueMarket(state))

	// Plain responses always end the loop.
	state.Messages = []*schema.Message{schema.AssistantMessage("report", nil)}
	state.ToolRounds[models.AnalystMarket] = 0
	assert.Equal(t, NodeClearMarket, cl.ShouldContinueMarket(state))
}

func TestNextAnalystFollowsSelectionOrder(t *testing.T) {
	cl := NewConditionalLogic(1, 5, []string{models.AnalystMarket, models.AnalystNews})

	state := &models.AgentState{}
	next, err := cl.NextAnalyst(state)
	require.NoError(t, err)
	assert.Equal(t, NodeMarketAnalyst, next)

	state.MarketReport = "done"
	next, err = cl.NextAnalyst(state)
	require.NoError(t, err)
	assert.Equal(t, NodeNewsAnalyst, next)

	state.NewsReport = "done"
	assert.True(t, cl.AreAnalystsComplete(state))
}
