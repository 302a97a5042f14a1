package graph

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/agents"
	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
	"github.com/dyike/StockCouncil/internal/processing"
)

// scriptedModel replays canned responses in order, repeating the last one.
type scriptedModel struct {
	responses []*schema.Message
	calls     int
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return m.responses[idx], nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	panic("not used")
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type priceInput struct {
	Symbol string `json:"symbol"`
}

type priceOutput struct {
	Text string `json:"text"`
}

func fakePriceTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_stock_price_data",
			Desc: "Fake daily price data.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {Type: "string", Required: true},
			}),
		},
		func(_ context.Context, in priceInput) (*priceOutput, error) {
			return &priceOutput{Text: "prices for " + in.Symbol}, nil
		},
	)
}

func newMemory(name string) *memory.FinancialSituationMemory {
	return memory.NewFinancialSituationMemory(name, memory.NewHashEmbedder(), zap.NewNop())
}

// marketOnlyExecutor wires a market-only run: the analyst makes one tool call
// turn, then finalizes; the debate resolves after one utterance per side.
func marketOnlyExecutor(t *testing.T) (*Executor, *ConditionalLogic) {
	t.Helper()
	logger := zap.NewNop()
	priceTool := fakePriceTool()

	analystModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "get_stock_price_data", Arguments: `{"symbol":"AAPL"}`}},
		}),
		schema.AssistantMessage("technical outlook: uptrend", nil),
	}}
	bullModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("the uptrend has legs", nil),
	}}
	bearModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("valuation is stretched", nil),
	}}
	traderModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("Momentum wins. FINAL TRANSACTION PROPOSAL: **BUY**", nil),
	}}

	selected := []string{models.AnalystMarket}
	toolExec, err := agents.NewToolExecutor(context.Background(), models.AnalystMarket, []tool.BaseTool{priceTool}, logger)
	require.NoError(t, err)

	nodes := map[NodeID]agents.Node{
		NodeAnalysisPhaseChecker: agents.NewPhaseChecker(selected),
		NodeMarketAnalyst:        agents.NewMarketAnalyst(analystModel, []tool.BaseTool{priceTool}, 5, logger),
		NodeToolsMarket:          toolExec,
		NodeClearMarket:          agents.NewMessageClear(),
		NodeBullResearcher:       agents.NewBullResearcher(bullModel, newMemory("bull_memory"), logger),
		NodeBearResearcher:       agents.NewBearResearcher(bearModel, newMemory("bear_memory"), logger),
		NodeTrader:               agents.NewTrader(traderModel, newMemory("trader_memory"), logger),
	}
	router := NewConditionalLogic(1, 5, selected)
	return NewExecutor(nodes, router, 100, logger), router
}

func TestExecutorFullRunMarketOnly(t *testing.T) {
	exec, _ := marketOnlyExecutor(t)
	initial := NewPropagator().CreateInitialState("AAPL", "2024-05-10")

	final, err := exec.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, "technical outlook: uptrend", final.MarketReport)
	assert.Empty(t, final.NewsReport)
	assert.True(t, final.AnalysisComplete)
	assert.Equal(t, 1, final.ToolRounds[models.AnalystMarket])

	// One utterance per side, then consensus.
	require.NotNil(t, final.InvestDebateState)
	assert.Equal(t, 1, final.InvestDebateState.BullCount)
	assert.Equal(t, 1, final.InvestDebateState.BearCount)
	assert.Equal(t, 2, final.InvestDebateState.Count)
	assert.Contains(t, final.InvestDebateState.History, "Bull Analyst: the uptrend has legs")
	assert.Contains(t, final.InvestDebateState.History, "Bear Analyst: valuation is stretched")

	assert.Contains(t, final.InvestmentPlan, "Research Team Consensus:")
	assert.Contains(t, final.FinalTradeDecision, "FINAL TRANSACTION PROPOSAL: **BUY**")
	assert.Equal(t, agents.TraderSender, final.Sender)

	signal := processing.NewSignalProcessor().ProcessSignal(final.FinalTradeDecision)
	assert.Equal(t, processing.Buy, signal)
}

func TestExecutorDebateStaysWithinCeilings(t *testing.T) {
	for _, rounds := range []int{1, 2, 3} {
		exec, _ := marketOnlyExecutor(t)
		exec.router = NewConditionalLogic(rounds, 5, []string{models.AnalystMarket})

		final, err := exec.Run(context.Background(), NewPropagator().CreateInitialState("AAPL", "2024-05-10"))
		require.NoError(t, err)
		assert.LessOrEqual(t, final.InvestDebateState.Count, 4*rounds)
		assert.LessOrEqual(t, final.InvestDebateState.BullCount, 2*rounds)
		assert.LessOrEqual(t, final.InvestDebateState.BearCount, 2*rounds)
		assert.NotEmpty(t, final.FinalTradeDecision)
	}
}

func TestExecutorFinalizesRunWhenAnalystNeverStopsCallingTools(t *testing.T) {
	logger := zap.NewNop()
	priceTool := fakePriceTool()

	// Every analyst turn asks for another tool call.
	stubborn := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "get_stock_price_data", Arguments: `{"symbol":"AAPL"}`}},
		}),
	}}
	bullModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("buy the dip", nil),
	}}
	bearModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("stay away", nil),
	}}
	traderModel := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("FINAL TRANSACTION PROPOSAL: **HOLD**", nil),
	}}

	selected := []string{models.AnalystMarket}
	toolExec, err := agents.NewToolExecutor(context.Background(), models.AnalystMarket, []tool.BaseTool{priceTool}, logger)
	require.NoError(t, err)

	const maxToolRounds = 2
	nodes := map[NodeID]agents.Node{
		NodeAnalysisPhaseChecker: agents.NewPhaseChecker(selected),
		NodeMarketAnalyst:        agents.NewMarketAnalyst(stubborn, []tool.BaseTool{priceTool}, maxToolRounds, logger),
		NodeToolsMarket:          toolExec,
		NodeClearMarket:          agents.NewMessageClear(),
		NodeBullResearcher:       agents.NewBullResearcher(bullModel, newMemory("bull_memory"), logger),
		NodeBearResearcher:       agents.NewBearResearcher(bearModel, newMemory("bear_memory"), logger),
		NodeTrader:               agents.NewTrader(traderModel, newMemory("trader_memory"), logger),
	}
	exec := NewExecutor(nodes, NewConditionalLogic(1, maxToolRounds, selected), 100, logger)

	final, err := exec.Run(context.Background(), NewPropagator().CreateInitialState("AAPL", "2024-05-10"))
	require.NoError(t, err)

	// The ceiling makes the analyst's last turn terminal: the report is
	// written and the run reaches the trader instead of looping.
	assert.NotEmpty(t, final.MarketReport)
	assert.True(t, final.AnalysisComplete)
	assert.Equal(t, maxToolRounds, final.ToolRounds[models.AnalystMarket])
	assert.NotEmpty(t, final.FinalTradeDecision)
	assert.Equal(t, agents.TraderSender, final.Sender)

	// Two tool turns plus one terminal turn.
	assert.Equal(t, maxToolRounds+1, stubborn.calls)
}

func TestExecutorRunIsDeterministicAcrossFreshRuns(t *testing.T) {
	run := func() *models.AgentState {
		exec, _ := marketOnlyExecutor(t)
		final, err := exec.Run(context.Background(), NewPropagator().CreateInitialState("AAPL", "2024-05-10"))
		require.NoError(t, err)
		return final
	}
	a, b := run(), run()
	assert.Equal(t, a.MarketReport, b.MarketReport)
	assert.Equal(t, a.InvestDebateState.History, b.InvestDebateState.History)
	assert.Equal(t, a.FinalTradeDecision, b.FinalTradeDecision)
}

func TestExecutorRecursionLimitReturnsPartialState(t *testing.T) {
	exec, _ := marketOnlyExecutor(t)
	exec.maxSteps = 3

	final, err := exec.Run(context.Background(), NewPropagator().CreateInitialState("AAPL", "2024-05-10"))
	require.Error(t, err)
	require.NotNil(t, final)
	assert.Contains(t, err.Error(), "recursion limit")
}

func TestExecutorHonorsContextCancellation(t *testing.T) {
	exec, _ := marketOnlyExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	final, err := exec.Run(ctx, NewPropagator().CreateInitialState("AAPL", "2024-05-10"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, final)
}

func TestGraphSetupRejectsEmptySelection(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SelectedAnalysts = nil

	gs := NewGraphSetup(cfg, nil, nil, nil, nil, nil, nil, zap.NewNop())
	_, err := gs.Build(context.Background())
	require.ErrorIs(t, err, ErrNoAnalystsSelected)
}

func TestGraphSetupRejectsUnknownAnalyst(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SelectedAnalysts = []string{"fundamentals"}

	gs := NewGraphSetup(cfg, nil, nil, nil, nil, nil, nil, zap.NewNop())
	_, err := gs.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analyst")
}
