package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
)

// TraderSender is the Sender value the trader records.
const TraderSender = "Trader"

// TraderNode converts the debate's investment plan into the final trade
// decision. It uses the deep model slot and consults two remembered lessons.
type TraderNode struct {
	chatModel model.ToolCallingChatModel
	memory    *memory.FinancialSituationMemory
	logger    *zap.Logger
}

// NewTrader builds the final-decision agent.
func NewTrader(chatModel model.ToolCallingChatModel, mem *memory.FinancialSituationMemory, logger *zap.Logger) *TraderNode {
	return &TraderNode{chatModel: chatModel, memory: mem, logger: logger}
}

// Run produces the trader's decision text. The same text is stored as both
// the trader plan and the run's final decision, and the signal extractor
// reads the decision tag from it afterwards.
func (t *TraderNode) Run(ctx context.Context, state *models.AgentState) (*models.StateDelta, error) {
	matches, err := t.memory.GetMemories(ctx, CurrentSituation(state), 2)
	if err != nil {
		t.logger.Warn("memory lookup failed", zap.Error(err))
	}

	resp, err := t.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(traderSystemPrompt(memory.FormatMemories(matches))),
		schema.UserMessage(traderUserPrompt(state)),
	})
	if err != nil {
		return nil, fmt.Errorf("trader generate: %w", err)
	}

	t.logger.Info("trader decision produced",
		zap.String("company", state.CompanyOfInterest), zap.Int("chars", len(resp.Content)))
	return &models.StateDelta{
		Messages:             []*schema.Message{resp},
		TraderInvestmentPlan: resp.Content,
		FinalTradeDecision:   resp.Content,
		Sender:               TraderSender,
	}, nil
}
