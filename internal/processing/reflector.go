package processing

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
)

const reflectionSystemPrompt = `You are an expert financial analyst tasked with reviewing trading decisions and providing a comprehensive, step-by-step reflection.

1. Reasoning: determine whether the decision was correct or incorrect given the subsequent returns. Analyze the contributing factors to each success or mistake, considering market intelligence, technical indicators, news and the debate between bull and bear perspectives.
2. Improvement: for any incorrect decision, propose revisions that would have maximized returns.
3. Summary: summarize the lessons learned from this episode, and how they can be applied to similar future situations.
4. Query: condense the summary into a concise sentence of no more than 1000 tokens so the lesson can be retrieved later.

Adhere strictly to these instructions and ensure your output is detailed, objective and actionable.`

// Reflector reviews a finished run against realized returns and writes the
// lessons into each participant's memory.
type Reflector struct {
	chatModel model.ToolCallingChatModel
	logger    *zap.Logger
}

// NewReflector builds a reflector on the quick model slot.
func NewReflector(chatModel model.ToolCallingChatModel, logger *zap.Logger) *Reflector {
	return &Reflector{chatModel: chatModel, logger: logger}
}

// Reflect generates a lesson for one component's output and stores it keyed
// by the run's situation.
func (r *Reflector) Reflect(ctx context.Context, state *models.AgentState, returnsLosses string, componentOutput string, mem *memory.FinancialSituationMemory) error {
	situation := situationText(state)
	userPrompt := fmt.Sprintf(
		"Returns: %s\n\nAnalysis, decision or debate content under review:\n%s\n\nObjective market situation:\n%s",
		returnsLosses, componentOutput, situation)

	resp, err := r.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(reflectionSystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return fmt.Errorf("reflection generate for %s: %w", mem.Name(), err)
	}

	if err := mem.AddSituations(ctx, [][2]string{{situation, resp.Content}}); err != nil {
		return err
	}
	r.logger.Info("reflection stored", zap.String("memory", mem.Name()))
	return nil
}

// ReflectRun records lessons for the bull side, the bear side and the trader
// from one finished run.
func (r *Reflector) ReflectRun(ctx context.Context, state *models.AgentState, returnsLosses string, bullMem, bearMem, traderMem *memory.FinancialSituationMemory) error {
	debate := state.InvestDebateState
	if debate != nil && debate.BullHistory != "" {
		if err := r.Reflect(ctx, state, returnsLosses, debate.BullHistory, bullMem); err != nil {
			return err
		}
	}
	if debate != nil && debate.BearHistory != "" {
		if err := r.Reflect(ctx, state, returnsLosses, debate.BearHistory, bearMem); err != nil {
			return err
		}
	}
	if state.TraderInvestmentPlan != "" {
		if err := r.Reflect(ctx, state, returnsLosses, state.TraderInvestmentPlan, traderMem); err != nil {
			return err
		}
	}
	return nil
}

func situationText(state *models.AgentState) string {
	return state.MarketReport + "\n\n" + state.NewsReport
}
