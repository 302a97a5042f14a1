package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
)

// debateHistoryWindow is how many recent utterance lines a researcher sees.
const debateHistoryWindow = 4

// ResearcherNode argues one side of the bull/bear debate. Each invocation
// produces exactly one utterance and advances its own counter by one.
type ResearcherNode struct {
	speaker   string
	chatModel model.ToolCallingChatModel
	memory    *memory.FinancialSituationMemory
	prompt    func(state *models.AgentState, pastLessons, history, lastOpponent string) string
	logger    *zap.Logger
}

// NewBullResearcher builds the bullish debater.
func NewBullResearcher(chatModel model.ToolCallingChatModel, mem *memory.FinancialSituationMemory, logger *zap.Logger) *ResearcherNode {
	return &ResearcherNode{
		speaker:   models.BullSpeaker,
		chatModel: chatModel,
		memory:    mem,
		prompt:    bullResearcherPrompt,
		logger:    logger,
	}
}

// NewBearResearcher builds the bearish debater.
func NewBearResearcher(chatModel model.ToolCallingChatModel, mem *memory.FinancialSituationMemory, logger *zap.Logger) *ResearcherNode {
	return &ResearcherNode{
		speaker:   models.BearSpeaker,
		chatModel: chatModel,
		memory:    mem,
		prompt:    bearResearcherPrompt,
		logger:    logger,
	}
}

// Run generates the researcher's next utterance from the finalized reports,
// the recent debate history and remembered lessons.
func (r *ResearcherNode) Run(ctx context.Context, state *models.AgentState) (*models.StateDelta, error) {
	situation := CurrentSituation(state)
	matches, err := r.memory.GetMemories(ctx, situation, 1)
	if err != nil {
		r.logger.Warn("memory lookup failed",
			zap.String("speaker", r.speaker), zap.Error(err))
	}

	debate := state.InvestDebateState.Clone()
	history := TruncateDebateHistory(debate.History, debateHistoryWindow)

	promptText := r.prompt(state, memory.FormatMemories(matches), history, debate.CurrentResponse)
	resp, err := r.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(promptText)})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", r.speaker, err)
	}

	debate.AppendUtterance(r.speaker, resp.Content)
	r.logger.Info("debate utterance recorded",
		zap.String("speaker", r.speaker),
		zap.Int("bull_count", debate.BullCount),
		zap.Int("bear_count", debate.BearCount))

	return &models.StateDelta{
		Debate: debate,
		Sender: r.speaker,
	}, nil
}

// CurrentSituation summarizes the finalized reports for memory retrieval.
func CurrentSituation(state *models.AgentState) string {
	parts := make([]string, 0, 2)
	if state.MarketReport != "" {
		parts = append(parts, state.MarketReport)
	}
	if state.NewsReport != "" {
		parts = append(parts, state.NewsReport)
	}
	return strings.Join(parts, "\n\n")
}

// TruncateDebateHistory keeps at most the last maxLines lines of the debate
// transcript, then drops any leading lines until the window starts at an
// utterance boundary. An utterance line always carries its speaker tag, so no
// kept line is attributed to the wrong side.
func TruncateDebateHistory(history string, maxLines int) string {
	if history == "" || maxLines <= 0 {
		return ""
	}
	lines := strings.Split(history, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for len(lines) > 0 && !isUtteranceBoundary(lines[0]) {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func isUtteranceBoundary(line string) bool {
	return strings.HasPrefix(line, models.BullSpeaker+":") ||
		strings.HasPrefix(line, models.BearSpeaker+":")
}
