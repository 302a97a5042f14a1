package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/models"
)

// Node is one workflow participant. It reads the shared state and returns a
// partial update; it never mutates the state it receives.
type Node interface {
	Run(ctx context.Context, state *models.AgentState) (*models.StateDelta, error)
}

// Analyst display names recorded in the state's Sender field.
const (
	MarketAnalystSender = "Market Analyst"
	NewsAnalystSender   = "News Analyst"
)

// AnalystNode is a report-producing agent with a tool loop. The same shape
// serves both the market and the news analyst; only the prompt, tools and
// target report differ.
type AnalystNode struct {
	analystType   string
	sender        string
	chatModel     model.ToolCallingChatModel
	tools         []tool.BaseTool
	maxToolRounds int
	prompt        func(toolNames, tradeDate, company string) string
	logger        *zap.Logger
}

// NewMarketAnalyst builds the technical analysis agent.
func NewMarketAnalyst(chatModel model.ToolCallingChatModel, tools []tool.BaseTool, maxToolRounds int, logger *zap.Logger) *AnalystNode {
	return &AnalystNode{
		analystType:   models.AnalystMarket,
		sender:        MarketAnalystSender,
		chatModel:     chatModel,
		tools:         tools,
		maxToolRounds: maxToolRounds,
		prompt:        marketAnalystPrompt,
		logger:        logger,
	}
}

// NewNewsAnalyst builds the news analysis agent.
func NewNewsAnalyst(chatModel model.ToolCallingChatModel, tools []tool.BaseTool, maxToolRounds int, logger *zap.Logger) *AnalystNode {
	return &AnalystNode{
		analystType:   models.AnalystNews,
		sender:        NewsAnalystSender,
		chatModel:     chatModel,
		tools:         tools,
		maxToolRounds: maxToolRounds,
		prompt:        newsAnalystPrompt,
		logger:        logger,
	}
}

// AnalystType returns the analyst's report key ("market" or "news").
func (a *AnalystNode) AnalystType() string { return a.analystType }

// Tools returns the analyst's bound toolset, for the tool executor node.
func (a *AnalystNode) Tools() []tool.BaseTool { return a.tools }

// Run invokes the model over the current conversation. A response carrying
// tool calls only extends the conversation; a plain response additionally
// finalizes the analyst's report. Once the analyst has spent its tool
// rounds, the turn is terminal: tools are no longer bound and the report is
// written no matter what, so the run always moves past the analysis phase.
func (a *AnalystNode) Run(ctx context.Context, state *models.AgentState) (*models.StateDelta, error) {
	infos, err := toolInfos(ctx, a.tools)
	if err != nil {
		return nil, err
	}

	budgetExhausted := a.maxToolRounds > 0 && state.ToolRounds[a.analystType] >= a.maxToolRounds
	generator := model.BaseChatModel(a.chatModel)
	if !budgetExhausted {
		bound, err := a.chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("bind tools for %s analyst: %w", a.analystType, err)
		}
		generator = bound
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	messages := append([]*schema.Message{
		schema.SystemMessage(a.prompt(strings.Join(names, ", "), state.TradeDate, state.CompanyOfInterest)),
	}, state.Messages...)

	resp, err := generator.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%s analyst generate: %w", a.analystType, err)
	}

	delta := &models.StateDelta{
		Messages: []*schema.Message{resp},
		Sender:   a.sender,
	}
	if len(resp.ToolCalls) > 0 && !budgetExhausted {
		a.logger.Debug("analyst requested tools",
			zap.String("analyst", a.analystType), zap.Int("calls", len(resp.ToolCalls)))
		return delta, nil
	}

	report := resp.Content
	if report == "" {
		report = lastAssistantContent(state.Messages)
	}
	if report == "" {
		report = fmt.Sprintf("No %s analysis could be produced within the available tool budget.", a.analystType)
	}
	switch a.analystType {
	case models.AnalystMarket:
		delta.MarketReport = report
	case models.AnalystNews:
		delta.NewsReport = report
	}
	a.logger.Info("analyst report finalized",
		zap.String("analyst", a.analystType),
		zap.Bool("budget_exhausted", budgetExhausted),
		zap.Int("chars", len(report)))
	return delta, nil
}

// lastAssistantContent returns the newest assistant turn with actual text.
func lastAssistantContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.Assistant && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

func toolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
