package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/models"
)

// ToolExecutorNode runs the tool calls of the newest assistant message and
// appends one tool message per call. Tool failures become text in the tool
// message so the analyst can read the error and correct its next call; they
// never abort the run.
type ToolExecutorNode struct {
	analystType string
	byName      map[string]tool.InvokableTool
	logger      *zap.Logger
}

// NewToolExecutor indexes the analyst's tools by name.
func NewToolExecutor(ctx context.Context, analystType string, tools []tool.BaseTool, logger *zap.Logger) (*ToolExecutorNode, error) {
	byName := make(map[string]tool.InvokableTool, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		inv, ok := t.(tool.InvokableTool)
		if !ok {
			return nil, fmt.Errorf("tool %s is not invokable", info.Name)
		}
		byName[info.Name] = inv
	}
	return &ToolExecutorNode{analystType: analystType, byName: byName, logger: logger}, nil
}

// Run executes every tool call on the last message and advances the analyst's
// tool-round counter by one.
func (n *ToolExecutorNode) Run(ctx context.Context, state *models.AgentState) (*models.StateDelta, error) {
	last := state.LastMessage()
	if last == nil || len(last.ToolCalls) == 0 {
		return nil, fmt.Errorf("tool executor for %s: no pending tool calls", n.analystType)
	}

	results := make([]*schema.Message, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		content := n.invoke(ctx, call)
		results = append(results, schema.ToolMessage(content, call.ID))
	}
	return &models.StateDelta{
		Messages:     results,
		ToolRoundFor: n.analystType,
	}, nil
}

func (n *ToolExecutorNode) invoke(ctx context.Context, call schema.ToolCall) string {
	name := call.Function.Name
	inv, ok := n.byName[name]
	if !ok {
		n.logger.Warn("unknown tool requested",
			zap.String("analyst", n.analystType), zap.String("tool", name))
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	out, err := inv.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		n.logger.Warn("tool call failed",
			zap.String("analyst", n.analystType), zap.String("tool", name), zap.Error(err))
		return fmt.Sprintf("Error calling %s: %v", name, err)
	}
	n.logger.Debug("tool call succeeded",
		zap.String("analyst", n.analystType), zap.String("tool", name), zap.Int("chars", len(out)))
	return out
}
