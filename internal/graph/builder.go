package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/agents"
	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
	"github.com/dyike/StockCouncil/internal/tools"
)

// ErrNoAnalystsSelected is returned when a graph is built with an empty
// analyst selection. Construction fails; a run never starts.
var ErrNoAnalystsSelected = errors.New("at least one analyst must be selected")

// GraphSetup assembles the node table for one run configuration.
type GraphSetup struct {
	cfg        *config.Config
	quickModel model.ToolCallingChatModel
	deepModel  model.ToolCallingChatModel
	toolkit    *tools.Toolkit
	bullMem    *memory.FinancialSituationMemory
	bearMem    *memory.FinancialSituationMemory
	traderMem  *memory.FinancialSituationMemory
	logger     *zap.Logger
}

// NewGraphSetup collects the graph's collaborators.
func NewGraphSetup(
	cfg *config.Config,
	quickModel, deepModel model.ToolCallingChatModel,
	toolkit *tools.Toolkit,
	bullMem, bearMem, traderMem *memory.FinancialSituationMemory,
	logger *zap.Logger,
) *GraphSetup {
	return &GraphSetup{
		cfg:        cfg,
		quickModel: quickModel,
		deepModel:  deepModel,
		toolkit:    toolkit,
		bullMem:    bullMem,
		bearMem:    bearMem,
		traderMem:  traderMem,
		logger:     logger,
	}
}

// Build validates the analyst selection and materializes every node plus the
// routing table into an executor.
func (gs *GraphSetup) Build(ctx context.Context) (*Executor, error) {
	selected := gs.cfg.SelectedAnalysts
	if len(selected) == 0 {
		return nil, ErrNoAnalystsSelected
	}
	for _, name := range selected {
		if name != models.AnalystMarket && name != models.AnalystNews {
			return nil, fmt.Errorf("unknown analyst type %q", name)
		}
	}

	nodes := map[NodeID]agents.Node{
		NodeAnalysisPhaseChecker: agents.NewPhaseChecker(selected),
		NodeClearMarket:          agents.NewMessageClear(),
		NodeClearNews:            agents.NewMessageClear(),
		NodeBullResearcher:       agents.NewBullResearcher(gs.quickModel, gs.bullMem, gs.logger),
		NodeBearResearcher:       agents.NewBearResearcher(gs.quickModel, gs.bearMem, gs.logger),
		NodeTrader:               agents.NewTrader(gs.deepModel, gs.traderMem, gs.logger),
	}

	for _, name := range selected {
		switch name {
		case models.AnalystMarket:
			marketTools := gs.toolkit.MarketTools()
			nodes[NodeMarketAnalyst] = agents.NewMarketAnalyst(gs.quickModel, marketTools, gs.cfg.MaxToolRounds, gs.logger)
			exec, err := agents.NewToolExecutor(ctx, models.AnalystMarket, marketTools, gs.logger)
			if err != nil {
				return nil, err
			}
			nodes[NodeToolsMarket] = exec
		case models.AnalystNews:
			newsTools := gs.toolkit.NewsTools()
			nodes[NodeNewsAnalyst] = agents.NewNewsAnalyst(gs.quickModel, newsTools, gs.cfg.MaxToolRounds, gs.logger)
			exec, err := agents.NewToolExecutor(ctx, models.AnalystNews, newsTools, gs.logger)
			if err != nil {
				return nil, err
			}
			nodes[NodeToolsNews] = exec
		}
	}

	if err := checkReachable(nodes, selected); err != nil {
		return nil, err
	}

	router := NewConditionalLogic(gs.cfg.MaxDebateRounds, gs.cfg.MaxToolRounds, selected)
	return NewExecutor(nodes, router, gs.cfg.MaxRecurLimit, gs.logger), nil
}

// checkReachable verifies every node the transition table can reach for this
// analyst selection is registered, so routing gaps fail at build time instead
// of mid-run.
func checkReachable(nodes map[NodeID]agents.Node, selected []string) error {
	required := []NodeID{NodeAnalysisPhaseChecker, NodeBullResearcher, NodeBearResearcher, NodeTrader}
	for _, name := range selected {
		switch name {
		case models.AnalystMarket:
			required = append(required, NodeMarketAnalyst, NodeToolsMarket, NodeClearMarket)
		case models.AnalystNews:
			required = append(required, NodeNewsAnalyst, NodeToolsNews, NodeClearNews)
		}
	}
	for _, id := range required {
		if _, ok := nodes[id]; !ok {
			return fmt.Errorf("workflow node %s is reachable but not registered", id)
		}
	}
	return nil
}
