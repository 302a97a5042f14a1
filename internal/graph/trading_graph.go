package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/llm"
	"github.com/dyike/StockCouncil/internal/memory"
	"github.com/dyike/StockCouncil/internal/models"
	"github.com/dyike/StockCouncil/internal/processing"
	"github.com/dyike/StockCouncil/internal/storage"
	"github.com/dyike/StockCouncil/internal/tools"
)

// TradingGraph is the top-level facade: one instance serves many runs and
// carries the memories and recorder across them.
type TradingGraph struct {
	cfg       *config.Config
	provider  *llm.Provider
	toolkit   *tools.Toolkit
	bullMem   *memory.FinancialSituationMemory
	bearMem   *memory.FinancialSituationMemory
	traderMem *memory.FinancialSituationMemory

	executor   *Executor
	propagator *Propagator
	signals    *processing.SignalProcessor
	reflector  *processing.Reflector
	recorder   *storage.Recorder
	logger     *zap.Logger
}

// NewTradingGraph builds the whole workflow from configuration. Construction
// fails fast on an invalid analyst selection or unreachable model backends.
func NewTradingGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*TradingGraph, error) {
	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build models: %w", err)
	}

	var embedder memory.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = memory.NewOpenAIEmbedder(cfg)
	} else {
		embedder = memory.NewHashEmbedder()
	}
	bullMem := memory.NewFinancialSituationMemory("bull_memory", embedder, logger)
	bearMem := memory.NewFinancialSituationMemory("bear_memory", embedder, logger)
	traderMem := memory.NewFinancialSituationMemory("trader_memory", embedder, logger)

	toolkit := tools.NewToolkit(cfg, logger)
	setup := NewGraphSetup(cfg, provider.QuickModel(), provider.DeepModel(), toolkit,
		bullMem, bearMem, traderMem, logger)
	executor, err := setup.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	return &TradingGraph{
		cfg:        cfg,
		provider:   provider,
		toolkit:    toolkit,
		bullMem:    bullMem,
		bearMem:    bearMem,
		traderMem:  traderMem,
		executor:   executor,
		propagator: NewPropagator(),
		signals:    processing.NewSignalProcessor(),
		reflector:  processing.NewReflector(provider.QuickModel(), logger),
		recorder:   storage.NewRecorder(cfg.ResultsDir, logger),
		logger:     logger,
	}, nil
}

// Propagate runs one full analysis for the company on the trade date and
// returns the final state with the extracted signal. On mid-run failure the
// partial state comes back alongside the error.
func (tg *TradingGraph) Propagate(ctx context.Context, companyName, tradeDate string) (*models.AgentState, processing.Signal, error) {
	tg.logger.Info("analysis run starting",
		zap.String("company", companyName), zap.String("trade_date", tradeDate))

	initial := tg.propagator.CreateInitialState(companyName, tradeDate)
	final, err := tg.executor.Run(ctx, initial)
	if err != nil {
		return final, processing.NoSignal, err
	}

	tg.recorder.LogState(final)
	signal := tg.signals.ProcessSignal(final.FinalTradeDecision)
	tg.logger.Info("analysis run finished",
		zap.String("company", companyName), zap.String("signal", string(signal)))
	return final, signal, nil
}

// ProcessSignal re-extracts a signal from arbitrary decision text.
func (tg *TradingGraph) ProcessSignal(fullText string) processing.Signal {
	return tg.signals.ProcessSignal(fullText)
}

// ReflectAndRemember reviews a finished run against realized returns and
// feeds the lessons back into the bull, bear and trader memories.
func (tg *TradingGraph) ReflectAndRemember(ctx context.Context, state *models.AgentState, returnsLosses string) error {
	return tg.reflector.ReflectRun(ctx, state, returnsLosses, tg.bullMem, tg.bearMem, tg.traderMem)
}

// SaveResults persists the recorded state logs for the ticker.
func (tg *TradingGraph) SaveResults(ticker string) error {
	return tg.recorder.Persist(ticker)
}
