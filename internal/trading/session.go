package trading

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/dataflows"
	"github.com/dyike/StockCouncil/internal/display"
	"github.com/dyike/StockCouncil/internal/graph"
)

// Session runs one analysis end to end: validate, build the graph, execute,
// render and persist.
type Session struct {
	cfg    *config.Config
	symbol string
	date   string
	logger *zap.Logger
}

// NewSession prepares an analysis session for the symbol and trade date.
func NewSession(cfg *config.Config, symbol, date string, logger *zap.Logger) *Session {
	return &Session{cfg: cfg, symbol: symbol, date: date, logger: logger}
}

// Execute performs the full run. Partial progress is persisted even when the
// workflow aborts mid-run.
func (s *Session) Execute(ctx context.Context) error {
	if err := dataflows.ValidateSymbol(s.symbol); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", s.date); err != nil {
		return fmt.Errorf("invalid trade date %q (want yyyy-mm-dd): %w", s.date, err)
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := s.cfg.EnsureDirs(); err != nil {
		return err
	}

	tg, err := graph.NewTradingGraph(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}

	state, signal, runErr := tg.Propagate(ctx, s.symbol, s.date)
	if runErr != nil {
		s.logger.Error("run aborted", zap.Error(runErr))
		return fmt.Errorf("analysis for %s: %w", s.symbol, runErr)
	}

	display.NewResultsDisplay(s.symbol, s.date).ShowAnalysisResults(state, signal)

	if err := tg.SaveResults(s.symbol); err != nil {
		s.logger.Warn("persisting results failed", zap.Error(err))
	}
	return nil
}
