package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/models"
)

// StateSnapshot is the persisted view of one finished run.
type StateSnapshot struct {
	CompanyOfInterest     string              `json:"company_of_interest"`
	TradeDate             string              `json:"trade_date"`
	MarketReport          string              `json:"market_report"`
	NewsReport            string              `json:"news_report"`
	InvestmentDebateState debateSnapshot      `json:"investment_debate_state"`
	TraderInvestmentPlan  string              `json:"trader_investment_decision"`
	InvestmentPlan        string              `json:"investment_plan"`
	FinalTradeDecision    string              `json:"final_trade_decision"`
}

type debateSnapshot struct {
	BullHistory     string `json:"bull_history"`
	BearHistory     string `json:"bear_history"`
	History         string `json:"history"`
	CurrentResponse string `json:"current_response"`
}

// Recorder accumulates per-date snapshots for a ticker and writes them under
// the results directory.
type Recorder struct {
	resultsDir string
	logger     *zap.Logger

	mu        sync.Mutex
	snapshots map[string]map[string]*StateSnapshot // ticker -> date -> snapshot
}

// NewRecorder creates a recorder rooted at resultsDir.
func NewRecorder(resultsDir string, logger *zap.Logger) *Recorder {
	return &Recorder{
		resultsDir: resultsDir,
		logger:     logger,
		snapshots:  make(map[string]map[string]*StateSnapshot),
	}
}

// LogState captures the final state of one run, keyed by ticker and date.
func (r *Recorder) LogState(state *models.AgentState) {
	snap := &StateSnapshot{
		CompanyOfInterest:    state.CompanyOfInterest,
		TradeDate:            state.TradeDate,
		MarketReport:         state.MarketReport,
		NewsReport:           state.NewsReport,
		TraderInvestmentPlan: state.TraderInvestmentPlan,
		InvestmentPlan:       state.InvestmentPlan,
		FinalTradeDecision:   state.FinalTradeDecision,
	}
	if d := state.InvestDebateState; d != nil {
		snap.InvestmentDebateState = debateSnapshot{
			BullHistory:     d.BullHistory,
			BearHistory:     d.BearHistory,
			History:         d.History,
			CurrentResponse: d.CurrentResponse,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshots[state.CompanyOfInterest] == nil {
		r.snapshots[state.CompanyOfInterest] = make(map[string]*StateSnapshot)
	}
	r.snapshots[state.CompanyOfInterest][state.TradeDate] = snap
}

// Persist writes every logged snapshot for the ticker into
// <resultsDir>/<ticker>/full_states_log_<date>.json, one file per date.
func (r *Recorder) Persist(ticker string) error {
	r.mu.Lock()
	byDate := r.snapshots[ticker]
	r.mu.Unlock()
	if len(byDate) == 0 {
		return fmt.Errorf("no recorded state for %s", ticker)
	}

	dir := filepath.Join(r.resultsDir, ticker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	for date, snap := range byDate {
		path := filepath.Join(dir, fmt.Sprintf("full_states_log_%s.json", date))
		data, err := json.MarshalIndent(map[string]*StateSnapshot{date: snap}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal state log: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write state log: %w", err)
		}
		r.logger.Info("state log written",
			zap.String("ticker", ticker), zap.String("path", path))
	}
	return nil
}
