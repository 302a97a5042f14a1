package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/models"
)

func TestRecorderPersistsStateLog(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, zap.NewNop())

	state := &models.AgentState{
		CompanyOfInterest:    "AAPL",
		TradeDate:            "2024-05-10",
		MarketReport:         "uptrend",
		NewsReport:           "good quarter",
		InvestmentPlan:       "bull case prevails",
		TraderInvestmentPlan: "FINAL TRANSACTION PROPOSAL: **BUY**",
		FinalTradeDecision:   "FINAL TRANSACTION PROPOSAL: **BUY**",
		InvestDebateState: &models.InvestDebateState{
			History:         "Bull Analyst: up\nBear Analyst: down",
			BullHistory:     "Bull Analyst: up",
			BearHistory:     "Bear Analyst: down",
			CurrentResponse: "Bear Analyst: down",
		},
	}
	rec.LogState(state)
	require.NoError(t, rec.Persist("AAPL"))

	path := filepath.Join(dir, "AAPL", "full_states_log_2024-05-10.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	snap, ok := decoded["2024-05-10"]
	require.True(t, ok)
	assert.Equal(t, "AAPL", snap["company_of_interest"])
	assert.Equal(t, "uptrend", snap["market_report"])

	debate, ok := snap["investment_debate_state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bull Analyst: up", debate["bull_history"])
}

func TestRecorderPersistWithoutLogFails(t *testing.T) {
	rec := NewRecorder(t.TempDir(), zap.NewNop())
	require.Error(t, rec.Persist("MSFT"))
}
