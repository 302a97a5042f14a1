package graph

import (
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockCouncil/internal/models"
)

// Propagator creates the per-run initial state.
type Propagator struct{}

// NewPropagator returns a propagator.
func NewPropagator() *Propagator { return &Propagator{} }

// CreateInitialState seeds a run: the conversation opens with the company
// name, the debate record is empty and no report exists yet.
func (p *Propagator) CreateInitialState(companyName, tradeDate string) *models.AgentState {
	return &models.AgentState{
		Messages:          []*schema.Message{schema.UserMessage(companyName)},
		CompanyOfInterest: companyName,
		TradeDate:         tradeDate,
		InvestDebateState: &models.InvestDebateState{},
		ToolRounds:        make(map[string]int, 2),
	}
}
