package graph

import (
	"fmt"

	"github.com/dyike/StockCouncil/internal/models"
)

// ConditionalLogic decides the next node after each step. It is a pure
// function of the state and the run configuration: same state, same answer.
// It never mutates the debate record; the only write it ever proposes is the
// top-level investment plan when it resolves the debate to the trader.
type ConditionalLogic struct {
	maxDebateRounds int
	maxToolRounds   int
	selected        []string
}

// NewConditionalLogic builds the router for one run configuration.
func NewConditionalLogic(maxDebateRounds, maxToolRounds int, selected []string) *ConditionalLogic {
	return &ConditionalLogic{
		maxDebateRounds: maxDebateRounds,
		maxToolRounds:   maxToolRounds,
		selected:        selected,
	}
}

// AreAnalystsComplete reports whether every selected analyst has finalized
// its report, by set equality against the selection.
func (c *ConditionalLogic) AreAnalystsComplete(state *models.AgentState) bool {
	done := state.CompletedAnalysts()
	for _, name := range c.selected {
		if !done[name] {
			return false
		}
	}
	return true
}

// NextAnalyst returns the node of the first selected analyst without a
// report.
func (c *ConditionalLogic) NextAnalyst(state *models.AgentState) (NodeID, error) {
	done := state.CompletedAnalysts()
	for _, name := range c.selected {
		if done[name] {
			continue
		}
		switch name {
		case models.AnalystMarket:
			return NodeMarketAnalyst, nil
		case models.AnalystNews:
			return NodeNewsAnalyst, nil
		}
	}
	return NodeEnd, fmt.Errorf("no pending analyst")
}

// ShouldContinueMarket routes after a market analyst turn: pending tool calls
// go to the tool executor unless the analyst exhausted its tool rounds, in
// which case the phase moves on regardless.
func (c *ConditionalLogic) ShouldContinueMarket(state *models.AgentState) NodeID {
	return c.analystNext(state, models.AnalystMarket, NodeToolsMarket, NodeClearMarket)
}

// ShouldContinueNews routes after a news analyst turn.
func (c *ConditionalLogic) ShouldContinueNews(state *models.AgentState) NodeID {
	return c.analystNext(state, models.AnalystNews, NodeToolsNews, NodeClearNews)
}

func (c *ConditionalLogic) analystNext(state *models.AgentState, analyst string, toolsNode, clearNode NodeID) NodeID {
	last := state.LastMessage()
	if last != nil && len(last.ToolCalls) > 0 && state.ToolRounds[analyst] < c.maxToolRounds {
		return toolsNode
	}
	return clearNode
}

// ShouldContinueDebate picks the next debate participant or resolves the
// debate to the trader. Ceilings are evaluated in priority order: the total
// ceiling first, then the per-side ceiling, then normal consensus. When it
// resolves to the trader it also proposes the investment plan, tagged with
// the resolution reason.
func (c *ConditionalLogic) ShouldContinueDebate(state *models.AgentState) (NodeID, *models.StateDelta) {
	d := state.InvestDebateState
	if d == nil {
		d = &models.InvestDebateState{}
	}
	r := c.maxDebateRounds

	switch {
	case d.Count >= 4*r:
		return NodeTrader, planDelta("Max rounds reached.", d)
	case d.BullCount >= 2*r || d.BearCount >= 2*r:
		return NodeTrader, planDelta("Individual limit reached.", d)
	case d.BullCount >= r && d.BearCount >= r:
		return NodeTrader, planDelta("Research Team Consensus:", d)
	case d.BullCount <= d.BearCount:
		return NodeBullResearcher, nil
	default:
		return NodeBearResearcher, nil
	}
}

func planDelta(tag string, d *models.InvestDebateState) *models.StateDelta {
	plan := tag
	if d.History != "" {
		plan += "\n" + d.History
	}
	return &models.StateDelta{InvestmentPlan: plan}
}

// Next is the full transition table. Terminal is signalled by NodeEnd.
func (c *ConditionalLogic) Next(current NodeID, state *models.AgentState) (NodeID, *models.StateDelta, error) {
	switch current {
	case NodeStart:
		return NodeAnalysisPhaseChecker, nil, nil
	case NodeAnalysisPhaseChecker:
		if state.AnalysisComplete {
			next, delta := c.ShouldContinueDebate(state)
			return next, delta, nil
		}
		next, err := c.NextAnalyst(state)
		return next, nil, err
	case NodeMarketAnalyst:
		return c.ShouldContinueMarket(state), nil, nil
	case NodeNewsAnalyst:
		return c.ShouldContinueNews(state), nil, nil
	case NodeToolsMarket:
		return NodeMarketAnalyst, nil, nil
	case NodeToolsNews:
		return NodeNewsAnalyst, nil, nil
	case NodeClearMarket, NodeClearNews:
		return NodeAnalysisPhaseChecker, nil, nil
	case NodeBullResearcher, NodeBearResearcher:
		next, delta := c.ShouldContinueDebate(state)
		return next, delta, nil
	case NodeTrader:
		return NodeEnd, nil, nil
	}
	return NodeEnd, nil, fmt.Errorf("no transition from %s", current)
}
