package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/agents"
	"github.com/dyike/StockCouncil/internal/models"
)

// Executor drives the workflow: route, run node, merge delta, repeat until
// the terminal node or the step ceiling. The state it returns is valid even
// on error, so callers can inspect how far a run got.
type Executor struct {
	nodes    map[NodeID]agents.Node
	router   *ConditionalLogic
	maxSteps int
	logger   *zap.Logger
}

// NewExecutor wires the node table to the router.
func NewExecutor(nodes map[NodeID]agents.Node, router *ConditionalLogic, maxSteps int, logger *zap.Logger) *Executor {
	if maxSteps < 1 {
		maxSteps = 100
	}
	return &Executor{nodes: nodes, router: router, maxSteps: maxSteps, logger: logger}
}

// Run executes the workflow over the given initial state and returns the
// final state. Routing deltas (the router's plan synthesis) merge under the
// same write-once rules as node deltas.
func (e *Executor) Run(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	current := NodeStart
	for step := 0; ; step++ {
		if step >= e.maxSteps {
			return state, fmt.Errorf("recursion limit %d reached at %s", e.maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		next, routeDelta, err := e.router.Next(current, state)
		if err != nil {
			return state, fmt.Errorf("route from %s: %w", current, err)
		}
		if routeDelta != nil {
			if err := state.Apply(routeDelta); err != nil {
				return state, fmt.Errorf("merge routing delta after %s: %w", current, err)
			}
		}
		e.logger.Debug("transition",
			zap.Stringer("from", current), zap.Stringer("to", next), zap.Int("step", step))

		if next == NodeEnd {
			return state, nil
		}

		node, ok := e.nodes[next]
		if !ok {
			return state, fmt.Errorf("no node registered for %s", next)
		}
		delta, err := node.Run(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", next, err)
		}
		if err := state.Apply(delta); err != nil {
			return state, fmt.Errorf("merge delta from %s: %w", next, err)
		}
		current = next
	}
}
