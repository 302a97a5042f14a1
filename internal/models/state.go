package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Analyst identifiers used as report keys and tool-round keys.
const (
	AnalystMarket = "market"
	AnalystNews   = "news"
)

// ErrWriteOnce is returned when a delta tries to replace a report or plan
// field that another node already populated.
var ErrWriteOnce = errors.New("write-once state field already set")

// ErrDebateRollback is returned when a debate update would decrease a counter.
var ErrDebateRollback = errors.New("debate counters must not decrease")

// Speaker tags used as utterance boundary markers in debate transcripts.
const (
	BullSpeaker = "Bull Analyst"
	BearSpeaker = "Bear Analyst"
)

// InvestDebateState tracks the bull/bear exchange. It is created empty at run
// start, mutated only by the researcher nodes and read by the router to pick
// the next speaker.
type InvestDebateState struct {
	History         string `json:"history"`
	BullHistory     string `json:"bull_history"`
	BearHistory     string `json:"bear_history"`
	CurrentResponse string `json:"current_response"`
	BullCount       int    `json:"bull_count"`
	BearCount       int    `json:"bear_count"`
	Count           int    `json:"count"`
}

// Clone returns an independent copy for a node to mutate and hand back.
func (d *InvestDebateState) Clone() *InvestDebateState {
	if d == nil {
		return &InvestDebateState{}
	}
	cp := *d
	return &cp
}

// AppendUtterance records one "<Speaker>: <text>" line in the interleaved
// history and the speaker's own side history, bumps the speaker's counter by
// exactly one and makes the line the current response.
func (d *InvestDebateState) AppendUtterance(speaker, text string) string {
	line := speaker + ": " + strings.TrimSpace(text)
	d.History = joinLine(d.History, line)
	switch speaker {
	case BullSpeaker:
		d.BullHistory = joinLine(d.BullHistory, line)
		d.BullCount++
	case BearSpeaker:
		d.BearHistory = joinLine(d.BearHistory, line)
		d.BearCount++
	}
	d.CurrentResponse = line
	d.Count++
	return line
}

func joinLine(history, line string) string {
	if history == "" {
		return line
	}
	return history + "\n" + line
}

// AgentState is the single shared record threaded through every node
// invocation for one analysis run. The executor owns it; nodes receive it
// read-only and return a StateDelta.
type AgentState struct {
	Messages          []*schema.Message  `json:"messages"`
	CompanyOfInterest string             `json:"company_of_interest"`
	TradeDate         string             `json:"trade_date"`
	MarketReport      string             `json:"market_report"`
	NewsReport        string             `json:"news_report"`
	InvestDebateState *InvestDebateState `json:"investment_debate_state"`

	InvestmentPlan       string `json:"investment_plan"`
	TraderInvestmentPlan string `json:"trader_investment_plan"`
	FinalTradeDecision   string `json:"final_trade_decision"`
	Sender               string `json:"sender"`

	// AnalysisComplete is monotonic: raised once by the phase checker and
	// never reset within a run.
	AnalysisComplete bool `json:"analysis_complete"`

	// ToolRounds counts completed analyst->tool cycles per analyst so the
	// router can bound the tool loop structurally rather than by prompt
	// wording alone.
	ToolRounds map[string]int `json:"tool_rounds"`
}

// Report returns the finalized report for the named analyst, or "".
func (s *AgentState) Report(name string) string {
	switch name {
	case AnalystMarket:
		return s.MarketReport
	case AnalystNews:
		return s.NewsReport
	}
	return ""
}

// CompletedAnalysts returns the set of analysts with a non-empty report.
func (s *AgentState) CompletedAnalysts() map[string]bool {
	done := make(map[string]bool, 2)
	if s.MarketReport != "" {
		done[AnalystMarket] = true
	}
	if s.NewsReport != "" {
		done[AnalystNews] = true
	}
	return done
}

// LastMessage returns the newest conversation entry, or nil.
func (s *AgentState) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// StateDelta is the partial update a node returns. Zero values mean "leave
// unchanged"; the executor merges deltas under the write-once rules.
type StateDelta struct {
	// Messages are appended to the conversation. When ClearMessages is set
	// the conversation is purged first, so the delta's messages become the
	// whole conversation (the between-phase placeholder).
	Messages      []*schema.Message
	ClearMessages bool

	MarketReport         string
	NewsReport           string
	InvestmentPlan       string
	TraderInvestmentPlan string
	FinalTradeDecision   string
	Sender               string

	// Debate replaces the debate sub-record with the node's updated copy.
	Debate *InvestDebateState

	// AnalysisComplete may only raise the flag, never lower it.
	AnalysisComplete bool

	// ToolRoundFor names the analyst whose tool-cycle counter advances by one.
	ToolRoundFor string
}

// Apply merges a delta into the state. Report and plan fields are write-once:
// a delta may set them when empty or restate the identical value, but never
// replace existing text. Debate counters may only grow.
func (s *AgentState) Apply(d *StateDelta) error {
	if d == nil {
		return nil
	}
	if err := writeOnce(&s.MarketReport, d.MarketReport, "market_report"); err != nil {
		return err
	}
	if err := writeOnce(&s.NewsReport, d.NewsReport, "news_report"); err != nil {
		return err
	}
	if err := writeOnce(&s.InvestmentPlan, d.InvestmentPlan, "investment_plan"); err != nil {
		return err
	}
	if err := writeOnce(&s.TraderInvestmentPlan, d.TraderInvestmentPlan, "trader_investment_plan"); err != nil {
		return err
	}
	if err := writeOnce(&s.FinalTradeDecision, d.FinalTradeDecision, "final_trade_decision"); err != nil {
		return err
	}
	if d.Debate != nil {
		if old := s.InvestDebateState; old != nil {
			if d.Debate.BullCount < old.BullCount || d.Debate.BearCount < old.BearCount || d.Debate.Count < old.Count {
				return ErrDebateRollback
			}
		}
		s.InvestDebateState = d.Debate
	}
	if d.Sender != "" {
		s.Sender = d.Sender
	}
	if d.AnalysisComplete {
		s.AnalysisComplete = true
	}
	if d.ToolRoundFor != "" {
		if s.ToolRounds == nil {
			s.ToolRounds = make(map[string]int, 2)
		}
		s.ToolRounds[d.ToolRoundFor]++
	}
	if d.ClearMessages {
		s.Messages = s.Messages[:0]
	}
	s.Messages = append(s.Messages, d.Messages...)
	return nil
}

func writeOnce(dst *string, val, field string) error {
	if val == "" || val == *dst {
		return nil
	}
	if *dst != "" {
		return fmt.Errorf("%w: %s", ErrWriteOnce, field)
	}
	*dst = val
	return nil
}
