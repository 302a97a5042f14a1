package graph

// NodeID enumerates every workflow position. Routing is expressed over this
// closed set; there is no string-keyed dispatch.
type NodeID int

const (
	NodeStart NodeID = iota
	NodeAnalysisPhaseChecker
	NodeMarketAnalyst
	NodeToolsMarket
	NodeClearMarket
	NodeNewsAnalyst
	NodeToolsNews
	NodeClearNews
	NodeBullResearcher
	NodeBearResearcher
	NodeTrader
	NodeEnd
)

var nodeNames = map[NodeID]string{
	NodeStart:                "Start",
	NodeAnalysisPhaseChecker: "AnalysisPhaseChecker",
	NodeMarketAnalyst:        "MarketAnalyst",
	NodeToolsMarket:          "ToolsMarket",
	NodeClearMarket:          "MsgClearMarket",
	NodeNewsAnalyst:          "NewsAnalyst",
	NodeToolsNews:            "ToolsNews",
	NodeClearNews:            "MsgClearNews",
	NodeBullResearcher:       "BullResearcher",
	NodeBearResearcher:       "BearResearcher",
	NodeTrader:               "Trader",
	NodeEnd:                  "End",
}

func (n NodeID) String() string {
	if name, ok := nodeNames[n]; ok {
		return name
	}
	return "Unknown"
}
