package processing

import (
	"regexp"
	"strings"
)

// Signal is the categorical outcome of one analysis run.
type Signal string

// The four possible signals. NoSignal means the decision text carried no
// recognizable tag; callers must not coerce it to Hold.
const (
	Buy      Signal = "BUY"
	Hold     Signal = "HOLD"
	Sell     Signal = "SELL"
	NoSignal Signal = "NO_SIGNAL"
)

// proposalMarker precedes the trader's explicit decision tag.
const proposalMarker = "FINAL TRANSACTION PROPOSAL:"

// SignalProcessor reduces a final decision text to its trading signal.
type SignalProcessor struct{}

// NewSignalProcessor returns a signal extractor.
func NewSignalProcessor() *SignalProcessor { return &SignalProcessor{} }

// ProcessSignal extracts the decision tag from fullText. The text after the
// last proposal marker wins; without a marker, the last literal BUY, SELL or
// HOLD mention wins. Extraction never guesses: absent tags yield NoSignal.
func (p *SignalProcessor) ProcessSignal(fullText string) Signal {
	upper := strings.ToUpper(fullText)

	if idx := strings.LastIndex(upper, proposalMarker); idx >= 0 {
		if sig := lastTag(upper[idx+len(proposalMarker):]); sig != NoSignal {
			return sig
		}
	}
	return lastTag(upper)
}

// tagPattern matches the decision words only as whole words, so mentions
// embedded in longer words (SHAREHOLDERS, WITHHOLD) never count.
var tagPattern = regexp.MustCompile(`\b(BUY|SELL|HOLD)\b`)

func lastTag(text string) Signal {
	tags := tagPattern.FindAllString(text, -1)
	if len(tags) == 0 {
		return NoSignal
	}
	return Signal(tags[len(tags)-1])
}
