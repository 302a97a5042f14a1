package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/StockCouncil/internal/models"
	"github.com/dyike/StockCouncil/internal/processing"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7C3AED"))

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// ResultsDisplay renders one finished run to the terminal.
type ResultsDisplay struct {
	symbol string
	date   string
}

// NewResultsDisplay creates a renderer for the given run.
func NewResultsDisplay(symbol, date string) *ResultsDisplay {
	return &ResultsDisplay{symbol: symbol, date: date}
}

// ShowAnalysisResults prints the reports, the debate and the decision.
func (d *ResultsDisplay) ShowAnalysisResults(state *models.AgentState, signal processing.Signal) {
	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("Analysis results for %s on %s", d.symbol, d.date)))
	fmt.Println()

	d.showSection("Market Analysis", state.MarketReport)
	d.showSection("News Analysis", state.NewsReport)

	if debate := state.InvestDebateState; debate != nil && debate.History != "" {
		d.showSection("Research Debate", debate.History)
	}
	d.showSection("Investment Plan", state.InvestmentPlan)
	d.showSection("Trader Decision", state.TraderInvestmentPlan)

	fmt.Printf("%s %s\n\n",
		sectionTitleStyle.Render("FINAL SIGNAL:"), renderSignal(signal))
}

func (d *ResultsDisplay) showSection(title, body string) {
	fmt.Println(sectionTitleStyle.Render(title))
	if strings.TrimSpace(body) == "" {
		fmt.Println(mutedStyle.Render("  (not produced)"))
	} else {
		fmt.Println(body)
	}
	fmt.Println()
}

func renderSignal(signal processing.Signal) string {
	switch signal {
	case processing.Buy:
		return buyStyle.Render(string(signal))
	case processing.Sell:
		return sellStyle.Render(string(signal))
	case processing.Hold:
		return holdStyle.Render(string(signal))
	}
	return mutedStyle.Render(string(signal))
}
