package cli

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/dataflows"
	"github.com/dyike/StockCouncil/internal/trading"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		symbol   string
		date     string
		analysts []string
		rounds   int
	)

	cmd := &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Run a full analysis for one ticker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				symbol = args[0]
			}
			if rounds > 0 {
				cfg.MaxDebateRounds = rounds
			}
			if len(analysts) > 0 {
				cfg.SelectedAnalysts = analysts
			}

			if symbol == "" {
				if err := promptForRun(cfg, &symbol, &date); err != nil {
					return err
				}
			}
			symbol = dataflows.NormalizeSymbol(symbol)
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return trading.NewSession(cfg, symbol, date, logger).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "trade date (yyyy-mm-dd, default today)")
	cmd.Flags().StringSliceVarP(&analysts, "analysts", "a", nil, "analysts to run (market, news)")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 0, "debate rounds per researcher")
	return cmd
}

// promptForRun collects the run parameters interactively when no symbol was
// given on the command line.
func promptForRun(cfg *config.Config, symbol, date *string) error {
	questions := []*survey.Question{
		{
			Name:   "symbol",
			Prompt: &survey.Input{Message: "Ticker symbol:", Default: "AAPL"},
			Validate: func(ans interface{}) error {
				s, _ := ans.(string)
				return dataflows.ValidateSymbol(s)
			},
		},
		{
			Name: "date",
			Prompt: &survey.Input{
				Message: "Trade date (yyyy-mm-dd):",
				Default: time.Now().Format("2006-01-02"),
			},
			Validate: func(ans interface{}) error {
				s, _ := ans.(string)
				if _, err := time.Parse("2006-01-02", s); err != nil {
					return fmt.Errorf("invalid date %q", s)
				}
				return nil
			},
		},
	}

	answers := struct {
		Symbol string
		Date   string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}
	*symbol = answers.Symbol
	*date = answers.Date

	var selected []string
	if err := survey.AskOne(&survey.MultiSelect{
		Message: "Analysts to run:",
		Options: []string{"market", "news"},
		Default: cfg.SelectedAnalysts,
	}, &selected, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	cfg.SelectedAnalysts = selected
	return nil
}
