package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/config"
)

var (
	cfgFile string
	debug   bool
)

// NewRootCommand builds the stockcouncil command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockcouncil",
		Short: "Multi-agent stock analysis",
		Long: `StockCouncil runs a team of LLM agents over a ticker: analysts gather
market and news evidence, bull and bear researchers debate it, and a trader
issues the final BUY/HOLD/SELL call.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newAnalyzeCommand())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cfgFile != "" {
		if err := cfg.LoadYAML(cfgFile); err != nil {
			return nil, err
		}
	}
	cfg.LoadFromEnv()
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zcfg.Build()
}
