package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"themetree/internal/config"
	"themetree/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	modelSpec  string

	// Loaded per invocation
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "themetree",
	Short: "themetree - LLM-driven mind map generation",
	Long: `themetree generates hierarchical mind maps (theme -> sub-themes ->
sub-sub-themes) by prompting an LLM and reconciling its free-form reply
into a well-formed tree.

Providers are configured in .local/llms.json (or YAML); API keys can
also come from OPENROUTER_API_KEY, IFLOW_API_KEY and GEMINI_API_KEY.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if err := logging.Initialize(cfg.LogDir, cfg.Debug); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		logging.Boot("themetree starting: provider=%s model=%s", cfg.DefaultProvider, cfg.DefaultModel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Shutdown()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&modelSpec, "model", "m", "", "Model spec as provider::model (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(dynamicCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(archiveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
