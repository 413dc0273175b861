package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"auroracast/internal/config"
	"auroracast/internal/logging"
	"auroracast/internal/oracle"
)

const appVersion = "1.2.0"

var (
	// Global flags
	cfgPath   string
	verbose   bool
	apiKey    string
	forceDemo bool

	// Shared state, built once in PersistentPreRunE
	cfg        *config.Config
	capability oracle.Capability
	logger     *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "auroracast",
	Short: "Aurora forecast briefings from your terminal",
	Long: `auroracast asks a search-grounded generative model for tonight's aurora
outlook at your location and renders the reply as a terminal briefing.

Without a GEMINI_API_KEY every command still works: the app drops into
demo mode and substitutes simulated data, clearly labeled as such.

Run without arguments to fetch tonight's forecast.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is the normal case.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.Oracle.APIKey = apiKey
		}
		if forceDemo {
			cfg.Oracle.ForceDemo = true
		}
		if verbose {
			cfg.Logging.Debug = true
			cfg.Logging.Level = "debug"
		}

		logging.Initialize(logging.Options{
			Dir:   cfg.Logging.Dir,
			Debug: cfg.Logging.Debug,
			Level: cfg.Logging.Level,
		})

		// The chat TUI owns the terminal; zap would write over it.
		if cmd.Name() != "chat" {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}

		capability, err = oracle.New(cmd.Context(), oracle.FromConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to initialize model client: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runForecast,
}

func resolveConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return config.DefaultConfigPath()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: ~/.auroracast/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&forceDemo, "demo", false, "Run on simulated data even when a key is present")

	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(photoCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
