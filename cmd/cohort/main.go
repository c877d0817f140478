// Command cohort prepares MRI cohorts for training: it extracts baselines,
// materializes stratified subject-level splits, and checks that every image
// artifact of a table can be loaded.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/mriCohort/caps"
	"github.com/Noofbiz/mriCohort/datasets"
	"github.com/Noofbiz/mriCohort/split"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "cohort",
		Short: "Split and check MRI cohorts for classification experiments",
		Long: `cohort works on tab-separated participant/session/diagnosis tables.

It extracts baseline sessions, writes stratified train/validation(/test)
splits next to the source table without leaking subjects across sets, and
loads the CAPS image artifacts each table refers to.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/cohort/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.String("caps", "", "CAPS root directory")
	flags.String("preprocessing", string(caps.Linear), "image preprocessing (linear, mni, extensive, dartel)")
	flags.String("group", "", "DARTEL group, required with --preprocessing dartel")
	flags.Int64("seed", split.DefaultSeed, "random seed for splits and samplers")
	flags.Float64("val-size", 0.15, "fraction of subjects held out for validation")
	flags.Int("n-splits", 0, "number of folds (0 for a single train/valid split)")
	flags.String("manifest", "", "SQLite manifest recording generated split files")

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("logging.quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("caps.root", flags.Lookup("caps"))
	_ = viper.BindPFlag("caps.preprocessing", flags.Lookup("preprocessing"))
	_ = viper.BindPFlag("caps.group", flags.Lookup("group"))
	_ = viper.BindPFlag("split.seed", flags.Lookup("seed"))
	_ = viper.BindPFlag("split.val_size", flags.Lookup("val-size"))
	_ = viper.BindPFlag("split.n_splits", flags.Lookup("n-splits"))
	_ = viper.BindPFlag("manifest.path", flags.Lookup("manifest"))

	viper.SetDefault("sampler.mode", datasets.RandomMode)
	viper.SetDefault("sampler.batch_size", 8)

	rootCmd.AddCommand(baselineCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(plotCmd())
	rootCmd.AddCommand(manifestCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(fmt.Sprintf("%s/.config/cohort", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("COHORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// setupLogging installs the default slog logger on stderr. --quiet keeps only
// errors so that stdout output (tables, paths) can be piped cleanly.
func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("logging.level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if viper.GetBool("logging.quiet") {
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format := viper.GetString("logging.format"); format {
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
	slog.SetDefault(slog.New(handler).With("cmd", "cohort"))
	return nil
}
