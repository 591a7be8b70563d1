package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fpang/gif-maker/internal/composer"
	"github.com/fpang/gif-maker/internal/config"
	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/fpang/gif-maker/internal/logging"
	"github.com/fpang/gif-maker/internal/picker"
	"github.com/fpang/gif-maker/internal/tui"
	"github.com/fpang/gif-maker/internal/view"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

// CLI flags
var (
	configFlag  string
	serverFlag  string
	outputFlag  string
	logFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "gif-maker",
	Short: "Compose animated GIFs from images",
	Long: `GIF Maker builds an animated GIF from a sequence of images. Images are
added by URL or uploaded from disk, each gets an entry animation, and the
composition service renders the result.

Run without a subcommand for the interactive terminal UI.

Examples:
  gif-maker
  gif-maker --server http://localhost:5000
  gif-maker make --url https://example.com/a.png photos/*.jpg -o out`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Composition service URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Directory for saved GIFs (overrides config)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", defaultLogFile(), "Log file for the interactive UI")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gif-maker", "gif-maker.log")
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, err
	}
	if serverFlag != "" {
		cfg.Server.URL = serverFlag
	}
	if outputFlag != "" {
		cfg.Output.Dir = outputFlag
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func logStartup(name string, cfg config.Config, native bool, started time.Time) {
	logging.NewStartupLogger(name).
		Version(version).
		CommitHash(commit).
		Feature("nativePicker", native).
		Config("server", cfg.Server.URL).
		Config("timeout", cfg.Server.TimeoutDuration().String()).
		Config("configFile", cfg.Path).
		Config("outputDir", cfg.Output.Dir).
		List("animations", cfg.Animations).
		InitDuration(time.Since(started)).
		Log()
}

func runInteractive(cmd *cobra.Command, args []string) error {
	started := time.Now()

	// The UI owns the terminal, so logs go to a file.
	logFile, err := logging.InitFile(logFileFlag)
	if err != nil {
		return err
	}
	defer logFile.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client := gifapi.NewClient(cfg.Server.URL, cfg.Server.TimeoutDuration())
	opts, attach := tui.Hooks(cfg.Animations)
	ctrl := composer.New(client, opts)

	logStartup("gif-maker", cfg, true, started)

	err = tui.Run(ctx, tui.Config{
		Controller: ctrl,
		Thumbnails: client,
		Picker:     picker.Native{},
		Params:     composer.ParamsFrom(gifOptions(cfg)),
		OutputDir:  cfg.Output.Dir,
		Styles:     view.DefaultStyles(),
	}, attach)
	if err != nil {
		log.Error().Err(err).Msg("Terminal UI failed")
		return fmt.Errorf("terminal UI: %w", err)
	}
	log.Info().Msg("Exited")
	return nil
}

func gifOptions(cfg config.Config) gifapi.GIFOptions {
	return gifapi.GIFOptions{
		Duration:         cfg.GIF.Duration,
		Loop:             cfg.GIF.Loop,
		TransitionFrames: cfg.GIF.TransitionFrames,
	}
}
