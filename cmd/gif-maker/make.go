package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fpang/gif-maker/internal/composer"
	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/fpang/gif-maker/internal/logging"
	"github.com/fpang/gif-maker/internal/picker"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	urlFlags       []string
	pickFlag       bool
	animationFlag  string
	durationFlag   string
	loopFlag       string
	transitionFlag string
)

var makeCmd = &cobra.Command{
	Use:   "make [files...]",
	Short: "Compose a GIF without the interactive UI",
	Long: `Make adds the given images, optionally assigns one animation to all of
them, asks the service to compose the GIF and saves it to the output
directory. URLs are added first, then files in command-line order. File
arguments may be glob patterns.

Examples:
  gif-maker make a.png b.png c.png
  gif-maker make --url https://example.com/x.jpg --animation "Fade in" 'shots/*.png'
  gif-maker make --pick --duration 120 --loop 3`,
	RunE: runMake,
}

func init() {
	makeCmd.Flags().StringArrayVarP(&urlFlags, "url", "u", nil, "Image URL to add (repeatable)")
	makeCmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose files with the native file dialog")
	makeCmd.Flags().StringVarP(&animationFlag, "animation", "a", "", "Animation applied to every image")
	makeCmd.Flags().StringVar(&durationFlag, "duration", "", "Frame duration in milliseconds (default from config)")
	makeCmd.Flags().StringVar(&loopFlag, "loop", "", "Loop count, 0 loops forever (default from config)")
	makeCmd.Flags().StringVar(&transitionFlag, "transition-frames", "", "Frames between images (default from config)")
	rootCmd.AddCommand(makeCmd)
}

func runMake(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(urlFlags) == 0 && !pickFlag {
		return errNoImages
	}
	started := time.Now()
	logging.Init()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client := gifapi.NewClient(cfg.Server.URL, cfg.Server.TimeoutDuration())
	ctrl := composer.New(client, composer.Options{
		Animations: cfg.Animations,
		OnNotify:   logNotification,
	})
	logStartup("gif-maker make", cfg, pickFlag, started)

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	for _, u := range urlFlags {
		if _, err := ctrl.AddURL(ctx, u); err != nil {
			return err
		}
	}

	var pick picker.Picker = picker.Args(args)
	if pickFlag {
		pick = picker.Native{}
	}
	paths, err := pick.PickImages()
	if err != nil {
		return err
	}
	// One file per batch keeps frame order equal to argument order.
	var failed int
	for _, path := range paths {
		summary, err := ctrl.UploadFiles(ctx, []string{path})
		if err != nil {
			return err
		}
		failed += len(summary.Failed)
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Msg("Some uploads failed, continuing with the rest")
	}

	if animationFlag != "" {
		if err := ctrl.ApplyAnimationAll(ctx, animationFlag); err != nil {
			return err
		}
	}

	params := composer.ParamsFrom(gifOptions(cfg))
	if durationFlag != "" {
		params.Duration = durationFlag
	}
	if loopFlag != "" {
		params.Loop = loopFlag
	}
	if transitionFlag != "" {
		params.TransitionFrames = transitionFlag
	}

	result, err := ctrl.CreateGIF(ctx, params)
	if err != nil {
		return err
	}
	path, err := ctrl.SaveGIF(ctx, result, cfg.Output.Dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// logNotification routes user-facing controller messages to the log.
func logNotification(n composer.Notification) {
	if n.Kind == composer.NotifyError {
		log.Error().Msg(n.Message)
		return
	}
	log.Info().Msg(n.Message)
}

var errNoImages = errors.New("no images given: pass files, --url or --pick")
