package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"region-chat/src/clipboard"
	"region-chat/src/config"
	"region-chat/src/eventloop"
	"region-chat/src/hotkey"
	"region-chat/src/messages"
	"region-chat/src/runtimeinit"
	"region-chat/src/screenshot"
	"region-chat/src/singleinstance"
	"region-chat/src/ui"
)

type mainOptions struct {
	envFile    string
	apiKeyPath string
	imagePath  string
	capture    bool
	verbose    bool
	noTray     bool
}

func main() {
	if err := run(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		args = []string{"region-chat"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "region-chat",
		Short:         "Select a region of a screenshot and chat about it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env", "", "Path to a .env file (overrides discovery)")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.imagePath, "image", "", "Open this image on startup")
	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Capture the screen on startup")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging to stderr")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "Do not install the system tray menu")

	return cmd
}

func runApp(opts mainOptions) error {
	// Ensure DPI awareness before creating any windows or querying metrics
	dpi := enableDPIAwareness()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EnvFileOverride:    opts.envFile,
		},
		Verbose: opts.verbose,
	})
	if err != nil {
		return err
	}
	log := rt.Logger
	defer func() { _ = log.Sync() }()
	log.Debug("DPI", zap.String("status", dpi))

	req, err := launchRequest(opts)
	if err != nil {
		return err
	}
	dctx, dcancel := context.WithTimeout(context.Background(), time.Second)
	delegated, err := singleinstance.NewClient().Delegate(dctx, req)
	dcancel()
	if delegated {
		if err != nil {
			return fmt.Errorf("running instance rejected request: %w", err)
		}
		log.Info("handed request to running instance", zap.String("action", string(req.Action)))
		return nil
	}
	logMonitorConfiguration(log)

	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable, paste disabled", zap.Error(err))
	}

	loop := eventloop.New(eventloop.Options{
		Completer: rt.Client,
		Capture:   screenshot.CapturePNG,
		FontSize:  rt.Config.FontSize,
		Logger:    log.Named("eventloop"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := ui.New(ui.Options{Loop: loop, Logger: log.Named("ui"), EnableTray: !opts.noTray})

	if rt.Config.HotkeyEnabled() {
		stop, err := hotkey.Listen(rt.Config.CaptureHotkey, log.Named("hotkey"), func() {
			loop.Post(messages.CaptureScreen{})
		})
		if err != nil {
			log.Warn("capture hotkey not registered", zap.String("hotkey", rt.Config.CaptureHotkey), zap.Error(err))
		} else {
			defer stop()
		}
	}

	resident := singleinstance.NewServer(log.Named("resident"))
	if err := resident.Start(ctx); err != nil {
		log.Warn("resident port unavailable, later launches open their own window", zap.Error(err))
	} else {
		defer resident.Close()
		go serveResident(ctx, resident, app, log)
	}

	switch req.Action {
	case singleinstance.ActionOpen:
		app.Open(req.Path)
	case singleinstance.ActionCapture:
		loop.Post(messages.CaptureScreen{})
	}

	go func() {
		err := loop.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, eventloop.ErrStopped) {
			log.Error("event loop stopped", zap.Error(err))
		}
		app.Quit()
	}()

	log.Info("Region Chat initialized", zap.String("model", rt.Client.Model()))
	app.ShowAndRun()

	loop.Stop()
	return nil
}

// launchRequest is what this launch asks for, whether it ends up served
// here or by an already running window.
func launchRequest(opts mainOptions) (singleinstance.Request, error) {
	if path := strings.TrimSpace(opts.imagePath); path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return singleinstance.Request{}, fmt.Errorf("invalid image path %q: %w", path, err)
		}
		return singleinstance.Request{Action: singleinstance.ActionOpen, Path: abs}, nil
	}
	if opts.capture {
		return singleinstance.Request{Action: singleinstance.ActionCapture}, nil
	}
	return singleinstance.Request{Action: singleinstance.ActionShow}, nil
}

func serveResident(ctx context.Context, srv singleinstance.Server, app *ui.App, log *zap.Logger) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		req := conn.Request()
		switch req.Action {
		case singleinstance.ActionOpen:
			if _, statErr := os.Stat(req.Path); statErr != nil {
				err = conn.RespondError(statErr.Error())
				break
			}
			app.Open(req.Path)
			app.Raise()
			err = conn.RespondOK()
		case singleinstance.ActionCapture:
			app.Capture()
			err = conn.RespondOK()
		default:
			app.Raise()
			err = conn.RespondOK()
		}
		if err != nil {
			log.Debug("failed to answer delegated request", zap.Error(err))
		}
		_ = conn.Close()
	}
}

// normalizeLegacyArgs maps single-dash long flags (-image) to cobra's --image.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"env", "api-key-path", "image", "capture", "verbose", "no-tray"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
