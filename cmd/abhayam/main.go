package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/alert"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/app"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/capture"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/config"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/detector"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/display"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/hook"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/notify"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/server"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/store"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/tray"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/violence"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/vision"
)

const defaultConfigPath = "abhayam.yaml"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hotspots" {
		os.Exit(runHotspots(os.Args[2:]))
	}
	os.Exit(run(os.Args[1:]))
}

// setupLogger installs the default slog logger.
func setupLogger(format string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file. A missing default file is not an error.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	return config.Load(path)
}

func run(args []string) int {
	fs := flag.NewFlagSet("abhayam", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	regionsPath := fs.String("regions", "", "Path to the region file (overrides regions_file)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		setupLogger("text", *debug)
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	setupLogger(cfg.LogFormat, *debug || cfg.Debug)

	if *regionsPath != "" {
		cfg.RegionsFile = *regionsPath
	}
	regions, err := config.LoadRegions(cfg.RegionsFile)
	if err != nil {
		slog.Error("failed to load regions", "error", err)
		return 1
	}

	slog.Info("starting abhayam", "config", *configPath, "regions", len(regions), "capture", cfg.Capture.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()

	// Capture
	source, err := newSource(cfg.Capture)
	if err != nil {
		slog.Error("failed to open capture source", "backend", cfg.Capture.Backend, "error", err)
		return 1
	}
	defer source.Close()

	var motion *capture.MotionGate
	if cfg.Capture.MotionGate {
		motion = capture.NewMotionGate(cfg.Capture.MotionThresh)
		defer motion.Close()
	}

	// Models
	sidecar := vision.NewSidecar(cfg.Vision.SidecarCommand)
	defer sidecar.Close()

	hands, err := detector.NewMediaPipeDetector(detector.Config{
		Command:         cfg.Vision.HandsCommand,
		MaxHands:        2,
		MinConfidence:   cfg.Vision.HandConfidence,
		MinTrackingConf: cfg.Vision.HandConfidence,
	})
	var handDetector detector.Detector = hands
	if err != nil {
		slog.Warn("hand landmark service not available, gesture detection disabled", "error", err)
		handDetector = detector.NewMockDetector()
	}
	defer handDetector.Close()

	rule, err := violence.RuleByName(cfg.Violence.LoneFemaleRule)
	if err != nil {
		slog.Error("invalid lone female rule", "error", err)
		return 1
	}

	// Alert channels
	uploader, err := notify.NewUploader(cfg.Alert.Storage)
	if err != nil {
		slog.Error("failed to create uploader", "error", err)
		return 1
	}
	messenger, err := notify.NewMessenger(cfg.Alert.Messaging)
	if err != nil {
		slog.Error("failed to create messenger", "provider", cfg.Alert.Messaging.Provider, "error", err)
		return 1
	}
	if c, ok := messenger.(interface{ Close() error }); ok {
		defer c.Close()
	}

	opts := alert.Options{
		ViolenceLog:  cfg.Alert.ViolenceLog,
		GestureLog:   cfg.Alert.GestureLog,
		EvidenceRoot: cfg.Alert.EvidenceRoot,
		EvidenceExt:  cfg.Alert.EvidenceExt,
		Cooldown:     cfg.Alert.Cooldown,
		Uploader:     uploader,
		Messenger:    messenger,
		Metrics:      m,
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to initialize store", "path", cfg.Store.Path, "error", err)
			return 1
		}
		defer st.Close()
		opts.Recorder = st
	}

	if cfg.Alert.HooksDir != "" {
		manager := hook.NewManager(cfg.Alert.HooksDir)
		if err := manager.Discover(); err != nil {
			slog.Warn("hook discovery failed", "dir", cfg.Alert.HooksDir, "error", err)
		}
		slog.Info("hooks loaded", "count", len(manager.List()))
		opts.Hook = hook.NewRunner(manager, hook.NewExecutor(hook.DefaultTimeout))
	}

	dispatcher := alert.NewDispatcher(opts)

	// Display
	surface, streams := newSurface(cfg.Display.Surface)
	defer surface.Close()

	queue := display.NewQueue(cfg.Display.Capacity)

	pool, err := app.New(app.Config{
		Regions:          regions,
		Source:           source,
		Hands:            handDetector,
		People:           vision.NewSidecarDetector(sidecar, cfg.Vision.PersonConfidence),
		Classifier:       vision.NewClassifier(sidecar),
		Engine:           violence.NewEngine(rule),
		Dispatcher:       dispatcher,
		Queue:            queue,
		Surface:          surface,
		Motion:           motion,
		Width:            cfg.Capture.Width,
		Height:           cfg.Capture.Height,
		TrackIoU:         cfg.Vision.TrackIoU,
		TrackMaxAge:      cfg.Vision.TrackMaxAge,
		SmoothingWindow:  cfg.Vision.SmoothingWindow,
		GestureThreshold: cfg.Gesture.Threshold,
		GestureTimeframe: cfg.Gesture.Timeframe,
		PutTimeout:       cfg.Display.PutTimeout,
		GetTimeout:       cfg.Display.GetTimeout,
		Metrics:          m,
	})
	if err != nil {
		slog.Error("failed to create worker pool", "error", err)
		return 1
	}

	// HTTP
	if cfg.Server.Enabled {
		feed := server.NewAlertFeed()
		dispatcher.Subscribe(feed.Publish)

		srv := server.New(server.Config{
			Store:   st,
			Feed:    feed,
			Streams: streams,
			Metrics: m,
			Regions: pool.Regions(),
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				slog.Error("http server failed", "error", err)
				cancel()
			}
		}()
	}

	// Tray
	if cfg.Tray.Enabled {
		t := tray.New()
		t.OnToggle(func(enabled bool) {
			slog.Info("monitoring toggled", "enabled", enabled)
			pool.SetEnabled(enabled)
		})
		t.OnQuit(cancel)
		t.OnDashboard(func() {
			slog.Info("dashboard", "url", dashboardURL(cfg.Server.Addr))
		})
		dispatcher.Subscribe(t.SetLastAlert)
		go t.Run()
		defer t.Stop()
	}

	// The display consumer runs here, on the main goroutine.
	pool.Run(ctx)

	slog.Info("abhayam stopped")
	return 0
}

// newSource opens the configured capture backend.
func newSource(cfg config.CaptureConfig) (capture.Source, error) {
	switch cfg.Backend {
	case "video":
		v := capture.NewVideoSource(cfg.Device)
		if err := v.Open(); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return capture.NewScreenSource()
	}
}

// newSurface creates the display surface and, for mjpeg, the handler that
// serves its streams.
func newSurface(kind string) (display.Surface, http.Handler) {
	switch kind {
	case "mjpeg":
		s := display.NewMJPEGSurface()
		return s, s.Handler(server.StreamPrefix)
	case "none":
		return display.NullSurface{}, nil
	default:
		return display.NewWindowSurface(), nil
	}
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s/api/alerts", addr)
}
