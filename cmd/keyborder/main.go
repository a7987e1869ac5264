//go:build windows

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"
	"github.com/getlantern/systray"
	"github.com/hior/keyborder/internal/border"
	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/convert"
	"github.com/hior/keyborder/internal/engine"
	"github.com/hior/keyborder/internal/hotkey"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
	"github.com/hior/keyborder/internal/tray"
	"github.com/hior/keyborder/internal/winapi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults to the user config dir)")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("keyborder", version)
		return
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		exitErr(err)
	}
	defer logger.Sync()

	cfgFullPath, err := resolveConfigPath(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("resolve config path: %w", err))
	}
	cfg, err := loadConfig(cfgFullPath, logger)
	if err != nil {
		exitErr(fmt.Errorf("load config: %w", err))
	}
	logger.Infow("starting keyborder", "version", version, "config", cfgFullPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		exitErr(fmt.Errorf("watch config: %w", err))
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(cfgFullPath)); err != nil {
		exitErr(fmt.Errorf("watch config dir: %w", err))
	}
	if err := watcher.Add(cfgFullPath); err != nil {
		logger.Debugf("unable to watch config file directly: %v", err)
	}
	reloadRequests := make(chan string, 1)
	go watchConfig(logger, watcher, cfgFullPath, reloadRequests)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := metrics.NewCollector()

	overlay, err := winapi.NewOverlayHost(logger)
	if err != nil {
		exitErr(fmt.Errorf("create overlay windows: %w", err))
	}
	renderer := border.NewRenderer(overlay, logger)
	monitors, err := winapi.EnumMonitors()
	if err != nil {
		exitErr(fmt.Errorf("enumerate monitors: %w", err))
	}
	if err := renderer.Rebuild(monitors, cfg.Border.Thickness, cfg.Border.OuterOpacity, cfg.Border.InnerOpacity); err != nil {
		exitErr(err)
	}

	auto := winapi.NewAutomation()
	clip := winapi.NewClipboard()
	conv, err := buildConverter(cfg, auto, clip, logger, collector)
	if err != nil {
		exitErr(err)
	}

	var (
		listener *hotkey.Listener
		hotkeys  <-chan struct{}
	)
	if conv != nil {
		listener, err = hotkey.Listen(cfg.Conversion.Hotkey, logger)
		if err != nil {
			logger.Warnf("hotkey %q unavailable, conversion is off for this run: %v", cfg.Conversion.Hotkey, err)
			notifyHotkeyLost(logger, cfg.Conversion.Hotkey)
		} else {
			hotkeys = listener.Events()
		}
	}

	// The tray callbacks fire only after systray.Run starts, well after
	// eng is assigned below.
	var eng *engine.Engine
	trayCtl := tray.New(tray.Options{
		Logger:   logger,
		OnToggle: func() { eng.Enqueue(engine.Command{Kind: engine.ToggleBorders}) },
		OnReload: func() { requestReload(reloadRequests, "reload requested from tray") },
		OnQuit:   cancel,
	})
	eng = engine.New(engine.Options{
		Source:       winapi.NewSource(),
		Renderer:     renderer,
		Tray:         trayCtl,
		Converter:    conv,
		Hotkeys:      hotkeys,
		Table:        cfg.Colors.Table(),
		HideUnknown:  cfg.Border.HideUnknown,
		PollInterval: cfg.PollInterval(),
		Logger:       logger,
		Metrics:      collector,
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	reloader := newConfigReloader(cfgFullPath, logger, eng, func(c *config.Config) (engine.Converter, error) {
		return buildConverter(c, auto, clip, logger, collector)
	}, listener != nil, cfg)

	errs := make(chan error, 1)
	runErr := make(chan error, 1)
	onReady := func() {
		trayCtl.Ready()
		go func() { errs <- eng.Run(ctx) }()
		if listener != nil {
			go listener.Run(ctx)
		}
		go func() {
			for {
				select {
				case err := <-errs:
					runErr <- err
					systray.Quit()
					return
				case reason := <-reloadRequests:
					if err := reloader.Reload(reason); err != nil {
						logger.Errorf("reload failed: %v", err)
					}
				case sig := <-sigs:
					logger.Infof("received %s, shutting down", sig)
					cancel()
				}
			}
		}()
	}
	systray.Run(onReady, func() {})

	err = <-runErr
	renderer.Close()
	snap := collector.Snapshot()
	logger.Infow("keyborder stopped",
		"layoutChanges", snap.Layout.Changes,
		"pollErrors", snap.Layout.PollErrors,
		"fullscreenHides", snap.Layout.FullscreenHides,
		"sessions", snap.Totals.Sessions,
		"converted", snap.Totals.Converted,
	)
	for _, ev := range snap.Recent {
		logger.Debugw("session",
			"id", ev.Session,
			"outcome", ev.Outcome,
			"took", ev.Duration,
		)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("engine exited: %v", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func resolveConfigPath(flagValue string) (string, error) {
	path := flagValue
	if path == "" {
		p, err := xdg.ConfigFile("keyborder/config.yaml")
		if err != nil {
			return "", err
		}
		path = p
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// loadConfig treats a missing file as a request for the defaults, so a
// fresh install works without writing anything to disk.
func loadConfig(path string, log *zap.SugaredLogger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infow("no config file, using defaults", "path", path)
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func buildConverter(cfg *config.Config, auto *winapi.Automation, clip *winapi.Clipboard, log *zap.SugaredLogger, collector *metrics.Collector) (engine.Converter, error) {
	conv := cfg.Conversion
	if !conv.Enabled {
		return nil, nil
	}
	charmap, err := convert.NewCharmap(conv.Scripts.Primary.Chars, conv.Scripts.Secondary.Chars)
	if err != nil {
		return nil, fmt.Errorf("conversion charmap: %w", err)
	}
	settings := convert.Settings{
		Map:             charmap,
		PrimaryLayout:   layouts.ID(conv.Scripts.Primary.Layout),
		SecondaryLayout: layouts.ID(conv.Scripts.Secondary.Layout),
		ConsoleClasses:  conv.ConsoleClasses,
		TerminalClasses: conv.TerminalClasses,
		Settle:          conv.Timings.Settle(),
		CopyWait:        conv.Timings.CopyWait(),
		PasteWait:       conv.Timings.PasteWait(),
		Timeout:         conv.Timings.SessionTimeout(),
	}
	return convert.NewEngine(settings, auto, clip, log, collector), nil
}

func notifyHotkeyLost(log *zap.SugaredLogger, key string) {
	msg := fmt.Sprintf("The %s hotkey could not be registered, so text conversion is off for this run.", key)
	if err := beeep.Notify("Keyborder", msg, ""); err != nil {
		log.Debugf("desktop notification failed: %v", err)
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
