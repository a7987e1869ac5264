package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/engine"
)

// converterFactory builds the conversion engine for a configuration.
// It returns nil when conversion is disabled.
type converterFactory func(cfg *config.Config) (engine.Converter, error)

// configReloader re-reads the config file and applies what can change in
// a running process: the color table, the unknown-layout policy and the
// conversion settings. The overlay windows and the hotkey registration
// are fixed at startup, so geometry and hotkey edits only log a restart
// notice. A file that fails to load leaves the previous configuration in
// force.
type configReloader struct {
	path      string
	log       *zap.SugaredLogger
	engine    *engine.Engine
	buildConv converterFactory
	hasHotkey bool
	last      *config.Config
}

func newConfigReloader(path string, log *zap.SugaredLogger, eng *engine.Engine, buildConv converterFactory, hasHotkey bool, cfg *config.Config) *configReloader {
	return &configReloader{
		path:      path,
		log:       log,
		engine:    eng,
		buildConv: buildConv,
		hasHotkey: hasHotkey,
		last:      cfg,
	}
}

func (r *configReloader) Reload(reason string) error {
	r.log.Infof("%s, reloading config", reason)
	next, err := config.Load(r.path)
	if err != nil {
		return err
	}
	changes := config.Diff(r.last, next)
	if !changes.Any() {
		r.log.Debugf("config unchanged")
		return nil
	}
	if changes.Geometry {
		r.log.Warnf("poll interval or border layout changed, restart to apply")
	}
	if next.Conversion.Hotkey != r.last.Conversion.Hotkey {
		r.log.Warnf("conversion hotkey changed to %q, restart to apply", next.Conversion.Hotkey)
	}
	if changes.Colors || changes.Conversion {
		reload := &engine.Reload{
			Table:       next.Colors.Table(),
			HideUnknown: next.Border.HideUnknown,
		}
		if changes.Conversion {
			if next.Conversion.Enabled && !r.hasHotkey {
				r.log.Warnf("conversion needs a hotkey registered at startup, restart to apply")
			}
			conv, err := r.buildConv(next)
			if err != nil {
				return err
			}
			reload.SwapConverter = true
			reload.Converter = conv
		}
		r.engine.Enqueue(engine.Command{Kind: engine.ApplyReload, Reload: reload})
	}
	r.last = next
	return nil
}

func requestReload(requests chan<- string, reason string) {
	select {
	case requests <- reason:
	default:
	}
}

// watchConfig forwards debounced change events for the config file into
// reloadRequests. Editors replace files with rename+create, so the
// watcher runs on the directory and events are filtered by name.
func watchConfig(log *zap.SugaredLogger, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			requestReload(reloadRequests, "config file updated")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}
