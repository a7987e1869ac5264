//go:build windows

package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/layouts"
)

// Controller mirrors the active layout into the tray icon and tooltip and
// dispatches menu clicks. It satisfies the engine's status sink contract.
type Controller struct {
	log      *zap.SugaredLogger
	onToggle func()
	onReload func()
	onQuit   func()

	mu        sync.Mutex
	lastLabel string
	lastColor layouts.Color
	hasStatus bool
}

type Options struct {
	Logger   *zap.SugaredLogger
	OnToggle func()
	OnReload func()
	OnQuit   func()
}

func New(opts Options) *Controller {
	return &Controller{
		log:      opts.Logger,
		onToggle: opts.OnToggle,
		onReload: opts.OnReload,
		onQuit:   opts.OnQuit,
	}
}

// Ready builds the menu. systray requires it to run inside its own
// onReady callback.
func (c *Controller) Ready() {
	systray.SetTooltip("Layout: unknown")

	toggle := systray.AddMenuItem("Toggle Borders", "Show or hide the border frames")
	reload := systray.AddMenuItem("Reload Config", "Re-read the configuration file")
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Exit keyborder")

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				c.onToggle()
			case <-reload.ClickedCh:
				c.onReload()
			case <-quit.ClickedCh:
				c.onQuit()
				systray.Quit()
				return
			}
		}
	}()
}

// SetStatus updates the badge and tooltip. Repeated calls with the same
// entry are dropped so steady-state polling never re-renders the icon.
func (c *Controller) SetStatus(entry layouts.Entry, known bool) {
	c.mu.Lock()
	if c.hasStatus && c.lastLabel == entry.Label && c.lastColor == entry.Color {
		c.mu.Unlock()
		return
	}
	c.lastLabel = entry.Label
	c.lastColor = entry.Color
	c.hasStatus = true
	c.mu.Unlock()

	icon, err := Icon(entry.Color)
	if err != nil {
		c.log.Warnw("tray icon render failed", "error", err)
		return
	}
	systray.SetIcon(icon)
	systray.SetTooltip("Layout: " + entry.Label)
}
