//go:build windows

package hotkey

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.design/x/hotkey"
)

// Listener holds one registered system-wide hotkey. Registration claims
// the key exclusively, so it fails when another program owns it already.
type Listener struct {
	hk     *hotkey.Hotkey
	events chan struct{}
	log    *zap.SugaredLogger
}

// Listen registers the named key with no modifiers.
func Listen(name string, log *zap.SugaredLogger) (*Listener, error) {
	vk, err := ParseKeyName(name)
	if err != nil {
		return nil, err
	}
	hk := hotkey.New(nil, hotkey.Key(vk))
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("registering hotkey %q: %w", name, err)
	}
	return &Listener{
		hk:     hk,
		events: make(chan struct{}, 1),
		log:    log,
	}, nil
}

// Events delivers one value per accepted key press.
func (l *Listener) Events() <-chan struct{} { return l.events }

// Run forwards keydown events until ctx is cancelled, then unregisters
// the key. Presses arriving while a previous one is still queued are
// dropped, which keeps a held key from piling up conversions.
func (l *Listener) Run(ctx context.Context) {
	defer l.hk.Unregister()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.hk.Keydown():
			select {
			case l.events <- struct{}{}:
			default:
				l.log.Debugw("hotkey press dropped, previous one still pending")
			}
		}
	}
}
