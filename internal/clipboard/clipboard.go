// Package clipboard guards clipboard use during a conversion session:
// the previous contents are captured up front and written back through a
// single restore path no matter how the session ends.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrBusy is returned by Device operations while another process holds
// the clipboard open.
var ErrBusy = errors.New("clipboard busy")

// Format is one captured clipboard format.
type Format struct {
	ID   uint32
	Data []byte
}

// Contents is a point-in-time capture of the clipboard. Formats holds
// every format whose payload could be copied byte for byte; Text is the
// decoded unicode text when present.
type Contents struct {
	Text    string
	HasText bool
	Formats []Format
}

// Device is the raw clipboard surface. Every operation is self-contained;
// implementations open and close the clipboard internally and surface
// contention as ErrBusy.
type Device interface {
	ReadText() (text string, ok bool, err error)
	WriteText(text string) error
	Snapshot() (*Contents, error)
	Restore(*Contents) error
	Sequence() (uint32, error)
}

const (
	retryAttempts = 5
	retryBase     = 20 * time.Millisecond
)

// WithRetry runs fn, retrying over clipboard contention with doubling
// backoff. Non-contention errors fail immediately.
func WithRetry(ctx context.Context, fn func() error) error {
	delay := retryBase
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, ErrBusy) {
			return err
		}
		if attempt == retryAttempts-1 {
			return fmt.Errorf("gave up after %d attempts: %w", retryAttempts, ErrBusy)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Guard holds the clipboard contents captured at acquire time.
type Guard struct {
	dev      Device
	log      *zap.SugaredLogger
	saved    *Contents
	restored bool
}

// Acquire captures the clipboard so a session can use it as scratch
// space. Contention is retried before giving up.
func Acquire(ctx context.Context, dev Device, log *zap.SugaredLogger) (*Guard, error) {
	var snap *Contents
	err := WithRetry(ctx, func() error {
		var err error
		snap, err = dev.Snapshot()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot clipboard: %w", err)
	}
	return &Guard{dev: dev, log: log, saved: snap}, nil
}

// Saved returns the captured contents.
func (g *Guard) Saved() *Contents { return g.saved }

// Restore writes the captured contents back. Only the first call writes;
// later calls are no-ops, so it can sit in a defer next to an explicit
// call on the success path.
func (g *Guard) Restore() {
	if g == nil || g.restored {
		return
	}
	g.restored = true
	err := WithRetry(context.Background(), func() error {
		return g.dev.Restore(g.saved)
	})
	if err != nil {
		g.log.Warnf("clipboard restore failed: %v", err)
	}
}
