package clipboard

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// fakeDevice counts operations and can simulate contention per call site.
type fakeDevice struct {
	contents     Contents
	snapshotBusy int
	restoreBusy  int
	snapshots    int
	restores     int
	restored     *Contents
}

func (f *fakeDevice) ReadText() (string, bool, error) {
	return f.contents.Text, f.contents.HasText, nil
}

func (f *fakeDevice) WriteText(text string) error {
	f.contents = Contents{Text: text, HasText: true}
	return nil
}

func (f *fakeDevice) Snapshot() (*Contents, error) {
	f.snapshots++
	if f.snapshotBusy > 0 {
		f.snapshotBusy--
		return nil, ErrBusy
	}
	clone := f.contents
	return &clone, nil
}

func (f *fakeDevice) Restore(c *Contents) error {
	f.restores++
	if f.restoreBusy > 0 {
		f.restoreBusy--
		return ErrBusy
	}
	f.restored = c
	return nil
}

func (f *fakeDevice) Sequence() (uint32, error) { return 0, nil }

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestAcquireCapturesContents(t *testing.T) {
	dev := &fakeDevice{contents: Contents{Text: "before", HasText: true}}
	g, err := Acquire(context.Background(), dev, testLogger())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if g.Saved() == nil || g.Saved().Text != "before" {
		t.Fatalf("expected saved contents, got %+v", g.Saved())
	}
}

func TestAcquireRetriesContention(t *testing.T) {
	dev := &fakeDevice{snapshotBusy: 2}
	if _, err := Acquire(context.Background(), dev, testLogger()); err != nil {
		t.Fatalf("expected acquire to outlast transient contention, got %v", err)
	}
	if dev.snapshots != 3 {
		t.Fatalf("expected 3 snapshot attempts, got %d", dev.snapshots)
	}
}

func TestAcquireGivesUpOnPersistentContention(t *testing.T) {
	dev := &fakeDevice{snapshotBusy: 100}
	_, err := Acquire(context.Background(), dev, testLogger())
	if err == nil {
		t.Fatalf("expected acquire to fail under persistent contention")
	}
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy in chain, got %v", err)
	}
	if dev.snapshots != retryAttempts {
		t.Fatalf("expected %d bounded attempts, got %d", retryAttempts, dev.snapshots)
	}
}

func TestRestoreWritesOnce(t *testing.T) {
	dev := &fakeDevice{contents: Contents{Text: "before", HasText: true}}
	g, err := Acquire(context.Background(), dev, testLogger())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := dev.WriteText("scratch"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	g.Restore()
	g.Restore()
	if dev.restores != 1 {
		t.Fatalf("expected exactly one restore, got %d", dev.restores)
	}
	if dev.restored == nil || dev.restored.Text != "before" {
		t.Fatalf("expected original contents restored, got %+v", dev.restored)
	}
}

func TestRestoreRetriesContention(t *testing.T) {
	dev := &fakeDevice{contents: Contents{Text: "before", HasText: true}, restoreBusy: 1}
	g, err := Acquire(context.Background(), dev, testLogger())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	g.Restore()
	if dev.restored == nil {
		t.Fatalf("expected restore to retry past contention")
	}
	if dev.restores != 2 {
		t.Fatalf("expected 2 restore attempts, got %d", dev.restores)
	}
}

func TestWithRetryStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry on non-contention error, got %d calls", calls)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error { return ErrBusy })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
