package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	pkgconfig "turn-notify/internal/pkg/config"
	"turn-notify/internal/usecase/notify"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the burst of events editors emit on save.
const DefaultReloadDelay = 250 * time.Millisecond

// Watcher reloads the notification file when it changes and swaps the
// routing rules in place. A file that fails to parse or validate is
// rejected and the previous rules stay active.
//
// Only the rules are hot-reloaded. Changes to bots, path or enable are
// logged and take effect on the next restart.
type Watcher struct {
	Path    string
	Rules   *notify.AtomicRules
	Metrics *pkgconfig.ConfigMetrics // may be nil
	Logger  *slog.Logger

	// Delay is the quiet period before a reload. Zero uses DefaultReloadDelay.
	Delay time.Duration

	mu      sync.Mutex
	current *Notification
	raw     []byte
}

// NewWatcher returns a Watcher whose baseline is the already loaded file.
func NewWatcher(path string, current *Notification, rules *notify.AtomicRules, metrics *pkgconfig.ConfigMetrics, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	raw, _ := os.ReadFile(path) // #nosec G304 -- operator supplied path
	return &Watcher{
		Path:    path,
		Rules:   rules,
		Metrics: metrics,
		Logger:  logger,
		current: current,
		raw:     raw,
	}
}

// Run watches the file's directory until ctx is done. Watching the
// directory rather than the file survives editors that replace the file
// by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.Path)
	file := filepath.Base(w.Path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.Logger.Info("notification config watcher started",
		slog.String("path", w.Path))

	delay := w.Delay
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events closed")
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, func() { w.Reload() })
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors closed")
			}
			w.Logger.Warn("notification config watch error", slog.Any("error", err))
		}
	}
}

// Reload reads the file and, when it parses and differs from the active
// one, stores its rules. It reports whether new rules were stored.
func (w *Watcher) Reload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := os.ReadFile(w.Path) // #nosec G304 -- operator supplied path
	if err != nil {
		// a rename-based save can briefly leave no file; the Create event
		// that follows triggers another reload
		w.Logger.Warn("notification config reload skipped",
			slog.String("path", w.Path),
			slog.Any("error", err))
		return false
	}
	if bytes.Equal(raw, w.raw) {
		return false
	}

	next, err := ParseNotification(raw)
	if err != nil {
		w.record("error")
		w.Logger.Error("notification config rejected, keeping previous rules",
			slog.String("path", w.Path),
			slog.Any("error", err))
		return false
	}

	if w.current != nil {
		if !reflect.DeepEqual(next.Bots, w.current.Bots) {
			w.Logger.Warn("bot changes require a restart", slog.String("path", w.Path))
		}
		if next.WebhookPath() != w.current.WebhookPath() || next.Enabled() != w.current.Enabled() {
			w.Logger.Warn("webhook route changes require a restart", slog.String("path", w.Path))
		}
	}

	w.Rules.Store(next.Rules)
	w.current = next
	w.raw = raw
	w.record("success")
	w.Logger.Info("notification rules reloaded",
		slog.String("path", w.Path),
		slog.Int("rules", len(next.Rules)))
	return true
}

func (w *Watcher) record(result string) {
	if w.Metrics != nil {
		w.Metrics.RecordReload(result)
	}
}
