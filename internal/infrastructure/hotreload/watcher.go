// Package hotreload re-parses page templates from disk while they are being
// edited
package hotreload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc is invoked once per settled burst of template changes
type ReloadFunc func() error

// TemplateWatcher watches a template directory tree and calls a ReloadFunc
// after .html files change
type TemplateWatcher struct {
	watcher  *fsnotify.Watcher
	reload   ReloadFunc
	logger   *zap.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	once sync.Once
}

// NewTemplateWatcher creates a watcher over every directory below root
func NewTemplateWatcher(root string, reload ReloadFunc, logger *zap.Logger) (*TemplateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	tw := &TemplateWatcher{
		watcher:  watcher,
		reload:   reload,
		logger:   logger,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}

	if err := tw.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return tw, nil
}

// SetDebounce changes the settle delay; call before Start
func (tw *TemplateWatcher) SetDebounce(d time.Duration) {
	tw.debounce = d
}

func (tw *TemplateWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := tw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		tw.logger.Debug("Watching template directory", zap.String("path", path))
		return nil
	})
}

// Start runs the event loop until ctx is cancelled or Close is called
func (tw *TemplateWatcher) Start(ctx context.Context) {
	go tw.watchLoop(ctx)
	tw.logger.Info("Template watcher started")
}

// Close stops the watcher
func (tw *TemplateWatcher) Close() error {
	var err error
	tw.once.Do(func() {
		close(tw.done)
		err = tw.watcher.Close()

		tw.mu.Lock()
		if tw.timer != nil {
			tw.timer.Stop()
		}
		tw.mu.Unlock()
	})
	return err
}

func (tw *TemplateWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			tw.Close()
			return
		case <-tw.done:
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			tw.handleEvent(event)

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.logger.Warn("Template watcher error", zap.Error(err))
		}
	}
}

func (tw *TemplateWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := tw.addTree(event.Name); err != nil {
				tw.logger.Warn("Failed to watch new directory", zap.Error(err))
			}
			return
		}
	}

	if !ShouldHandle(event.Name) || event.Op == fsnotify.Chmod {
		return
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timer != nil {
		tw.timer.Stop()
	}
	tw.timer = time.AfterFunc(tw.debounce, func() {
		tw.logger.Info("Reloading templates", zap.String("trigger", event.Name))
		if err := tw.reload(); err != nil {
			// Keep serving the previous templates until the file is fixed.
			tw.logger.Error("Template reload failed", zap.Error(err))
		}
	})
}

// ShouldHandle reports whether path is a template file worth reloading for.
// Editor swap and backup files are ignored.
func ShouldHandle(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return filepath.Ext(base) == ".html"
}
