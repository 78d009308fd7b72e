package directory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay batches bursts of file events into one reload
const reloadDelay = 200 * time.Millisecond

// Watch reloads manifests whenever files under root change. It blocks
// until ctx is cancelled.
func (d *Directory) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, root); err != nil {
		return err
	}
	d.logger.Info("Watching application manifests", zap.String("root", root))

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name); err != nil {
						d.logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if !isManifest(root, event.Name) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if reload == nil {
				timer = time.NewTimer(reloadDelay)
				reload = timer.C
			}

		case <-reload:
			reload = nil
			if _, err := d.LoadDir(ctx, root); err != nil {
				d.logger.Warn("Manifest reload failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("Manifest watcher error", zap.Error(err))
		}
	}
}

// watchTree adds root and every directory below it, since fsnotify
// watches are not recursive.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	conf := fastwalk.Config{Follow: false}
	var dirs []string
	dirCh := make(chan string)
	done := make(chan struct{})
	go func() {
		for dir := range dirCh {
			dirs = append(dirs, dir)
		}
		close(done)
	}()

	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirCh <- p
		}
		return nil
	})
	close(dirCh)
	<-done
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}
