package crypt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileFactory is a Factory whose keyring lives in a file (one key per line,
// see ParseKeyring). The file is watched; when it changes the keyring is
// reloaded and the next NewCrypt call uses it.
//
// To rotate, prepend the new key and keep the old one below it until every
// outstanding URL has expired.
type FileFactory struct {
	path   string
	mode   Mode
	logger *zap.Logger

	ring    atomic.Pointer[Keyring]
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFileFactory loads path and starts watching it. A nil logger disables
// logging. Call Close to stop the watcher.
func NewFileFactory(path string, mode Mode, logger *zap.Logger) (*FileFactory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f := &FileFactory{
		path:   abs,
		mode:   mode,
		logger: logger.With(zap.String("key_file", abs)),
		done:   make(chan struct{}),
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("crypt: watch key file: %w", err)
	}
	// Watch the directory: editors and secret mounts replace the file by
	// rename, which drops a watch placed on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("crypt: watch key file: %w", err)
	}
	f.watcher = w

	f.wg.Add(1)
	go f.watch()
	return f, nil
}

// NewCrypt builds a Crypt over the current keyring.
func (f *FileFactory) NewCrypt() (Crypt, error) {
	ring := f.ring.Load()
	if ring == nil {
		return nil, ErrNoKeys
	}
	return New(f.mode, *ring)
}

// Reload reads the key file. On failure the previous keyring stays active.
func (f *FileFactory) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("crypt: read key file: %w", err)
	}
	ring := ParseKeyring(data)
	if len(ring) == 0 {
		return fmt.Errorf("crypt: %s: %w", f.path, ErrNoKeys)
	}
	f.ring.Store(&ring)
	f.logger.Info("keyring loaded", zap.Int("keys", len(ring)))
	return nil
}

// Close stops watching the key file.
func (f *FileFactory) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	return err
}

func (f *FileFactory) watch() {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				f.logger.Warn("keyring reload failed", zap.Error(err))
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("key file watcher error", zap.Error(err))
		}
	}
}
