package am

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/sym"
)

const defaultReloadDebounce = 500 * time.Millisecond

// ReloadCallback receives every config that loaded and validated.
type ReloadCallback func(*Config) error

// ConfigWatcher reloads the config cascade when the active file changes.
//
// The parent directory is watched rather than the file itself: editors
// that save by rename replace the inode, which silently ends a file watch.
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	load     func() (*Config, error)
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer
	current   *Config
	started   bool
	done      chan struct{}
}

// NewConfigWatcher prepares a watcher for configPath. The file must exist.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	path, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve config path %s", configPath)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "cannot watch config file %s", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}

	return &ConfigWatcher{
		path:     path,
		watcher:  w,
		debounce: defaultReloadDebounce,
		load: func() (*Config, error) {
			Reset()
			return Load()
		},
		logger: logger.WithSymbol(logger.Logger.Named("am.watch"), sym.AM),
		done:   make(chan struct{}),
	}, nil
}

// OnReload registers a callback. Callbacks run in registration order.
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Current returns the last config delivered to callbacks, or nil.
func (cw *ConfigWatcher) Current() *Config {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.current
}

// Start runs the event loop in the background until Stop.
func (cw *ConfigWatcher) Start() {
	cw.mu.Lock()
	cw.started = true
	cw.mu.Unlock()
	go cw.loop()
}

func (cw *ConfigWatcher) loop() {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				cw.logger.Debugw("Config file changed", logger.FieldFile, event.Name, "op", event.Op.String())
				cw.schedule()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

// schedule collapses a burst of events into one reload.
func (cw *ConfigWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		if err := cw.reload(); err != nil {
			cw.logger.Errorw("Config reload failed, keeping previous settings", logger.FieldError, err)
		}
	})
}

func (cw *ConfigWatcher) reload() error {
	cfg, err := cw.load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}

	cw.mu.Lock()
	cw.current = cfg
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	cw.logger.Infow("Config reloaded", logger.FieldFile, cw.path, "callbacks", len(callbacks))
	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			cw.logger.Warnw("Config reload callback failed", logger.FieldError, err)
		}
	}
	return nil
}

// Stop ends the event loop and cancels a pending reload.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	started := cw.started
	cw.mu.Unlock()

	err := cw.watcher.Close()
	if started {
		<-cw.done
	}
	return err
}
