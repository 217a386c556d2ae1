package agent

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// PresetWatcher reloads agent presets from a YAML file when it
// changes on disk. Watching the parent directory rather than the file
// survives editors that replace the file on save.
type PresetWatcher struct {
	path     string
	registry *Registry

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchPresets starts watching path and applying preset changes to
// the registry. Call Close to stop.
func WatchPresets(path string, registry *Registry) (*PresetWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &PresetWatcher{
		path:     path,
		registry: registry,
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *PresetWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				log.Printf("[presets] reload of %s failed: %v", w.path, err)
			}
		case <-w.watcher.Errors:
			// Keep watching.
		}
	}
}

// reload reads the preset file and upserts every agent it defines.
// Agents absent from the file are left alone.
func (w *PresetWatcher) reload() error {
	agents, err := LoadPresets(w.path)
	if err != nil {
		return err
	}

	for _, a := range agents {
		existing, err := w.registry.Get(a.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := w.registry.Create(a); err != nil {
				return err
			}
			continue
		}
		// Preserve accumulated stats across reloads.
		a.TasksCompleted = existing.TasksCompleted
		a.Efficiency = existing.Efficiency
		a.Messages = existing.Messages
		if err := w.registry.Update(a); err != nil {
			return err
		}
	}

	log.Printf("[presets] reloaded %d agents from %s", len(agents), w.path)
	return nil
}

// Close stops the watcher.
func (w *PresetWatcher) Close() {
	close(w.done)
	w.watcher.Close()
}
