package page

import (
	"fmt"
	"path/filepath"

	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Document when its file changes and reports each change.
type Watcher struct {
	doc      *Document
	onChange func()
	fw       *fsnotify.Watcher
	done     chan struct{}
}

// Watch starts watching doc's file. onChange runs after every reload
// attempt, also a failed one, since the old layout is stale either way.
func Watch(doc *Document, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory: editors often replace the file instead of writing it.
	if err := fw.Add(filepath.Dir(doc.Path())); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", doc.Path(), err)
	}

	w := &Watcher{
		doc:      doc,
		onChange: onChange,
		fw:       fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	log := logger.WithComponent("page-watcher")
	target := filepath.Clean(w.doc.Path())

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.doc.Reload(); err != nil {
				log.Warn().Err(err).Str("path", target).Msg("Failed to reload page")
			} else {
				log.Debug().Str("path", target).Msg("Page reloaded")
			}
			if w.onChange != nil {
				w.onChange()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
