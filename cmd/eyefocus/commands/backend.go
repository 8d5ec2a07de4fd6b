package commands

import (
	"fmt"
	"io"

	"github.com/bryanchriswhite/EyeFocus/internal/config"
	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/page"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/bryanchriswhite/EyeFocus/internal/window"
)

// elementBackend bundles the element source, the sink that acts on it, and
// its change notifier.
type elementBackend struct {
	name   string
	source registry.Source
	sink   focus.Sink
	// watch starts change notification and returns its stop function.
	watch func(onChange func()) (func(), error)
	close func()
}

// openBackend opens the backend selected in cfg. Page events are written
// to events.
func openBackend(cfg *config.Config, events io.Writer) (*elementBackend, error) {
	switch cfg.Backend {
	case config.BackendPage:
		if cfg.PagePath == "" {
			return nil, fmt.Errorf("page_path is required for the %q backend", config.BackendPage)
		}
		doc, err := page.Load(cfg.PagePath, cfg.MarkerClass)
		if err != nil {
			return nil, err
		}
		return &elementBackend{
			name:   config.BackendPage,
			source: doc,
			sink:   page.NewEventSink(events),
			watch: func(onChange func()) (func(), error) {
				w, err := page.Watch(doc, onChange)
				if err != nil {
					return nil, err
				}
				return func() { w.Close() }, nil
			},
			close: func() {},
		}, nil

	case config.BackendX11:
		x, err := window.NewX11Backend()
		if err != nil {
			return nil, err
		}
		mgr, err := window.NewManager(x, cfg.WatchPatterns)
		if err != nil {
			x.Close()
			return nil, err
		}
		return &elementBackend{
			name:   x.Name(),
			source: mgr,
			sink:   window.NewFocusSink(x),
			watch: func(onChange func()) (func(), error) {
				mgr.Start(window.DefaultPollInterval, onChange)
				return mgr.Stop, nil
			},
			close: func() { x.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}
