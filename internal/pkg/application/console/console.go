package console

import (
	"context"
	"fmt"
	"sync"

	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

type Console interface {
	Tabs() []TabInfo
	Registry() *rs.Registry
	// Activate switches to a tab. Switching discards the state of the
	// previously active tab and loads the new one.
	Activate(ctx context.Context, name string) (*rs.Tab, error)
}

type TabInfo struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type consoleApp struct {
	registry    *rs.Registry
	loader      *rs.Loader
	coordinator *rs.Coordinator

	mu     sync.Mutex
	active string
	tab    *rs.Tab
}

func New(ctx context.Context, cfg *Config, store rs.RecordStore) (Console, error) {
	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	app := &consoleApp{
		registry:    registry,
		loader:      rs.NewLoader(store, registry),
		coordinator: rs.NewCoordinator(store),
		active:      Kurse,
	}

	return app, nil
}

func (app *consoleApp) Registry() *rs.Registry {
	return app.registry
}

func (app *consoleApp) Tabs() []TabInfo {
	app.mu.Lock()
	defer app.mu.Unlock()

	tabs := []TabInfo{}
	for _, name := range app.registry.Names() {
		et, _ := app.registry.Get(name)
		tabs = append(tabs, TabInfo{Name: name, Label: et.Label, Active: name == app.active})
	}

	return tabs
}

func (app *consoleApp) Activate(ctx context.Context, name string) (*rs.Tab, error) {
	app.mu.Lock()

	if app.tab != nil && app.active == name {
		tab := app.tab
		app.mu.Unlock()
		return tab, nil
	}

	et, ok := app.registry.Get(name)
	if !ok {
		app.mu.Unlock()
		return nil, fmt.Errorf("no tab named %q (%w)", name, rs.ErrUnknownEntity)
	}

	tab := rs.NewTab(et, app.loader, app.coordinator)
	app.active = name
	app.tab = tab

	app.mu.Unlock()

	logging.GetFromContext(ctx).Debug("tab activated", "tab", name)

	return tab, tab.Reload(ctx)
}
