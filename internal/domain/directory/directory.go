package directory

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Directory is the catalog of application types the desktop can open
type Directory struct {
	mu       sync.RWMutex
	apps     map[string]types.Application
	manifest map[string]bool // types contributed by LoadDir
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a directory holding apps
func New(logger *zap.Logger, apps ...types.Application) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		apps:     make(map[string]types.Application, len(apps)),
		manifest: make(map[string]bool),
		logger:   logger.Named("directory"),
	}
	for _, app := range apps {
		d.apps[app.Type] = normalize(app)
	}
	return d
}

// Default creates a directory preloaded with the built-in applications
func Default(logger *zap.Logger) *Directory {
	return New(logger, Builtins()...)
}

// WithMetrics adds metrics tracking to the directory
func (d *Directory) WithMetrics(metrics *monitoring.Metrics) *Directory {
	d.metrics = metrics
	d.mu.RLock()
	metrics.SetDirectoryApps(len(d.apps))
	d.mu.RUnlock()
	return d
}

// Lookup returns the entry for appType
func (d *Directory) Lookup(appType string) (types.Application, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	app, ok := d.apps[appType]
	if !ok {
		return types.Application{}, false
	}
	app.MimeTypes = append([]string(nil), app.MimeTypes...)
	return app, true
}

// Register adds or replaces an entry
func (d *Directory) Register(app types.Application) error {
	if err := validate(app); err != nil {
		return err
	}
	d.mu.Lock()
	d.apps[app.Type] = normalize(app)
	delete(d.manifest, app.Type)
	count := len(d.apps)
	d.mu.Unlock()

	d.metrics.SetDirectoryApps(count)
	return nil
}

// List returns every entry ordered by type
func (d *Directory) List() []types.Application {
	d.mu.RLock()
	apps := make([]types.Application, 0, len(d.apps))
	for _, app := range d.apps {
		app.MimeTypes = append([]string(nil), app.MimeTypes...)
		apps = append(apps, app)
	}
	d.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool { return apps[i].Type < apps[j].Type })
	return apps
}

// replaceManifests swaps the manifest-sourced entries for apps. Entries
// registered in code are kept unless a manifest overrides them.
func (d *Directory) replaceManifests(apps []types.Application) {
	d.mu.Lock()
	for appType := range d.manifest {
		delete(d.apps, appType)
	}
	d.manifest = make(map[string]bool, len(apps))
	for _, app := range apps {
		d.apps[app.Type] = app
		d.manifest[app.Type] = true
	}
	count := len(d.apps)
	d.mu.Unlock()

	d.metrics.SetDirectoryApps(count)
}

func normalize(app types.Application) types.Application {
	if app.Title == "" {
		app.Title = app.Type
	}
	app.MimeTypes = append([]string(nil), app.MimeTypes...)
	return app
}
