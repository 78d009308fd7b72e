package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ManifestPattern selects manifest files below the apps directory
const ManifestPattern = "**/*.{yaml,yml,toml}"

// LoadDir reads every manifest under root and replaces the manifest-sourced
// entries with them. Invalid manifests are logged and skipped. A missing
// root is not an error.
func (d *Directory) LoadDir(ctx context.Context, root string) (int, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		d.logger.Warn("Apps directory not found", zap.String("root", root))
		d.replaceManifests(nil)
		return 0, nil
	}

	paths, err := manifestPaths(ctx, root)
	if err != nil {
		return 0, err
	}

	apps := make([]types.Application, 0, len(paths))
	seen := make(map[string]string, len(paths))
	var failed int
	for _, path := range paths {
		app, err := decodeManifest(path)
		if err == nil {
			err = validate(app)
		}
		if err == nil {
			if prev, dup := seen[app.Type]; dup {
				err = fmt.Errorf("type %q already declared by %s", app.Type, prev)
			}
		}
		if err != nil {
			d.logger.Warn("Skipping invalid manifest", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}
		seen[app.Type] = path
		apps = append(apps, normalize(app))
	}

	d.replaceManifests(apps)
	d.logger.Info("Loaded application manifests",
		zap.String("root", root),
		zap.Int("loaded", len(apps)),
		zap.Int("failed", failed),
	)
	return len(apps), nil
}

// manifestPaths walks root and returns matching files in lexical order
func manifestPaths(ctx context.Context, root string) ([]string, error) {
	var (
		mu    sync.Mutex
		paths []string
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}
		if !isManifest(root, p) {
			return nil
		}

		mu.Lock()
		paths = append(paths, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func isManifest(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	matched, _ := doublestar.Match(ManifestPattern, filepath.ToSlash(rel))
	return matched
}

func decodeManifest(path string) (types.Application, error) {
	var app types.Application

	data, err := os.ReadFile(path)
	if err != nil {
		return app, err
	}

	switch filepath.Ext(path) {
	case ".toml":
		err = toml.Unmarshal(data, &app)
	default:
		err = yaml.Unmarshal(data, &app)
	}
	if err != nil {
		return app, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return app, nil
}
