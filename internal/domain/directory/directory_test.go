package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultDirectory(t *testing.T) {
	dir := Default(zap.NewNop())

	browser, ok := dir.Lookup("Browser")
	require.True(t, ok)
	assert.Equal(t, "Wild West Browser", browser.Title)
	assert.Equal(t, types.Size{Width: 800, Height: 600}, browser.DefaultSize)
	assert.False(t, browser.Singleton)

	settings, ok := dir.Lookup("Settings")
	require.True(t, ok)
	assert.True(t, settings.Singleton)

	_, ok = dir.Lookup("Solitaire")
	assert.False(t, ok)

	var names []string
	for _, app := range dir.List() {
		names = append(names, app.Type)
	}
	assert.Equal(t, []string{"AIChat", "Browser", "Docs", "Ledger", "Settings", "Telegraph"}, names)
}

func TestRegister(t *testing.T) {
	dir := New(zap.NewNop())

	require.NoError(t, dir.Register(types.Application{Type: "Paint"}))
	app, ok := dir.Lookup("Paint")
	require.True(t, ok)
	assert.Equal(t, "Paint", app.Title)

	tests := []struct {
		name string
		app  types.Application
	}{
		{"empty type", types.Application{}},
		{"separator in type", types.Application{Type: "Paint__2"}},
		{"space in type", types.Application{Type: "My App"}},
		{"path in type", types.Application{Type: "../Paint"}},
		{"negative size", types.Application{Type: "Paint", DefaultSize: types.Size{Width: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, dir.Register(tt.app))
		})
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	dir := Default(zap.NewNop())
	docs, _ := dir.Lookup("Docs")
	docs.MimeTypes[0] = "changed"

	again, _ := dir.Lookup("Docs")
	assert.Equal(t, "text/plain", again.MimeTypes[0])
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "paint.yaml"), `
type: Paint
title: Paint
icon: "🎨"
singleton: true
default_size:
  width: 700
  height: 500
mime_types: [image/png]
`)
	writeFile(t, filepath.Join(root, "games", "mines.toml"), `
type = "Minesweeper"
title = "Minesweeper"

[default_size]
width = 300
height = 340
`)
	writeFile(t, filepath.Join(root, "broken.yml"), "type: [unterminated")
	writeFile(t, filepath.Join(root, "untyped.yaml"), "title: Nothing")
	writeFile(t, filepath.Join(root, "spaced.yaml"), "type: My App\ntitle: My App")
	writeFile(t, filepath.Join(root, "README.md"), "# not a manifest")

	dir := Default(zap.NewNop())
	count, err := dir.LoadDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	paint, ok := dir.Lookup("Paint")
	require.True(t, ok)
	assert.True(t, paint.Singleton)
	assert.Equal(t, types.Size{Width: 700, Height: 500}, paint.DefaultSize)
	assert.Equal(t, []string{"image/png"}, paint.MimeTypes)

	mines, ok := dir.Lookup("Minesweeper")
	require.True(t, ok)
	assert.Equal(t, types.Size{Width: 300, Height: 340}, mines.DefaultSize)

	_, ok = dir.Lookup("Browser")
	assert.True(t, ok)

	_, ok = dir.Lookup("My App")
	assert.False(t, ok)
	for _, app := range dir.List() {
		assert.NotEqual(t, "My App", app.Type)
	}
}

func TestLoadDirReplacesPreviousManifests(t *testing.T) {
	root := t.TempDir()
	paint := filepath.Join(root, "paint.yaml")
	writeFile(t, paint, "type: Paint\n")

	dir := Default(zap.NewNop())
	_, err := dir.LoadDir(context.Background(), root)
	require.NoError(t, err)
	_, ok := dir.Lookup("Paint")
	require.True(t, ok)

	require.NoError(t, os.Remove(paint))
	_, err = dir.LoadDir(context.Background(), root)
	require.NoError(t, err)

	_, ok = dir.Lookup("Paint")
	assert.False(t, ok)
	_, ok = dir.Lookup("Docs")
	assert.True(t, ok)
}

func TestLoadDirMissingRoot(t *testing.T) {
	dir := Default(zap.NewNop())
	count, err := dir.LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, dir.List(), len(Builtins()))
}

func TestWatchReloadsManifests(t *testing.T) {
	root := t.TempDir()
	dir := Default(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dir.Watch(ctx, root) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "paint.yaml"), "type: Paint\ntitle: Paint\n")

	require.Eventually(t, func() bool {
		_, ok := dir.Lookup("Paint")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestAssociate(t *testing.T) {
	dir := Default(zap.NewNop())

	tests := []struct {
		name     string
		file     string
		head     []byte
		wantType string
		wantOK   bool
	}{
		{"html by extension", "index.html", nil, "Browser", true},
		{"markdown by extension", "notes.md", nil, "Docs", true},
		{"csv by extension", "budget.csv", nil, "Ledger", true},
		{"pdf by content", "report", []byte("%PDF-1.7\n"), "Docs", true},
		{"html by content", "page", []byte("<!DOCTYPE html><html><body>hi</body></html>"), "Browser", true},
		{"text by content", "letter", []byte("Dear sheriff, the stagecoach is late."), "Docs", true},
		{"unknown extension without content", "archive.tar", nil, "", false},
		{"unhandled image", "photo.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appType, ok := dir.Associate(tt.file, tt.head)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantType, appType)
		})
	}
}
