package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// MockBackend is a mock storage backend for failure injection
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) Read(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockBackend) Write(ctx context.Context, key string, data []byte, overwrite bool) error {
	args := m.Called(ctx, key, data, overwrite)
	return args.Error(0)
}

// countingBackend records writes and can hold Exists until released
type countingBackend struct {
	*storage.Memory
	gate chan struct{}

	mu     sync.Mutex
	writes int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{Memory: storage.NewMemory()}
}

func (c *countingBackend) Exists(ctx context.Context, key string) (bool, error) {
	if c.gate != nil {
		<-c.gate
	}
	return c.Memory.Exists(ctx, key)
}

func (c *countingBackend) Write(ctx context.Context, key string, data []byte, overwrite bool) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Memory.Write(ctx, key, data, overwrite)
}

func (c *countingBackend) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *countingBackend) stored(t *testing.T) types.SessionSnapshot {
	t.Helper()
	data, err := c.Memory.Read(context.Background(), DefaultOptions().Key)
	require.NoError(t, err)
	snapshot, err := Decode(data)
	require.NoError(t, err)
	return snapshot
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Debounce = time.Hour
	opts.Defaults.WallpaperImage = "/wallpapers/default.jpg"
	return opts
}

func loaded(t *testing.T, backend storage.Backend, opts Options) *Store {
	t.Helper()
	store := NewStore(backend, opts, zap.NewNop())
	store.Load(context.Background())
	select {
	case <-store.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not load")
	}
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestLoadMissingSnapshotUsesDefaults(t *testing.T) {
	store := loaded(t, newCountingBackend(), testOptions())

	assert.Equal(t, types.SessionLoaded, store.Status())
	snapshot := store.Snapshot()
	assert.Equal(t, "WestOS", snapshot.ThemeName)
	assert.Equal(t, "/wallpapers/default.jpg", snapshot.WallpaperImage)
	assert.Equal(t, types.FitFill, snapshot.WallpaperFit)
	assert.Empty(t, snapshot.OpenedProcesses)
	assert.NotNil(t, snapshot.WindowStates)
}

func TestLoadRestoresSnapshot(t *testing.T) {
	backend := newCountingBackend()
	data, err := Encode(sampleSnapshot(), true)
	require.NoError(t, err)
	require.NoError(t, backend.Memory.Write(context.Background(), DefaultOptions().Key, data, true))

	store := loaded(t, backend, testOptions())
	snapshot := store.Snapshot()

	assert.Equal(t, "Dark", snapshot.ThemeName)
	assert.Equal(t, types.FitTile, snapshot.WallpaperFit)
	assert.Equal(t, []string{"Browser", "Docs"}, snapshot.StackOrder)
	assert.Len(t, snapshot.OpenedProcesses, 2)

	ws, ok := store.WindowState("Browser")
	require.True(t, ok)
	assert.Equal(t, 640, ws.Size.Width)
}

func TestLoadFillsMissingFieldsIndividually(t *testing.T) {
	backend := newCountingBackend()
	require.NoError(t, backend.Memory.Write(context.Background(), DefaultOptions().Key, []byte(`{"themeName":"Light","wallpaperFit":"bogus"}`), true))

	snapshot := loaded(t, backend, testOptions()).Snapshot()
	assert.Equal(t, "Light", snapshot.ThemeName)
	assert.Equal(t, "/wallpapers/default.jpg", snapshot.WallpaperImage)
	assert.Equal(t, types.FitFill, snapshot.WallpaperFit)
	assert.NotNil(t, snapshot.OpenedProcesses)
}

func TestLoadMalformedSnapshotUsesDefaults(t *testing.T) {
	backend := newCountingBackend()
	require.NoError(t, backend.Memory.Write(context.Background(), DefaultOptions().Key, []byte("garbage"), true))

	store := loaded(t, backend, testOptions())
	assert.Equal(t, types.SessionLoaded, store.Status())
	assert.Equal(t, "WestOS", store.Snapshot().ThemeName)
}

func TestLoadBackendFailureUsesDefaults(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Exists", mock.Anything, "/session.json").Return(true, nil)
	backend.On("Read", mock.Anything, "/session.json").Return(nil, errors.New("disk on fire"))

	store := loaded(t, backend, testOptions())
	assert.Equal(t, "WestOS", store.Snapshot().ThemeName)
	backend.AssertExpectations(t)
}

func TestLoadIsIdempotent(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Exists", mock.Anything, "/session.json").Return(false, nil).Once()

	store := loaded(t, backend, testOptions())
	store.Load(context.Background())
	store.Load(context.Background())

	backend.AssertNumberOfCalls(t, "Exists", 1)
}

func TestMutationsWhileLoadingAreReplayed(t *testing.T) {
	backend := newCountingBackend()
	backend.gate = make(chan struct{})
	data, err := Encode(sampleSnapshot(), false)
	require.NoError(t, err)
	require.NoError(t, backend.Memory.Write(context.Background(), DefaultOptions().Key, data, true))

	store := NewStore(backend, testOptions(), zap.NewNop())
	defer store.Close(context.Background())
	store.Load(context.Background())
	assert.Equal(t, types.SessionLoading, store.Status())

	store.SetTheme("Solarized")
	store.UpsertOpened("Ledger", types.OpenedProcess{ApplicationType: "Ledger"})
	store.SetWindowState("Browser", types.WindowState{Position: &types.Position{X: 5, Y: 6}})

	// Visible before hydration
	assert.Equal(t, "Solarized", store.Snapshot().ThemeName)
	require.NoError(t, store.Flush(context.Background()))
	assert.Equal(t, 0, backend.Writes())

	close(backend.gate)
	<-store.Ready()

	snapshot := store.Snapshot()
	assert.Equal(t, "Solarized", snapshot.ThemeName)
	assert.Equal(t, types.FitTile, snapshot.WallpaperFit)
	assert.Contains(t, snapshot.OpenedProcesses, "Ledger")
	assert.Contains(t, snapshot.OpenedProcesses, "Browser")

	ws := snapshot.WindowStates["Browser"]
	assert.Equal(t, types.Position{X: 5, Y: 6}, *ws.Position)
	assert.Equal(t, types.Size{Width: 640, Height: 480}, *ws.Size)
}

func TestFlushWritesLatestState(t *testing.T) {
	backend := newCountingBackend()
	store := loaded(t, backend, testOptions())

	store.SetTheme("One")
	store.SetTheme("Two")
	store.SetWallpaper("/wallpapers/sea.jpg", "")
	store.SetStackOrder([]string{"Docs"})
	require.NoError(t, store.Flush(context.Background()))

	assert.Equal(t, 1, backend.Writes())
	stored := backend.stored(t)
	assert.Equal(t, "Two", stored.ThemeName)
	assert.Equal(t, "/wallpapers/sea.jpg", stored.WallpaperImage)
	assert.Equal(t, types.FitFill, stored.WallpaperFit)
	assert.Equal(t, []string{"Docs"}, stored.StackOrder)
}

func TestDebouncedWritesCoalesce(t *testing.T) {
	backend := newCountingBackend()
	opts := testOptions()
	opts.Debounce = 50 * time.Millisecond
	store := loaded(t, backend, opts)

	for i := 0; i < 20; i++ {
		store.SetStackOrder([]string{"Browser"})
	}
	store.SetTheme("Final")

	require.Eventually(t, func() bool { return backend.Writes() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, backend.Writes())
	assert.Equal(t, "Final", backend.stored(t).ThemeName)
}

func TestZeroDebounceWritesImmediately(t *testing.T) {
	backend := newCountingBackend()
	opts := testOptions()
	opts.Debounce = 0
	store := loaded(t, backend, opts)

	store.SetTheme("Now")
	require.Eventually(t, func() bool { return backend.Writes() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCompressedWrites(t *testing.T) {
	backend := newCountingBackend()
	opts := testOptions()
	opts.Compress = true
	store := loaded(t, backend, opts)

	store.SetTheme("Packed")
	require.NoError(t, store.Flush(context.Background()))

	raw, err := backend.Memory.Read(context.Background(), opts.Key)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, raw[:4])
	assert.Equal(t, "Packed", backend.stored(t).ThemeName)
}

func TestCloseWritesPendingState(t *testing.T) {
	backend := newCountingBackend()
	store := NewStore(backend, testOptions(), zap.NewNop())
	store.Load(context.Background())
	<-store.Ready()

	store.DeleteOpened("missing")
	store.UpsertOpened("Docs", types.OpenedProcess{ApplicationType: "Docs", Arguments: types.Arguments{"path": "/a.md"}})
	store.SetOpenedArgument("Docs", "path", "/b.md")
	store.SetOpenedArgument("Ghost", "path", "/c.md")
	require.NoError(t, store.Close(context.Background()))

	assert.Equal(t, 1, backend.Writes())
	stored := backend.stored(t)
	require.Contains(t, stored.OpenedProcesses, "Docs")
	assert.Equal(t, "/b.md", stored.OpenedProcesses["Docs"].Arguments["path"])
	assert.NotContains(t, stored.OpenedProcesses, "Ghost")

	assert.ErrorIs(t, store.Flush(context.Background()), ErrClosed)
	assert.NoError(t, store.Close(context.Background()))
}

func TestCloseWithoutChangesSkipsWrite(t *testing.T) {
	backend := newCountingBackend()
	store := NewStore(backend, testOptions(), zap.NewNop())
	store.Load(context.Background())
	<-store.Ready()

	require.NoError(t, store.Close(context.Background()))
	assert.Equal(t, 0, backend.Writes())
}

func TestFailedWriteIsCarriedForward(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Exists", mock.Anything, "/session.json").Return(false, nil)
	backend.On("Write", mock.Anything, "/session.json", mock.Anything, true).Return(errors.New("offline")).Once()
	backend.On("Write", mock.Anything, "/session.json", mock.Anything, true).Return(nil)

	store := loaded(t, backend, testOptions())

	store.SetTheme("Retry")
	assert.Error(t, store.Flush(context.Background()))

	store.SetWallpaper("/wallpapers/night.jpg", types.FitCenter)
	require.NoError(t, store.Flush(context.Background()))

	last := backend.Calls[len(backend.Calls)-1]
	snapshot, err := Decode(last.Arguments.Get(2).([]byte))
	require.NoError(t, err)
	assert.Equal(t, "Retry", snapshot.ThemeName)
	assert.Equal(t, types.FitCenter, snapshot.WallpaperFit)
}

func TestSnapshotIsACopy(t *testing.T) {
	store := loaded(t, newCountingBackend(), testOptions())
	store.SetStackOrder([]string{"A", "B"})

	snapshot := store.Snapshot()
	snapshot.StackOrder[0] = "Z"
	snapshot.OpenedProcesses["X"] = types.OpenedProcess{}

	again := store.Snapshot()
	assert.Equal(t, []string{"A", "B"}, again.StackOrder)
	assert.NotContains(t, again.OpenedProcesses, "X")
}

func TestMutationsRightAfterReadyDoNotRaceLoad(t *testing.T) {
	backend := newCountingBackend()
	data, err := Encode(sampleSnapshot(), false)
	require.NoError(t, err)
	require.NoError(t, backend.Memory.Write(context.Background(), DefaultOptions().Key, data, true))

	store := NewStore(backend, testOptions(), zap.NewNop())
	t.Cleanup(func() { store.Close(context.Background()) })
	store.Load(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-store.Ready()
		for i := 0; i < 100; i++ {
			store.UpsertOpened("Editor__"+string(rune('a'+i%26)), types.OpenedProcess{ApplicationType: "Editor"})
		}
	}()
	wg.Wait()

	assert.Len(t, store.OpenedProcesses(), 2+26)
}
