package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
)

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	exists, err := backend.Exists(ctx, "/session.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = backend.Read(ctx, "/session.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Write(ctx, "/session.json", []byte("one"), true))
	exists, err = backend.Exists(ctx, "/session.json")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, backend.Write(ctx, "/session.json", []byte("two"), false), ErrExists)

	require.NoError(t, backend.Write(ctx, "/session.json", []byte("three"), true))
	data, err := backend.Read(ctx, "/session.json")
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))
}

func TestMemory(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestFile(t *testing.T) {
	backend, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseBackend(t, backend)
}

func TestFileRejectsEscapingKeys(t *testing.T) {
	root := t.TempDir()
	backend, err := NewFile(root)
	require.NoError(t, err)

	path, err := backend.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, root))

	_, err = backend.path("/")
	assert.Error(t, err)
}

// blobServer is a minimal remote file system for the HTTP backend
func blobServer(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu    sync.Mutex
		blobs = map[string][]byte{}
	)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/blobs/")
		mu.Lock()
		defer mu.Unlock()

		data, ok := blobs[key]
		switch r.Method {
		case http.MethodHead:
			if !ok {
				w.WriteHeader(http.StatusNotFound)
			}
		case http.MethodGet:
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(data)
		case http.MethodPut:
			if ok && r.URL.Query().Get("overwrite") != "true" {
				w.WriteHeader(http.StatusConflict)
				return
			}
			body, _ := io.ReadAll(r.Body)
			blobs[key] = body
			w.WriteHeader(http.StatusNoContent)
		}
	}))
}

func TestHTTP(t *testing.T) {
	server := blobServer(t)
	defer server.Close()

	exerciseBackend(t, NewHTTP(server.URL, 5*time.Second))
}

func TestHTTPWriteHeaders(t *testing.T) {
	var (
		mu    sync.Mutex
		keys  []string
		trace string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		trace = r.Header.Get(tracing.TraceHeader)
		if len(keys) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tracer := tracing.New("test", nil)
	defer tracer.Close()
	span, ctx := tracer.StartSpan(context.Background(), "write")

	require.NoError(t, NewHTTP(server.URL, 5*time.Second).Write(ctx, "/session.json", []byte("{}"), true))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 2)
	_, err := uuid.Parse(keys[0])
	require.NoError(t, err)
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, string(span.TraceID), trace)
}

type flakyBackend struct {
	Memory
	fail bool
}

func (f *flakyBackend) Write(ctx context.Context, key string, data []byte, overwrite bool) error {
	if f.fail {
		return errors.New("disk on fire")
	}
	return f.Memory.Write(ctx, key, data, overwrite)
}

func TestGuardedOpensAndRecovers(t *testing.T) {
	flaky := &flakyBackend{Memory: Memory{blobs: map[string][]byte{}}, fail: true}
	var states []string
	guard := NewGuarded(flaky, GuardSettings{
		MaxFailures:   2,
		Cooldown:      time.Minute,
		OnStateChange: func(state string) { states = append(states, state) },
	})
	now := time.Now()
	guard.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Error(t, guard.Write(ctx, "k", nil, true))
	assert.Equal(t, "closed", guard.State())
	assert.Error(t, guard.Write(ctx, "k", nil, true))
	assert.Equal(t, "open", guard.State())

	assert.ErrorIs(t, guard.Write(ctx, "k", nil, true), ErrCircuitOpen)

	// not-found answers do not count as failures
	_, err := guard.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, "half-open", guard.State())

	flaky.fail = false
	require.NoError(t, guard.Write(ctx, "k", []byte("v"), true))
	assert.Equal(t, "closed", guard.State())
	assert.Equal(t, []string{"open", "half-open", "closed"}, states)

	_, err = guard.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "closed", guard.State())
}

func TestOpen(t *testing.T) {
	backend, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, backend)

	backend, err = Open(Config{Backend: "file", Root: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Guarded{}, backend)

	_, err = Open(Config{Backend: "file"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: "s3"})
	assert.Error(t, err)
}
