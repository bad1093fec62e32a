package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runWatcher starts w and returns a channel of callback batches and a stop
// function that waits for Run to return.
func runWatcher(t *testing.T, w *Watcher, fail bool) (<-chan []string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			batches <- changed
			if fail {
				return errors.New("generation failed")
			}
			return nil
		})
	}()
	return batches, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func TestWatchReportsChangedInputs(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.h", "int a;\n")
	b := writeTestFile(t, dir, "b.h", "int b;\n")
	other := filepath.Join(dir, "notes.txt")

	w, err := New([]string{a, b}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	batches, stop := runWatcher(t, w, false)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("int a2;\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("int b2;\n"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("int a3;\n"), 0o644))

	got := map[string]bool{}
	for len(got) < 2 {
		for _, f := range waitBatch(t, batches) {
			got[f] = true
		}
	}
	assert.Equal(t, map[string]bool{a: true, b: true}, got)
	stop()
}

func TestWatchContinuesAfterCallbackError(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.py", "x = 1\n")
	w, err := New([]string{a}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	batches, stop := runWatcher(t, w, true)

	require.NoError(t, os.WriteFile(a, []byte("x = 2\n"), 0o644))
	assert.Equal(t, []string{a}, waitBatch(t, batches))

	// let the first burst drain before the second write
	time.Sleep(100 * time.Millisecond)
	for len(batches) > 0 {
		<-batches
	}
	require.NoError(t, os.WriteFile(a, []byte("x = 3\n"), 0o644))
	assert.Equal(t, []string{a}, waitBatch(t, batches))
	stop()
}

func TestWatchStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := writeTestFile(t, t.TempDir(), "a.h", "")
	w, err := New([]string{a})
	require.NoError(t, err)
	_, stop := runWatcher(t, w, false)
	stop()
}

func TestNewMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := New([]string{filepath.Join(t.TempDir(), "missing", "a.h")})
	assert.Error(t, err)
}
