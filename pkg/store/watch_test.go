package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/mdc/pkg/store"
)

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRule(t, dir, "first.mdc", "---\ndescription: first\n---\nA\n")

	l := store.NewLoader()

	w, err := store.NewWatcher(l, dir)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck // Ignore errors.

	events := make(chan store.Event, 16)
	w.Subscribe(events)

	go w.Watch(t.Context())

	// Give the watch loop a moment to start before triggering events.
	time.Sleep(100 * time.Millisecond)

	writeRule(t, dir, "second.mdc", "---\ndescription: second\n---\nB\n")

	st := awaitReload(t, events)
	assert.Equal(t, 2, st.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "first.mdc")))

	require.Eventually(t, func() bool {
		select {
		case evt := <-events:
			if reload, ok := evt.(store.EventReload); ok {
				return reload.Store.Len() == 1
			}
		default:
		}

		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	l := store.NewLoader()

	w, err := store.NewWatcher(l, dir)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck // Ignore errors.

	events := make(chan store.Event, 16)
	w.Subscribe(events)

	go w.Watch(t.Context())

	time.Sleep(100 * time.Millisecond)

	err = os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("x"), 0o600)
	require.NoError(t, err)

	select {
	case evt := <-events:
		t.Fatalf("unexpected event: %#v", evt)
	case <-time.After(500 * time.Millisecond):
	}
}

func awaitReload(t *testing.T, events <-chan store.Event) *store.Store {
	t.Helper()

	deadline := time.After(5 * time.Second)

	for {
		select {
		case evt := <-events:
			if reload, ok := evt.(store.EventReload); ok {
				return reload.Store
			}

		case <-deadline:
			t.Fatal("timed out waiting for reload event")
		}
	}
}
