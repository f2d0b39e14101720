// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// isIgnoredByDefaults reports whether rel matches any of the default ignore
// patterns. Test-only helper that avoids needing a full Watcher instance.
func isIgnoredByDefaults(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range defaultIgnores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// quietLogger returns a logger that discards all output.
func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// writePackRoot lays out a minimal pack directory for watching.
func writePackRoot(t *testing.T, dir string) string {
	t.Helper()
	root := filepath.Join(dir, "demo.bpack")
	if err := os.MkdirAll(filepath.Join(root, "data", "core"), 0o755); err != nil {
		t.Fatal(err)
	}
	metadata := "id: \"demo\"\nformat: \"1.0\"\n"
	if err := os.WriteFile(filepath.Join(root, "pack.cue"), []byte(metadata), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestWatcherRequiresRoot(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Logger: quietLogger()}); err == nil {
		t.Error("expected error for empty roots")
	}
}

func TestWatcherRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	root := writePackRoot(t, t.TempDir())
	if _, err := New(Config{
		Roots:    []string{root},
		Patterns: []string{"[bad"},
		Logger:   quietLogger(),
	}); err == nil {
		t.Error("expected error for invalid pattern")
	}

	if _, err := New(Config{
		Roots:  []string{root},
		Ignore: []string{"[bad"},
		Logger: quietLogger(),
	}); err == nil {
		t.Error("expected error for invalid ignore pattern")
	}
}

// TestWatcherDebounce verifies that multiple rapid filesystem events are
// coalesced into a single callback invocation containing all changed paths.
func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	root := writePackRoot(t, t.TempDir())

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)

	done := make(chan struct{})

	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 100 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Write three resources in rapid succession — well within the debounce
	// window.
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(root, "data", "core", name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		// Small pause so events arrive as separate fsnotify events rather
		// than being batched by the OS. Still well within the debounce
		// window.
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for the debounced callback to fire.
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}

	// Allow a brief settle for any additional spurious callbacks.
	time.Sleep(200 * time.Millisecond)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}

	slices.Sort(collected)
	for _, want := range []string{
		filepath.Join("data", "core", "a.txt"),
		filepath.Join("data", "core", "b.txt"),
		filepath.Join("data", "core", "c.txt"),
	} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
}

// TestWatcherDefaultPatterns confirms that files outside pack.cue and data/
// do not trigger the OnChange callback.
func TestWatcherDefaultPatterns(t *testing.T) {
	t.Parallel()

	root := writePackRoot(t, t.TempDir())

	callbackFired := make(chan []string, 10)

	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			callbackFired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// A loose file at the pack root is not a resource — should NOT trigger.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write notes.txt: %v", err)
	}

	// Wait long enough for a debounce cycle to complete.
	time.Sleep(200 * time.Millisecond)

	// A resource under data/ SHOULD trigger.
	if err := os.WriteFile(filepath.Join(root, "data", "core", "motd.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write motd.txt: %v", err)
	}

	select {
	case changed := <-callbackFired:
		if slices.Contains(changed, "notes.txt") {
			t.Error("non-resource file notes.txt appeared in changed set")
		}
		if !slices.Contains(changed, filepath.Join("data", "core", "motd.txt")) {
			t.Errorf("expected data/core/motd.txt in changed set, got %v", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback on resource file")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

// TestWatcherMultipleRoots verifies that changes in any watched pack root are
// reported relative to their owning root.
func TestWatcherMultipleRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rootA := writePackRoot(t, filepath.Join(dir, "a"))
	rootB := writePackRoot(t, filepath.Join(dir, "b"))

	callbackFired := make(chan []string, 10)

	w, err := New(Config{
		Roots:    []string{rootA, rootB},
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			callbackFired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(rootA, "data", "core", "one.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(rootB, "data", "core", "two.txt"), []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}

	var collected []string
	deadline := time.After(5 * time.Second)
	for len(collected) < 2 {
		select {
		case changed := <-callbackFired:
			collected = append(collected, changed...)
		case <-deadline:
			t.Fatalf("timed out waiting for callbacks, got %v", collected)
		}
	}

	slices.Sort(collected)
	for _, want := range []string{
		filepath.Join("data", "core", "one.txt"),
		filepath.Join("data", "core", "two.txt"),
	} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

// TestWatcherContextCancel verifies that Run returns cleanly when its context
// is cancelled and does not leak goroutines or file descriptors.
func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	root := writePackRoot(t, t.TempDir())

	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the event loop time to start.
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() returned error on cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	root := writePackRoot(t, t.TempDir())

	w, err := New(Config{Roots: []string{root}, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); err == nil {
		t.Error("expected error from second Run call")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

// TestDefaultIgnores ensures that the built-in default ignore patterns cover
// the expected high-noise paths (.git, editor swap files, temp files, etc.).
func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{".git/objects/ab/cd1234", true},
		{"data/core/motd.txt.swp", true},
		{"data/core/motd.txt.swo", true},
		{"data/core/backup~", true},
		{"data/core/upload.tmp", true},
		{".DS_Store", true},
		{"data/.DS_Store", true},
		// These should NOT be ignored.
		{"pack.cue", false},
		{"data/core/motd.txt", false},
		{"data/core/config/server.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got := isIgnoredByDefaults(tt.path)
			if got != tt.ignored {
				t.Errorf("isIgnoredByDefaults(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestDefaultPatternsCopy(t *testing.T) {
	t.Parallel()

	pats := DefaultPatterns()
	if !slices.Contains(pats, "data/**") || !slices.Contains(pats, "pack.cue") {
		t.Errorf("DefaultPatterns() = %v, want pack.cue and data/**", pats)
	}

	pats[0] = "mutated"
	if DefaultPatterns()[0] == "mutated" {
		t.Error("DefaultPatterns() must return a copy")
	}

	igns := DefaultIgnores()
	igns[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() must return a copy")
	}
}
