package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type req struct {
		Nodes []string `json:"nodes"`
	}
	h1, err := HashJSON(req{Nodes: []string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashJSON(req{Nodes: []string{"a", "b"}})
	h3, _ := HashJSON(req{Nodes: []string{"b", "a"}})
	if h1 != h2 {
		t.Error("equal values should hash equally")
	}
	if h1 == h3 {
		t.Error("node order should change the hash")
	}
	if h1 != Hash([]byte(`{"nodes":["a","b"]}`)) {
		t.Error("HashJSON should hash the JSON encoding")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON of a func should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// LayoutKey
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Engine: "dot"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Engine: "dot", RankDir: "LR"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey should be namespaced: %s", lk1)
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{Engine: "dot"}) {
		t.Error("LayoutKey should be deterministic")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", LOD: 0})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", LOD: 1})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer("server:")
	opts := LayoutKeyOpts{Engine: "dot"}

	if got, want := scoped.LayoutKey("abc", opts), "server:"+NewDefaultKeyer().LayoutKey("abc", opts); got != want {
		t.Errorf("LayoutKey = %s, want %s", got, want)
	}
	if artifact := scoped.ArtifactKey("abc", ArtifactKeyOpts{Format: "png"}); !strings.HasPrefix(artifact, "server:artifact:") {
		t.Errorf("ArtifactKey should be scoped: %s", artifact)
	}
	if scoped.LayoutKey("abc", opts) == NewScopedKeyer("cli:").LayoutKey("abc", opts) {
		t.Error("different scopes should not share keys")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k1")
	if err != nil || !hit || string(data) != "v1" {
		t.Errorf("Get(k1) = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "k2", []byte("v2"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k2"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries in the directory", len(entries))
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("s"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("f"), 0); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(c.Dir(), "zz", "broken.json")
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() = %d, want 2 (expired and corrupt)", n)
	}
	if data, hit, _ := c.Get(ctx, "forever"); !hit || string(data) != "f" {
		t.Error("Prune removed an entry without expiry")
	}
}

func TestFileCacheKeyCollision(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "a", []byte("a"), 0); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(c.path("a"))
	if err != nil {
		t.Fatal(err)
	}
	// Plant a's entry under b's path.
	if err := os.MkdirAll(filepath.Dir(c.path("b")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("b"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("entry stored for another key should miss")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"permanent error stops", 5, errPermanent, 1, true},
		{"retry then success", 1, Retryable(ErrNetwork), 2, false},
		{"attempts exhausted", 5, Retryable(ErrNetwork), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoffZeroAttempts(t *testing.T) {
	calls := 0
	_ = Backoff{}.Do(context.Background(), func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
